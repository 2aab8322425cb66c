package services_test

import (
	"errors"
	"strings"
	"testing"

	"animarr/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternal, "anilist", "query", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"anilist", "query", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "scraper", "fetch", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsItemErrorClassification(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "settings", "resolve", "bad resolution", nil)
	if !services.IsItemError(validationErr) {
		t.Fatalf("expected validation error to be per-item, got %v", validationErr)
	}

	duplicateErr := services.Wrap(services.ErrDuplicate, "scraper", "filter", "seen", nil)
	if !services.IsItemError(duplicateErr) {
		t.Fatalf("expected duplicate error to be per-item, got %v", duplicateErr)
	}

	externalErr := services.Wrap(services.ErrExternal, "qbittorrent", "login", "unreachable", errors.New("dial"))
	if services.IsItemError(externalErr) {
		t.Fatalf("expected external error to be systemic, got %v", externalErr)
	}

	if services.IsItemError(nil) {
		t.Fatal("expected nil to be systemic")
	}
}
