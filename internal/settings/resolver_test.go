package settings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"animarr/internal/metadata"
	"animarr/internal/services"
	"animarr/internal/settings"
	"animarr/internal/store"
	"animarr/internal/testsupport"
)

type staticProvider struct {
	record *metadata.Record
}

func (p *staticProvider) Series(_ context.Context, id int64) (*metadata.Record, error) {
	if p.record == nil || p.record.ID != id {
		return nil, nil
	}
	return p.record, nil
}

func seedCatalogTitle(t *testing.T, st *store.Store) *store.Title {
	t.Helper()
	return testsupport.SeedTitle(t, st, &store.Title{
		ID:           101,
		TitleRomaji:  "Sousou no Frieren",
		TitleEnglish: "Frieren: Beyond Journey's End",
		Season:       "FALL",
		SeasonYear:   2023,
		Format:       "TV",
		Status:       "RELEASING",
		Synonyms:     []string{"Frieren"},
	})
}

func TestResolveSavePathPrecedence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	// No settings at all: configured save dir wins.
	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.SavePath != cfg.Paths.SaveDir {
		t.Fatalf("expected configured save dir, got %q", effective.SavePath)
	}

	// Global default path outranks the configured dir.
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:  store.GlobalSettingsID,
		SavePath: "/library/anime",
	})
	effective, err = resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.SavePath != "/library/anime" {
		t.Fatalf("expected global save path, got %q", effective.SavePath)
	}

	// Global template outranks the global default path.
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:          store.GlobalSettingsID,
		SavePath:         "/library/anime",
		SavePathTemplate: "/library/{title.seasonYear}/{title.romaji}",
	})
	effective, err = resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.SavePath != "/library/2023/Sousou no Frieren" {
		t.Fatalf("unexpected templated path: %q", effective.SavePath)
	}

	// Explicit per-title path outranks everything.
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:  101,
		SavePath: "/custom/frieren",
	})
	effective, err = resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.SavePath != "/custom/frieren" {
		t.Fatalf("expected per-title path, got %q", effective.SavePath)
	}
}

func TestResolveQuerySynthesisFromVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:               101,
		AutoQueryFromSynonyms: true,
	})
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !effective.QuerySynthesized {
		t.Fatal("expected synthesized query")
	}
	want := []string{"Sousou no Frieren", "Frieren: Beyond Journey's End", "Frieren"}
	if len(effective.QueryTerms) != len(want) {
		t.Fatalf("unexpected terms: %v", effective.QueryTerms)
	}
	for i, term := range want {
		if effective.QueryTerms[i] != term {
			t.Fatalf("term %d = %q, want %q", i, effective.QueryTerms[i], term)
		}
	}
}

func TestResolveQueryExplicitWins(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:               101,
		SearchQuery:           "Frieren 1080p batch",
		AutoQueryFromSynonyms: true,
	})
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.QuerySynthesized {
		t.Fatal("expected explicit query, not synthesis")
	}
	if effective.Query != "Frieren 1080p batch" {
		t.Fatalf("unexpected query: %q", effective.Query)
	}
}

func TestResolveQueryFallsBackToPrimaryName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	testsupport.SeedSettings(t, st, &store.Settings{TitleID: 101})
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.Query != "Sousou no Frieren" {
		t.Fatalf("expected primary name query, got %q", effective.Query)
	}
}

func TestResolveResolutionValidationAndAlias(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:             101,
		PreferredResolution: "4k",
	})
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if effective.PreferredResolution != "2160P" {
		t.Fatalf("expected 4k alias to normalize, got %q", effective.PreferredResolution)
	}

	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:             101,
		PreferredResolution: "960p",
	})
	if _, err := resolver.Resolve(context.Background(), 101); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveMergesMetadataVariables(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	seedCatalogTitle(t, st)
	tvdbID := int64(424536)
	seasonOverride := 2
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:    101,
		TVDBID:     &tvdbID,
		TVDBSeason: &seasonOverride,
	})
	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:          store.GlobalSettingsID,
		SavePathTemplate: "/library/{tvdb.name} ({tvdb.year})/Season {tvdb.seasonNumber}",
	})

	provider := &staticProvider{record: &metadata.Record{
		ID:   424536,
		Name: "Frieren: Beyond Journey's End",
		Year: 2023,
		Kind: "series",
	}}
	now := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	resolver := settings.NewResolver(st, cfg, provider, nil, nil, settings.WithClock(testsupport.FixedClock(now)))

	effective, err := resolver.Resolve(context.Background(), 101)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := "/library/Frieren Beyond Journey's End (2023)/Season 02"
	if effective.SavePath != want {
		t.Fatalf("SavePath = %q, want %q", effective.SavePath, want)
	}
	if effective.Variables["currentYear"] != "2026" {
		t.Fatalf("expected clock year in variables, got %q", effective.Variables["currentYear"])
	}
}

func TestResolveUnknownTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)

	if _, err := resolver.Resolve(context.Background(), 999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
