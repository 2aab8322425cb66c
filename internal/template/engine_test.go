package template_test

import (
	"testing"
	"time"

	"animarr/internal/template"
)

func TestRenderSubstitutesKnownTokens(t *testing.T) {
	vars := template.Variables{
		"title.romaji": "Sousou no Frieren",
		"currentYear":  "2026",
	}
	got := template.Render("/anime/{currentYear}/{title.romaji}", vars)
	want := "/anime/2026/Sousou no Frieren"
	if got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestRenderLeavesUnknownTokensVerbatim(t *testing.T) {
	vars := template.Variables{"currentYear": "2026"}
	got := template.Render("/anime/{currentYear}/{tvdb.name}", vars)
	if got != "/anime/2026/{tvdb.name}" {
		t.Fatalf("unexpected render: %q", got)
	}
	if !template.HasUnresolved(got) {
		t.Fatal("expected unresolved token to be detected")
	}
	if template.HasUnresolved("/anime/2026/clean") {
		t.Fatal("expected clean path to have no unresolved tokens")
	}
}

func TestRenderIsCaseSensitive(t *testing.T) {
	vars := template.Variables{"currentYear": "2026"}
	got := template.Render("{CurrentYear}", vars)
	if got != "{CurrentYear}" {
		t.Fatalf("expected case-sensitive miss, got %q", got)
	}
}

func TestRenderPathSanitizesValues(t *testing.T) {
	vars := template.Variables{
		"title.english": `Re:Zero? "Starting/Life"`,
	}
	got := template.RenderPath("/anime/{title.english}", vars)
	want := "/anime/ReZero Starting-Life"
	if got != want {
		t.Fatalf("RenderPath = %q, want %q", got, want)
	}
}

func TestSanitizeComponent(t *testing.T) {
	cases := map[string]string{
		`a<b>c:d"e|f?g*h`: "abcdefgh",
		`one/two\three`:   "one-two-three",
		"  padded  ":      "padded",
		"plain":           "plain",
	}
	for input, want := range cases {
		if got := template.SanitizeComponent(input); got != want {
			t.Fatalf("SanitizeComponent(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSeasonWord(t *testing.T) {
	cases := map[string]string{
		"WINTER": "winter",
		"SPRING": "spring",
		"SUMMER": "summer",
		"FALL":   "fall",
		"fall":   "fall",
		"TBA":    "tba",
		"":       "",
	}
	for input, want := range cases {
		if got := template.SeasonWord(input); got != want {
			t.Fatalf("SeasonWord(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDateVariablesZeroPads(t *testing.T) {
	now := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	vars := template.DateVariables(now)
	if vars["currentYear"] != "2026" {
		t.Fatalf("unexpected year: %q", vars["currentYear"])
	}
	if vars["currentMonth"] != "03" {
		t.Fatalf("unexpected month: %q", vars["currentMonth"])
	}
	if vars["currentDay"] != "07" {
		t.Fatalf("unexpected day: %q", vars["currentDay"])
	}
}

func TestMergeLaterSetsWin(t *testing.T) {
	merged := template.Merge(
		template.Variables{"a": "1", "b": "2"},
		template.Variables{"b": "3"},
	)
	if merged["a"] != "1" || merged["b"] != "3" {
		t.Fatalf("unexpected merge: %v", merged)
	}
}
