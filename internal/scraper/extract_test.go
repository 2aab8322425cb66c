package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractResolution(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"[SubsPlease] Frieren - 07 (1080p) [ABCD1234].mkv", "1080P"},
		{"[Erai-raws] Frieren - 07 [720p]", "720P"},
		{"Frieren S01 4K HDR", "2160P"},
		{"Frieren 2160p remux", "2160P"},
		{"Frieren - 07", ""},
		{"Frieren 10800 points", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExtractResolution(tc.title), tc.title)
	}
}

func TestExtractSubgroup(t *testing.T) {
	assert.Equal(t, "SubsPlease", ExtractSubgroup("[SubsPlease] Frieren - 07 (1080p)"))
	assert.Equal(t, "Erai-raws", ExtractSubgroup("  [Erai-raws] Frieren - 07"))
	assert.Equal(t, "", ExtractSubgroup("Frieren - 07 [SubsPlease]"))
	assert.Equal(t, "", ExtractSubgroup("Frieren - 07"))
}

func TestExtractInfohash(t *testing.T) {
	hash := "3F786850E387550FDAB836ED7E6DC881DE23001B"
	assert.Equal(t, "3f786850e387550fdab836ed7e6dc881de23001b", ExtractInfohash("Seeds: 12 | Hash: "+hash))
	assert.Equal(t, "3f786850e387550fdab836ed7e6dc881de23001b",
		ExtractInfohash("magnet:?xt=urn:btih:"+hash+"&dn=frieren"))
	assert.Equal(t, "", ExtractInfohash("no hash here"))
	assert.Equal(t, "", ExtractInfohash("3f786850e387550fdab836ed7e6dc881"))
}

func TestExtractEpisode(t *testing.T) {
	cases := []struct {
		title string
		want  int
		ok    bool
	}{
		{"[SubsPlease] Frieren - 07 (1080p)", 7, true},
		{"[SubsPlease] Frieren - 07v2 (1080p)", 7, true},
		{"Frieren S01E12 1080p", 12, true},
		{"Frieren Ep 3", 3, true},
		{"Frieren Ep.28", 28, true},
		{"[Group] Frieren Movie (1080p)", 0, false},
		// Bracketed numbers must not be mistaken for episodes.
		{"[1080p] Frieren Batch", 0, false},
	}
	for _, tc := range cases {
		episode, ok := ExtractEpisode(tc.title)
		assert.Equal(t, tc.ok, ok, tc.title)
		assert.Equal(t, tc.want, episode, tc.title)
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "frieren - 07",
		NormalizeTitle("[SubsPlease] Frieren - 07 (1080p) [F1E2D3C4].mkv"))
	// NFKC folds full-width characters.
	assert.Equal(t, "frieren 07", NormalizeTitle("Ｆｒｉｅｒｅｎ　０７"))
	assert.Equal(t, "frieren", NormalizeTitle("  FRIEREN  "))
}

func TestReleaseKeyGroupsVariantsOfSameEpisode(t *testing.T) {
	a := Candidate{Title: "[SubsPlease] Frieren - 07 (1080p).mkv"}
	b := Candidate{Title: "[SubsPlease] Frieren - 07 (720p).mkv"}
	c := Candidate{Title: "[SubsPlease] Frieren - 08 (1080p).mkv"}
	Annotate(&a)
	Annotate(&b)
	Annotate(&c)

	assert.Equal(t, releaseKey(&a), releaseKey(&b))
	assert.NotEqual(t, releaseKey(&a), releaseKey(&c))
}

func TestAnnotateFillsAttributesAndMagnetFallback(t *testing.T) {
	candidate := Candidate{
		Title:  "[Erai-raws] Frieren - 12 [1080p][Multiple Subtitle]",
		Magnet: "magnet:?xt=urn:btih:3F786850E387550FDAB836ED7E6DC881DE23001B",
	}
	Annotate(&candidate)

	assert.Equal(t, "1080P", candidate.Resolution)
	assert.Equal(t, "Erai-raws", candidate.Subgroup)
	assert.Equal(t, 12, candidate.Episode)
	assert.True(t, candidate.HasEpisode)
	assert.Equal(t, "3f786850e387550fdab836ed7e6dc881de23001b", candidate.Infohash)
}

func TestDedupKeyPrefersInfohash(t *testing.T) {
	withHash := Candidate{Title: "Frieren - 07", Link: "https://nyaa.si/view/1", Infohash: "ABC123"}
	assert.Equal(t, "abc123", withHash.DedupKey())

	withoutHash := Candidate{Title: "Frieren - 07", Link: "https://nyaa.si/view/1"}
	assert.Equal(t, "https://nyaa.si/view/1\nFrieren - 07", withoutHash.DedupKey())
}
