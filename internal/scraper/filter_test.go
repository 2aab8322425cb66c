package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animarr/internal/settings"
)

type fakeSeen struct {
	keys map[string]bool
}

func (f *fakeSeen) IsSeen(_ context.Context, key string) (bool, error) {
	return f.keys[key], nil
}

func makeCandidate(title string, seeders int) Candidate {
	c := Candidate{Source: "nyaa", Title: title, Link: "https://nyaa.si/view/" + title, Seeders: seeders}
	Annotate(&c)
	return c
}

func TestSelectRejectsSeenCandidates(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{
		makeCandidate("[SubsPlease] Frieren - 07 (1080p).mkv", 100),
		makeCandidate("[SubsPlease] Frieren - 08 (1080p).mkv", 90),
	}
	seen := &fakeSeen{keys: map[string]bool{candidates[0].DedupKey(): true}}
	profile := &settings.Effective{QueryTerms: []string{"frieren"}}

	accepted, stats, err := filter.Select(context.Background(), candidates, profile, seen)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, candidates[1].Title, accepted[0].Title)
	assert.Equal(t, 1, stats.Seen)
	assert.Equal(t, 1, stats.Accepted)
}

func TestSelectAppliesQueryTermsAsOr(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{
		makeCandidate("[SubsPlease] Sousou no Frieren - 07 (1080p).mkv", 100),
		makeCandidate("[SubsPlease] Frieren Beyond Journey's End - 07 (1080p).mkv", 80),
		makeCandidate("[SubsPlease] Unrelated Show - 07 (1080p).mkv", 500),
	}
	profile := &settings.Effective{QueryTerms: []string{"sousou no frieren", "frieren beyond journey's end"}}

	accepted, stats, err := filter.Select(context.Background(), candidates, profile, nil)
	require.NoError(t, err)
	assert.Len(t, accepted, 2)
	assert.Equal(t, 1, stats.QueryMiss)
}

func TestSelectIncludeAndExcludeTerms(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{
		makeCandidate("[SubsPlease] Frieren - 07 (1080p).mkv", 100),
		makeCandidate("[Erai-raws] Frieren - 07 (1080p) DUAL-AUDIO.mkv", 200),
		makeCandidate("[Raw] Frieren - 07 (1080p).mkv", 50),
	}
	profile := &settings.Effective{
		QueryTerms: []string{"frieren"},
		Includes:   []string{"1080p"},
		Excludes:   []string{"dual-audio", "raw"},
	}

	accepted, stats, err := filter.Select(context.Background(), candidates, profile, nil)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "SubsPlease", accepted[0].Subgroup)
	assert.Equal(t, 2, stats.ExcludeHit)
}

func TestSelectKeepsBestVariantPerRelease(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{
		makeCandidate("[Erai-raws] Frieren - 07 (1080p).mkv", 400),
		makeCandidate("[SubsPlease] Frieren - 07 (720p).mkv", 300),
		makeCandidate("[SubsPlease] Frieren - 07 (1080p).mkv", 50),
	}
	profile := &settings.Effective{
		QueryTerms:          []string{"frieren"},
		PreferredResolution: "1080P",
		PreferredSubgroup:   "SubsPlease",
	}

	accepted, stats, err := filter.Select(context.Background(), candidates, profile, nil)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	// Resolution plus subgroup match beats resolution alone despite seeders.
	assert.Equal(t, "SubsPlease", accepted[0].Subgroup)
	assert.Equal(t, "1080P", accepted[0].Resolution)
	assert.Equal(t, 2, stats.Duplicates)
}

func TestSelectBreaksTiesBySeeders(t *testing.T) {
	filter := NewFilter(nil)
	// Bracket groups are stripped from the grouping key, so these two
	// collapse into one logical release with no preference to separate them.
	low := makeCandidate("[GroupA] Frieren - 07 (1080p).mkv", 10)
	high := makeCandidate("[GroupB] Frieren - 07 (1080p).mkv", 90)

	profile := &settings.Effective{QueryTerms: []string{"frieren"}}
	accepted, _, err := filter.Select(context.Background(), []Candidate{low, high}, profile, nil)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, 90, accepted[0].Seeders)
}

func TestSelectAcceptsDistinctEpisodesSeparately(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{
		makeCandidate("[SubsPlease] Frieren - 07 (1080p).mkv", 100),
		makeCandidate("[SubsPlease] Frieren - 08 (1080p).mkv", 90),
		makeCandidate("[SubsPlease] Frieren - 09 (1080p).mkv", 80),
	}
	profile := &settings.Effective{QueryTerms: []string{"frieren"}}

	accepted, stats, err := filter.Select(context.Background(), candidates, profile, nil)
	require.NoError(t, err)
	assert.Len(t, accepted, 3)
	assert.Equal(t, 0, stats.Duplicates)
}

func TestSelectRejectsEverythingWithoutQueryTerms(t *testing.T) {
	filter := NewFilter(nil)
	candidates := []Candidate{makeCandidate("[SubsPlease] Frieren - 07 (1080p).mkv", 100)}

	accepted, stats, err := filter.Select(context.Background(), candidates, &settings.Effective{}, nil)
	require.NoError(t, err)
	assert.Empty(t, accepted)
	assert.Equal(t, 1, stats.QueryMiss)
}
