package scraper

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"animarr/internal/logging"
	"animarr/internal/services"
	"animarr/internal/settings"
)

// SeenChecker probes the dedup ledger for a key.
type SeenChecker interface {
	IsSeen(ctx context.Context, key string) (bool, error)
}

// FilterStats counts what happened to the candidates of one pass.
type FilterStats struct {
	Total       int
	Seen        int
	QueryMiss   int
	IncludeMiss int
	ExcludeHit  int
	Duplicates  int
	Accepted    int
}

// Filter applies the acceptance pipeline to feed candidates.
type Filter struct {
	logger *slog.Logger
}

// NewFilter builds a Filter.
func NewFilter(logger *slog.Logger) *Filter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Filter{logger: logger.With(logging.FieldComponent, "filter")}
}

// Select runs candidates through the pipeline: seen rejection, query
// matching, include/exclude terms, then logical-release dedup keeping
// the best variant per release.
func (f *Filter) Select(ctx context.Context, candidates []Candidate, profile *settings.Effective, seen SeenChecker) ([]Candidate, FilterStats, error) {
	stats := FilterStats{Total: len(candidates)}

	var surviving []Candidate
	for _, candidate := range candidates {
		if seen != nil {
			isSeen, err := seen.IsSeen(ctx, candidate.DedupKey())
			if err != nil {
				return nil, stats, services.Wrap(services.ErrPersistence, "filter", "seen probe", candidate.Title, err)
			}
			if isSeen {
				stats.Seen++
				continue
			}
		}

		matchTitle := comparableTitle(candidate.Title)
		if !matchesAnyTerm(matchTitle, profile.QueryTerms) {
			stats.QueryMiss++
			continue
		}
		if !containsAllTerms(matchTitle, profile.Includes) {
			stats.IncludeMiss++
			continue
		}
		if containsAnyTerm(matchTitle, profile.Excludes) {
			stats.ExcludeHit++
			continue
		}
		surviving = append(surviving, candidate)
	}

	accepted := pickPerRelease(surviving, profile, &stats)
	stats.Accepted = len(accepted)
	f.logger.Debug("filter pass complete",
		"total", stats.Total,
		"seen", stats.Seen,
		"query_miss", stats.QueryMiss,
		"include_miss", stats.IncludeMiss,
		"exclude_hit", stats.ExcludeHit,
		"duplicates", stats.Duplicates,
		"accepted", stats.Accepted,
	)
	return accepted, stats, nil
}

// pickPerRelease groups candidates by logical release and keeps the
// highest-ranked variant of each group, preserving first-seen order.
func pickPerRelease(candidates []Candidate, profile *settings.Effective, stats *FilterStats) []Candidate {
	type slot struct {
		index     int
		candidate Candidate
	}
	best := make(map[string]slot)
	var order []string

	for _, candidate := range candidates {
		key := releaseKey(&candidate)
		current, exists := best[key]
		if !exists {
			best[key] = slot{index: len(order), candidate: candidate}
			order = append(order, key)
			continue
		}
		stats.Duplicates++
		if rank(candidate, profile) < rank(current.candidate, profile) ||
			(rank(candidate, profile) == rank(current.candidate, profile) && candidate.Seeders > current.candidate.Seeders) {
			best[key] = slot{index: current.index, candidate: candidate}
		}
	}

	accepted := make([]Candidate, 0, len(order))
	for _, key := range order {
		accepted = append(accepted, best[key].candidate)
	}
	return accepted
}

// rank orders release variants: preferred resolution plus subgroup beats
// resolution alone, which beats subgroup alone, which beats the rest.
func rank(candidate Candidate, profile *settings.Effective) int {
	resMatch := profile.PreferredResolution != "" &&
		strings.EqualFold(candidate.Resolution, profile.PreferredResolution)
	subMatch := profile.PreferredSubgroup != "" &&
		strings.EqualFold(candidate.Subgroup, profile.PreferredSubgroup)
	switch {
	case resMatch && subMatch:
		return 0
	case resMatch:
		return 1
	case subMatch:
		return 2
	default:
		return 3
	}
}

func comparableTitle(title string) string {
	return strings.ToLower(norm.NFKC.String(title))
}

func matchesAnyTerm(title string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(norm.NFKC.String(term))) {
			return true
		}
	}
	return false
}

func containsAllTerms(title string, terms []string) bool {
	for _, term := range terms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		if !strings.Contains(title, strings.ToLower(norm.NFKC.String(term))) {
			return false
		}
	}
	return true
}

func containsAnyTerm(title string, terms []string) bool {
	for _, term := range terms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(norm.NFKC.String(term))) {
			return true
		}
	}
	return false
}
