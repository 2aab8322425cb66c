package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"animarr/internal/anilist"
	"animarr/internal/logging"
	"animarr/internal/metrics"
	"animarr/internal/services"
	"animarr/internal/store"
)

// syncCatalog refreshes the title catalog from AniList for one season.
// Absent params default to the season containing the current date.
func (r *Runner) syncCatalog(ctx context.Context, execution *store.JobExecution, params Params, logger *slog.Logger) (map[string]any, error) {
	season := anilist.CurrentSeason(r.now())
	if name := strings.ToUpper(strings.TrimSpace(params.Season)); name != "" {
		season.Name = name
	}
	if params.SeasonYear > 0 {
		season.Year = params.SeasonYear
	}

	titles, err := r.catalog.FetchReleasing(ctx, season)
	if err != nil {
		return nil, err
	}
	if err := r.store.UpsertTitles(ctx, titles); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "sync catalog", "upsert titles", err)
	}

	execution.ItemsProcessed += len(titles)
	execution.ItemsSucceeded += len(titles)
	metrics.TitlesUpserted.Add(float64(len(titles)))

	if err := r.store.TouchCatalogSync(ctx, r.now()); err != nil {
		logger.Warn("failed to stamp catalog sync time", "error", err)
	}
	return map[string]any{
		"count":       len(titles),
		"season":      season.Name,
		"season_year": season.Year,
	}, nil
}

// scanFeed walks every enabled title: resolve its profile, search the
// feed, filter candidates, and handle each accepted release fully before
// moving to the next title. Per-title and per-release errors are counted
// without aborting the batch.
func (r *Runner) scanFeed(ctx context.Context, execution *store.JobExecution, logger *slog.Logger) (map[string]any, error) {
	enabled, err := r.store.ListEnabledSettings(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "scan feed", "list enabled settings", err)
	}
	if len(enabled) == 0 {
		logger.Info("no enabled titles, nothing to scan")
		return map[string]any{"reason": "no_enabled_titles"}, nil
	}

	accepted := 0
	for _, perTitle := range enabled {
		titleCtx := services.WithTitleID(ctx, perTitle.TitleID)
		titleLogger := logger.With(logging.FieldTitleID, perTitle.TitleID)

		profile, err := r.resolver.Resolve(titleCtx, perTitle.TitleID)
		if err != nil {
			// Provider outages count against the title, not the scan.
			if services.IsItemError(err) || errors.Is(err, services.ErrExternal) {
				titleLogger.Warn("skipping title, profile unresolvable", "error", err)
				execution.ItemsProcessed++
				execution.ItemsFailed++
				continue
			}
			return nil, err
		}
		if !profile.Enabled {
			continue
		}
		if profile.Query == "" {
			titleLogger.Warn("skipping title, no search query")
			continue
		}
		if profile.SavePath == "" {
			titleLogger.Warn("skipping title, no save path")
			continue
		}

		candidates, err := r.feed.Search(titleCtx, profile.Query)
		if err != nil {
			titleLogger.Error("feed search failed", "error", err)
			execution.ItemsProcessed++
			execution.ItemsFailed++
			continue
		}
		metrics.CandidatesFound.WithLabelValues(strconv.FormatInt(perTitle.TitleID, 10)).
			Add(float64(len(candidates)))

		selected, stats, err := r.filter.Select(titleCtx, candidates, profile, r.store)
		if err != nil {
			return nil, err
		}
		titleLogger.Debug("candidates filtered",
			"total", stats.Total, "accepted", stats.Accepted)

		for _, candidate := range selected {
			execution.ItemsProcessed++

			submitted := false
			if r.downloader != nil {
				target := firstNonEmpty(candidate.Link, candidate.Magnet)
				if target == "" {
					titleLogger.Warn("accepted release has no link or magnet", "title", candidate.Title)
					execution.ItemsFailed++
					continue
				}
				if err := r.downloader.AddByURL(titleCtx, target, r.mapPath(profile.SavePath)); err != nil {
					titleLogger.Error("submit failed", "title", candidate.Title, "error", err)
					execution.ItemsFailed++
					metrics.TorrentsFailed.Inc()
					continue
				}
				submitted = true
				metrics.TorrentsSubmitted.Inc()
			}

			entry := candidate.SeenEntry(perTitle.TitleID, profile.SavePath)
			if submitted {
				entry.Exported = true
				exportedAt := r.now().UTC()
				entry.ExportedAt = &exportedAt
			}
			if err := r.store.RecordSeen(titleCtx, entry); err != nil {
				return nil, services.Wrap(services.ErrPersistence, "jobs", "scan feed", "record seen", err)
			}

			execution.ItemsSucceeded++
			accepted++
			titleLogger.Info("release accepted",
				"title", candidate.Title,
				"resolution", candidate.Resolution,
				"subgroup", candidate.Subgroup,
				"submitted", submitted,
			)
		}
	}

	if err := r.store.TouchFeedScan(ctx, r.now()); err != nil {
		logger.Warn("failed to stamp feed scan time", "error", err)
	}
	return map[string]any{
		"titles_tracked": len(enabled),
		"accepted":       accepted,
		"failed":         execution.ItemsFailed,
	}, nil
}

// initStore re-runs the idempotent schema bootstrap and verifies
// database integrity.
func (r *Runner) initStore(ctx context.Context, execution *store.JobExecution) (map[string]any, error) {
	if err := r.store.EnsureSchema(ctx); err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "init store", r.store.Path(), err)
	}
	count, err := r.store.CountTitles(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "init store", "count titles", err)
	}
	execution.ItemsProcessed++
	execution.ItemsSucceeded++
	return map[string]any{
		"path":   r.store.Path(),
		"titles": count,
	}, nil
}

// exportDownloads pushes every unexported ledger entry to the download
// client, oldest first.
func (r *Runner) exportDownloads(ctx context.Context, execution *store.JobExecution, logger *slog.Logger) (map[string]any, error) {
	if r.downloader == nil {
		return nil, services.Wrap(services.ErrConfiguration, "jobs", "export downloads",
			"download client integration disabled", nil)
	}

	entries, err := r.store.ListUnexported(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, "jobs", "export downloads", "list unexported", err)
	}

	exported := 0
	for _, entry := range entries {
		execution.ItemsProcessed++

		target := firstNonEmpty(entry.Link, entry.Magnet)
		if target == "" {
			logger.Warn("ledger entry has no link or magnet", "title", entry.Title)
			execution.ItemsFailed++
			continue
		}
		if err := r.downloader.AddByURL(ctx, target, r.mapPath(entry.SavePath)); err != nil {
			logger.Error("export failed", "title", entry.Title, "error", err)
			execution.ItemsFailed++
			metrics.TorrentsFailed.Inc()
			continue
		}
		metrics.TorrentsSubmitted.Inc()
		if err := r.store.MarkExported(ctx, entry.DedupKey()); err != nil {
			return nil, services.Wrap(services.ErrPersistence, "jobs", "export downloads", "mark exported", err)
		}
		execution.ItemsSucceeded++
		exported++
	}

	return map[string]any{
		"exported": exported,
		"failed":   execution.ItemsFailed,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
