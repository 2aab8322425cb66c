package jobs

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"animarr/internal/anilist"
	"animarr/internal/logging"
	"animarr/internal/metrics"
	"animarr/internal/qbittorrent"
	"animarr/internal/scraper"
	"animarr/internal/services"
	"animarr/internal/settings"
	"animarr/internal/store"
)

// Catalog fetches the seasonal title catalog.
type Catalog interface {
	FetchReleasing(ctx context.Context, season anilist.Season) ([]*store.Title, error)
}

// Feed searches a torrent feed for release candidates.
type Feed interface {
	Search(ctx context.Context, query string) ([]scraper.Candidate, error)
}

// Downloader submits a torrent link or magnet to the download client.
type Downloader interface {
	AddByURL(ctx context.Context, torrentURL, savePath string) error
}

// Params carries optional per-run arguments.
type Params struct {
	Season     string `json:"season,omitempty"`
	SeasonYear int    `json:"season_year,omitempty"`
	TitleID    *int64 `json:"title_id,omitempty"`
}

// Runner owns job execution: one run per job type at a time, every run
// tracked in the execution history.
type Runner struct {
	store      *store.Store
	catalog    Catalog
	feed       Feed
	filter     *scraper.Filter
	resolver   *settings.Resolver
	downloader Downloader
	mapper     *qbittorrent.PathMapper
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active map[store.JobType]bool
}

// Option customizes a Runner.
type Option func(*Runner)

// WithClock overrides the runner's time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRunner builds a Runner. The downloader may be nil when qBittorrent
// integration is disabled; accepted releases are then only recorded for a
// later export.
func NewRunner(
	st *store.Store,
	catalog Catalog,
	feed Feed,
	resolver *settings.Resolver,
	downloader Downloader,
	mapper *qbittorrent.PathMapper,
	logger *slog.Logger,
	opts ...Option,
) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := &Runner{
		store:      st,
		catalog:    catalog,
		feed:       feed,
		filter:     scraper.NewFilter(logger),
		resolver:   resolver,
		downloader: downloader,
		mapper:     mapper,
		logger:     logger.With(logging.FieldComponent, "jobs"),
		now:        time.Now,
		active:     make(map[store.JobType]bool),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// NewExecutionID derives a fresh execution identifier for a job type.
func NewExecutionID(jobType store.JobType) string {
	id := uuid.New()
	return fmt.Sprintf("%s_%s", jobType, hex.EncodeToString(id[:])[:12])
}

// Run executes a job synchronously and returns its terminal record. A
// second run of an already active type fails with ErrAlreadyRunning
// before any record is created.
func (r *Runner) Run(ctx context.Context, jobType store.JobType, trigger store.Trigger, params Params) (*store.JobExecution, error) {
	execution, release, err := r.begin(ctx, jobType, trigger, params)
	if err != nil {
		return nil, err
	}
	r.execute(ctx, execution, release, params)
	return execution, nil
}

// Start launches a job in the background and returns its queued record
// immediately. The run survives cancellation of the caller's context.
func (r *Runner) Start(ctx context.Context, jobType store.JobType, trigger store.Trigger, params Params) (*store.JobExecution, error) {
	execution, release, err := r.begin(ctx, jobType, trigger, params)
	if err != nil {
		return nil, err
	}
	snapshot := *execution
	go r.execute(context.WithoutCancel(ctx), execution, release, params)
	return &snapshot, nil
}

func (r *Runner) begin(ctx context.Context, jobType store.JobType, trigger store.Trigger, params Params) (*store.JobExecution, func(), error) {
	if _, ok := store.ParseJobType(string(jobType)); !ok {
		return nil, nil, services.Wrap(services.ErrValidation, "jobs", "run",
			fmt.Sprintf("unknown job type %q", jobType), nil)
	}

	r.mu.Lock()
	if r.active[jobType] {
		r.mu.Unlock()
		return nil, nil, services.Wrap(services.ErrAlreadyRunning, "jobs", "run", string(jobType), nil)
	}
	r.active[jobType] = true
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.active, jobType)
		r.mu.Unlock()
	}

	execution := &store.JobExecution{
		ID:        NewExecutionID(jobType),
		Type:      jobType,
		Trigger:   trigger,
		Status:    store.JobQueued,
		TitleID:   params.TitleID,
		StartedAt: r.now().UTC(),
	}
	if encoded, err := json.Marshal(params); err == nil && string(encoded) != "{}" {
		execution.ParamsJSON = string(encoded)
	}

	if err := r.store.CreateExecution(ctx, execution); err != nil {
		release()
		return nil, nil, services.Wrap(services.ErrPersistence, "jobs", "create execution", execution.ID, err)
	}
	return execution, release, nil
}

func (r *Runner) execute(ctx context.Context, execution *store.JobExecution, release func(), params Params) {
	defer release()

	ctx = services.WithExecutionID(ctx, execution.ID)
	ctx = services.WithJobType(ctx, string(execution.Type))
	logger := r.logger.With(
		logging.FieldExecutionID, execution.ID,
		logging.FieldJobType, string(execution.Type),
	)
	logger.Info("job started", "trigger", string(execution.Trigger))

	execution.Status = store.JobRunning
	if err := r.store.UpdateExecution(ctx, execution); err != nil {
		logger.Error("failed to mark execution running", "error", err)
	}

	var result map[string]any
	var err error
	switch execution.Type {
	case store.JobSyncCatalog:
		result, err = r.syncCatalog(ctx, execution, params, logger)
	case store.JobScanFeed:
		result, err = r.scanFeed(ctx, execution, logger)
	case store.JobInitStore:
		result, err = r.initStore(ctx, execution)
	case store.JobExportDownloads:
		result, err = r.exportDownloads(ctx, execution, logger)
	}

	completed := r.now().UTC()
	execution.CompletedAt = &completed
	if err != nil {
		execution.Status = store.JobFailed
		execution.ErrorMessage = err.Error()
		logger.Error("job failed", "error", err)
	} else {
		execution.Status = store.JobCompleted
		if encoded, marshalErr := json.Marshal(result); marshalErr == nil {
			execution.ResultJSON = string(encoded)
		}
		logger.Info("job completed",
			"items_processed", execution.ItemsProcessed,
			"items_succeeded", execution.ItemsSucceeded,
			"items_failed", execution.ItemsFailed,
		)
	}

	metrics.JobRuns.WithLabelValues(string(execution.Type), string(execution.Status)).Inc()

	if updateErr := r.store.UpdateExecution(ctx, execution); updateErr != nil {
		logger.Error("failed to finalize execution", "error", updateErr)
	}
}

// History returns execution records newest first, narrowed by the filter.
func (r *Runner) History(ctx context.Context, filter store.HistoryFilter) ([]*store.JobExecution, error) {
	return r.store.ListExecutions(ctx, filter)
}

// Running returns executions not yet terminal.
func (r *Runner) Running(ctx context.Context) ([]*store.JobExecution, error) {
	return r.store.RunningExecutions(ctx)
}

// Get fetches one execution by id. Returns nil when absent.
func (r *Runner) Get(ctx context.Context, id string) (*store.JobExecution, error) {
	return r.store.GetExecution(ctx, id)
}

// Statistics aggregates execution history over the period.
func (r *Runner) Statistics(ctx context.Context, period store.Period) ([]store.StatusAggregate, error) {
	return r.store.Statistics(ctx, period.Since(r.now()))
}

// mapPath translates a save path for the download client.
func (r *Runner) mapPath(path string) string {
	if r.mapper == nil {
		return path
	}
	return r.mapper.ToRemote(path)
}
