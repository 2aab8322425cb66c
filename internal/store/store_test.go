package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"animarr/internal/store"
	"animarr/internal/testsupport"
)

func TestOpenSeedsGlobalSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	global, err := st.GlobalSettings(context.Background())
	if err != nil {
		t.Fatalf("global settings: %v", err)
	}
	if !global.IsGlobal() {
		t.Fatalf("expected global row, got title id %d", global.TitleID)
	}
	if !global.AutoQueryFromSynonyms {
		t.Fatal("expected auto query enabled by default")
	}
}

func TestTitleRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	title := &store.Title{
		ID:           5114,
		TitleRomaji:  "Hagane no Renkinjutsushi",
		TitleEnglish: "Fullmetal Alchemist: Brotherhood",
		Season:       "SPRING",
		SeasonYear:   2009,
		Format:       "TV",
		Status:       "FINISHED",
		Genres:       []string{"Action", "Adventure"},
		Synonyms:     []string{"FMAB", "HagaRen"},
		AverageScore: 90,
		Popularity:   500000,
	}
	if err := st.UpsertTitles(ctx, []*store.Title{title}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	stored, err := st.GetTitle(ctx, 5114)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored == nil {
		t.Fatal("expected title")
	}
	if stored.TitleEnglish != title.TitleEnglish {
		t.Fatalf("unexpected english title: %q", stored.TitleEnglish)
	}
	if len(stored.Synonyms) != 2 || stored.Synonyms[0] != "FMAB" {
		t.Fatalf("unexpected synonyms: %v", stored.Synonyms)
	}
	if stored.UpdatedAt.IsZero() {
		t.Fatal("expected updated_at to be set")
	}

	// Upsert replaces fields for an existing id.
	title.Status = "RELEASING"
	if err := st.UpsertTitles(ctx, []*store.Title{title}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	stored, err = st.GetTitle(ctx, 5114)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if stored.Status != "RELEASING" {
		t.Fatalf("expected status update, got %q", stored.Status)
	}

	count, err := st.CountTitles(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one title, got %d", count)
	}

	missing, err := st.GetTitle(ctx, 404)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatal("expected nil for missing title")
	}
}

func TestSettingsLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	tvdbID := int64(7)
	stored := testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:             42,
		Enabled:             true,
		Includes:            []string{"1080p"},
		Excludes:            []string{"batch"},
		PreferredResolution: "1080p",
		TVDBID:              &tvdbID,
	})
	if !stored.Enabled {
		t.Fatal("expected enabled settings")
	}
	if stored.TVDBID == nil || *stored.TVDBID != 7 {
		t.Fatalf("unexpected tvdb id: %v", stored.TVDBID)
	}
	if stored.CreatedAt.IsZero() {
		t.Fatal("expected created_at")
	}

	enabled, err := st.ListEnabledSettings(ctx)
	if err != nil {
		t.Fatalf("list enabled: %v", err)
	}
	if len(enabled) != 1 || enabled[0].TitleID != 42 {
		t.Fatalf("unexpected enabled list: %v", enabled)
	}

	if err := st.DeleteSettings(ctx, store.GlobalSettingsID); !errors.Is(err, store.ErrGlobalSettingsProtected) {
		t.Fatalf("expected global protection, got %v", err)
	}
	if err := st.DeleteSettings(ctx, 42); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := st.GetSettings(ctx, 42)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if gone != nil {
		t.Fatal("expected settings to be deleted")
	}
}

func TestResetGlobalSettings(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedSettings(t, st, &store.Settings{
		TitleID:             store.GlobalSettingsID,
		SavePath:            "/library/anime",
		PreferredResolution: "1080p",
	})
	global, err := st.ResetGlobalSettings(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if global.SavePath != "" || global.PreferredResolution != "" {
		t.Fatalf("expected cleared defaults, got %+v", global)
	}
	if !global.AutoQueryFromSynonyms {
		t.Fatal("expected auto query restored")
	}
}

func TestSeenLedgerIdempotence(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := &store.SeenTorrent{
		TitleID:  101,
		Source:   "nyaa",
		Title:    "[SubsPlease] Frieren - 01 (1080p)",
		Link:     "https://nyaa.si/view/1",
		Infohash: "ABCDEF0123456789ABCDEF0123456789ABCDEF01",
	}
	if err := st.RecordSeen(ctx, entry); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := st.RecordSeen(ctx, entry); err != nil {
		t.Fatalf("replay record: %v", err)
	}

	entries, err := st.ListSeen(ctx, nil, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one ledger entry, got %d", len(entries))
	}

	seen, err := st.IsSeen(ctx, store.SeenKey(entry.Infohash, "", ""))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !seen {
		t.Fatal("expected infohash key to be seen")
	}
	seen, err = st.IsSeen(ctx, store.SeenKey("", "https://nyaa.si/view/2", "other"))
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if seen {
		t.Fatal("expected unknown key to be unseen")
	}
}

func TestSeenKeyFallsBackToLinkAndTitle(t *testing.T) {
	withHash := store.SeenKey("ABCDEF01", "https://nyaa.si/view/1", "x")
	if withHash != "abcdef01" {
		t.Fatalf("expected lowercased infohash, got %q", withHash)
	}
	composite := store.SeenKey("", "https://nyaa.si/view/1", "Release Title")
	if composite != "https://nyaa.si/view/1\nRelease Title" {
		t.Fatalf("unexpected composite key: %q", composite)
	}
}

func TestSeenExportFlow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	entry := &store.SeenTorrent{
		Title:    "release",
		Link:     "https://nyaa.si/view/9",
		Infohash: "1111111111111111111111111111111111111111",
		SavePath: "/library/anime",
	}
	if err := st.RecordSeen(ctx, entry); err != nil {
		t.Fatalf("record: %v", err)
	}

	pending, err := st.ListUnexported(ctx)
	if err != nil {
		t.Fatalf("list unexported: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending entry, got %d", len(pending))
	}

	if err := st.MarkExported(ctx, entry.DedupKey()); err != nil {
		t.Fatalf("mark exported: %v", err)
	}
	pending, err = st.ListUnexported(ctx)
	if err != nil {
		t.Fatalf("list after export: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %d", len(pending))
	}
	stored, err := st.GetSeen(ctx, entry.DedupKey())
	if err != nil {
		t.Fatalf("get seen: %v", err)
	}
	if stored == nil || !stored.Exported || stored.ExportedAt == nil {
		t.Fatalf("expected exported entry, got %+v", stored)
	}
}

func TestExecutionLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	execution := &store.JobExecution{
		ID:      "scan_feed_0123abcd4567",
		Type:    store.JobScanFeed,
		Trigger: store.TriggerManual,
		Status:  store.JobQueued,
	}
	if err := st.CreateExecution(ctx, execution); err != nil {
		t.Fatalf("create: %v", err)
	}

	execution.Status = store.JobRunning
	if err := st.UpdateExecution(ctx, execution); err != nil {
		t.Fatalf("to running: %v", err)
	}

	running, err := st.RunningExecutions(ctx)
	if err != nil {
		t.Fatalf("running: %v", err)
	}
	if len(running) != 1 || running[0].ID != execution.ID {
		t.Fatalf("unexpected running list: %v", running)
	}

	completedAt := time.Now().UTC()
	execution.Status = store.JobCompleted
	execution.ItemsProcessed = 5
	execution.ItemsSucceeded = 4
	execution.ItemsFailed = 1
	execution.CompletedAt = &completedAt
	if err := st.UpdateExecution(ctx, execution); err != nil {
		t.Fatalf("to completed: %v", err)
	}

	// Terminal records are immutable.
	execution.Status = store.JobFailed
	if err := st.UpdateExecution(ctx, execution); !errors.Is(err, store.ErrExecutionTerminal) {
		t.Fatalf("expected terminal error, got %v", err)
	}

	stored, err := st.GetExecution(ctx, execution.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != store.JobCompleted {
		t.Fatalf("expected completed, got %s", stored.Status)
	}
	if stored.ItemsProcessed != stored.ItemsSucceeded+stored.ItemsFailed {
		t.Fatalf("counter invariant broken: %+v", stored)
	}
	if stored.CompletedAt == nil {
		t.Fatal("expected completion timestamp")
	}
}

func TestExecutionHistoryFilters(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	titleID := int64(101)
	base := time.Now().UTC().Add(-time.Hour)
	seed := []*store.JobExecution{
		{ID: "sync_catalog_aaa", Type: store.JobSyncCatalog, Trigger: store.TriggerScheduled, Status: store.JobCompleted, StartedAt: base},
		{ID: "scan_feed_bbb", Type: store.JobScanFeed, Trigger: store.TriggerManual, Status: store.JobFailed, TitleID: &titleID, StartedAt: base.Add(time.Minute)},
		{ID: "scan_feed_ccc", Type: store.JobScanFeed, Trigger: store.TriggerManual, Status: store.JobCompleted, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, execution := range seed {
		if err := st.CreateExecution(ctx, execution); err != nil {
			t.Fatalf("create %s: %v", execution.ID, err)
		}
	}

	history, err := st.ListExecutions(ctx, store.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected three executions, got %d", len(history))
	}
	if history[0].ID != "scan_feed_ccc" {
		t.Fatalf("expected newest first, got %s", history[0].ID)
	}

	history, err = st.ListExecutions(ctx, store.HistoryFilter{Type: store.JobScanFeed, Status: store.JobFailed})
	if err != nil {
		t.Fatalf("filtered history: %v", err)
	}
	if len(history) != 1 || history[0].ID != "scan_feed_bbb" {
		t.Fatalf("unexpected filtered history: %v", history)
	}

	history, err = st.ListExecutions(ctx, store.HistoryFilter{TitleID: &titleID})
	if err != nil {
		t.Fatalf("title history: %v", err)
	}
	if len(history) != 1 || history[0].TitleID == nil || *history[0].TitleID != titleID {
		t.Fatalf("unexpected title history: %v", history)
	}

	history, err = st.ListExecutions(ctx, store.HistoryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected limit applied, got %d", len(history))
	}
}

func TestExecutionOrderAcrossSubsecondBoundaries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	// A fractional start must sort after the whole second it follows;
	// stored timestamps are compared as strings.
	whole := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	fractional := whole.Add(500 * time.Millisecond)
	seed := []*store.JobExecution{
		{ID: "scan_feed_whole", Type: store.JobScanFeed, Trigger: store.TriggerManual, Status: store.JobCompleted, StartedAt: whole},
		{ID: "scan_feed_fraction", Type: store.JobScanFeed, Trigger: store.TriggerManual, Status: store.JobCompleted, StartedAt: fractional},
	}
	for _, execution := range seed {
		if err := st.CreateExecution(ctx, execution); err != nil {
			t.Fatalf("create %s: %v", execution.ID, err)
		}
	}

	history, err := st.ListExecutions(ctx, store.HistoryFilter{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].ID != "scan_feed_fraction" {
		t.Fatalf("expected fractional start newest first, got %v", history)
	}
	if !history[0].StartedAt.Equal(fractional) {
		t.Fatalf("timestamp not round-tripped: %v", history[0].StartedAt)
	}

	// A window cutoff on the whole second keeps the fractional record.
	aggregates, err := st.Statistics(ctx, &whole)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if len(aggregates) != 1 || aggregates[0].Count != 2 {
		t.Fatalf("expected both records inside the window, got %+v", aggregates)
	}
}

func TestStatisticsWindows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []*store.JobExecution{
		{ID: "scan_feed_old", Type: store.JobScanFeed, Trigger: store.TriggerScheduled, Status: store.JobCompleted, ItemsProcessed: 10, ItemsSucceeded: 10, StartedAt: now.AddDate(0, 0, -40)},
		{ID: "scan_feed_new", Type: store.JobScanFeed, Trigger: store.TriggerManual, Status: store.JobCompleted, ItemsProcessed: 3, ItemsSucceeded: 2, ItemsFailed: 1, StartedAt: now.Add(-time.Hour)},
		{ID: "sync_catalog_new", Type: store.JobSyncCatalog, Trigger: store.TriggerManual, Status: store.JobFailed, StartedAt: now.Add(-time.Hour)},
	}
	for _, execution := range seed {
		if err := st.CreateExecution(ctx, execution); err != nil {
			t.Fatalf("create %s: %v", execution.ID, err)
		}
	}

	since := store.Period24h.Since(now)
	aggregates, err := st.Statistics(ctx, since)
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	byStatus := make(map[store.JobStatus]store.StatusAggregate)
	for _, agg := range aggregates {
		byStatus[agg.Status] = agg
	}
	if byStatus[store.JobCompleted].Count != 1 {
		t.Fatalf("expected one recent completed, got %+v", byStatus[store.JobCompleted])
	}
	if byStatus[store.JobCompleted].TotalProcessed != 3 {
		t.Fatalf("expected recent counters only, got %+v", byStatus[store.JobCompleted])
	}
	if byStatus[store.JobFailed].Count != 1 {
		t.Fatalf("expected one failed, got %+v", byStatus[store.JobFailed])
	}

	aggregates, err = st.Statistics(ctx, nil)
	if err != nil {
		t.Fatalf("all-time statistics: %v", err)
	}
	byStatus = make(map[store.JobStatus]store.StatusAggregate)
	for _, agg := range aggregates {
		byStatus[agg.Status] = agg
	}
	if byStatus[store.JobCompleted].Count != 2 || byStatus[store.JobCompleted].TotalProcessed != 13 {
		t.Fatalf("unexpected all-time aggregate: %+v", byStatus[store.JobCompleted])
	}
}

func TestParseHelpers(t *testing.T) {
	if jt, ok := store.ParseJobType(" Scan_Feed "); !ok || jt != store.JobScanFeed {
		t.Fatalf("unexpected parse: %v %v", jt, ok)
	}
	if _, ok := store.ParseJobType("defrag"); ok {
		t.Fatal("expected unknown job type to fail")
	}
	if p, ok := store.ParsePeriod(""); !ok || p != store.PeriodAll {
		t.Fatalf("expected empty period to mean all, got %v %v", p, ok)
	}
	if _, ok := store.ParsePeriod("90d"); ok {
		t.Fatal("expected unknown period to fail")
	}
	if store.PeriodAll.Since(time.Now()) != nil {
		t.Fatal("expected nil cutoff for all period")
	}
}
