package scheduler_test

import (
	"context"
	"testing"
	"time"

	"animarr/internal/anilist"
	"animarr/internal/jobs"
	"animarr/internal/scheduler"
	"animarr/internal/scraper"
	"animarr/internal/settings"
	"animarr/internal/store"
	"animarr/internal/testsupport"
)

type countingCatalog struct {
	fetched chan struct{}
}

func (c *countingCatalog) FetchReleasing(context.Context, anilist.Season) ([]*store.Title, error) {
	select {
	case c.fetched <- struct{}{}:
	default:
	}
	return nil, nil
}

type emptyFeed struct{}

func (emptyFeed) Search(context.Context, string) ([]scraper.Candidate, error) {
	return nil, nil
}

func TestSchedulerTriggersCatalogSync(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Scheduler.CatalogSyncInterval = 1
	cfg.Scheduler.FeedScanInterval = 3600

	st := testsupport.MustOpenStore(t, cfg)
	catalog := &countingCatalog{fetched: make(chan struct{}, 1)}
	resolver := settings.NewResolver(st, cfg, nil, nil, nil)
	runner := jobs.NewRunner(st, catalog, emptyFeed{}, resolver, nil, nil, nil)

	sched := scheduler.New(cfg, runner, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatalf("start scheduler: %v", err)
	}
	defer sched.Stop()

	select {
	case <-catalog.fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("catalog sync never triggered")
	}

	// The run must be recorded with the scheduled trigger.
	deadline := time.Now().Add(5 * time.Second)
	for {
		history, err := runner.History(context.Background(), store.HistoryFilter{Type: store.JobSyncCatalog})
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(history) > 0 {
			if history[0].Trigger != store.TriggerScheduled {
				t.Fatalf("expected scheduled trigger, got %s", history[0].Trigger)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("no execution recorded")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
