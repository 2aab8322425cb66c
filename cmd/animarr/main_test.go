package main

import (
	"strings"
	"testing"
	"time"
)

func TestExecutionRowFormatsCounters(t *testing.T) {
	started := time.Date(2026, time.January, 10, 8, 30, 0, 0, time.UTC)
	completed := started.Add(2350 * time.Millisecond)

	row := executionRow(cliExecution{
		ID:             "scan_feed_0a1b2c3d4e5f",
		JobType:        "scan_feed",
		TriggeredBy:    "scheduled",
		Status:         "completed",
		ItemsProcessed: 5,
		ItemsSucceeded: 4,
		ItemsFailed:    1,
		StartedAt:      started,
		CompletedAt:    &completed,
	})

	if row[0] != "scan_feed_0a1b2c3d4e5f" {
		t.Fatalf("unexpected id column %q", row[0])
	}
	if row[4] != "4/5" {
		t.Fatalf("unexpected items column %q", row[4])
	}
	if row[6] != "2.35s" {
		t.Fatalf("unexpected duration column %q", row[6])
	}
}

func TestFormatDurationHandlesRunningJobs(t *testing.T) {
	if got := formatDuration(time.Now(), nil); got != "-" {
		t.Fatalf("expected placeholder for running job, got %q", got)
	}
}

func TestTruncateKeepsShortValues(t *testing.T) {
	if got := truncate("short", 60); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
	long := strings.Repeat("x", 80)
	got := truncate(long, 60)
	if len(got) != 60 || !strings.HasSuffix(got, "...") {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable(
		[]string{"A", "B"},
		[][]string{{"only-a"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "only-a") {
		t.Fatalf("row value missing from table output:\n%s", out)
	}
	if !strings.Contains(out, "A") || !strings.Contains(out, "B") {
		t.Fatalf("headers missing from table output:\n%s", out)
	}
}
