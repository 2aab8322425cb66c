package store

import (
	"strings"
	"time"
)

// GlobalSettingsID is the sentinel title id owning the global settings
// record. The row is seeded at schema creation and is never deleted,
// only reset to defaults.
const GlobalSettingsID int64 = 0

// Title is a catalog entry synced from AniList. Rows are owned by the
// catalog sync job and replaced wholesale on resync.
type Title struct {
	ID           int64
	TitleRomaji  string
	TitleEnglish string
	TitleNative  string
	Format       string
	Season       string
	SeasonYear   int
	Status       string
	Genres       []string
	Synonyms     []string
	Description  string
	AverageScore int
	Popularity   int
	CoverImage   string
	SiteURL      string
	UpdatedAt    time.Time
}

// PrimaryName returns the display name used when no other query source
// applies: romaji first, then english, then native.
func (t *Title) PrimaryName() string {
	for _, name := range []string{t.TitleRomaji, t.TitleEnglish, t.TitleNative} {
		if strings.TrimSpace(name) != "" {
			return name
		}
	}
	return ""
}

// NameVariants returns all known names and synonyms, de-duplicated and
// in a stable order.
func (t *Title) NameVariants() []string {
	seen := make(map[string]struct{})
	var variants []string
	add := func(name string) {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return
		}
		if _, ok := seen[trimmed]; ok {
			return
		}
		seen[trimmed] = struct{}{}
		variants = append(variants, trimmed)
	}
	add(t.TitleRomaji)
	add(t.TitleEnglish)
	add(t.TitleNative)
	for _, synonym := range t.Synonyms {
		add(synonym)
	}
	return variants
}

// Settings holds per-title acquisition preferences. The row keyed by
// GlobalSettingsID doubles as the global defaults record: its SavePath
// is the default save path, SavePathTemplate the default path template,
// and SearchQueryTemplate the default query template.
type Settings struct {
	TitleID               int64
	Enabled               bool
	SavePath              string
	SavePathTemplate      string
	SearchQuery           string
	SearchQueryTemplate   string
	Includes              []string
	Excludes              []string
	PreferredResolution   string
	PreferredSubgroup     string
	AutoQueryFromSynonyms bool
	TVDBID                *int64
	TVDBSeason            *int
	TMDBID                *int64
	TMDBSeason            *int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsGlobal reports whether the record is the global defaults row.
func (s *Settings) IsGlobal() bool {
	return s.TitleID == GlobalSettingsID
}

// SeenTorrent is a ledger entry for a release that has already been
// handled. Uniqueness holds on DedupKey.
type SeenTorrent struct {
	ID          int64
	TitleID     int64
	Source      string
	Title       string
	Link        string
	Magnet      string
	Infohash    string
	PublishedAt *time.Time
	SavePath    string
	Exported    bool
	ExportedAt  *time.Time
	SeenAt      time.Time
}

// DedupKey builds the ledger key: lowercased infohash when present,
// otherwise a link+title composite.
func (s *SeenTorrent) DedupKey() string {
	return SeenKey(s.Infohash, s.Link, s.Title)
}

// SeenKey derives a ledger key from candidate identifiers.
func SeenKey(infohash, link, title string) string {
	if hash := strings.ToLower(strings.TrimSpace(infohash)); hash != "" {
		return hash
	}
	return strings.TrimSpace(link) + "\n" + strings.TrimSpace(title)
}

// JobStatus represents the lifecycle of a job execution.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobType enumerates the recognized job kinds.
type JobType string

const (
	JobSyncCatalog     JobType = "sync_catalog"
	JobScanFeed        JobType = "scan_feed"
	JobInitStore       JobType = "init_store"
	JobExportDownloads JobType = "export_downloads"
)

var allJobTypes = []JobType{JobSyncCatalog, JobScanFeed, JobInitStore, JobExportDownloads}

// JobTypes returns the ordered list of known job types.
func JobTypes() []JobType {
	cp := make([]JobType, len(allJobTypes))
	copy(cp, allJobTypes)
	return cp
}

// ParseJobType converts a string into a known JobType.
func ParseJobType(value string) (JobType, bool) {
	normalized := JobType(strings.ToLower(strings.TrimSpace(value)))
	for _, jt := range allJobTypes {
		if jt == normalized {
			return jt, true
		}
	}
	return "", false
}

// Trigger identifies what started a job execution.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduled Trigger = "scheduled"
)

// JobExecution is one tracked run of a job type. Records are created at
// start, mutated only by the owning execution, and immutable once a
// terminal status is set.
type JobExecution struct {
	ID             string
	Type           JobType
	Trigger        Trigger
	Status         JobStatus
	TitleID        *int64
	ParamsJSON     string
	ResultJSON     string
	ErrorMessage   string
	ItemsProcessed int
	ItemsSucceeded int
	ItemsFailed    int
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// IsTerminal reports whether the execution reached a final status.
func (e *JobExecution) IsTerminal() bool {
	return e.Status == JobCompleted || e.Status == JobFailed
}

// HistoryFilter narrows execution history queries. Zero values mean
// "no constraint"; Limit <= 0 falls back to a server-side default.
type HistoryFilter struct {
	Type    JobType
	Status  JobStatus
	TitleID *int64
	Limit   int
}

// StatusAggregate is one row of the derived job statistics: executions
// grouped by terminal-or-not status with summed item counters.
type StatusAggregate struct {
	Status         JobStatus
	Count          int
	TotalProcessed int
	TotalSucceeded int
	TotalFailed    int
}

// Period selects the statistics window.
type Period string

const (
	Period24h Period = "24h"
	Period7d  Period = "7d"
	Period30d Period = "30d"
	PeriodAll Period = "all"
)

// ParsePeriod converts a string into a known Period.
func ParsePeriod(value string) (Period, bool) {
	switch Period(strings.ToLower(strings.TrimSpace(value))) {
	case Period24h:
		return Period24h, true
	case Period7d:
		return Period7d, true
	case Period30d:
		return Period30d, true
	case PeriodAll, "":
		return PeriodAll, true
	}
	return "", false
}

// Since returns the window start for the period, or nil for all time.
func (p Period) Since(now time.Time) *time.Time {
	var cutoff time.Time
	switch p {
	case Period24h:
		cutoff = now.Add(-24 * time.Hour)
	case Period7d:
		cutoff = now.AddDate(0, 0, -7)
	case Period30d:
		cutoff = now.AddDate(0, 0, -30)
	default:
		return nil
	}
	return &cutoff
}
