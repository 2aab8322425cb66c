package server

import (
	"encoding/json"
	"time"

	"animarr/internal/settings"
	"animarr/internal/store"
)

type executionPayload struct {
	ID             string          `json:"id"`
	JobType        string          `json:"job_type"`
	TriggeredBy    string          `json:"triggered_by"`
	Status         string          `json:"status"`
	TitleID        *int64          `json:"title_id,omitempty"`
	Params         json.RawMessage `json:"params,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          string          `json:"error,omitempty"`
	ItemsProcessed int             `json:"items_processed"`
	ItemsSucceeded int             `json:"items_succeeded"`
	ItemsFailed    int             `json:"items_failed"`
	StartedAt      time.Time       `json:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

func toExecutionPayload(execution *store.JobExecution) executionPayload {
	payload := executionPayload{
		ID:             execution.ID,
		JobType:        string(execution.Type),
		TriggeredBy:    string(execution.Trigger),
		Status:         string(execution.Status),
		TitleID:        execution.TitleID,
		Error:          execution.ErrorMessage,
		ItemsProcessed: execution.ItemsProcessed,
		ItemsSucceeded: execution.ItemsSucceeded,
		ItemsFailed:    execution.ItemsFailed,
		StartedAt:      execution.StartedAt,
		CompletedAt:    execution.CompletedAt,
	}
	if execution.ParamsJSON != "" {
		payload.Params = json.RawMessage(execution.ParamsJSON)
	}
	if execution.ResultJSON != "" {
		payload.Result = json.RawMessage(execution.ResultJSON)
	}
	return payload
}

func toExecutionPayloads(executions []*store.JobExecution) []executionPayload {
	payloads := make([]executionPayload, 0, len(executions))
	for _, execution := range executions {
		payloads = append(payloads, toExecutionPayload(execution))
	}
	return payloads
}

type titlePayload struct {
	ID           int64    `json:"id"`
	TitleRomaji  string   `json:"title_romaji,omitempty"`
	TitleEnglish string   `json:"title_english,omitempty"`
	TitleNative  string   `json:"title_native,omitempty"`
	Format       string   `json:"format,omitempty"`
	Season       string   `json:"season,omitempty"`
	SeasonYear   int      `json:"season_year,omitempty"`
	Status       string   `json:"status,omitempty"`
	Genres       []string `json:"genres,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	AverageScore int      `json:"average_score,omitempty"`
	Popularity   int      `json:"popularity,omitempty"`
	CoverImage   string   `json:"cover_image,omitempty"`
	SiteURL      string   `json:"site_url,omitempty"`
}

func toTitlePayload(title *store.Title) titlePayload {
	return titlePayload{
		ID:           title.ID,
		TitleRomaji:  title.TitleRomaji,
		TitleEnglish: title.TitleEnglish,
		TitleNative:  title.TitleNative,
		Format:       title.Format,
		Season:       title.Season,
		SeasonYear:   title.SeasonYear,
		Status:       title.Status,
		Genres:       title.Genres,
		Synonyms:     title.Synonyms,
		AverageScore: title.AverageScore,
		Popularity:   title.Popularity,
		CoverImage:   title.CoverImage,
		SiteURL:      title.SiteURL,
	}
}

type settingsPayload struct {
	TitleID               int64    `json:"title_id"`
	Enabled               bool     `json:"enabled"`
	SavePath              string   `json:"save_path,omitempty"`
	SavePathTemplate      string   `json:"save_path_template,omitempty"`
	SearchQuery           string   `json:"search_query,omitempty"`
	SearchQueryTemplate   string   `json:"search_query_template,omitempty"`
	Includes              []string `json:"includes,omitempty"`
	Excludes              []string `json:"excludes,omitempty"`
	PreferredResolution   string   `json:"preferred_resolution,omitempty"`
	PreferredSubgroup     string   `json:"preferred_subgroup,omitempty"`
	AutoQueryFromSynonyms bool     `json:"auto_query_from_synonyms"`
	TVDBID                *int64   `json:"tvdb_id,omitempty"`
	TVDBSeason            *int     `json:"tvdb_season,omitempty"`
	TMDBID                *int64   `json:"tmdb_id,omitempty"`
	TMDBSeason            *int     `json:"tmdb_season,omitempty"`
}

func toSettingsPayload(record *store.Settings) settingsPayload {
	return settingsPayload{
		TitleID:               record.TitleID,
		Enabled:               record.Enabled,
		SavePath:              record.SavePath,
		SavePathTemplate:      record.SavePathTemplate,
		SearchQuery:           record.SearchQuery,
		SearchQueryTemplate:   record.SearchQueryTemplate,
		Includes:              record.Includes,
		Excludes:              record.Excludes,
		PreferredResolution:   record.PreferredResolution,
		PreferredSubgroup:     record.PreferredSubgroup,
		AutoQueryFromSynonyms: record.AutoQueryFromSynonyms,
		TVDBID:                record.TVDBID,
		TVDBSeason:            record.TVDBSeason,
		TMDBID:                record.TMDBID,
		TMDBSeason:            record.TMDBSeason,
	}
}

func (p *settingsPayload) toModel(titleID int64) *store.Settings {
	return &store.Settings{
		TitleID:               titleID,
		Enabled:               p.Enabled,
		SavePath:              p.SavePath,
		SavePathTemplate:      p.SavePathTemplate,
		SearchQuery:           p.SearchQuery,
		SearchQueryTemplate:   p.SearchQueryTemplate,
		Includes:              p.Includes,
		Excludes:              p.Excludes,
		PreferredResolution:   p.PreferredResolution,
		PreferredSubgroup:     p.PreferredSubgroup,
		AutoQueryFromSynonyms: p.AutoQueryFromSynonyms,
		TVDBID:                p.TVDBID,
		TVDBSeason:            p.TVDBSeason,
		TMDBID:                p.TMDBID,
		TMDBSeason:            p.TMDBSeason,
	}
}

type effectivePayload struct {
	TitleID             int64             `json:"title_id"`
	Enabled             bool              `json:"enabled"`
	SavePath            string            `json:"save_path,omitempty"`
	Query               string            `json:"query,omitempty"`
	QueryTerms          []string          `json:"query_terms,omitempty"`
	QuerySynthesized    bool              `json:"query_synthesized"`
	Includes            []string          `json:"includes,omitempty"`
	Excludes            []string          `json:"excludes,omitempty"`
	PreferredResolution string            `json:"preferred_resolution,omitempty"`
	PreferredSubgroup   string            `json:"preferred_subgroup,omitempty"`
	Variables           map[string]string `json:"variables,omitempty"`
}

func toEffectivePayload(effective *settings.Effective) effectivePayload {
	return effectivePayload{
		TitleID:             effective.TitleID,
		Enabled:             effective.Enabled,
		SavePath:            effective.SavePath,
		Query:               effective.Query,
		QueryTerms:          effective.QueryTerms,
		QuerySynthesized:    effective.QuerySynthesized,
		Includes:            effective.Includes,
		Excludes:            effective.Excludes,
		PreferredResolution: effective.PreferredResolution,
		PreferredSubgroup:   effective.PreferredSubgroup,
		Variables:           effective.Variables,
	}
}

type seenPayload struct {
	TitleID     int64      `json:"title_id"`
	Source      string     `json:"source,omitempty"`
	Title       string     `json:"title,omitempty"`
	Link        string     `json:"link,omitempty"`
	Magnet      string     `json:"magnet,omitempty"`
	Infohash    string     `json:"infohash,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SavePath    string     `json:"save_path,omitempty"`
	Exported    bool       `json:"exported"`
	ExportedAt  *time.Time `json:"exported_at,omitempty"`
	SeenAt      time.Time  `json:"seen_at"`
}

func toSeenPayloads(entries []*store.SeenTorrent) []seenPayload {
	payloads := make([]seenPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, seenPayload{
			TitleID:     entry.TitleID,
			Source:      entry.Source,
			Title:       entry.Title,
			Link:        entry.Link,
			Magnet:      entry.Magnet,
			Infohash:    entry.Infohash,
			PublishedAt: entry.PublishedAt,
			SavePath:    entry.SavePath,
			Exported:    entry.Exported,
			ExportedAt:  entry.ExportedAt,
			SeenAt:      entry.SeenAt,
		})
	}
	return payloads
}

type statisticsPayload struct {
	Period     string            `json:"period"`
	Statistics []aggregatePayload `json:"statistics"`
}

type aggregatePayload struct {
	Status         string `json:"status"`
	Count          int    `json:"count"`
	TotalProcessed int    `json:"total_processed"`
	TotalSucceeded int    `json:"total_succeeded"`
	TotalFailed    int    `json:"total_failed"`
}

func toStatisticsPayload(period store.Period, aggregates []store.StatusAggregate) statisticsPayload {
	payload := statisticsPayload{
		Period:     string(period),
		Statistics: make([]aggregatePayload, 0, len(aggregates)),
	}
	for _, agg := range aggregates {
		payload.Statistics = append(payload.Statistics, aggregatePayload{
			Status:         string(agg.Status),
			Count:          agg.Count,
			TotalProcessed: agg.TotalProcessed,
			TotalSucceeded: agg.TotalSucceeded,
			TotalFailed:    agg.TotalFailed,
		})
	}
	return payload
}
