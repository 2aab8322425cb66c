package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrGlobalSettingsProtected indicates an attempt to delete the global defaults row.
var ErrGlobalSettingsProtected = errors.New("global settings cannot be deleted")

const settingsColumns = "title_id, enabled, save_path, save_path_template, search_query, search_query_template, includes_json, excludes_json, preferred_resolution, preferred_subgroup, auto_query_from_synonyms, tvdb_id, tvdb_season, tmdb_id, tmdb_season, created_at, updated_at"

func scanSettings(scanner interface{ Scan(dest ...any) error }) (*Settings, error) {
	var (
		titleID       int64
		enabled       sql.NullInt64
		savePath      sql.NullString
		savePathTmpl  sql.NullString
		query         sql.NullString
		queryTmpl     sql.NullString
		includesRaw   sql.NullString
		excludesRaw   sql.NullString
		resolution    sql.NullString
		subgroup      sql.NullString
		autoQuery     sql.NullInt64
		tvdbID        sql.NullInt64
		tvdbSeason    sql.NullInt64
		tmdbID        sql.NullInt64
		tmdbSeason    sql.NullInt64
		createdRaw    sql.NullString
		updatedRaw    sql.NullString
	)

	if err := scanner.Scan(
		&titleID,
		&enabled,
		&savePath,
		&savePathTmpl,
		&query,
		&queryTmpl,
		&includesRaw,
		&excludesRaw,
		&resolution,
		&subgroup,
		&autoQuery,
		&tvdbID,
		&tvdbSeason,
		&tmdbID,
		&tmdbSeason,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	settings := &Settings{
		TitleID:               titleID,
		Enabled:               enabled.Int64 != 0,
		SavePath:              savePath.String,
		SavePathTemplate:      savePathTmpl.String,
		SearchQuery:           query.String,
		SearchQueryTemplate:   queryTmpl.String,
		Includes:              decodeStrings(includesRaw.String),
		Excludes:              decodeStrings(excludesRaw.String),
		PreferredResolution:   resolution.String,
		PreferredSubgroup:     subgroup.String,
		AutoQueryFromSynonyms: autoQuery.Int64 != 0,
	}
	if tvdbID.Valid {
		v := tvdbID.Int64
		settings.TVDBID = &v
	}
	if tvdbSeason.Valid {
		v := int(tvdbSeason.Int64)
		settings.TVDBSeason = &v
	}
	if tmdbID.Valid {
		v := tmdbID.Int64
		settings.TMDBID = &v
	}
	if tmdbSeason.Valid {
		v := int(tmdbSeason.Int64)
		settings.TMDBSeason = &v
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		settings.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		settings.UpdatedAt = updated
	}
	return settings, nil
}

// GetSettings fetches the settings row for a title id. Returns nil when absent.
func (s *Store) GetSettings(ctx context.Context, titleID int64) (*Settings, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+settingsColumns+` FROM title_settings WHERE title_id = ?`, titleID)
	settings, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// GlobalSettings fetches the defaults row, seeding it if missing.
func (s *Store) GlobalSettings(ctx context.Context) (*Settings, error) {
	settings, err := s.GetSettings(ctx, GlobalSettingsID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}
	if err := s.seedGlobalSettings(ctx); err != nil {
		return nil, err
	}
	return s.GetSettings(ctx, GlobalSettingsID)
}

func (s *Store) seedGlobalSettings(ctx context.Context) error {
	timestamp := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO title_settings (title_id, enabled, auto_query_from_synonyms, created_at, updated_at)
         VALUES (?, 0, 1, ?, ?)
         ON CONFLICT(title_id) DO NOTHING`,
		GlobalSettingsID, timestamp, timestamp,
	); err != nil {
		return fmt.Errorf("seed global settings: %w", err)
	}
	return nil
}

// UpsertSettings writes a settings row, preserving created_at on update.
func (s *Store) UpsertSettings(ctx context.Context, settings *Settings) (*Settings, error) {
	timestamp := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO title_settings (
            title_id, enabled, save_path, save_path_template, search_query,
            search_query_template, includes_json, excludes_json,
            preferred_resolution, preferred_subgroup, auto_query_from_synonyms,
            tvdb_id, tvdb_season, tmdb_id, tmdb_season, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(title_id) DO UPDATE SET
            enabled = excluded.enabled,
            save_path = excluded.save_path,
            save_path_template = excluded.save_path_template,
            search_query = excluded.search_query,
            search_query_template = excluded.search_query_template,
            includes_json = excluded.includes_json,
            excludes_json = excluded.excludes_json,
            preferred_resolution = excluded.preferred_resolution,
            preferred_subgroup = excluded.preferred_subgroup,
            auto_query_from_synonyms = excluded.auto_query_from_synonyms,
            tvdb_id = excluded.tvdb_id,
            tvdb_season = excluded.tvdb_season,
            tmdb_id = excluded.tmdb_id,
            tmdb_season = excluded.tmdb_season,
            updated_at = excluded.updated_at`,
		settings.TitleID,
		boolToInt(settings.Enabled),
		nullableString(settings.SavePath),
		nullableString(settings.SavePathTemplate),
		nullableString(settings.SearchQuery),
		nullableString(settings.SearchQueryTemplate),
		nullableString(encodeStrings(settings.Includes)),
		nullableString(encodeStrings(settings.Excludes)),
		nullableString(settings.PreferredResolution),
		nullableString(settings.PreferredSubgroup),
		boolToInt(settings.AutoQueryFromSynonyms),
		nullableInt64(settings.TVDBID),
		nullableInt(settings.TVDBSeason),
		nullableInt64(settings.TMDBID),
		nullableInt(settings.TMDBSeason),
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("upsert settings: %w", err)
	}
	return s.GetSettings(ctx, settings.TitleID)
}

// ListEnabledSettings returns all per-title settings with acquisition enabled.
// The global row is never included.
func (s *Store) ListEnabledSettings(ctx context.Context) ([]*Settings, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settingsColumns+` FROM title_settings
         WHERE enabled = 1 AND title_id != ? ORDER BY title_id ASC`,
		GlobalSettingsID)
	if err != nil {
		return nil, fmt.Errorf("list enabled settings: %w", err)
	}
	defer rows.Close()

	var list []*Settings
	for rows.Next() {
		settings, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		list = append(list, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate settings: %w", err)
	}
	return list, nil
}

// DeleteSettings removes a per-title settings row. Deleting the global row
// is refused; use ResetGlobalSettings instead.
func (s *Store) DeleteSettings(ctx context.Context, titleID int64) error {
	if titleID == GlobalSettingsID {
		return ErrGlobalSettingsProtected
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM title_settings WHERE title_id = ?", titleID); err != nil {
		return fmt.Errorf("delete settings: %w", err)
	}
	return nil
}

// ResetGlobalSettings restores the defaults row to its seeded state.
func (s *Store) ResetGlobalSettings(ctx context.Context) (*Settings, error) {
	timestamp := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx,
		`UPDATE title_settings SET
            enabled = 0,
            save_path = NULL,
            save_path_template = NULL,
            search_query = NULL,
            search_query_template = NULL,
            includes_json = NULL,
            excludes_json = NULL,
            preferred_resolution = NULL,
            preferred_subgroup = NULL,
            auto_query_from_synonyms = 1,
            tvdb_id = NULL,
            tvdb_season = NULL,
            tmdb_id = NULL,
            tmdb_season = NULL,
            updated_at = ?
         WHERE title_id = ?`,
		timestamp, GlobalSettingsID,
	); err != nil {
		return nil, fmt.Errorf("reset global settings: %w", err)
	}
	return s.GlobalSettings(ctx)
}
