package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const titleColumns = "id, title_romaji, title_english, title_native, format, season, season_year, status, genres_json, synonyms_json, description, average_score, popularity, cover_image, site_url, updated_at"

func scanTitle(scanner interface{ Scan(dest ...any) error }) (*Title, error) {
	var (
		id           int64
		romaji       sql.NullString
		english      sql.NullString
		native       sql.NullString
		format       sql.NullString
		season       sql.NullString
		seasonYear   sql.NullInt64
		status       sql.NullString
		genresRaw    sql.NullString
		synonymsRaw  sql.NullString
		description  sql.NullString
		averageScore sql.NullInt64
		popularity   sql.NullInt64
		coverImage   sql.NullString
		siteURL      sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&romaji,
		&english,
		&native,
		&format,
		&season,
		&seasonYear,
		&status,
		&genresRaw,
		&synonymsRaw,
		&description,
		&averageScore,
		&popularity,
		&coverImage,
		&siteURL,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	title := &Title{
		ID:           id,
		TitleRomaji:  romaji.String,
		TitleEnglish: english.String,
		TitleNative:  native.String,
		Format:       format.String,
		Season:       season.String,
		SeasonYear:   int(seasonYear.Int64),
		Status:       status.String,
		Genres:       decodeStrings(genresRaw.String),
		Synonyms:     decodeStrings(synonymsRaw.String),
		Description:  description.String,
		AverageScore: int(averageScore.Int64),
		Popularity:   int(popularity.Int64),
		CoverImage:   coverImage.String,
		SiteURL:      siteURL.String,
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		title.UpdatedAt = updated
	}
	return title, nil
}

// UpsertTitles replaces or inserts catalog entries keyed by AniList id.
func (s *Store) UpsertTitles(ctx context.Context, titles []*Title) error {
	if len(titles) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin titles tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := formatTime(time.Now())
	for _, title := range titles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO titles (
                id, title_romaji, title_english, title_native, format, season,
                season_year, status, genres_json, synonyms_json, description,
                average_score, popularity, cover_image, site_url, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(id) DO UPDATE SET
                title_romaji = excluded.title_romaji,
                title_english = excluded.title_english,
                title_native = excluded.title_native,
                format = excluded.format,
                season = excluded.season,
                season_year = excluded.season_year,
                status = excluded.status,
                genres_json = excluded.genres_json,
                synonyms_json = excluded.synonyms_json,
                description = excluded.description,
                average_score = excluded.average_score,
                popularity = excluded.popularity,
                cover_image = excluded.cover_image,
                site_url = excluded.site_url,
                updated_at = excluded.updated_at`,
			title.ID,
			nullableString(title.TitleRomaji),
			nullableString(title.TitleEnglish),
			nullableString(title.TitleNative),
			nullableString(title.Format),
			nullableString(title.Season),
			title.SeasonYear,
			nullableString(title.Status),
			nullableString(encodeStrings(title.Genres)),
			nullableString(encodeStrings(title.Synonyms)),
			nullableString(title.Description),
			title.AverageScore,
			title.Popularity,
			nullableString(title.CoverImage),
			nullableString(title.SiteURL),
			timestamp,
		); err != nil {
			return fmt.Errorf("upsert title %d: %w", title.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit titles: %w", err)
	}
	return nil
}

// GetTitle fetches a catalog entry by AniList id.
func (s *Store) GetTitle(ctx context.Context, id int64) (*Title, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+titleColumns+` FROM titles WHERE id = ?`, id)
	title, err := scanTitle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get title: %w", err)
	}
	return title, nil
}

// ListTitles returns the catalog ordered by popularity descending.
func (s *Store) ListTitles(ctx context.Context) ([]*Title, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+titleColumns+` FROM titles ORDER BY popularity DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer rows.Close()

	var titles []*Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return titles, nil
}

// CountTitles returns the catalog size.
func (s *Store) CountTitles(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM titles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count titles: %w", err)
	}
	return count, nil
}
