package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const seenColumns = "id, dedup_key, title_id, source, title, link, magnet, infohash, published_at, save_path, exported, exported_at, seen_at"

func scanSeen(scanner interface{ Scan(dest ...any) error }) (*SeenTorrent, error) {
	var (
		id          int64
		dedupKey    string
		titleID     int64
		source      sql.NullString
		title       sql.NullString
		link        sql.NullString
		magnet      sql.NullString
		infohash    sql.NullString
		publishedAt sql.NullString
		savePath    sql.NullString
		exported    sql.NullInt64
		exportedRaw sql.NullString
		seenRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&dedupKey,
		&titleID,
		&source,
		&title,
		&link,
		&magnet,
		&infohash,
		&publishedAt,
		&savePath,
		&exported,
		&exportedRaw,
		&seenRaw,
	); err != nil {
		return nil, err
	}

	entry := &SeenTorrent{
		ID:       id,
		TitleID:  titleID,
		Source:   source.String,
		Title:    title.String,
		Link:     link.String,
		Magnet:   magnet.String,
		Infohash: infohash.String,
		SavePath: savePath.String,
		Exported: exported.Int64 != 0,
	}
	if publishedAt.Valid {
		if published, err := parseTimeString(publishedAt.String); err == nil {
			entry.PublishedAt = &published
		}
	}
	if exportedRaw.Valid {
		if exportedAt, err := parseTimeString(exportedRaw.String); err == nil {
			entry.ExportedAt = &exportedAt
		}
	}
	if seen, err := parseTimeString(seenRaw.String); err == nil {
		entry.SeenAt = seen
	}
	return entry, nil
}

// IsSeen reports whether the ledger already holds the key.
func (s *Store) IsSeen(ctx context.Context, key string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM seen_torrents WHERE dedup_key = ?", key).Scan(&count); err != nil {
		return false, fmt.Errorf("probe seen: %w", err)
	}
	return count > 0, nil
}

// RecordSeen writes a ledger entry. The write is idempotent on the dedup
// key; replaying a release refreshes its metadata without duplicating it.
func (s *Store) RecordSeen(ctx context.Context, entry *SeenTorrent) error {
	timestamp := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO seen_torrents (
            dedup_key, title_id, source, title, link, magnet, infohash,
            published_at, save_path, exported, exported_at, seen_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(dedup_key) DO UPDATE SET
            title_id = excluded.title_id,
            source = excluded.source,
            title = excluded.title,
            link = excluded.link,
            magnet = excluded.magnet,
            infohash = excluded.infohash,
            published_at = excluded.published_at,
            save_path = excluded.save_path`,
		entry.DedupKey(),
		entry.TitleID,
		nullableString(entry.Source),
		nullableString(entry.Title),
		nullableString(entry.Link),
		nullableString(entry.Magnet),
		nullableString(entry.Infohash),
		nullableTime(entry.PublishedAt),
		nullableString(entry.SavePath),
		boolToInt(entry.Exported),
		nullableTime(entry.ExportedAt),
		timestamp,
	); err != nil {
		return fmt.Errorf("record seen: %w", err)
	}
	return nil
}

// GetSeen fetches a ledger entry by key. Returns nil when absent.
func (s *Store) GetSeen(ctx context.Context, key string) (*SeenTorrent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+seenColumns+` FROM seen_torrents WHERE dedup_key = ?`, key)
	entry, err := scanSeen(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get seen: %w", err)
	}
	return entry, nil
}

// ListSeen returns ledger entries newest first, optionally scoped to a title.
func (s *Store) ListSeen(ctx context.Context, titleID *int64, limit int) ([]*SeenTorrent, error) {
	query := `SELECT ` + seenColumns + ` FROM seen_torrents`
	var args []any
	if titleID != nil {
		query += " WHERE title_id = ?"
		args = append(args, *titleID)
	}
	query += " ORDER BY seen_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list seen: %w", err)
	}
	defer rows.Close()

	var entries []*SeenTorrent
	for rows.Next() {
		entry, err := scanSeen(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seen: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seen: %w", err)
	}
	return entries, nil
}

// ListUnexported returns ledger entries not yet handed to the download client.
func (s *Store) ListUnexported(ctx context.Context) ([]*SeenTorrent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+seenColumns+` FROM seen_torrents WHERE exported = 0 ORDER BY seen_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list unexported: %w", err)
	}
	defer rows.Close()

	var entries []*SeenTorrent
	for rows.Next() {
		entry, err := scanSeen(rows)
		if err != nil {
			return nil, fmt.Errorf("scan seen: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported: %w", err)
	}
	return entries, nil
}

// MarkExported stamps a ledger entry as handed to the download client.
func (s *Store) MarkExported(ctx context.Context, key string) error {
	timestamp := formatTime(time.Now())
	if _, err := s.db.ExecContext(ctx,
		"UPDATE seen_torrents SET exported = 1, exported_at = ? WHERE dedup_key = ?",
		timestamp, key,
	); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}
