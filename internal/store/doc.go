// Package store persists the service's state in SQLite: the AniList
// catalog, per-title acquisition settings, the seen-torrent ledger, and
// job execution history.
//
// The Store manages database connections, schema initialization, and the
// queries each subsystem needs. The settings table carries a sentinel row
// (title_id 0) holding global defaults; it is seeded at schema creation
// and can be reset but never deleted. The seen ledger enforces uniqueness
// on a derived dedup key so replayed feeds stay idempotent.
//
// Schema changes bump the version in schema.go; users delete the database
// and re-run init_store to adopt the new schema.
package store
