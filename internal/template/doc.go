// Package template implements the substitution engine behind save-path and
// search-query templates.
//
// Templates reference variables as {key} from a closed, case-sensitive set
// built per render: calendar values, the catalog title's names and season,
// and optional tvdb/tmdb metadata. Unknown tokens pass through untouched;
// HasUnresolved lets callers reject paths that still contain placeholders.
// Rendering is pure and side-effect free.
package template
