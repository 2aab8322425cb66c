// Package metadata integrates external series databases (TheTVDB and TMDB)
// behind a common Provider interface.
//
// Providers are optional: without an API key every lookup resolves to
// absent, never to an error, so save-path templates degrade gracefully.
// The TVDB client caches its bearer token for just under a day and prefers
// translated names in the configured language.
package metadata
