// Package config loads, normalizes, and validates animarr configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TVDB_API_KEY and QBITTORRENT_PASSWORD. The Config type centralizes every
// knob the daemon and CLI need, allowing data directories and external
// service credentials to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
