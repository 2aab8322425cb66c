package config

import (
	"errors"
	"fmt"
	"strings"
)

var validResolutions = map[string]struct{}{
	"480P":  {},
	"720P":  {},
	"1080P": {},
	"2160P": {},
	"4K":    {},
}

// ValidResolution reports whether a preferred-resolution token is recognized.
// Matching is case-insensitive; "4K" is an accepted alias for 2160P.
func ValidResolution(value string) bool {
	_, ok := validResolutions[strings.ToUpper(strings.TrimSpace(value))]
	return ok
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAniList(); err != nil {
		return err
	}
	if err := c.validateNyaa(); err != nil {
		return err
	}
	if err := c.validateQBittorrent(); err != nil {
		return err
	}
	if err := c.validateScheduler(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAniList() error {
	if !strings.HasPrefix(c.AniList.BaseURL, "http") {
		return fmt.Errorf("anilist.base_url must be an http(s) URL, got %q", c.AniList.BaseURL)
	}
	if c.AniList.PerPage > 50 {
		return errors.New("anilist.per_page must be at most 50")
	}
	return nil
}

func (c *Config) validateNyaa() error {
	if !strings.HasPrefix(c.Nyaa.BaseURL, "http") {
		return fmt.Errorf("nyaa.base_url must be an http(s) URL, got %q", c.Nyaa.BaseURL)
	}
	if err := ensurePositiveMap(map[string]int{
		"nyaa.request_timeout": c.Nyaa.RequestTimeout,
		"nyaa.max_retries":     c.Nyaa.MaxRetries,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateQBittorrent() error {
	if !c.QBittorrent.Enabled {
		return nil
	}
	if strings.TrimSpace(c.QBittorrent.URL) == "" {
		return errors.New("qbittorrent.url must be set when qbittorrent.enabled is true")
	}
	if strings.TrimSpace(c.QBittorrent.Username) == "" {
		return errors.New("qbittorrent.username must be set when qbittorrent.enabled is true")
	}
	for backend, remote := range c.QBittorrent.PathMappings {
		if strings.TrimSpace(backend) == "" || strings.TrimSpace(remote) == "" {
			return errors.New("qbittorrent.path_mappings entries must map a non-empty path to a non-empty path")
		}
	}
	return nil
}

func (c *Config) validateScheduler() error {
	if !c.Scheduler.Enabled {
		return nil
	}
	return ensurePositiveMap(map[string]int{
		"scheduler.catalog_sync_interval": c.Scheduler.CatalogSyncInterval,
		"scheduler.feed_scan_interval":    c.Scheduler.FeedScanInterval,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
