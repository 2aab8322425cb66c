package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAniList()
	c.normalizeNyaa()
	if err := c.normalizeQBittorrent(); err != nil {
		return err
	}
	c.normalizeMetadata()
	c.normalizeScheduler()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.SaveDir, err = expandPath(c.Paths.SaveDir); err != nil {
		return fmt.Errorf("paths.save_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeAniList() {
	c.AniList.BaseURL = strings.TrimRight(strings.TrimSpace(c.AniList.BaseURL), "/")
	if c.AniList.BaseURL == "" {
		c.AniList.BaseURL = defaultAniListBaseURL
	}
	if c.AniList.PerPage <= 0 {
		c.AniList.PerPage = defaultAniListPerPage
	}
	if c.AniList.MaxPages <= 0 {
		c.AniList.MaxPages = defaultAniListMaxPages
	}
}

func (c *Config) normalizeNyaa() {
	c.Nyaa.BaseURL = strings.TrimRight(strings.TrimSpace(c.Nyaa.BaseURL), "/")
	if c.Nyaa.BaseURL == "" {
		c.Nyaa.BaseURL = defaultNyaaBaseURL
	}
	c.Nyaa.Category = strings.TrimSpace(c.Nyaa.Category)
	if c.Nyaa.Category == "" {
		c.Nyaa.Category = defaultNyaaCategory
	}
	if c.Nyaa.RequestTimeout <= 0 {
		c.Nyaa.RequestTimeout = defaultNyaaRequestTimeout
	}
	if c.Nyaa.MaxRetries <= 0 {
		c.Nyaa.MaxRetries = defaultNyaaMaxRetries
	}
}

func (c *Config) normalizeQBittorrent() error {
	c.QBittorrent.URL = strings.TrimRight(strings.TrimSpace(c.QBittorrent.URL), "/")
	if c.QBittorrent.URL == "" {
		c.QBittorrent.URL = defaultQBittorrentURL
	}
	if c.QBittorrent.Password == "" {
		if value, ok := os.LookupEnv("QBITTORRENT_PASSWORD"); ok {
			c.QBittorrent.Password = value
		}
	}
	c.QBittorrent.Category = strings.TrimSpace(c.QBittorrent.Category)
	if c.QBittorrent.Category == "" {
		c.QBittorrent.Category = defaultQBittorrentCategory
	}
	return nil
}

func (c *Config) normalizeMetadata() {
	if c.TVDB.APIKey == "" {
		if value, ok := os.LookupEnv("TVDB_API_KEY"); ok {
			c.TVDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TVDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TVDB.BaseURL), "/")
	if c.TVDB.BaseURL == "" {
		c.TVDB.BaseURL = defaultTVDBBaseURL
	}
	c.TVDB.Language = strings.ToLower(strings.TrimSpace(c.TVDB.Language))
	if c.TVDB.Language == "" {
		c.TVDB.Language = defaultMetadataLanguage
	}

	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.Language = strings.TrimSpace(c.TMDB.Language)
	if c.TMDB.Language == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
}

func (c *Config) normalizeScheduler() {
	if c.Scheduler.CatalogSyncInterval <= 0 {
		c.Scheduler.CatalogSyncInterval = defaultCatalogSyncInterval
	}
	if c.Scheduler.FeedScanInterval <= 0 {
		c.Scheduler.FeedScanInterval = defaultFeedScanInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
