package config

const (
	defaultDataDir             = "~/.local/share/animarr"
	defaultLogDir              = "~/.local/share/animarr/logs"
	defaultSaveDir             = "~/downloads/anime"
	defaultAPIBind             = "127.0.0.1:7817"
	defaultAniListBaseURL      = "https://graphql.anilist.co"
	defaultAniListPerPage      = 50
	defaultAniListMaxPages     = 10
	defaultNyaaBaseURL         = "https://nyaa.si"
	defaultNyaaCategory        = "1_2"
	defaultNyaaRequestTimeout  = 30
	defaultNyaaMaxRetries      = 3
	defaultQBittorrentURL      = "http://localhost:8080"
	defaultQBittorrentCategory = "anime"
	defaultTVDBBaseURL         = "https://api4.thetvdb.com/v4"
	defaultTMDBBaseURL         = "https://api.themoviedb.org/3"
	defaultMetadataLanguage    = "eng"
	defaultTMDBLanguage        = "en-US"
	defaultCatalogSyncInterval = 21600
	defaultFeedScanInterval    = 1800
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			SaveDir: defaultSaveDir,
			APIBind: defaultAPIBind,
		},
		AniList: AniList{
			BaseURL:  defaultAniListBaseURL,
			PerPage:  defaultAniListPerPage,
			MaxPages: defaultAniListMaxPages,
		},
		Nyaa: Nyaa{
			BaseURL:        defaultNyaaBaseURL,
			Category:       defaultNyaaCategory,
			RequestTimeout: defaultNyaaRequestTimeout,
			MaxRetries:     defaultNyaaMaxRetries,
		},
		QBittorrent: QBittorrent{
			URL:      defaultQBittorrentURL,
			Category: defaultQBittorrentCategory,
		},
		TVDB: TVDB{
			BaseURL:  defaultTVDBBaseURL,
			Language: defaultMetadataLanguage,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Scheduler: Scheduler{
			Enabled:             true,
			CatalogSyncInterval: defaultCatalogSyncInterval,
			FeedScanInterval:    defaultFeedScanInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
