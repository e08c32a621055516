package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultSearchURL         = "https://api.discogs.com/database/search"
	defaultHTTPTimeout       = 10
	defaultMaxRetries        = 3
	defaultRetrySeconds      = 2
	defaultRateLimitBudget   = 60
	defaultRateLimitWindow   = 60
	defaultArtworkMaxWidth   = 1000
	defaultArtworkMaxHeight  = 1000
	defaultArtworkTimeout    = 10
	defaultArtworkPacing     = 2.0
	defaultPipelineWorkers   = 4
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultCacheFileName     = "verdicts.db"

	defaultOrganizerFormat = "%genre%/%year%/[%catalognumber%] %albumartist% - %album%/%artist% - %title%"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Discogs: Discogs{
			SearchURL:      defaultSearchURL,
			TimeoutSeconds: defaultHTTPTimeout,
			MaxRetries:     defaultMaxRetries,
			RetrySeconds:   defaultRetrySeconds,
		},
		RateLimit: RateLimit{
			Budget:        defaultRateLimitBudget,
			WindowSeconds: defaultRateLimitWindow,
		},
		Cache: Cache{
			Path: defaultCachePath(),
		},
		Tagging: Tagging{
			Catalog: true,
			Year:    true,
			Art:     true,
		},
		Artwork: Artwork{
			MaxWidth:          defaultArtworkMaxWidth,
			MaxHeight:         defaultArtworkMaxHeight,
			TimeoutSeconds:    defaultArtworkTimeout,
			RequestsPerSecond: defaultArtworkPacing,
		},
		Organizer: Organizer{
			Enabled: false,
			Format:  defaultOrganizerFormat,
		},
		Pipeline: Pipeline{
			Workers: defaultPipelineWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultCachePath() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "phonodex", defaultCacheFileName)
	}
	return filepath.Join("~", ".cache", "phonodex", defaultCacheFileName)
}
