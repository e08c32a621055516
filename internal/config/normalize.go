package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDiscogs(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizeOrganizer(); err != nil {
		return err
	}
	c.normalizeRateLimit()
	c.normalizeArtwork()
	c.normalizePipeline()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDiscogs() error {
	c.Discogs.Token = strings.TrimSpace(c.Discogs.Token)
	if c.Discogs.Token == "" {
		if env := strings.TrimSpace(os.Getenv("DISCOGS_TOKEN")); env != "" {
			c.Discogs.Token = env
		}
	}
	c.Discogs.SearchURL = strings.TrimSpace(c.Discogs.SearchURL)
	if c.Discogs.SearchURL == "" {
		c.Discogs.SearchURL = defaultSearchURL
	}
	if c.Discogs.TimeoutSeconds <= 0 {
		c.Discogs.TimeoutSeconds = defaultHTTPTimeout
	}
	if c.Discogs.MaxRetries <= 0 {
		c.Discogs.MaxRetries = defaultMaxRetries
	}
	if c.Discogs.RetrySeconds <= 0 {
		c.Discogs.RetrySeconds = defaultRetrySeconds
	}
	return nil
}

func (c *Config) normalizeCache() error {
	c.Cache.Path = strings.TrimSpace(c.Cache.Path)
	if c.Cache.Path == "" {
		return nil
	}
	expanded, err := expandPath(c.Cache.Path)
	if err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	c.Cache.Path = expanded
	return nil
}

func (c *Config) normalizeOrganizer() error {
	c.Organizer.Format = strings.TrimSpace(c.Organizer.Format)
	if c.Organizer.Format == "" {
		c.Organizer.Format = defaultOrganizerFormat
	}
	c.Organizer.Library = strings.TrimSpace(c.Organizer.Library)
	if c.Organizer.Library == "" {
		return nil
	}
	expanded, err := expandPath(c.Organizer.Library)
	if err != nil {
		return fmt.Errorf("organizer.library: %w", err)
	}
	c.Organizer.Library = expanded
	return nil
}

func (c *Config) normalizeRateLimit() {
	if c.RateLimit.Budget <= 0 {
		c.RateLimit.Budget = defaultRateLimitBudget
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = defaultRateLimitWindow
	}
}

func (c *Config) normalizeArtwork() {
	if c.Artwork.MaxWidth <= 0 {
		c.Artwork.MaxWidth = defaultArtworkMaxWidth
	}
	if c.Artwork.MaxHeight <= 0 {
		c.Artwork.MaxHeight = defaultArtworkMaxHeight
	}
	if c.Artwork.TimeoutSeconds <= 0 {
		c.Artwork.TimeoutSeconds = defaultArtworkTimeout
	}
	if c.Artwork.RequestsPerSecond <= 0 {
		c.Artwork.RequestsPerSecond = defaultArtworkPacing
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultPipelineWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
