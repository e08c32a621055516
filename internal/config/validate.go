package config

import (
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDiscogs(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	if c.Organizer.Enabled && c.Organizer.Library == "" {
		return fmt.Errorf("organizer.library is required when organizer.enabled is true")
	}
	return nil
}

func (c *Config) validateDiscogs() error {
	if c.Discogs.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/phonodex/config.toml"
		}
		return fmt.Errorf("discogs.token is required. Set DISCOGS_TOKEN env var or edit %s (create with 'phonodex config new')", defaultPath)
	}
	parsed, err := url.Parse(c.Discogs.SearchURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("discogs.search_url must be an absolute URL, got %q", c.Discogs.SearchURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
