package main

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"phonodex/internal/cachestore"
	"phonodex/internal/catalog"
	"phonodex/internal/config"
	"phonodex/internal/discogs"
	"phonodex/internal/logging"
	"phonodex/internal/ratelimit"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// runtime bundles the wired resolver stack for one command invocation.
// Close releases the verdict store when one is open.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	cache    *catalog.Cache
	store    *cachestore.Store
	resolver *catalog.Resolver
}

// newRuntime assembles the limiter, search client, verdict cache, and
// resolver from configuration. The persistent store is optional; an empty
// cache path keeps verdicts in memory.
func (c *commandContext) newRuntime() (*runtime, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(
		cfg.RateLimit.Budget,
		time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		logger,
	)
	client, err := discogs.New(
		cfg.Discogs.Token,
		cfg.Discogs.SearchURL,
		limiter,
		logger,
		discogs.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Discogs.TimeoutSeconds) * time.Second}),
		discogs.WithRetries(cfg.Discogs.MaxRetries, time.Duration(cfg.Discogs.RetrySeconds)*time.Second),
	)
	if err != nil {
		return nil, err
	}

	cache := catalog.NewCache()
	var resolverOpts []catalog.ResolverOption
	var store *cachestore.Store
	if cfg.Cache.Path != "" {
		store, err = cachestore.Open(cfg.Cache.Path, logger)
		if err != nil {
			return nil, err
		}
		if _, err := store.Load(cache); err != nil {
			_ = store.Close()
			return nil, err
		}
		resolverOpts = append(resolverOpts, catalog.WithStore(store))
	}

	resolver, err := catalog.NewResolver(cache, client, logger, resolverOpts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		cache:    cache,
		store:    store,
		resolver: resolver,
	}, nil
}

func (r *runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}
