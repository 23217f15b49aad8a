// Package cli implements the newton command-line interface.
//
// Commands render the Newton fractal of z³−1 to image files, benchmark the
// parallel strategies against each other, serve renders over HTTP, and
// manage the result cache and the run history. The CLI is built using
// cobra and logs via charmbracelet/log; --verbose (-v) switches to debug
// level.
//
// # Commands
//
//   - render: compute a grid and write png, bmp or tiff images
//   - bench: time the reference and accelerated strategies
//   - serve: run the HTTP API
//   - runs: list recorded runs
//   - cache: clear or locate the local result cache
//   - config: print the effective configuration
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/newton/pkg/cache"
	"github.com/matzehuels/newton/pkg/config"
	"github.com/matzehuels/newton/pkg/pipeline"
	"github.com/matzehuels/newton/pkg/store"
)

const (
	// appName is the application name used for directories and display.
	appName = "newton"

	// redisKeyPrefix scopes cache keys in a shared redis.
	redisKeyPrefix = "newton:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means the per-user default.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the configuration named by --config, falling back to
// the per-user file and then to the built-in defaults.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded config", "path", c.configPath, "cache", cfg.Cache.Backend, "store", cfg.Store.Backend)
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner with the cache and run store selected
// by cfg. noCache forces caching off regardless of the configured backend.
func (c *CLI) newRunner(ctx context.Context, cfg *config.Config, noCache bool) (*pipeline.Runner, error) {
	rc, keyer, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	runs, err := c.newStore(ctx, cfg)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	runner := pipeline.NewRunner(rc, keyer, c.Logger)
	runner.Store = runs
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, cache.Keyer, error) {
	if noCache {
		return cache.NewNullCache(), nil, nil
	}
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), redisKeyPrefix)
		return cache.WithTTL(rc, cfg.Cache.TTL), keyer, nil
	case config.BackendFile:
		dir := cfg.Cache.Dir
		if dir == "" {
			d, err := cacheDir()
			if err != nil {
				c.Logger.Warn("no cache directory, caching disabled", "error", err)
				return cache.NewNullCache(), nil, nil
			}
			dir = d
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return cache.WithTTL(fc, cfg.Cache.TTL), nil, nil
	default:
		return cache.NewNullCache(), nil, nil
	}
}

func (c *CLI) newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case config.BackendMongo:
		ms, err := store.NewMongoStore(ctx, cfg.Store.MongoURI, cfg.Store.Database)
		if err != nil {
			return nil, err
		}
		return ms, nil
	case config.BackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewNullStore(), nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/newton/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
