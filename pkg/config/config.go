// Package config loads newton's TOML configuration file.
//
// Every section is optional; missing keys keep their defaults. Command-line
// flags override file values.
//
//	[grid]
//	from_x = -1.0
//	from_y = -1.0
//	size = 2.0
//	n = 2048
//
//	[kernel]
//	max_iter = 1024
//	tolerance = 1e-7
//
//	[executor]
//	strategy = "accelerated"
//	workers = 0        # 0 = GOMAXPROCS
//	chunk_rows = 1
//
//	[executor.launch]
//	grid = { x = 4, y = 5 }
//	block = { x = 8, y = 128 }
//
//	[output]
//	path = "newton.png"
//	formats = ["png"]
//
//	[cache]
//	backend = "file"   # file, redis, none
//	ttl = "168h"
//
//	[store]
//	backend = "none"   # none, memory, mongo
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	max_n = 4096
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/newton"
	"github.com/matzehuels/newton/pkg/pipeline"
	"github.com/matzehuels/newton/pkg/render"
)

// Cache and store backends.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
	BackendMemory = "memory"
	BackendNone   = "none"
)

// Config is the full configuration file.
type Config struct {
	Grid     GridConfig     `toml:"grid"`
	Kernel   KernelConfig   `toml:"kernel"`
	Executor ExecutorConfig `toml:"executor"`
	Output   OutputConfig   `toml:"output"`
	Cache    CacheConfig    `toml:"cache"`
	Store    StoreConfig    `toml:"store"`
	Server   ServerConfig   `toml:"server"`
}

type GridConfig struct {
	FromX float32 `toml:"from_x"`
	FromY float32 `toml:"from_y"`
	Size  float32 `toml:"size"`
	N     int     `toml:"n"`
}

type KernelConfig struct {
	MaxIter   int     `toml:"max_iter"`
	Tolerance float32 `toml:"tolerance"`
}

type ExecutorConfig struct {
	Strategy  string          `toml:"strategy"`
	Workers   int             `toml:"workers"`
	ChunkRows int             `toml:"chunk_rows"`
	Launch    executor.Launch `toml:"launch"`
}

type OutputConfig struct {
	Path    string   `toml:"path"`
	Formats []string `toml:"formats"`
	Size    int      `toml:"size"`
}

type CacheConfig struct {
	Backend  string        `toml:"backend"`
	Dir      string        `toml:"dir"` // empty = user cache dir
	RedisURL string        `toml:"redis_url"`
	TTL      time.Duration `toml:"ttl"`
}

type StoreConfig struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	Database string `toml:"database"`
}

type ServerConfig struct {
	Addr         string        `toml:"addr"`
	MaxN         int           `toml:"max_n"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			FromX: newton.DefaultFromX,
			FromY: newton.DefaultFromY,
			Size:  newton.DefaultSize,
			N:     newton.DefaultN,
		},
		Kernel: KernelConfig{
			MaxIter:   newton.DefaultMaxIter,
			Tolerance: newton.DefaultTol,
		},
		Executor: ExecutorConfig{
			Strategy: string(pipeline.DefaultStrategy),
			Launch:   executor.DefaultLaunch(),
		},
		Output: OutputConfig{
			Path:    "newton.png",
			Formats: []string{string(pipeline.DefaultFormat)},
		},
		Cache: CacheConfig{
			Backend:  BackendFile,
			RedisURL: "redis://localhost:6379/0",
			TTL:      7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Backend:  BackendNone,
			MongoURI: "mongodb://localhost:27017",
			Database: "newton",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			MaxN:         4096,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 5 * time.Minute,
		},
	}
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "newton", "config.toml"), nil
}

// Load reads path over the defaults. Unknown keys are rejected so typos do
// not silently fall back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig,
			"unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads path if it is set, else the file at DefaultPath if it
// exists, else returns the defaults.
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	def, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	if _, err := os.Stat(def); err != nil {
		return Default(), nil
	}
	return Load(def)
}

// Validate checks backend names and converts the grid, kernel and
// strategy sections through their own validators.
func (c *Config) Validate() error {
	if err := c.NewtonGrid().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[grid]")
	}
	if err := errors.ValidateFinite("tolerance", float64(c.Kernel.Tolerance)); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[kernel]")
	}
	if c.Kernel.MaxIter < 0 || c.Kernel.Tolerance <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig,
			"[kernel] max_iter must be >= 0 and tolerance > 0, got %d and %g", c.Kernel.MaxIter, c.Kernel.Tolerance)
	}
	if _, err := executor.ParseKind(c.Executor.Strategy); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[executor]")
	}
	if err := c.Executor.Launch.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[executor.launch]")
	}
	for _, f := range c.Output.Formats {
		if _, err := render.ParseFormat(f); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "[output]")
		}
	}
	if !oneOf(c.Cache.Backend, BackendFile, BackendRedis, BackendNone) {
		return errors.New(errors.ErrCodeInvalidConfig, "[cache] unknown backend %q", c.Cache.Backend)
	}
	if !oneOf(c.Store.Backend, BackendNone, BackendMemory, BackendMongo) {
		return errors.New(errors.ErrCodeInvalidConfig, "[store] unknown backend %q", c.Store.Backend)
	}
	if c.Server.MaxN <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "[server] max_n must be positive, got %d", c.Server.MaxN)
	}
	return nil
}

// NewtonGrid returns the [grid] section as a grid.
func (c *Config) NewtonGrid() newton.Grid {
	return newton.Grid{FromX: c.Grid.FromX, FromY: c.Grid.FromY, Size: c.Grid.Size, N: c.Grid.N}
}

// NewtonKernel returns the [kernel] section as a kernel.
func (c *Config) NewtonKernel() newton.Kernel {
	return newton.Kernel{MaxIter: c.Kernel.MaxIter, Tol: c.Kernel.Tolerance}
}

// Options returns pipeline options for the grid, kernel, executor and
// output sections.
func (c *Config) Options() pipeline.Options {
	formats := make([]render.Format, 0, len(c.Output.Formats))
	for _, f := range c.Output.Formats {
		if pf, err := render.ParseFormat(f); err == nil {
			formats = append(formats, pf)
		}
	}
	return pipeline.Options{
		Grid:      c.NewtonGrid(),
		Kernel:    c.NewtonKernel(),
		Strategy:  executor.Kind(strings.ToLower(c.Executor.Strategy)),
		Workers:   c.Executor.Workers,
		ChunkRows: c.Executor.ChunkRows,
		Launch:    c.Executor.Launch,
		Formats:   formats,
		Size:      c.Output.Size,
	}
}

// Write encodes the configuration as TOML.
func (c *Config) Write(w io.Writer) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if s == o {
			return true
		}
	}
	return false
}
