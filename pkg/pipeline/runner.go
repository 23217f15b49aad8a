package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/newton/pkg/cache"
	nio "github.com/matzehuels/newton/pkg/io"
	"github.com/matzehuels/newton/pkg/newton"
	"github.com/matzehuels/newton/pkg/observability"
	"github.com/matzehuels/newton/pkg/render"
	"github.com/matzehuels/newton/pkg/store"
)

// Runner encapsulates pipeline execution with caching and run recording.
//
// The Runner holds no per-run state; multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Runs are not recorded until Store is set.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store.NewNullStore(),
		Logger: logger,
	}
}

// Execute runs compute and render with caching and records the run.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{Stats: Stats{Strategy: string(opts.Strategy), N: opts.Grid.N}}

	// Stage 1: Compute
	computeStart := time.Now()
	buf, hit, err := r.ComputeWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	result.Buffer = buf
	result.ResultHash = HashBuffer(buf)
	result.Stats.Histogram = buf.Histogram()
	result.CacheInfo.ComputeHit = hit
	if !hit {
		result.Stats.ComputeTime = time.Since(computeStart)
	}

	r.Logger.Info("computed buffer",
		"strategy", opts.Strategy,
		"n", opts.Grid.N,
		"cached", hit,
		"duration", time.Since(computeStart))

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, buf, result.ResultHash, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	r.Record(ctx, result, opts)
	return result, nil
}

// ComputeWithCacheInfo returns the buffer for opts, from cache when
// possible, and whether it was a cache hit.
func (r *Runner) ComputeWithCacheInfo(ctx context.Context, opts Options) (*newton.Buffer, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompute(); err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.ResultKey(opts.Grid, opts.Kernel)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			buf, _, err := nio.DecodeBuffer(data)
			if err == nil && buf.N == opts.Grid.N {
				observability.Cache().OnCacheHit(ctx, "result")
				return buf, true, nil
			}
			opts.Logger.Warn("discarding unreadable cached buffer", "error", err)
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	buf, err := Compute(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := nio.EncodeBuffer(buf, opts.Kernel.MaxIter); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLResult); err != nil {
			opts.Logger.Warn("cache write failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "result", len(data))
		}
	}

	return buf, false, nil
}

// Compute is a convenience wrapper that calls ComputeWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Compute(ctx context.Context, opts Options) (*newton.Buffer, error) {
	buf, _, err := r.ComputeWithCacheInfo(ctx, opts)
	return buf, err
}

// RenderWithCacheInfo encodes buf in every requested format, from cache
// when possible. resultHash is the content hash of buf; if empty it is
// computed.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, buf *newton.Buffer, resultHash string, opts Options) (map[render.Format][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	if resultHash == "" {
		resultHash = HashBuffer(buf)
	}

	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	rendered, err := RenderArtifacts(ctx, buf, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(resultHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and
// discards the cache hit info.
func (r *Runner) Render(ctx context.Context, buf *newton.Buffer, opts Options) (map[render.Format][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, buf, "", opts)
	return artifacts, err
}

// Record saves a run record for result. Failures are logged, not returned:
// a run that computed successfully is not failed by its bookkeeping.
func (r *Runner) Record(ctx context.Context, result *Result, opts Options) {
	if r.Store == nil || result == nil {
		return
	}
	rec := store.NewRunRecord(result.Stats.Strategy, result.Stats.N, opts.Kernel.MaxIter)
	rec.Histogram = result.Stats.Histogram
	rec.ComputeMillis = float64(result.Stats.ComputeTime) / float64(time.Millisecond)
	rec.MPixelsPerSec = result.Stats.MPixelsPerSec()
	rec.CacheHit = result.CacheInfo.ComputeHit
	rec.ResultHash = result.ResultHash

	if err := r.Store.SaveRun(ctx, rec); err != nil {
		r.Logger.Warn("failed to record run", "error", err)
		return
	}
	r.Logger.Debug("recorded run", "id", rec.ID)
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var err error
	if r.Cache != nil {
		err = r.Cache.Close()
	}
	if r.Store != nil {
		if serr := r.Store.Close(context.Background()); err == nil {
			err = serr
		}
	}
	return err
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
