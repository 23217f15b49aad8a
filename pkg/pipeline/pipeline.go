// Package pipeline provides the compute → render pipeline shared by the CLI
// and the HTTP server.
//
// # Architecture
//
// The pipeline has two stages:
//
//  1. Compute: populate a result buffer for the grid with the selected
//     execution strategy
//  2. Render: draw the buffer and encode it in one or more formats
//
// Both stages are cache-aware. A buffer is cached under its grid and kernel
// only, since every strategy produces the same buffer; artifacts are cached
// under the content hash of the buffer they were drawn from.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Strategy: executor.KindAccelerated,
//	    Formats:  []render.Format{render.FormatPNG},
//	})
//	if err != nil {
//	    return err
//	}
//	png := result.Artifacts[render.FormatPNG]
//
// [Runner.Benchmark] times repeated passes of several strategies and checks
// that their buffers agree.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/newton/pkg/cache"
	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/newton"
	"github.com/matzehuels/newton/pkg/render"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultStrategy is the execution strategy used when none is given.
	DefaultStrategy = executor.KindReference

	// DefaultPasses is the number of timed passes per strategy in a benchmark.
	DefaultPasses = 10

	// MaxThumbnail bounds the Size option.
	MaxThumbnail = 8192
)

// DefaultFormat is the default output encoding.
const DefaultFormat = render.FormatPNG

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
//
// A zero Grid means [newton.DefaultGrid]. A zero Kernel means
// [newton.DefaultKernel]; a kernel with MaxIter set and no Tol gets
// [newton.DefaultTol], so MaxIter 0 is expressible.
type Options struct {
	// Compute options
	Grid      newton.Grid     `json:"grid"`
	Kernel    newton.Kernel   `json:"kernel"`
	Strategy  executor.Kind   `json:"strategy,omitempty"`
	Workers   int             `json:"workers,omitempty"`
	ChunkRows int             `json:"chunk_rows,omitempty"`
	Launch    executor.Launch `json:"launch,omitempty"`
	Refresh   bool            `json:"refresh,omitempty"`

	// Render options
	Formats []render.Format `json:"formats,omitempty"`
	Size    int             `json:"size,omitempty"` // output side in pixels, 0 = one pixel per cell

	// Runtime options (not serialized)
	Logger *log.Logger           `json:"-"`
	Pool   *executor.WorkerPool `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Buffer is the populated result buffer.
	Buffer *newton.Buffer

	// ResultHash is the content hash of the buffer.
	ResultHash string

	// Artifacts contains encoded images keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Strategy    string
	N           int
	Histogram   [4]int
	ComputeTime time.Duration
	RenderTime  time.Duration
}

// MPixelsPerSec is the compute throughput in millions of cells per second.
// It is zero when the buffer came from the cache.
func (s Stats) MPixelsPerSec() float64 {
	return mpixels(s.N, s.ComputeTime)
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ComputeHit bool // Whether the buffer came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormats checks that all formats are supported.
func ValidateFormats(formats []render.Format) error {
	for _, f := range formats {
		if _, err := render.ParseFormat(string(f)); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks all fields and applies defaults for the full
// pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompute(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompute applies compute defaults and validates the grid,
// kernel and strategy.
func (o *Options) ValidateForCompute() error {
	if o.Grid == (newton.Grid{}) {
		o.Grid = newton.DefaultGrid()
	}
	if o.Kernel == (newton.Kernel{}) {
		o.Kernel = newton.DefaultKernel()
	} else if o.Kernel.Tol == 0 {
		o.Kernel.Tol = newton.DefaultTol
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	o.setLogger()

	if err := o.Grid.Validate(); err != nil {
		return err
	}
	if o.Kernel.MaxIter < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max_iter must be non-negative, got %d", o.Kernel.MaxIter)
	}
	if o.Kernel.Tol < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "tolerance must be positive, got %g", o.Kernel.Tol)
	}
	kind, err := executor.ParseKind(string(o.Strategy))
	if err != nil {
		return err
	}
	o.Strategy = kind
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []render.Format{DefaultFormat}
	}
	o.setLogger()
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.Size < 0 || o.Size > MaxThumbnail {
		return errors.New(errors.ErrCodeInvalidInput, "size must be in [0, %d], got %d", MaxThumbnail, o.Size)
	}
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ExecutorConfig returns the strategy configuration for these options.
func (o *Options) ExecutorConfig() executor.Config {
	return executor.Config{
		Grid:      o.Grid,
		Kernel:    o.Kernel,
		Workers:   o.Workers,
		ChunkRows: o.ChunkRows,
		Launch:    o.Launch,
		Pool:      o.Pool,
	}
}

// ArtifactKeyOpts returns cache key options for an encoded artifact.
func (o *Options) ArtifactKeyOpts(format render.Format) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{Format: string(format), Size: o.Size}
}

func mpixels(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) * float64(n) / d.Seconds() / 1e6
}
