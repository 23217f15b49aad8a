// Package executor maps the Newton kernel over every cell of a grid.
//
// Two interchangeable strategies populate a [newton.Buffer]:
//
//   - [Reference] fans rows out over a bounded group of goroutines, one task per
//     row (or per chunk of rows).
//   - [Accelerated] launches a 2D grid of thread blocks, each thread covering a
//     strided set of rows and columns with a grid-stride loop, the way a GPU
//     kernel would be dispatched.
//
// Both honor the same contract: every index of the requested row range is
// written exactly once by exactly one worker, so the buffer is shared without
// locks, and Execute does not return before the last write. Given the same
// [newton.Grid] and [newton.Kernel] they produce identical buffers.
//
// Strategies are values selected by [Kind]; there is no process-wide current
// strategy.
package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

// Strategy populates rows [rowFrom, rowTo) of a buffer.
type Strategy interface {
	// Name returns the strategy name (e.g., "reference").
	Name() string

	// Execute writes every cell of rows [rowFrom, rowTo). Precondition
	// failures are returned before any cell is written. The context is
	// consulted once before dispatch; a started pass runs to completion.
	Execute(ctx context.Context, buf *newton.Buffer, rowFrom, rowTo int) error
}

// Kind selects a strategy implementation.
type Kind string

const (
	KindReference   Kind = "reference"
	KindAccelerated Kind = "accelerated"
	KindSequential  Kind = "sequential"
)

// Kinds lists the selectable strategies in display order.
var Kinds = []Kind{KindReference, KindAccelerated, KindSequential}

// ParseKind resolves a strategy name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidStrategy,
		"unknown strategy %q (must be one of: reference, accelerated, sequential)", s)
}

// Config carries everything a strategy needs. Fields irrelevant to a kind
// are ignored.
type Config struct {
	Grid   newton.Grid
	Kernel newton.Kernel

	// Reference
	Workers   int // 0 means GOMAXPROCS
	ChunkRows int // 0 means one task per row

	// Accelerated
	Launch Launch
	Pool   *WorkerPool // nil means a pool is created per Execute
}

// New builds the strategy of the given kind.
func New(kind Kind, cfg Config) (Strategy, error) {
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}
	switch kind {
	case KindReference:
		return &Reference{Grid: cfg.Grid, Kernel: cfg.Kernel, Workers: cfg.Workers, ChunkRows: cfg.ChunkRows}, nil
	case KindAccelerated:
		launch := cfg.Launch
		if launch == (Launch{}) {
			launch = DefaultLaunch()
		}
		if err := launch.Validate(); err != nil {
			return nil, err
		}
		return &Accelerated{Grid: cfg.Grid, Kernel: cfg.Kernel, Launch: launch, Pool: cfg.Pool}, nil
	case KindSequential:
		return &Sequential{Grid: cfg.Grid, Kernel: cfg.Kernel}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidStrategy, "unknown strategy %q", kind)
	}
}

// validate checks the shared preconditions of every strategy.
func validate(ctx context.Context, g newton.Grid, buf *newton.Buffer, rowFrom, rowTo int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if buf == nil {
		return errors.New(errors.ErrCodeInvalidBuffer, "result buffer is nil")
	}
	if buf.N != g.N || len(buf.Cells) != g.Cells() {
		return errors.New(errors.ErrCodeInvalidBuffer,
			"buffer holds %d cells (side %d), grid needs %d (side %d)", len(buf.Cells), buf.N, g.Cells(), g.N)
	}
	return errors.ValidateRowRange(rowFrom, rowTo, g.N)
}

// computeRows runs the kernel over every column of rows [from, to).
func computeRows(g newton.Grid, k newton.Kernel, buf *newton.Buffer, from, to int) {
	for row := from; row < to; row++ {
		base := row * g.N
		for col := 0; col < g.N; col++ {
			x, y := g.Point(row, col)
			buf.Cells[base+col] = k.Iterate(x, y)
		}
	}
}

// Sequential computes rows in order on the calling goroutine.
type Sequential struct {
	Grid   newton.Grid
	Kernel newton.Kernel
}

func (s *Sequential) Name() string { return string(KindSequential) }

func (s *Sequential) Execute(ctx context.Context, buf *newton.Buffer, rowFrom, rowTo int) error {
	if err := validate(ctx, s.Grid, buf, rowFrom, rowTo); err != nil {
		return err
	}
	computeRows(s.Grid, s.Kernel, buf, rowFrom, rowTo)
	return nil
}

// Describe returns a one-line summary of a strategy's configuration for logs.
func Describe(s Strategy) string {
	switch v := s.(type) {
	case *Reference:
		return fmt.Sprintf("reference workers=%d chunk=%d", v.workers(), v.chunk())
	case *Accelerated:
		return fmt.Sprintf("accelerated grid=%s block=%s threads=%d", v.Launch.Grid, v.Launch.Block, v.Launch.Threads())
	default:
		return s.Name()
	}
}
