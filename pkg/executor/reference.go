package executor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/newton/pkg/newton"
)

// Reference is the multi-core strategy: a parallel-for over rows.
//
// Rows are cut into disjoint chunks of ChunkRows and run by at most Workers
// goroutines at a time. Each task iterates its rows sequentially over all
// columns.
type Reference struct {
	Grid      newton.Grid
	Kernel    newton.Kernel
	Workers   int
	ChunkRows int
}

func (r *Reference) Name() string { return string(KindReference) }

// Execute populates rows [rowFrom, rowTo) of buf.
func (r *Reference) Execute(ctx context.Context, buf *newton.Buffer, rowFrom, rowTo int) error {
	if err := validate(ctx, r.Grid, buf, rowFrom, rowTo); err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(r.workers())

	chunk := r.chunk()
	for from := rowFrom; from < rowTo; from += chunk {
		to := min(from+chunk, rowTo)
		g.Go(func() error {
			computeRows(r.Grid, r.Kernel, buf, from, to)
			return nil
		})
	}
	return g.Wait()
}

func (r *Reference) workers() int {
	if r.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Workers
}

func (r *Reference) chunk() int {
	if r.ChunkRows <= 0 {
		return 1
	}
	return r.ChunkRows
}
