package executor

import (
	"context"
	"fmt"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

// Dim2 is a two-dimensional extent. X runs along columns, Y along rows.
type Dim2 struct {
	X int `json:"x" toml:"x"`
	Y int `json:"y" toml:"y"`
}

func (d Dim2) String() string { return fmt.Sprintf("%dx%d", d.X, d.Y) }

// Launch is the geometry of an accelerated dispatch: Grid blocks of Block
// threads each.
type Launch struct {
	Grid  Dim2 `json:"grid" toml:"grid"`
	Block Dim2 `json:"block" toml:"block"`
}

// DefaultLaunch returns a 4×5 grid of 8×128 blocks (20480 threads).
func DefaultLaunch() Launch {
	return Launch{Grid: Dim2{X: 4, Y: 5}, Block: Dim2{X: 8, Y: 128}}
}

// Validate rejects geometries with a non-positive dimension.
func (l Launch) Validate() error {
	if l.Grid.X <= 0 || l.Grid.Y <= 0 || l.Block.X <= 0 || l.Block.Y <= 0 {
		return errors.New(errors.ErrCodeInvalidGeometry,
			"launch geometry must be positive, got grid %s block %s", l.Grid, l.Block)
	}
	return nil
}

// Threads is the total number of threads in the launch.
func (l Launch) Threads() int {
	return l.Grid.X * l.Grid.Y * l.Block.X * l.Block.Y
}

// Accelerated emulates a wide-parallel device dispatch.
//
// Thread (tx, ty) of block (bx, by) starts at row rowFrom+ty+by*Block.Y and
// column tx+bx*Block.X and advances by the total thread extent in each
// dimension until it passes the bound. The residues are distinct per thread,
// so every cell has exactly one owner. Blocks are the unit of scheduling on
// the worker pool; the threads of one block run in order on its worker.
type Accelerated struct {
	Grid   newton.Grid
	Kernel newton.Kernel
	Launch Launch
	Pool   *WorkerPool
}

func (a *Accelerated) Name() string { return string(KindAccelerated) }

// Execute populates rows [rowFrom, rowTo) of buf.
func (a *Accelerated) Execute(ctx context.Context, buf *newton.Buffer, rowFrom, rowTo int) error {
	if err := validate(ctx, a.Grid, buf, rowFrom, rowTo); err != nil {
		return err
	}
	if err := a.Launch.Validate(); err != nil {
		return err
	}

	pool := a.Pool
	if pool == nil {
		pool = NewWorkerPool(0)
		defer pool.Close()
	}
	if !pool.IsRunning() {
		return errors.New(errors.ErrCodeInternal, "worker pool is closed")
	}

	blocks := make([]func(), 0, a.Launch.Grid.X*a.Launch.Grid.Y)
	for by := 0; by < a.Launch.Grid.Y; by++ {
		for bx := 0; bx < a.Launch.Grid.X; bx++ {
			blocks = append(blocks, func() {
				a.runBlock(buf, rowFrom, rowTo, bx, by)
			})
		}
	}
	pool.ExecuteAll(blocks)
	return nil
}

func (a *Accelerated) runBlock(buf *newton.Buffer, rowFrom, rowTo, bx, by int) {
	for ty := 0; ty < a.Launch.Block.Y; ty++ {
		for tx := 0; tx < a.Launch.Block.X; tx++ {
			a.runThread(buf, rowFrom, rowTo, bx, by, tx, ty)
		}
	}
}

// runThread is the grid-stride loop of a single thread.
func (a *Accelerated) runThread(buf *newton.Buffer, rowFrom, rowTo, bx, by, tx, ty int) {
	g, k := a.Grid, a.Kernel
	rowStride := a.Launch.Block.Y * a.Launch.Grid.Y
	colStride := a.Launch.Block.X * a.Launch.Grid.X

	for i := rowFrom + ty + by*a.Launch.Block.Y; i < rowTo; i += rowStride {
		for j := tx + bx*a.Launch.Block.X; j < g.N; j += colStride {
			x, y := g.Point(i, j)
			buf.Cells[i*g.N+j] = k.Iterate(x, y)
		}
	}
}
