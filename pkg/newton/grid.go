package newton

import (
	"math"

	"github.com/matzehuels/newton/pkg/errors"
)

// Grid describes the sampled square: N×N cells of side Size/N starting at
// (FromX, FromY). Row indices advance along x, column indices along y.
type Grid struct {
	FromX float32 `json:"from_x"`
	FromY float32 `json:"from_y"`
	Size  float32 `json:"size"`
	N     int     `json:"n"`
}

// DefaultGrid returns the reference domain [-1, 1]² sampled at 2048×2048.
func DefaultGrid() Grid {
	return Grid{FromX: DefaultFromX, FromY: DefaultFromY, Size: DefaultSize, N: DefaultN}
}

// NewGrid builds and validates a grid.
func NewGrid(fromX, fromY, size float32, n int) (Grid, error) {
	g := Grid{FromX: fromX, FromY: fromY, Size: size, N: n}
	if err := g.Validate(); err != nil {
		return Grid{}, err
	}
	return g, nil
}

// Validate checks that the grid has a positive side, a positive finite size
// and a finite origin.
func (g Grid) Validate() error {
	if g.N <= 0 {
		return errors.New(errors.ErrCodeInvalidGrid, "grid side must be positive, got %d", g.N)
	}
	if !finite32(g.Size) || g.Size <= 0 {
		return errors.New(errors.ErrCodeInvalidGrid, "grid size must be positive and finite, got %v", g.Size)
	}
	if !finite32(g.FromX) || !finite32(g.FromY) {
		return errors.New(errors.ErrCodeInvalidGrid, "grid origin must be finite, got (%v, %v)", g.FromX, g.FromY)
	}
	return nil
}

// Step is the cell size h = Size/N.
func (g Grid) Step() float32 {
	return g.Size / float32(g.N)
}

// Cells is the number of cells, N*N.
func (g Grid) Cells() int {
	return g.N * g.N
}

// Index is the linear buffer index of (row, col).
func (g Grid) Index(row, col int) int {
	return row*g.N + col
}

// Point maps a cell to its starting coordinate (FromX + row*h, FromY + col*h).
func (g Grid) Point(row, col int) (x, y float32) {
	h := g.Step()
	x = g.FromX + float32(float32(row)*h)
	y = g.FromY + float32(float32(col)*h)
	return x, y
}

func finite32(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
