package newton

import "github.com/matzehuels/newton/pkg/errors"

// Sentinel is a value no kernel can produce. Filling a buffer with it before
// an execution makes unwritten cells detectable.
var Sentinel = Result{Root: -1, Iterations: -1}

// Buffer holds one Result per cell of an N×N grid, row-major.
//
// Executors write each index exactly once from disjoint partitions, so the
// buffer carries no lock. Readers must wait for the execution to return.
type Buffer struct {
	N     int
	Cells []Result
}

// NewBuffer allocates a zeroed buffer for an n×n grid.
func NewBuffer(n int) (*Buffer, error) {
	if n <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidBuffer, "buffer side must be positive, got %d", n)
	}
	return &Buffer{N: n, Cells: make([]Result, n*n)}, nil
}

// Index is the linear index of (row, col).
func (b *Buffer) Index(row, col int) int {
	return row*b.N + col
}

// At returns the result stored for (row, col).
func (b *Buffer) At(row, col int) Result {
	return b.Cells[row*b.N+col]
}

// Fill overwrites every cell with r.
func (b *Buffer) Fill(r Result) {
	for i := range b.Cells {
		b.Cells[i] = r
	}
}

// Count returns how many cells hold r.
func (b *Buffer) Count(r Result) int {
	n := 0
	for _, c := range b.Cells {
		if c == r {
			n++
		}
	}
	return n
}

// Equal compares two buffers index by index. When they differ it returns
// false and the first differing index, or -1 if the shapes differ.
func (b *Buffer) Equal(o *Buffer) (bool, int) {
	if b.N != o.N || len(b.Cells) != len(o.Cells) {
		return false, -1
	}
	for i := range b.Cells {
		if b.Cells[i] != o.Cells[i] {
			return false, i
		}
	}
	return true, 0
}

// Validate checks that every cell carries a valid root and an iteration
// count in [0, maxIter].
func (b *Buffer) Validate(maxIter int) error {
	for i, c := range b.Cells {
		if !c.Root.Valid() {
			return errors.New(errors.ErrCodeInvalidRoot, "cell %d holds root %d", i, c.Root)
		}
		if c.Iterations < 0 || int(c.Iterations) > maxIter {
			return errors.New(errors.ErrCodeInvalidBuffer, "cell %d holds %d iterations (max %d)", i, c.Iterations, maxIter)
		}
	}
	return nil
}

// Histogram counts cells per root. Invalid roots are ignored.
func (b *Buffer) Histogram() [4]int {
	var h [4]int
	for _, c := range b.Cells {
		if c.Root.Valid() {
			h[c.Root]++
		}
	}
	return h
}
