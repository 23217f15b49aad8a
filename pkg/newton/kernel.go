// Package newton implements the per-cell solver behind the Newton fractal of z³−1.
//
// A [Kernel] runs Newton's method from a starting point and reports which cube
// root of unity the orbit lands on, and after how many steps. A [Grid] maps
// integer cell coordinates to starting points, and a [Buffer] holds one
// [Result] per cell. Everything is single precision: the classification
// tolerance is tight enough that the order of every float32 operation decides
// which root a boundary point is assigned to.
//
// The package is free of goroutines and shared state. Executors in
// pkg/executor map a Kernel over a Grid.
package newton

import "math"

// Defaults of the reference configuration.
const (
	DefaultMaxIter         = 1024
	DefaultN               = 2048
	DefaultFromX   float32 = -1.0
	DefaultFromY   float32 = -1.0
	DefaultSize    float32 = 2.0
	DefaultTol     float32 = 0.0000001
)

// Sqrt3Over2 is the imaginary part of the two complex cube roots of unity.
// Kept as a literal so the classification boundary does not depend on how a
// square root primitive rounds.
const Sqrt3Over2 float32 = 0.86602540378443864676372317075294

// Root identifies the cube root of unity an orbit converged to.
type Root int32

const (
	RootNone  Root = 0 // did not converge within MaxIter steps
	RootOne   Root = 1 // (1, 0)
	RootTwo   Root = 2 // (-1/2, +√3/2)
	RootThree Root = 3 // (-1/2, -√3/2)
)

// Valid reports whether r is one of the four classification outcomes.
func (r Root) Valid() bool {
	return r >= RootNone && r <= RootThree
}

func (r Root) String() string {
	switch r {
	case RootNone:
		return "none"
	case RootOne:
		return "one"
	case RootTwo:
		return "two"
	case RootThree:
		return "three"
	default:
		return "invalid"
	}
}

// Result is the outcome for a single cell.
type Result struct {
	Root       Root
	Iterations int32
}

// Kernel holds the iteration bound and the classification tolerance.
// The zero value iterates zero times; use [DefaultKernel].
type Kernel struct {
	MaxIter int
	Tol     float32
}

// DefaultKernel returns the reference kernel: 1024 steps, tolerance 1e-7.
func DefaultKernel() Kernel {
	return Kernel{MaxIter: DefaultMaxIter, Tol: DefaultTol}
}

// Classify returns the first root within Tol of (x, y), checked in the order
// one, two, three, or RootNone. NaN coordinates never match.
func (k Kernel) Classify(x, y float32) Root {
	if abs32(x-1.0) < k.Tol && abs32(y) < k.Tol {
		return RootOne
	}
	if abs32(x+0.5) < k.Tol && abs32(y-Sqrt3Over2) < k.Tol {
		return RootTwo
	}
	if abs32(x+0.5) < k.Tol && abs32(y+Sqrt3Over2) < k.Tol {
		return RootThree
	}
	return RootNone
}

// Iterate runs Newton's method for z³−1 from (cx, cy).
//
// Every intermediate is rounded to float32 through an explicit conversion:
// Go may otherwise fuse a*b+c into a single FMA on some architectures, which
// moves classification boundaries. The value graph follows
// z ← z − (z³−1)/(3z²) written out in real and imaginary parts.
//
// A start at the origin divides by zero; the resulting Inf/NaN propagate and
// the cell ends as RootNone after MaxIter steps.
func (k Kernel) Iterate(cx, cy float32) Result {
	var (
		iter int32
		root Root
		x    = cx
		y    = cy
	)
	for int(iter) < k.MaxIter {
		xx := float32(x * x)
		yy := float32(y * y)
		xxx := float32(xx * x)
		yyy := float32(yy * y)
		xxxx := float32(xx * xx)
		yyyy := float32(yy * yy)
		xxxxx := float32(xxx * xx)

		denom := float32(3.0 * xxxx)
		denom = float32(denom + float32(float32(6.0*xx)*yy))
		denom = float32(denom + float32(3.0*yyyy))
		invdenom := float32(1.0 / denom)

		numreal := float32(2.0 * xxxxx)
		numreal = float32(numreal + float32(float32(4.0*xxx)*yy))
		numreal = float32(numreal + xx)
		numreal = float32(numreal + float32(float32(2.0*x)*yyyy))
		numreal = float32(numreal - yy)

		numim := float32(float32(2.0*xxxx) * y)
		numim = float32(numim + float32(float32(4.0*xx)*yyy))
		numim = float32(numim - float32(float32(2.0*x)*y))
		numim = float32(numim + float32(float32(2.0*yyy)*yy))

		x = float32(numreal * invdenom)
		y = float32(numim * invdenom)
		iter++

		root = k.Classify(x, y)
		if root > RootNone {
			break
		}
	}
	return Result{Root: root, Iterations: iter}
}

// Classify classifies (x, y) with [DefaultKernel].
func Classify(x, y float32) Root {
	return DefaultKernel().Classify(x, y)
}

// Iterate runs [DefaultKernel] from (cx, cy).
func Iterate(cx, cy float32) Result {
	return DefaultKernel().Iterate(cx, cy)
}

func abs32(v float32) float32 {
	return math.Float32frombits(math.Float32bits(v) &^ (1 << 31))
}
