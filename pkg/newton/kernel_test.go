package newton

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	nan := float32(math.NaN())
	tests := []struct {
		name string
		x, y float32
		want Root
	}{
		{"root one exact", 1, 0, RootOne},
		{"root one below", math.Nextafter32(1, 0), 0, RootOne},
		{"root one tiny y", 1, 5e-8, RootOne},
		{"root two exact", -0.5, Sqrt3Over2, RootTwo},
		{"root two shifted", math.Nextafter32(-0.5, 0), math.Nextafter32(Sqrt3Over2, 1), RootTwo},
		{"root three exact", -0.5, -Sqrt3Over2, RootThree},
		{"root three shifted", math.Nextafter32(-0.5, -1), math.Nextafter32(-Sqrt3Over2, 0), RootThree},
		{"origin", 0, 0, RootNone},
		{"near but outside", 1, 1e-6, RootNone},
		{"one ulp above one", math.Nextafter32(1, 2), 0, RootNone},
		{"nan", nan, nan, RootNone},
		{"inf", float32(math.Inf(1)), 0, RootNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.x, tt.y); got != tt.want {
				t.Errorf("Classify(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestClassifyOrder(t *testing.T) {
	// With a tolerance wide enough to cover every root, the first check wins.
	k := Kernel{MaxIter: 1, Tol: 10}
	if got := k.Classify(-0.5, 0); got != RootOne {
		t.Errorf("Classify with overlapping tolerance = %v, want %v", got, RootOne)
	}
	k.Tol = 0.9
	if got := k.Classify(-0.5, 0); got != RootTwo {
		t.Errorf("Classify between two and three = %v, want %v", got, RootTwo)
	}
}

func TestClassifyRange(t *testing.T) {
	g := Grid{FromX: -1.5, FromY: -1.5, Size: 3, N: 32}
	k := DefaultKernel()
	for row := 0; row < g.N; row++ {
		for col := 0; col < g.N; col++ {
			x, y := g.Point(row, col)
			if r := k.Classify(x, y); !r.Valid() {
				t.Fatalf("Classify(%v, %v) = %d, outside {0,1,2,3}", x, y, r)
			}
		}
	}
}

func TestIterateFixedPoint(t *testing.T) {
	got := Iterate(1, 0)
	want := Result{Root: RootOne, Iterations: 1}
	if got != want {
		t.Errorf("Iterate(1, 0) = %+v, want %+v", got, want)
	}
}

func TestIterateOrigin(t *testing.T) {
	got := Iterate(0, 0)
	want := Result{Root: RootNone, Iterations: DefaultMaxIter}
	if got != want {
		t.Errorf("Iterate(0, 0) = %+v, want %+v", got, want)
	}
}

func TestIterateZeroBudget(t *testing.T) {
	k := Kernel{MaxIter: 0, Tol: DefaultTol}
	for _, p := range [][2]float32{{1, 0}, {0, 0}, {-0.5, Sqrt3Over2}, {0.3, -0.7}} {
		if got := k.Iterate(p[0], p[1]); got != (Result{}) {
			t.Errorf("Iterate(%v, %v) with MaxIter=0 = %+v, want zero result", p[0], p[1], got)
		}
	}
}

func TestIterateRealAxis(t *testing.T) {
	// On the real axis y stays zero and the orbit descends onto 1.
	got := Iterate(2, 0)
	if got.Root != RootOne {
		t.Fatalf("Iterate(2, 0).Root = %v, want %v", got.Root, RootOne)
	}
	if got.Iterations < 2 || got.Iterations > 20 {
		t.Errorf("Iterate(2, 0).Iterations = %d, want a handful of steps", got.Iterations)
	}
}

func TestIterateIdempotent(t *testing.T) {
	g := Grid{FromX: -1, FromY: -1, Size: 2, N: 16}
	for row := 0; row < g.N; row++ {
		for col := 0; col < g.N; col++ {
			x, y := g.Point(row, col)
			a, b := Iterate(x, y), Iterate(x, y)
			if a != b {
				t.Fatalf("Iterate(%v, %v) not deterministic: %+v vs %+v", x, y, a, b)
			}
		}
	}
}

func TestIterateBounds(t *testing.T) {
	k := Kernel{MaxIter: 64, Tol: DefaultTol}
	g := Grid{FromX: -1, FromY: -1, Size: 2, N: 24}
	for row := 0; row < g.N; row++ {
		for col := 0; col < g.N; col++ {
			r := k.Iterate(g.Point(row, col))
			if !r.Root.Valid() {
				t.Fatalf("cell (%d,%d) root %d invalid", row, col, r.Root)
			}
			if r.Iterations < 0 || r.Iterations > 64 {
				t.Fatalf("cell (%d,%d) iterations %d outside [0, 64]", row, col, r.Iterations)
			}
			if r.Root == RootNone && r.Iterations != 64 {
				t.Fatalf("cell (%d,%d) unconverged with %d iterations", row, col, r.Iterations)
			}
		}
	}
}

func TestRootString(t *testing.T) {
	tests := map[Root]string{
		RootNone:  "none",
		RootOne:   "one",
		RootTwo:   "two",
		RootThree: "three",
		Root(9):   "invalid",
	}
	for r, want := range tests {
		if got := r.String(); got != want {
			t.Errorf("Root(%d).String() = %q, want %q", r, got, want)
		}
	}
}

func BenchmarkIterate(b *testing.B) {
	k := DefaultKernel()
	for i := 0; i < b.N; i++ {
		k.Iterate(0.3, 0.7)
	}
}
