package executor

import (
	"context"
	"testing"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

func testGrid(n int) newton.Grid {
	return newton.Grid{FromX: -1, FromY: -1, Size: 2, N: n}
}

// columnMajor fills buf column by column on one goroutine, a partitioning
// unrelated to any strategy.
func columnMajor(g newton.Grid, k newton.Kernel) *newton.Buffer {
	buf, _ := newton.NewBuffer(g.N)
	for col := 0; col < g.N; col++ {
		for row := 0; row < g.N; row++ {
			x, y := g.Point(row, col)
			buf.Cells[g.Index(row, col)] = k.Iterate(x, y)
		}
	}
	return buf
}

func strategies(g newton.Grid, k newton.Kernel) map[string]Strategy {
	return map[string]Strategy{
		"sequential":           &Sequential{Grid: g, Kernel: k},
		"reference":            &Reference{Grid: g, Kernel: k},
		"reference one worker": &Reference{Grid: g, Kernel: k, Workers: 1},
		"reference chunked":    &Reference{Grid: g, Kernel: k, Workers: 3, ChunkRows: 3},
		"accelerated default":  &Accelerated{Grid: g, Kernel: k, Launch: DefaultLaunch()},
		"accelerated single":   &Accelerated{Grid: g, Kernel: k, Launch: Launch{Grid: Dim2{1, 1}, Block: Dim2{1, 1}}},
		"accelerated odd":      &Accelerated{Grid: g, Kernel: k, Launch: Launch{Grid: Dim2{3, 2}, Block: Dim2{2, 5}}},
	}
}

func TestStrategyEquivalence(t *testing.T) {
	for _, n := range []int{8, 37} {
		g := testGrid(n)
		k := newton.DefaultKernel()
		want := columnMajor(g, k)

		for name, s := range strategies(g, k) {
			t.Run(name, func(t *testing.T) {
				buf, _ := newton.NewBuffer(n)
				buf.Fill(newton.Sentinel)
				if err := s.Execute(context.Background(), buf, 0, n); err != nil {
					t.Fatalf("Execute: %v", err)
				}
				if ok, idx := buf.Equal(want); !ok {
					t.Fatalf("N=%d: cell %d = %+v, want %+v", n, idx, buf.Cells[idx], want.Cells[idx])
				}
			})
		}
	}
}

func TestCompleteness(t *testing.T) {
	g := testGrid(16)
	k := newton.Kernel{MaxIter: 32, Tol: newton.DefaultTol}

	for name, s := range strategies(g, k) {
		t.Run(name, func(t *testing.T) {
			buf, _ := newton.NewBuffer(g.N)
			buf.Fill(newton.Sentinel)
			if err := s.Execute(context.Background(), buf, 0, g.N); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if left := buf.Count(newton.Sentinel); left != 0 {
				t.Fatalf("%d cells left unwritten", left)
			}
			if err := buf.Validate(k.MaxIter); err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}

func TestSubRange(t *testing.T) {
	g := testGrid(12)
	k := newton.Kernel{MaxIter: 32, Tol: newton.DefaultTol}
	const from, to = 3, 7

	for name, s := range strategies(g, k) {
		t.Run(name, func(t *testing.T) {
			buf, _ := newton.NewBuffer(g.N)
			buf.Fill(newton.Sentinel)
			if err := s.Execute(context.Background(), buf, from, to); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			for row := 0; row < g.N; row++ {
				for col := 0; col < g.N; col++ {
					written := buf.At(row, col) != newton.Sentinel
					inside := row >= from && row < to
					if written != inside {
						t.Fatalf("cell (%d,%d) written=%v, inside range=%v", row, col, written, inside)
					}
				}
			}
		})
	}
}

func TestZeroBudget(t *testing.T) {
	g := testGrid(8)
	k := newton.Kernel{MaxIter: 0, Tol: newton.DefaultTol}

	for name, s := range strategies(g, k) {
		t.Run(name, func(t *testing.T) {
			buf, _ := newton.NewBuffer(g.N)
			buf.Fill(newton.Sentinel)
			if err := s.Execute(context.Background(), buf, 0, g.N); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := buf.Count(newton.Result{}); got != g.Cells() {
				t.Fatalf("%d of %d cells are (root 0, 0 iterations)", got, g.Cells())
			}
		})
	}
}

func TestExecutePreconditions(t *testing.T) {
	g := testGrid(8)
	k := newton.DefaultKernel()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		bufSide  int
		from, to int
		code     errors.Code
	}{
		{"nil buffer", context.Background(), 0, 0, 8, errors.ErrCodeInvalidBuffer},
		{"wrong size", context.Background(), 4, 0, 4, errors.ErrCodeInvalidBuffer},
		{"range past end", context.Background(), 8, 0, 9, errors.ErrCodeInvalidRange},
		{"inverted range", context.Background(), 8, 5, 2, errors.ErrCodeInvalidRange},
		{"cancelled", cancelled, 8, 0, 8, ""},
	}

	for name, s := range strategies(g, k) {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				var buf *newton.Buffer
				if tt.bufSide > 0 {
					buf, _ = newton.NewBuffer(tt.bufSide)
					buf.Fill(newton.Sentinel)
				}
				err := s.Execute(tt.ctx, buf, tt.from, tt.to)
				if err == nil {
					t.Fatal("expected an error")
				}
				if tt.code != "" && !errors.Is(err, tt.code) {
					t.Errorf("error = %v, want code %v", err, tt.code)
				}
				if buf != nil && buf.Count(newton.Sentinel) != len(buf.Cells) {
					t.Error("buffer was written despite a failed precondition")
				}
			})
		}
	}
}

func TestNew(t *testing.T) {
	cfg := Config{Grid: testGrid(8), Kernel: newton.DefaultKernel()}

	for _, kind := range Kinds {
		s, err := New(kind, cfg)
		if err != nil {
			t.Fatalf("New(%s): %v", kind, err)
		}
		if s.Name() != string(kind) {
			t.Errorf("New(%s).Name() = %q", kind, s.Name())
		}
	}

	acc, _ := New(KindAccelerated, cfg)
	if got := acc.(*Accelerated).Launch; got != DefaultLaunch() {
		t.Errorf("zero launch should default, got %+v", got)
	}

	if _, err := New("gpu", cfg); !errors.Is(err, errors.ErrCodeInvalidStrategy) {
		t.Errorf("New(gpu) error = %v, want %v", err, errors.ErrCodeInvalidStrategy)
	}

	bad := cfg
	bad.Launch = Launch{Grid: Dim2{0, 1}, Block: Dim2{1, 1}}
	if _, err := New(KindAccelerated, bad); !errors.Is(err, errors.ErrCodeInvalidGeometry) {
		t.Errorf("New with zero grid dim error = %v, want %v", err, errors.ErrCodeInvalidGeometry)
	}

	bad = cfg
	bad.Grid.N = 0
	if _, err := New(KindReference, bad); !errors.Is(err, errors.ErrCodeInvalidGrid) {
		t.Errorf("New with empty grid error = %v, want %v", err, errors.ErrCodeInvalidGrid)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"reference", KindReference, false},
		{"Accelerated", KindAccelerated, false},
		{" sequential ", KindSequential, false},
		{"cuda", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSharedPool(t *testing.T) {
	g := testGrid(10)
	k := newton.Kernel{MaxIter: 16, Tol: newton.DefaultTol}
	pool := NewWorkerPool(2)
	defer pool.Close()

	s := &Accelerated{Grid: g, Kernel: k, Launch: Launch{Grid: Dim2{2, 2}, Block: Dim2{2, 2}}, Pool: pool}
	for pass := 0; pass < 3; pass++ {
		buf, _ := newton.NewBuffer(g.N)
		buf.Fill(newton.Sentinel)
		if err := s.Execute(context.Background(), buf, 0, g.N); err != nil {
			t.Fatalf("pass %d: %v", pass, err)
		}
		if left := buf.Count(newton.Sentinel); left != 0 {
			t.Fatalf("pass %d: %d cells unwritten", pass, left)
		}
	}

	pool.Close()
	buf, _ := newton.NewBuffer(g.N)
	if err := s.Execute(context.Background(), buf, 0, g.N); !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("Execute on closed pool error = %v, want %v", err, errors.ErrCodeInternal)
	}
}

func TestDescribe(t *testing.T) {
	g := testGrid(4)
	k := newton.DefaultKernel()
	if got := Describe(&Reference{Grid: g, Kernel: k, Workers: 2, ChunkRows: 4}); got != "reference workers=2 chunk=4" {
		t.Errorf("Describe(reference) = %q", got)
	}
	if got := Describe(&Accelerated{Grid: g, Kernel: k, Launch: DefaultLaunch()}); got != "accelerated grid=4x5 block=8x128 threads=20480" {
		t.Errorf("Describe(accelerated) = %q", got)
	}
	if got := Describe(&Sequential{Grid: g, Kernel: k}); got != "sequential" {
		t.Errorf("Describe(sequential) = %q", got)
	}
}

func BenchmarkReference(b *testing.B) {
	g := testGrid(128)
	s := &Reference{Grid: g, Kernel: newton.DefaultKernel()}
	buf, _ := newton.NewBuffer(g.N)
	for i := 0; i < b.N; i++ {
		_ = s.Execute(context.Background(), buf, 0, g.N)
	}
}

func BenchmarkAccelerated(b *testing.B) {
	g := testGrid(128)
	pool := NewWorkerPool(0)
	defer pool.Close()
	s := &Accelerated{Grid: g, Kernel: newton.DefaultKernel(), Launch: DefaultLaunch(), Pool: pool}
	buf, _ := newton.NewBuffer(g.N)
	for i := 0; i < b.N; i++ {
		_ = s.Execute(context.Background(), buf, 0, g.N)
	}
}
