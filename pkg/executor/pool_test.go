package executor

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestWorkerPoolExecuteAll(t *testing.T) {
	tests := []struct {
		name    string
		workers int
		items   int
	}{
		{"empty", 2, 0},
		{"fewer items than workers", 4, 3},
		{"many items", 3, 500},
		{"default workers", 0, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewWorkerPool(tt.workers)
			defer p.Close()

			hits := make([]int32, tt.items)
			work := make([]func(), tt.items)
			for i := range work {
				work[i] = func() { atomic.AddInt32(&hits[i], 1) }
			}
			p.ExecuteAll(work)

			for i, h := range hits {
				if h != 1 {
					t.Fatalf("item %d ran %d times", i, h)
				}
			}
		})
	}
}

func TestWorkerPoolWorkers(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()
	if p.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", p.Workers())
	}
	if !p.IsRunning() {
		t.Error("new pool should be running")
	}
}

func TestWorkerPoolClose(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()
	if p.IsRunning() {
		t.Error("closed pool reports running")
	}

	// Work submitted after Close still runs, on the caller.
	var n atomic.Int32
	p.ExecuteAll([]func(){func() { n.Add(1) }, func() { n.Add(1) }})
	if n.Load() != 2 {
		t.Errorf("ran %d items after Close, want 2", n.Load())
	}
}

func TestWorkerPoolConcurrentCallers(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for c := 0; c < 8; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 50)
			for i := range work {
				work[i] = func() { total.Add(1) }
			}
			p.ExecuteAll(work)
		}()
	}
	wg.Wait()

	if total.Load() != 400 {
		t.Errorf("total = %d, want 400", total.Load())
	}
}

func TestWorkerPoolCloseWhileSubmitting(t *testing.T) {
	p := NewWorkerPool(2)

	var total atomic.Int64
	var wg sync.WaitGroup
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 20)
			for i := range work {
				work[i] = func() { total.Add(1) }
			}
			p.ExecuteAll(work)
		}()
	}
	p.Close()
	wg.Wait()

	if total.Load() != 80 {
		t.Errorf("total = %d, want 80", total.Load())
	}
}
