package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnComputeStart(ctx, "reference", 2048)
	p.OnComputeComplete(ctx, "reference", 2048, time.Second, nil)
	p.OnRenderStart(ctx, "png")
	p.OnRenderComplete(ctx, "png", 4096, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "result")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "/render.png")
	h.OnResponse(ctx, "GET", "/render.png", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	// Setting nil should be ignored
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

// countingCacheHooks counts events by key type.
type countingCacheHooks struct {
	NoopCacheHooks
	hits, misses atomic.Int64
}

func (h *countingCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	if keyType == "result" {
		h.hits.Add(1)
	}
}

func (h *countingCacheHooks) OnCacheMiss(context.Context, string) { h.misses.Add(1) }

func TestConcurrentEmitAndSwap(t *testing.T) {
	Reset()
	defer Reset()

	counting := &countingCacheHooks{}
	SetCacheHooks(counting)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Cache().OnCacheHit(ctx, "result")
				Cache().OnCacheMiss(ctx, "artifact")
			}
		}()
	}
	wg.Wait()

	if counting.hits.Load() != 800 || counting.misses.Load() != 800 {
		t.Errorf("hits=%d misses=%d, want 800 each", counting.hits.Load(), counting.misses.Load())
	}

	// Swapping while other goroutines emit must not race.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for j := 0; j < 100; j++ {
			Pipeline().OnComputeStart(ctx, "accelerated", 16)
		}
	}()
	for j := 0; j < 10; j++ {
		SetPipelineHooks(&testPipelineHooks{})
	}
	<-done
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
