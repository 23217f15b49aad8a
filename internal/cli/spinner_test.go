package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testSpinner(ctx context.Context, msg string) (*Spinner, *syncBuffer) {
	var w syncBuffer
	s := newSpinnerWithContext(ctx, msg)
	s.w = &w
	return s, &w
}

func TestSpinnerDrawsMessage(t *testing.T) {
	s, w := testSpinner(context.Background(), "Computing...")
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.SetMessage("pass 2/3")
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	got := w.String()
	if !strings.Contains(got, "Computing...") || !strings.Contains(got, "pass 2/3") {
		t.Errorf("spinner output = %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Error("spinner should clear its line on stop")
	}
}

func TestSpinnerWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := testSpinner(ctx, "Testing with context...")
	s.Start()
	cancel()
	time.Sleep(100 * time.Millisecond)

	if !s.Cancelled() {
		t.Error("Spinner should be cancelled after context cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s, _ := testSpinner(context.Background(), "Testing idempotent stop...")
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	s, _ := testSpinner(context.Background(), "never started")
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a spinner that never started")
	}
}

func TestSpinnerStopWithStatus(t *testing.T) {
	buf := captureOutput(t)
	s, _ := testSpinner(context.Background(), "Testing...")
	s.Start()
	s.StopWithSuccess("Done!")
	s2, _ := testSpinner(context.Background(), "Testing...")
	s2.Start()
	s2.StopWithError("Failed!")

	if !strings.Contains(buf.String(), "Done!") || !strings.Contains(buf.String(), "Failed!") {
		t.Errorf("status output = %q", buf.String())
	}
}
