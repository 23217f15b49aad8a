package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/newton/pkg/newton"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache.Get should always return miss")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ = c.Get(ctx, "key"); hit {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if _, hit, err := c.Get(ctx, "missing"); hit || err != nil {
		t.Fatalf("Get(missing) hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("buffer"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "buffer" {
		t.Fatalf("Get(k) = %q, %v, %v", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "old"); hit {
		t.Error("expired entry returned")
	}
	if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}

	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero ttl entry missing")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("x"), 0)

	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "c")
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("cache dir gone after Clear: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries after Clear", len(entries))
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q", c.Dir())
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()
	g := newton.DefaultGrid()
	kern := newton.DefaultKernel()

	rk := k.ResultKey(g, kern)
	if !strings.HasPrefix(rk, "result:") {
		t.Errorf("ResultKey = %q", rk)
	}
	if rk != k.ResultKey(g, kern) {
		t.Error("ResultKey should be deterministic")
	}

	g2 := g
	g2.N = 512
	if rk == k.ResultKey(g2, kern) {
		t.Error("different grids should produce different keys")
	}
	kern2 := kern
	kern2.MaxIter = 10
	if rk == k.ResultKey(g, kern2) {
		t.Error("different kernels should produce different keys")
	}

	a1 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png"})
	a2 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "bmp"})
	a3 := k.ArtifactKey("abc", ArtifactKeyOpts{Format: "png", Size: 256})
	if a1 == a2 || a1 == a3 {
		t.Error("different artifact options should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "newton:")
	g, kern := newton.DefaultGrid(), newton.DefaultKernel()

	want := "newton:" + NewDefaultKeyer().ResultKey(g, kern)
	if got := scoped.ResultKey(g, kern); got != want {
		t.Errorf("ResultKey = %q, want %q", got, want)
	}
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "png"}); !strings.HasPrefix(got, "newton:artifact:") {
		t.Errorf("ArtifactKey = %q", got)
	}

	nilInner := NewScopedKeyer(nil, "p:")
	if got := nilInner.ResultKey(g, kern); got != "p:"+NewDefaultKeyer().ResultKey(g, kern) {
		t.Errorf("nil inner ResultKey = %q", got)
	}
}

type recordingCache struct {
	NullCache
	ttls []time.Duration
}

func (c *recordingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return nil
}

func TestWithTTL(t *testing.T) {
	ctx := context.Background()
	inner := &recordingCache{}

	if got := WithTTL(inner, 0); got != Cache(inner) {
		t.Error("WithTTL(c, 0) should return c")
	}

	c := WithTTL(inner, time.Minute)
	_ = c.Set(ctx, "a", nil, TTLResult)
	_ = c.Set(ctx, "b", nil, 0)
	for i, ttl := range inner.ttls {
		if ttl != time.Minute {
			t.Errorf("Set %d stored ttl %v, want 1m", i, ttl)
		}
	}
	if len(inner.ttls) != 2 {
		t.Errorf("inner Set called %d times", len(inner.ttls))
	}
}
