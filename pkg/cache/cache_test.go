package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

// exerciseCache runs the behavior every storing backend shares.
func exerciseCache(t *testing.T, c Cache, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	if _, hit, err := c.Get(ctx, "missing"); err != nil || hit {
		t.Fatalf("Get(missing) = hit %v, err %v; want miss", hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v1"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v1" {
		t.Fatalf("Get(k) = %q, %v, %v; want v1", data, hit, err)
	}

	if err := c.Set(ctx, "k", []byte("v2"), 0); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	if data, _, _ := c.Get(ctx, "k"); string(data) != "v2" {
		t.Errorf("Get after overwrite = %q, want v2", data)
	}

	if err := c.Set(ctx, "short", []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set ttl: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "short"); !hit {
		t.Error("entry should be live before its ttl")
	}
	advance(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("entry should expire after its ttl")
	}
	if _, hit, _ := c.Get(ctx, "k"); !hit {
		t.Error("entry without ttl should never expire")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry should be gone after Delete")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of a missing key: %v", err)
	}

	if cl, ok := c.(Clearer); ok {
		_ = c.Set(ctx, "a", []byte("1"), 0)
		_ = c.Set(ctx, "b", []byte("2"), 0)
		if err := cl.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		for _, k := range []string{"a", "b"} {
			if _, hit, _ := c.Get(ctx, k); hit {
				t.Errorf("%s should be gone after Clear", k)
			}
		}
	}
}

func TestFileCache(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }
	exerciseCache(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	path := c.path("k")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); err != nil || hit {
		t.Errorf("corrupt entry: hit %v, err %v; want miss", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheLayout(t *testing.T) {
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", c.Dir(), dir)
	}
	path := c.path("some key")
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	if len(parts) != 2 || len(parts[0]) != 2 || !strings.HasSuffix(parts[1], ".json") {
		t.Errorf("unexpected entry path %q", rel)
	}
}

func TestMemoryCache(t *testing.T) {
	c, err := NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	c.now = func() time.Time { return now }
	exerciseCache(t, c, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryCacheEviction(t *testing.T) {
	ctx := context.Background()
	c, err := NewMemoryCache(2)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Set(ctx, "a", []byte("1"), 0)
	_ = c.Set(ctx, "b", []byte("2"), 0)
	_, _, _ = c.Get(ctx, "a") // a is now most recently used
	_ = c.Set(ctx, "c", []byte("3"), 0)

	if _, hit, _ := c.Get(ctx, "b"); hit {
		t.Error("least recently used entry should be evicted")
	}
	if _, hit, _ := c.Get(ctx, "a"); !hit {
		t.Error("recently used entry should survive")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	c := NewRedisCacheFromClient(client, "test:")
	defer c.Close()

	ctx := context.Background()
	if _, _, err := c.Get(ctx, "k"); err == nil {
		t.Error("Get against an unreachable server should fail")
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err == nil {
		t.Error("Set against an unreachable server should fail")
	}
}

func TestRedisCacheClearNeedsPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	c := NewRedisCacheFromClient(client, "")
	defer c.Close()
	if err := c.Clear(context.Background()); err == nil {
		t.Error("Clear without a prefix should be refused")
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		cfg     Config
		want    string
		wantErr bool
	}{
		{Config{}, "*cache.NullCache", false},
		{Config{Backend: BackendNone}, "*cache.NullCache", false},
		{Config{Backend: BackendFile, Dir: t.TempDir()}, "*cache.FileCache", false},
		{Config{Backend: BackendMemory, Size: 4}, "*cache.MemoryCache", false},
		{Config{Backend: BackendMongo}, "", true},
		{Config{Backend: "memcached"}, "", true},
	}
	for _, tt := range tests {
		c, err := Open(ctx, tt.cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%q) error = %v, wantErr %v", tt.cfg.Backend, err, tt.wantErr)
			continue
		}
		if err != nil {
			continue
		}
		if got := typeName(c); got != tt.want {
			t.Errorf("Open(%q) = %s, want %s", tt.cfg.Backend, got, tt.want)
		}
		c.Close()
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return "*cache.NullCache"
	case *FileCache:
		return "*cache.FileCache"
	case *MemoryCache:
		return "*cache.MemoryCache"
	}
	return "unknown"
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// SHA-256 produces 64 hex chars
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	tk1 := k.TreeKey("doc", TreeKeyOpts{Format: "json"})
	tk2 := k.TreeKey("doc", TreeKeyOpts{Format: "yaml"})
	if tk1 == tk2 {
		t.Error("Different TreeKeyOpts should produce different keys")
	}
	if !strings.HasPrefix(tk1, "tree:") {
		t.Errorf("TreeKey should be prefixed: %s", tk1)
	}
	if tk1 != k.TreeKey("doc", TreeKeyOpts{Format: "json"}) {
		t.Error("TreeKey should be deterministic")
	}

	lk1 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "TB", Threshold: 2000})
	lk2 := k.LayoutKey("hash123", LayoutKeyOpts{Direction: "LR", Threshold: 2000})
	if lk1 == lk2 {
		t.Error("Different LayoutKeyOpts should produce different keys")
	}

	ak1 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "svg"})
	ak2 := k.ArtifactKey("hash123", ArtifactKeyOpts{Format: "dot"})
	if ak1 == ak2 {
		t.Error("Different ArtifactKeyOpts should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "user:123:")

	key := scoped.LayoutKey("h", LayoutKeyOpts{})
	if !strings.HasPrefix(key, "user:123:layout:") {
		t.Errorf("ScopedKeyer LayoutKey should be prefixed: %s", key)
	}
	if key != "user:123:"+NewDefaultKeyer().LayoutKey("h", LayoutKeyOpts{}) {
		t.Errorf("ScopedKeyer should only add the prefix: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if !strings.HasPrefix(key, "prefix:artifact:") {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func fastPings(t *testing.T) {
	t.Helper()
	oldDelay, oldTimeout := pingDelay, pingTimeout
	pingDelay, pingTimeout = time.Millisecond, 50*time.Millisecond
	t.Cleanup(func() { pingDelay, pingTimeout = oldDelay, oldTimeout })
}

func TestWaitReady(t *testing.T) {
	fastPings(t)
	ctx := context.Background()

	calls := 0
	err := waitReady(ctx, "redis", func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("connection refused")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("recovering backend: err %v, calls %d", err, calls)
	}

	calls = 0
	refused := errors.New("connection refused")
	err = waitReady(ctx, "mongo", func(context.Context) error {
		calls++
		return refused
	})
	if calls != pingAttempts {
		t.Errorf("calls = %d, want %d", calls, pingAttempts)
	}
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, refused) {
		t.Fatalf("err = %v, want ErrUnavailable wrapping the last ping failure", err)
	}
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Backend != "mongo" || ue.Attempts != pingAttempts {
		t.Errorf("UnavailableError = %+v", ue)
	}
	if !strings.Contains(err.Error(), "mongo cache unavailable after 3 attempt(s)") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestWaitReady_PingTimeout(t *testing.T) {
	fastPings(t)
	err := waitReady(context.Background(), "redis", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) || !errors.Is(err, ErrUnavailable) {
		t.Errorf("err = %v, want a per-ping deadline wrapped as unavailable", err)
	}
}

func TestWaitReady_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitReady(ctx, "redis", func(context.Context) error {
		return errors.New("connection refused")
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFileCacheStoresBinary(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte{0, 1, 2, 0xff, '\n'}
	if err := c.Set(ctx, "bin", payload, 0); err != nil {
		t.Fatal(err)
	}
	got, hit, err := c.Get(ctx, "bin")
	if err != nil || !hit || !bytes.Equal(got, payload) {
		t.Errorf("Get(bin) = %v, %v, %v", got, hit, err)
	}
}
