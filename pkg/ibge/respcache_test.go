package ibge

import (
	"path/filepath"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func openTestCache(t *testing.T, ttl time.Duration, clk *fakeClock) *RespCache {
	t.Helper()
	path := filepath.Join(t.TempDir(), "responses.db")
	rc, err := OpenRespCache(path, ttl, clk.now)
	if err != nil {
		t.Fatalf("OpenRespCache: %v", err)
	}
	t.Cleanup(func() { rc.Close() })
	return rc
}

func TestRespCache_PutGet(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rc := openTestCache(t, 30*time.Minute, clk)

	const url = "https://example.org/estados"
	if err := rc.Put(url, []byte(`[{"sigla":"SP"}]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	body, ok, err := rc.Get(url)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("expected hit")
	}
	if string(body) != `[{"sigla":"SP"}]` {
		t.Errorf("body = %s", body)
	}

	if _, ok, _ := rc.Get("https://example.org/other"); ok {
		t.Error("expected miss for unknown url")
	}
}

func TestRespCache_TTLExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rc := openTestCache(t, 30*time.Minute, clk)

	const url = "https://example.org/ranking"
	if err := rc.Put(url, []byte(`[]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.t = clk.t.Add(31 * time.Minute)
	if _, ok, _ := rc.Get(url); ok {
		t.Error("expected stale entry to miss")
	}

	// A fresh Put replaces the stale row.
	if err := rc.Put(url, []byte(`[1]`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	body, ok, _ := rc.Get(url)
	if !ok || string(body) != `[1]` {
		t.Errorf("after refresh: ok=%v body=%s", ok, body)
	}
}

func TestRespCache_Prune(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rc := openTestCache(t, 10*time.Minute, clk)

	rc.Put("a", []byte("1"))
	clk.t = clk.t.Add(20 * time.Minute)
	rc.Put("b", []byte("2"))

	n, err := rc.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}
	if _, ok, _ := rc.Get("b"); !ok {
		t.Error("fresh entry pruned")
	}
}
