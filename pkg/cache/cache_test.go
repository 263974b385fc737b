package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get = (%q, %v, %v), want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "nested", "cache"))
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	t.Run("miss", func(t *testing.T) {
		_, hit, err := c.Get(ctx, "absent")
		if err != nil || hit {
			t.Errorf("Get(absent) = hit %v, err %v", hit, err)
		}
	})

	t.Run("set and get", func(t *testing.T) {
		if err := c.Set(ctx, "k", []byte(`with Diagram("x", show=False):`), time.Hour); err != nil {
			t.Fatalf("Set error: %v", err)
		}
		data, hit, err := c.Get(ctx, "k")
		if err != nil || !hit {
			t.Fatalf("Get = hit %v, err %v", hit, err)
		}
		if string(data) != `with Diagram("x", show=False):` {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("overwrite", func(t *testing.T) {
		_ = c.Set(ctx, "k", []byte("v1"), 0)
		_ = c.Set(ctx, "k", []byte("v2"), 0)
		data, _, _ := c.Get(ctx, "k")
		if string(data) != "v2" {
			t.Errorf("data = %q, want v2", data)
		}
	})

	t.Run("expired", func(t *testing.T) {
		if err := c.Set(ctx, "old", []byte("x"), time.Nanosecond); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
		_, hit, err := c.Get(ctx, "old")
		if err != nil || hit {
			t.Errorf("expired entry: hit %v, err %v", hit, err)
		}
		if _, err := os.Stat(c.path("old")); !os.IsNotExist(err) {
			t.Error("expired entry should be removed from disk")
		}
	})

	t.Run("corrupt", func(t *testing.T) {
		path := c.path("bad")
		_ = os.MkdirAll(filepath.Dir(path), 0o755)
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, hit, err := c.Get(ctx, "bad")
		if err != nil || hit {
			t.Errorf("corrupt entry: hit %v, err %v", hit, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		_ = c.Set(ctx, "gone", []byte("x"), 0)
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Fatalf("Delete error: %v", err)
		}
		if _, hit, _ := c.Get(ctx, "gone"); hit {
			t.Error("deleted key still present")
		}
		if err := c.Delete(ctx, "gone"); err != nil {
			t.Errorf("Delete of missing key error: %v", err)
		}
	})
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("cache root should survive Clear: %v", err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash) = %d, want 64", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	base := CodeKeyOpts{Target: "diagrams"}
	tests := []struct {
		name string
		opts CodeKeyOpts
	}{
		{"target", CodeKeyOpts{Target: "dot"}},
		{"name", CodeKeyOpts{Target: "diagrams", Name: "other"}},
		{"imports", CodeKeyOpts{Target: "diagrams", Imports: true}},
		{"modules", CodeKeyOpts{Target: "diagrams", Imports: true, Modules: map[string]string{"X": "y"}}},
	}
	baseKey := k.CodeKey("abc", base)
	if !strings.HasPrefix(baseKey, "code:") {
		t.Errorf("CodeKey = %q, want code: prefix", baseKey)
	}
	if baseKey != k.CodeKey("abc", base) {
		t.Error("CodeKey should be deterministic")
	}
	if baseKey == k.CodeKey("def", base) {
		t.Error("different documents should produce different keys")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k.CodeKey("abc", tt.opts) == baseKey {
				t.Errorf("changing %s should change the key", tt.name)
			}
		})
	}

	m1 := CodeKeyOpts{Modules: map[string]string{"A": "a", "B": "b"}}
	m2 := CodeKeyOpts{Modules: map[string]string{"B": "b", "A": "a"}}
	if k.CodeKey("abc", m1) != k.CodeKey("abc", m2) {
		t.Error("module map order should not affect the key")
	}

	if q := k.QueryKey("three tier web app"); !strings.HasPrefix(q, "query:") {
		t.Errorf("QueryKey = %q, want query: prefix", q)
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "tenant:1:")

	opts := CodeKeyOpts{Target: "diagrams"}
	if got, want := scoped.CodeKey("h", opts), "tenant:1:"+inner.CodeKey("h", opts); got != want {
		t.Errorf("CodeKey = %q, want %q", got, want)
	}
	if got, want := scoped.QueryKey("q"), "tenant:1:"+inner.QueryKey("q"); got != want {
		t.Errorf("QueryKey = %q, want %q", got, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "p:")
	if got := scoped.QueryKey("q"); got != "p:"+NewDefaultKeyer().QueryKey("q") {
		t.Errorf("QueryKey with nil inner = %q", got)
	}
}
