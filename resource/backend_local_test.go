package resource

import (
	"sync"
	"testing"
)

func TestLocalBackend_Basic(t *testing.T) {
	b := NewLocalBackend()

	handle := b.Create("engine", "test value")
	if handle == 0 {
		t.Fatal("Expected non-zero handle")
	}

	if val, ok := valueAt(b, handle); !ok || val != "test value" {
		t.Fatalf("value = %v, %v", val, ok)
	}

	tag, ok := b.Tag(handle)
	if !ok || tag != "engine" {
		t.Fatalf("Tag = %q, %v", tag, ok)
	}

	val, ok := b.Drop(handle)
	if !ok {
		t.Fatal("Drop failed")
	}
	if val != "test value" {
		t.Fatalf("Expected 'test value', got %v", val)
	}

	if _, ok = b.Tag(handle); ok {
		t.Fatal("Expected Tag to fail after Drop")
	}
	if _, ok = b.Drop(handle); ok {
		t.Fatal("Expected second Drop to fail")
	}
}

func TestLocalBackend_InvalidHandles(t *testing.T) {
	b := NewLocalBackend()

	for _, h := range []Handle{0, 99} {
		if _, ok := b.Tag(h); ok {
			t.Fatalf("Tag(%d) should fail", h)
		}
		if _, ok := b.Drop(h); ok {
			t.Fatalf("Drop(%d) should fail", h)
		}
	}
}

func TestLocalBackend_FreeListReuse(t *testing.T) {
	b := NewLocalBackend()

	h1 := b.Create("a", 1)
	h2 := b.Create("b", 2)
	b.Drop(h1)

	h3 := b.Create("c", 3)
	if h3 != h1 {
		t.Fatalf("expected freed handle %d to be reused, got %d", h1, h3)
	}
	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if v, _ := valueAt(b, h2); v != 2 {
		t.Fatalf("h2 value = %v, want 2", v)
	}
}

func TestLocalBackend_Concurrent(t *testing.T) {
	b := NewLocalBackend()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h := b.Create("n", i)
			if v, ok := b.Drop(h); !ok || v != i {
				t.Errorf("Drop(%d) = %v, %v", h, v, ok)
			}
		}(i)
	}
	wg.Wait()

	if b.Len() != 0 {
		t.Fatalf("Len = %d, want 0", b.Len())
	}
}

func valueAt(b *LocalBackend, h Handle) (any, bool) {
	var val any
	found := false
	b.Each(func(id Handle, _ string, v any) bool {
		if id == h {
			val, found = v, true
			return false
		}
		return true
	})
	return val, found
}
