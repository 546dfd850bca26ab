package cache

import "testing"

func TestCache_PutGet(t *testing.T) {
	c := New(1 << 20)
	k := Key{Z: 1, X: 2, Y: 3}
	c.Put(k, []byte("hello"))

	got, hit := c.Get(k)
	if !hit {
		t.Fatal("expected hit")
	}
	if string(got) != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(1 << 20)
	_, hit := c.Get(Key{Z: 9, X: 9, Y: 9})
	if hit {
		t.Fatal("expected miss")
	}
}

func TestCache_DistinctParametersAreDistinctKeys(t *testing.T) {
	c := New(1 << 20)
	k1 := Key{Z: 1, X: 1, Y: 1, Gradient: "orange"}
	k2 := Key{Z: 1, X: 1, Y: 1, Gradient: "red"}

	c.Put(k1, []byte("orange-bytes"))
	c.Put(k2, []byte("red-bytes"))

	v1, hit1 := c.Get(k1)
	v2, hit2 := c.Get(k2)
	if !hit1 || !hit2 {
		t.Fatal("expected both keys present")
	}
	if string(v1) == string(v2) {
		t.Error("distinct gradients should not collide")
	}
}

func TestCache_Overwrite(t *testing.T) {
	c := New(1 << 20)
	k := Key{Z: 1, X: 1, Y: 1}
	c.Put(k, []byte("v1"))
	c.Put(k, []byte("v2-longer"))

	got, hit := c.Get(k)
	if !hit || string(got) != "v2-longer" {
		t.Errorf("got %q, hit=%v, want v2-longer", got, hit)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (overwrite should not grow entry count)", c.Len())
	}
}

func TestCache_EvictsOldestWhenOverBudget(t *testing.T) {
	// Budget fits exactly 2 five-byte entries; a third insertion must evict
	// the first.
	c := New(10)
	c.Put(Key{Z: 0, X: 0, Y: 0}, []byte("aaaaa"))
	c.Put(Key{Z: 0, X: 0, Y: 1}, []byte("bbbbb"))
	c.Put(Key{Z: 0, X: 0, Y: 2}, []byte("ccccc"))

	if c.Bytes() > 10 {
		t.Errorf("Bytes() = %d, want <= 10", c.Bytes())
	}
	if _, hit := c.Get(Key{Z: 0, X: 0, Y: 0}); hit {
		t.Error("expected oldest entry to have been evicted")
	}
	if _, hit := c.Get(Key{Z: 0, X: 0, Y: 2}); !hit {
		t.Error("expected newest entry to still be cached")
	}
}

func TestCache_Clear(t *testing.T) {
	c := New(1 << 20)
	c.Put(Key{Z: 1, X: 1, Y: 1}, []byte("data"))
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0 after Clear", c.Len())
	}
	if c.Bytes() != 0 {
		t.Errorf("Bytes() = %d, want 0 after Clear", c.Bytes())
	}
}
