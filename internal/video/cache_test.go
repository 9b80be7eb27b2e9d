package video

import (
	"bytes"
	"sync"
	"testing"
)

func TestStoreAndLatest(t *testing.T) {
	c := NewCache()

	if _, _, ok := c.Latest("d1"); ok {
		t.Fatal("empty cache must miss")
	}

	c.Store("d1", []byte{1, 2, 3}, "image/jpeg")
	data, ct, ok := c.Latest("d1")
	if !ok || !bytes.Equal(data, []byte{1, 2, 3}) || ct != "image/jpeg" {
		t.Fatalf("unexpected frame: %v %s %v", data, ct, ok)
	}

	// Newer frame replaces the old one.
	c.Store("d1", []byte{9}, "image/png")
	data, ct, _ = c.Latest("d1")
	if !bytes.Equal(data, []byte{9}) || ct != "image/png" {
		t.Errorf("latest frame not replaced: %v %s", data, ct)
	}
}

func TestDrop(t *testing.T) {
	c := NewCache()
	c.Store("d1", []byte{1}, "image/jpeg")
	c.Drop("d1")
	if _, _, ok := c.Latest("d1"); ok {
		t.Error("dropped frame still present")
	}
	c.Drop("never-stored")
}

func TestConcurrentAccess(t *testing.T) {
	c := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Store("d1", []byte{byte(j)}, "image/jpeg")
				c.Latest("d1")
			}
		}()
	}
	wg.Wait()
	if _, _, ok := c.Latest("d1"); !ok {
		t.Error("frame missing after concurrent writes")
	}
}
