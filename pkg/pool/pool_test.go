package pool

import "testing"

func TestBufferPool(t *testing.T) {
	p := New(4096)
	if p.Size() != 4096 {
		t.Fatalf("Size = %d, want 4096", p.Size())
	}

	b := p.Get()
	if len(b) != 4096 || cap(b) != 4096 {
		t.Fatalf("buffer len/cap = %d/%d", len(b), cap(b))
	}

	// A shortened buffer comes back at full length on reuse.
	p.Put(b[:10])
	b2 := p.Get()
	if len(b2) != 4096 {
		t.Errorf("reused buffer len = %d, want 4096", len(b2))
	}
}

func TestPutRejectsForeignBuffers(t *testing.T) {
	p := New(1024)
	p.Put(make([]byte, 2048)) // Must not poison the pool.
	p.Put(nil)

	b := p.Get()
	if cap(b) != 1024 {
		t.Errorf("pool handed out a foreign buffer of cap %d", cap(b))
	}
}
