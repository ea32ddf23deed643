package sim

import "testing"

func TestAcquirerFIFO_PushPop_FIFOOrder(t *testing.T) {
	// GIVEN a FIFO with cache ids pushed in order 2, 0, 1
	f := newAcquirerFIFO()
	f.Push(2)
	f.Push(0)
	f.Push(1)

	// WHEN popped repeatedly
	// THEN ids come back in arrival order, not numeric order
	want := []int{2, 0, 1}
	for i, w := range want {
		if got := f.Pop(); got != w {
			t.Errorf("pop[%d]: got %d, want %d", i, got, w)
		}
	}
	if f.Len() != 0 {
		t.Errorf("Len after draining: got %d, want 0", f.Len())
	}
}

func TestAcquirerFIFO_Push_IdempotentWhilePending(t *testing.T) {
	// GIVEN cache 0 already queued
	f := newAcquirerFIFO()
	f.Push(0)

	// WHEN cache 0 is pushed again before being popped
	f.Push(0)

	// THEN it only appears once
	if f.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", f.Len())
	}

	// AND once popped, pushing it again re-queues it
	f.Pop()
	f.Push(0)
	if f.Len() != 1 {
		t.Errorf("Len after repop: got %d, want 1", f.Len())
	}
}
