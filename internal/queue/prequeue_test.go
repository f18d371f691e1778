package queue

import "testing"

func TestQRPreQueueFIFO(t *testing.T) {
	q := NewQRPreQueue()
	q.Append(3)
	q.Append(1)
	q.Append(4)

	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	for _, want := range []int{3, 1, 4} {
		got, ok := q.PopHead()
		if !ok {
			t.Fatalf("PopHead() returned ok=false, want %d", want)
		}
		if got != want {
			t.Errorf("PopHead() = %d, want %d", got, want)
		}
	}

	if _, ok := q.PopHead(); ok {
		t.Error("PopHead() on empty pre-queue should return ok=false")
	}
}

func TestQRPreQueueResetAndRestore(t *testing.T) {
	q := NewQRPreQueue()
	q.Append(1)
	q.Reset()
	if q.Len() != 0 {
		t.Errorf("Len() after Reset() = %d, want 0", q.Len())
	}

	q.Restore([]int{2, 5})
	if q.Len() != 2 {
		t.Errorf("Len() after Restore() = %d, want 2", q.Len())
	}
	got := q.Snapshot()
	if len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("Snapshot() = %v, want [2 5]", got)
	}
}
