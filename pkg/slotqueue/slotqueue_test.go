package slotqueue_test

import (
	"testing"
	"time"

	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/slotqueue"
)

func newQueue(t *testing.T, capacity int) *slotqueue.Queue {
	t.Helper()

	q, err := slotqueue.Adopt(prim.KindUint32, slotqueue.NewRegion(prim.KindUint32, capacity))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	return q
}

func Test_Adopt_Rejects_Variable_Kind(t *testing.T) {
	_, err := slotqueue.Adopt(prim.KindUtf8, slotqueue.NewRegion(prim.KindUint32, 4))
	if err == nil {
		t.Fatalf("expected error for variable kind")
	}
}

func Test_Queue_Push_Shift_Roundtrip(t *testing.T) {
	q := newQueue(t, 4)

	if !q.TryPush(uint64(7)) {
		t.Fatalf("TryPush = false")
	}

	v, ok := q.TryShift()
	if !ok || v.(uint64) != 7 {
		t.Fatalf("TryShift = %v, %v, want 7, true", v, ok)
	}
}

func Test_Queue_TryPush_False_When_Full(t *testing.T) {
	q := newQueue(t, 2) // capacity = 1 usable slot

	if !q.TryPush(uint64(1)) {
		t.Fatalf("TryPush(1) = false")
	}
	if q.TryPush(uint64(2)) {
		t.Fatalf("TryPush(2) into full queue = true")
	}
}

func Test_Queue_TryShift_False_When_Empty(t *testing.T) {
	q := newQueue(t, 4)

	if _, ok := q.TryShift(); ok {
		t.Fatalf("TryShift on empty queue ok = true")
	}
}

func Test_Queue_Preserves_FIFO_Order(t *testing.T) {
	q := newQueue(t, 8)

	for _, v := range []uint64{1, 2, 3} {
		if !q.TryPush(v) {
			t.Fatalf("TryPush(%d) = false", v)
		}
	}

	for _, want := range []uint64{1, 2, 3} {
		got, ok := q.TryShift()
		if !ok || got.(uint64) != want {
			t.Fatalf("TryShift = %v, %v, want %d, true", got, ok, want)
		}
	}
}

func Test_Queue_Peek_Does_Not_Advance(t *testing.T) {
	q := newQueue(t, 4)

	_ = q.TryPush(uint64(5))

	v, ok := q.Peek(0)
	if !ok || v.(uint64) != 5 {
		t.Fatalf("Peek(0) = %v, %v, want 5, true", v, ok)
	}

	if q.Len() != 1 {
		t.Fatalf("Len = %d after Peek, want 1", q.Len())
	}
}

func Test_Queue_Push_Blocks_Until_Shift_Frees_Slot(t *testing.T) {
	q := newQueue(t, 2) // capacity 1

	if !q.TryPush(uint64(1)) {
		t.Fatalf("TryPush = false")
	}

	done := make(chan bool, 1)
	go func() {
		done <- q.Push(uint64(2), -1)
	}()

	time.Sleep(20 * time.Millisecond)

	v, ok := q.Shift(time.Second)
	if !ok || v.(uint64) != 1 {
		t.Fatalf("Shift = %v, %v, want 1, true", v, ok)
	}

	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("blocking Push = false")
		}
	case <-time.After(time.Second):
		t.Fatalf("blocking Push never unblocked")
	}
}

func Test_Queue_Shift_Times_Out_On_Empty(t *testing.T) {
	q := newQueue(t, 4)

	start := time.Now()
	_, ok := q.Shift(30 * time.Millisecond)
	if ok {
		t.Fatalf("Shift ok = true on empty queue")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Shift returned before its timeout elapsed")
	}
}

// Test_Queue_SPSC_Stress_Preserves_Order covers §8 scenario 5 directly:
// one goroutine pushing a cyclic 1..254 sequence for 100ms while another
// shifts concurrently; the shifted sequence must strictly equal the
// pushed sequence (no reorder, no duplicate, no gap).
func Test_Queue_SPSC_Stress_Preserves_Order(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test")
	}

	q := newQueue(t, 64)

	const cycle = 254

	produced := make(chan uint64, 1)
	deadline := time.After(100 * time.Millisecond)

	go func() {
		var i uint64

		for {
			select {
			case <-deadline:
				produced <- i
				return
			default:
			}

			v := uint32(i%cycle) + 1
			q.Push(uint64(v), -1)
			i++
		}
	}()

	want := uint32(1)
	var total uint64

	check := func(v any) {
		got, ok := v.(uint64)
		if !ok || uint32(got) != want {
			t.Fatalf("element %d: got %v, want %d (reorder, duplicate, or gap)", total, v, want)
		}

		want++
		if want > cycle {
			want = 1
		}

		total++
	}

	for {
		select {
		case n := <-produced:
			for total < n {
				v, ok := q.Shift(time.Second)
				if !ok {
					t.Fatalf("Shift timed out draining remaining %d elements", n-total)
				}

				check(v)
			}

			return
		default:
			if v, ok := q.Shift(10 * time.Millisecond); ok {
				check(v)
			}
		}
	}
}
