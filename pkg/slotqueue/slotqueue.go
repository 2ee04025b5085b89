// Package slotqueue implements [Queue], a fixed-length circular buffer
// of fixed-width [prim] slots (default [prim.KindUint32]) using the same
// head/tail discipline as [ringbuf.Stream], but store-then-CAS on whole
// slots instead of byte ranges.
package slotqueue

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/ringbuf"
)

const controlBlockBytes = 8

const (
	offHead = 0
	offTail = 4
)

// Queue is a fixed-capacity ring of prim-typed slots adopted over a
// region of memory it does not own.
type Queue struct {
	kind  prim.Kind
	width int

	head *uint32
	tail *uint32
	data []byte
	n    int // capacity in slots

	headCV *ringbuf.ConditionVariable
	tailCV *ringbuf.ConditionVariable
}

// Adopt wraps region as a Queue of kind-typed slots. kind must be a
// fixed-width, non-array [prim.Kind] (Utf8/Bytes are rejected - a queue
// slot has no offset-slot machinery for variable payloads). region must
// hold an 8-byte control block (head, tail, both Uint32) followed by at
// least 2 slots' worth of bytes.
func Adopt(kind prim.Kind, region []byte) (*Queue, error) {
	if kind.IsVariable() {
		return nil, fmt.Errorf("slotqueue: Adopt: %w: %s", ErrInvalidKind, kind)
	}

	width := kind.BytesPerElement()

	if len(region) < controlBlockBytes+2*width {
		return nil, fmt.Errorf("slotqueue: Adopt: %w", ErrRegionTooSmall)
	}

	data := region[controlBlockBytes:]
	if len(data)%width != 0 {
		return nil, fmt.Errorf("slotqueue: Adopt: %w", ErrRegionMisaligned)
	}

	q := &Queue{
		kind:  kind,
		width: width,
		head:  (*uint32)(unsafe.Pointer(&region[offHead])),
		tail:  (*uint32)(unsafe.Pointer(&region[offTail])),
		data:  data,
		n:     len(data) / width,
	}
	q.headCV = ringbuf.NewConditionVariable(q.head)
	q.tailCV = ringbuf.NewConditionVariable(q.tail)

	return q, nil
}

// NewRegion allocates a zeroed region sized for capacity slots of kind,
// suitable for [Adopt].
func NewRegion(kind prim.Kind, capacity int) []byte {
	return make([]byte, controlBlockBytes+capacity*kind.BytesPerElement())
}

func (q *Queue) slot(i uint32) []byte {
	off := int(i) * q.width
	return q.data[off : off+q.width]
}

func sizeFor(h, t uint32, n int) int {
	switch {
	case h == t:
		return 0
	case t < h:
		return n - int(h) + int(t)
	default:
		return int(t) - int(h)
	}
}

// Len returns the number of queued elements.
func (q *Queue) Len() int {
	h, t := atomic.LoadUint32(q.head), atomic.LoadUint32(q.tail)
	return sizeFor(h, t, q.n)
}

// Cap returns the queue's fixed slot capacity (one less than the number
// of physical slots, matching the ring buffer's reserved-slot convention).
func (q *Queue) Cap() int { return q.n - 1 }

// TryPush attempts to store v without blocking. It writes the value to
// slot[tail] then CASes tail from t to (t+1) mod n; on CAS failure
// (another writer raced ahead) the slot write is simply overwritten on
// retry. Returns false if the queue is full.
func (q *Queue) TryPush(v any) bool {
	h, t := atomic.LoadUint32(q.head), atomic.LoadUint32(q.tail)
	if sizeFor(h, t, q.n) >= q.n-1 {
		return false
	}

	if err := prim.SetValue(q.kind, q.slot(t), 0, v); err != nil {
		return false
	}

	next := (t + 1) % uint32(q.n)
	if !atomic.CompareAndSwapUint32(q.tail, t, next) {
		return false
	}

	q.tailCV.NotifyAll()

	return true
}

// TryShift attempts to dequeue the oldest element without blocking. It
// reads slot[head] then CASes head forward; on CAS failure (another
// reader raced ahead) it returns false and the caller retries.
func (q *Queue) TryShift() (any, bool) {
	h, t := atomic.LoadUint32(q.head), atomic.LoadUint32(q.tail)
	if h == t {
		return nil, false
	}

	v := prim.GetValue(q.kind, q.slot(h), 0)

	next := (h + 1) % uint32(q.n)
	if !atomic.CompareAndSwapUint32(q.head, h, next) {
		return nil, false
	}

	q.headCV.NotifyAll()

	return v, true
}

// Peek observes the i'th queued element (0 is the oldest) without
// advancing head. ok is false if i is out of range.
func (q *Queue) Peek(i int) (any, bool) {
	h, t := atomic.LoadUint32(q.head), atomic.LoadUint32(q.tail)
	if i < 0 || i >= sizeFor(h, t, q.n) {
		return nil, false
	}

	idx := (h + uint32(i)) % uint32(q.n)
	return prim.GetValue(q.kind, q.slot(idx), 0), true
}

// Push blocks until v is enqueued or timeout elapses (a negative timeout
// blocks indefinitely), parking on the head condition variable between
// attempts (head changes when a reader frees a slot). Returns false on
// timeout.
func (q *Queue) Push(v any, timeout time.Duration) bool {
	if q.TryPush(v) {
		return true
	}
	if timeout == 0 {
		return false
	}

	return blockingRetry(q.headCV, timeout, func() bool { return q.TryPush(v) })
}

// Shift blocks until an element is dequeued or timeout elapses (a
// negative timeout blocks indefinitely), parking on the tail condition
// variable between attempts. Returns (nil, false) on timeout.
func (q *Queue) Shift(timeout time.Duration) (any, bool) {
	if v, ok := q.TryShift(); ok {
		return v, true
	}
	if timeout == 0 {
		return nil, false
	}

	var result any
	ok := blockingRetry(q.tailCV, timeout, func() bool {
		v, ok := q.TryShift()
		if ok {
			result = v
		}
		return ok
	})

	return result, ok
}

func blockingRetry(cv *ringbuf.ConditionVariable, timeout time.Duration, attempt func() bool) bool {
	var deadline time.Time
	hasDeadline := timeout >= 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		expect := cv.Value()

		wait := time.Duration(-1)
		if hasDeadline {
			wait = time.Until(deadline)
			if wait <= 0 {
				return false
			}
		}

		cv.Wait(expect, wait)

		if attempt() {
			return true
		}

		if hasDeadline && !time.Now().Before(deadline) {
			return false
		}
	}
}
