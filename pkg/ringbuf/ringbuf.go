// Package ringbuf implements [Stream], a lock-free single-producer/
// single-reader-cooperative byte ring buffer over a caller-supplied
// region of memory (ordinary heap memory in tests, a shared-memory or
// mmap'd region in production). All coordination is through atomic loads,
// stores, and compare-and-swaps on three Uint32 words at the head of the
// region; no mutex is ever taken.
//
// [packetstream] layers length-prefixed framing on top; [slotqueue]
// reuses the same head/tail discipline for fixed-width typed slots.
package ringbuf

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"
)

const (
	controlBlockBytes = 12

	offHead       = 0
	offTail       = 4
	offWriterFlag = 8
	minDataBytes  = 4
)

// Stream is a byte ring buffer adopted over a region of memory it does
// not own. The region's lifetime must outlive the Stream; Stream never
// closes or frees it.
type Stream struct {
	region     []byte
	head       *uint32
	tail       *uint32
	writerFlag *uint32
	data       []byte
	n          int

	headCV *ConditionVariable
	tailCV *ConditionVariable
}

// Adopt wraps region (at least 16 bytes: a 12-byte control block plus a
// data area of at least 4 bytes, itself a multiple of 2) as a ring
// buffer. The control block is taken to already be initialized (head ==
// tail == 0 for a fresh buffer); Adopt does not zero it, so reopening a
// previously-used region preserves its state.
func Adopt(region []byte) (*Stream, error) {
	if len(region) < controlBlockBytes+minDataBytes {
		return nil, fmt.Errorf("ringbuf: Adopt: %w", ErrRegionTooSmall)
	}

	data := region[controlBlockBytes:]
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("ringbuf: Adopt: %w", ErrRegionMisaligned)
	}

	s := &Stream{
		region:     region,
		head:       (*uint32)(unsafe.Pointer(&region[offHead])),
		tail:       (*uint32)(unsafe.Pointer(&region[offTail])),
		writerFlag: (*uint32)(unsafe.Pointer(&region[offWriterFlag])),
		data:       data,
		n:          len(data),
	}
	s.headCV = newConditionVariable(s.head)
	s.tailCV = newConditionVariable(s.tail)

	return s, nil
}

// NewRegion allocates a zeroed region sized for n data bytes (rounded up
// to an even number), suitable for [Adopt]. It's the non-shared-memory
// convenience path used by tests and single-process callers; production
// callers adopt an existing mmap'd or shared-memory slice instead.
func NewRegion(n int) []byte {
	if n%2 != 0 {
		n++
	}
	if n < minDataBytes {
		n = minDataBytes
	}

	return make([]byte, controlBlockBytes+n)
}

func sizeFor(h, t uint32, length int) int {
	switch {
	case h == t:
		return 0
	case t < h:
		return length - int(h) + int(t)
	default:
		return int(t) - int(h)
	}
}

func (s *Stream) snapshot() (h, t uint32) {
	return atomic.LoadUint32(s.head), atomic.LoadUint32(s.tail)
}

// Size returns the number of bytes currently readable.
func (s *Stream) Size() int {
	h, t := s.snapshot()
	return sizeFor(h, t, s.n)
}

// Capacity returns the number of bytes currently writable.
func (s *Stream) Capacity() int {
	return s.n - s.Size() - 1
}

// IsEmpty reports whether the buffer currently holds no readable bytes.
func (s *Stream) IsEmpty() bool {
	h, t := s.snapshot()
	return h == t
}

// TryWrite attempts a single non-blocking write of data. It returns
// len(data) on success, or 0 if data is empty, larger than the current
// capacity, or another writer is mid-flight (writer_flag contention) -
// all three are retryable conditions, not errors.
func (s *Stream) TryWrite(data []byte) int {
	h, t := s.snapshot()
	capacity := s.n - sizeFor(h, t, s.n) - 1

	if len(data) == 0 || len(data) > capacity {
		return 0
	}

	// AddUint32 returns the new value; subtract 1 to get the prior one.
	if prev := atomic.AddUint32(s.writerFlag, 1) - 1; prev != 0 {
		// Another writer is mid-flight. We don't decrement here: that
		// writer's final store of 0 clears our increment as well
		// (§4.3's best-effort handoff).
		return 0
	}

	next := (int(t) + len(data)) % s.n
	if int(t)+len(data) <= s.n {
		copy(s.data[t:], data)
	} else {
		firstPart := s.n - int(t)
		copy(s.data[t:], data[:firstPart])
		copy(s.data[0:], data[firstPart:])
	}

	atomic.StoreUint32(s.tail, uint32(next))
	atomic.StoreUint32(s.writerFlag, 0)

	s.tailCV.NotifyAll()

	return len(data)
}

// TryRead attempts a single non-blocking read of exactly len(dest) bytes.
// It returns len(dest) on success, or 0 if dest is empty, fewer bytes are
// readable than requested, or a concurrent reader won the race to
// advance head (caller retries).
func (s *Stream) TryRead(dest []byte) int {
	h, t := s.snapshot()
	size := sizeFor(h, t, s.n)

	if len(dest) == 0 || size < len(dest) {
		return 0
	}

	if int(h)+len(dest) <= s.n {
		copy(dest, s.data[h:int(h)+len(dest)])
	} else {
		firstPart := s.n - int(h)
		copy(dest[:firstPart], s.data[h:])
		copy(dest[firstPart:], s.data[:len(dest)-firstPart])
	}

	next := (int(h) + len(dest)) % s.n
	if !atomic.CompareAndSwapUint32(s.head, h, uint32(next)) {
		return 0
	}

	s.headCV.NotifyAll()

	return len(dest)
}

// Peek copies up to len(dest) readable bytes starting pos bytes after
// head into dest, without advancing head. It returns the number of bytes
// actually copied, which is less than len(dest) if fewer bytes are
// currently readable at that offset.
func (s *Stream) Peek(pos int, dest []byte) int {
	h, t := s.snapshot()
	size := sizeFor(h, t, s.n)

	if pos >= size {
		return 0
	}

	avail := size - pos
	want := len(dest)
	if want > avail {
		want = avail
	}

	start := (int(h) + pos) % s.n
	if start+want <= s.n {
		copy(dest[:want], s.data[start:start+want])
	} else {
		firstPart := s.n - start
		copy(dest[:firstPart], s.data[start:])
		copy(dest[firstPart:want], s.data[:want-firstPart])
	}

	return want
}

// Scan returns a copy of up to n currently readable bytes, without
// advancing head.
func (s *Stream) Scan(n int) []byte {
	buf := make([]byte, n)
	got := s.Peek(0, buf)

	return buf[:got]
}

// Write blocks until data is written or timeout elapses, retrying
// [Stream.TryWrite] and parking on the head condition variable between
// attempts (head changes when a reader frees space). A negative timeout
// blocks indefinitely; timeout == 0 behaves like a single TryWrite.
// On timeout it returns 0, never an error.
func (s *Stream) Write(data []byte, timeout time.Duration) int {
	if n := s.TryWrite(data); n > 0 || timeout == 0 {
		return n
	}

	return blockingRetry(s.headCV, timeout, func() int { return s.TryWrite(data) })
}

// Read blocks until len(dest) bytes are read or timeout elapses,
// retrying [Stream.TryRead] and parking on the tail condition variable
// between attempts (tail changes when a writer publishes data). A
// negative timeout blocks indefinitely; timeout == 0 behaves like a
// single TryRead. On timeout it returns 0, never an error.
func (s *Stream) Read(dest []byte, timeout time.Duration) int {
	if n := s.TryRead(dest); n > 0 || timeout == 0 {
		return n
	}

	return blockingRetry(s.tailCV, timeout, func() int { return s.TryRead(dest) })
}

// SleepUntilReadable blocks until at least n bytes are readable or
// timeout elapses, returning whether the condition was met.
func (s *Stream) SleepUntilReadable(n int, timeout time.Duration) bool {
	if s.Size() >= n {
		return true
	}

	got := blockingRetry(s.tailCV, timeout, func() int {
		if s.Size() >= n {
			return 1
		}
		return 0
	})

	return got > 0
}

// blockingRetry spins attempt, parking on cv between failed attempts,
// until it succeeds (returns > 0) or timeout elapses. A negative timeout
// never gives up.
func blockingRetry(cv *ConditionVariable, timeout time.Duration, attempt func() int) int {
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
				return 0
			}
		}

		cv.Wait(expect, wait)

		if n := attempt(); n > 0 {
			return n
		}

		if hasDeadline && !time.Now().Before(deadline) {
			return 0
		}
	}
}

// HeadCV returns the condition variable parked on head, signaled after
// every read advances it.
func (s *Stream) HeadCV() *ConditionVariable { return s.headCV }

// TailCV returns the condition variable parked on tail, signaled after
// every write advances it.
func (s *Stream) TailCV() *ConditionVariable { return s.tailCV }
