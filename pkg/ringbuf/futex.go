package ringbuf

import (
	"math"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// The vendored golang.org/x/sys/unix package carries SYS_FUTEX but not the
// FUTEX_WAIT/FUTEX_WAKE operation constants, so they're defined locally and
// dispatched through a raw syscall - the standard shape for futex-backed
// condition variables in Go (no stdlib wrapper exists).
const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128
)

func futexWaitOp(addr *uint32, expect uint32, timeout *unix.Timespec) error {
	_, _, errno := unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWait|futexPrivateFlag),
		uintptr(expect),
		uintptr(unsafe.Pointer(timeout)),
		0, 0,
	)
	if errno != 0 {
		return errno
	}

	return nil
}

func futexWakeOp(addr *uint32, n int32) {
	unix.Syscall6(
		unix.SYS_FUTEX,
		uintptr(unsafe.Pointer(addr)),
		uintptr(futexWake|futexPrivateFlag),
		uintptr(n),
		0, 0, 0,
	)
}

// ConditionVariable parks goroutines on a 32-bit atomic word using the
// futex wait/wake primitives, mirroring the atomic-wait/notify condition
// variables §4.3 builds on top of the ring buffer's head and tail words.
// Notification is best-effort: a woken waiter must re-validate state,
// since both spurious wakes and races between check-and-wait are possible.
type ConditionVariable struct {
	word *uint32
}

func newConditionVariable(word *uint32) *ConditionVariable {
	return &ConditionVariable{word: word}
}

// NewConditionVariable wraps word (a Uint32 inside a region this
// package's caller owns, e.g. [slotqueue]'s own head/tail words) as a
// condition variable. Exported so other packages that replicate the
// head/tail discipline over their own control words - typed slot rings,
// in particular - can reuse the futex wait/wake plumbing instead of
// reimplementing it.
func NewConditionVariable(word *uint32) *ConditionVariable {
	return newConditionVariable(word)
}

// Value returns the word's current value.
func (c *ConditionVariable) Value() uint32 {
	return atomic.LoadUint32(c.word)
}

// Wait blocks while the word still equals expect, for at most timeout (a
// negative timeout blocks indefinitely). It returns once the word has
// changed, a notification arrived, or the timeout elapsed - callers must
// re-check the condition they were waiting for, since this never
// distinguishes those cases.
func (c *ConditionVariable) Wait(expect uint32, timeout time.Duration) {
	if atomic.LoadUint32(c.word) != expect {
		return
	}

	var ts *unix.Timespec
	if timeout >= 0 {
		spec := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &spec
	}

	_ = futexWaitOp(c.word, expect, ts)
}

// WaitAsync is like Wait but returns immediately with a channel that's
// closed once the wait completes, for callers driven from an event loop
// instead of a blocking goroutine.
func (c *ConditionVariable) WaitAsync(expect uint32, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})

	go func() {
		c.Wait(expect, timeout)
		close(done)
	}()

	return done
}

// NotifyOne wakes at most one waiter blocked on this word.
func (c *ConditionVariable) NotifyOne() {
	futexWakeOp(c.word, 1)
}

// NotifyAll wakes every waiter blocked on this word.
func (c *ConditionVariable) NotifyAll() {
	futexWakeOp(c.word, math.MaxInt32)
}
