package nativefile

import (
	"errors"
	"os"
)

// ErrShortPeek is returned by [Handle.Peek] when fewer bytes are currently
// available than requested. It is not a failure: callers (in particular
// [recordlog.Cursor]) treat it as "not enough data yet" and retry after a
// [Handle.Watch] notification.
var ErrShortPeek = errors.New("nativefile: short peek")

// UnsubscribeFunc cancels a [Handle.Watch] subscription. Calling it more than
// once is a no-op.
type UnsubscribeFunc func()

// Handle is the contract [recordlog.Stream] needs from a backing file: atomic
// multi-buffer writes, random-access reads, non-advancing peeks, and change
// notification. It is independent of [File] (it does not include File's
// methods), and is satisfied by [RealHandle] (OS-backed, pooled) and
// [Memory] (buffered, in-process).
//
// Implementations must be safe for concurrent use: one stream writes while
// independent cursors read the same underlying data.
type Handle interface {
	// WritevSync performs an atomic scatter/gather write of buffers, in
	// order, appending to the handle's current end. It returns the total
	// number of bytes written; [RealHandle] returns the count of its single
	// writev call as is, so callers must check it against the requested
	// total (see [recordlog.StreamWriteError]).
	WritevSync(buffers [][]byte) (int, error)

	// WriteSync appends buf at the handle's current end and returns the
	// number of bytes written.
	WriteSync(buf []byte) (int, error)

	// ReadSync reads into buf starting at the given absolute position. It
	// returns the number of bytes actually read, which is less than
	// len(buf) (possibly zero) at or past the handle's current end; this
	// is never reported as an error.
	ReadSync(buf []byte, position int64) (int, error)

	// Peek returns up to length bytes starting at position without
	// advancing any cursor. If fewer than length bytes are currently
	// available, it returns the bytes that are available (possibly zero)
	// together with [ErrShortPeek].
	Peek(position int64, length int) ([]byte, error)

	// Watch registers callback to be invoked (possibly spuriously) after
	// the handle's content changes. The returned func unsubscribes.
	Watch(callback func()) (UnsubscribeFunc, error)

	// Size returns the current length of the handle's content.
	Size() (int64, error)

	// Close releases resources held by the handle.
	Close() error
}

// Compile-time interface checks.
var (
	_ Handle = (*RealHandle)(nil)
	_ Handle = (*Memory)(nil)
)

// poolLRUCapacity bounds the number of open OS file descriptors a
// [*HandlePool] keeps warm, per §5 "Shared-resource policy":
// max(1, 1024/CPU_COUNT).
func poolLRUCapacity(cpuCount int) int {
	if cpuCount <= 0 {
		cpuCount = 1
	}

	capacity := 1024 / cpuCount
	if capacity < 1 {
		capacity = 1
	}

	return capacity
}

// openForHandle opens path for a [RealHandle], creating it if necessary.
func openForHandle(fsys FS, path string) (File, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}

	return f, nil
}
