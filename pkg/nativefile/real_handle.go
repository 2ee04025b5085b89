package nativefile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sys/unix"
)

// RealHandle is the production [Handle], backed by a pooled OS file
// descriptor. Writes use vectored I/O ([unix.Writev]) so a
// [recordlog.Stream] frame (header, optional schema blob, record body) lands
// on disk as a single syscall. Change notification is backed by
// [fsnotify.Watcher].
type RealHandle struct {
	mu   sync.Mutex
	path string
	file *os.File

	watchMu   sync.Mutex
	watcher   *fsnotify.Watcher
	callbacks map[int]func()
	nextID    int
}

// OpenRealHandle opens (creating if needed) path for use as a [Handle].
func OpenRealHandle(path string) (*RealHandle, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("nativefile: open %s: %w", path, err)
	}

	return &RealHandle{path: path, file: f}, nil
}

// WritevSync writes buffers in order as a single atomic append.
func (h *RealHandle) WritevSync(buffers [][]byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file == nil {
		return 0, ErrClosedHandle
	}

	// Writev on Linux appends relative to the fd's current file offset, so
	// seek to the end first; the whole method is serialized by h.mu.
	_, err := h.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, fmt.Errorf("nativefile: seek: %w", err)
	}

	n, err := unix.Writev(int(h.file.Fd()), buffers)
	if err != nil {
		return n, fmt.Errorf("nativefile: writev: %w", err)
	}

	return n, nil
}

// WriteSync appends buf and returns the number of bytes written.
func (h *RealHandle) WriteSync(buf []byte) (int, error) {
	return h.WritevSync([][]byte{buf})
}

// ReadSync reads into buf at the given absolute position.
func (h *RealHandle) ReadSync(buf []byte, position int64) (int, error) {
	h.mu.Lock()
	f := h.file
	h.mu.Unlock()

	if f == nil {
		return 0, ErrClosedHandle
	}

	n, err := f.ReadAt(buf, position)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("nativefile: read: %w", err)
	}

	return n, nil
}

// Peek returns up to length bytes starting at position without advancing
// anything. Returns [ErrShortPeek] if fewer than length bytes are available.
func (h *RealHandle) Peek(position int64, length int) ([]byte, error) {
	buf := make([]byte, length)

	n, err := h.ReadSync(buf, position)
	if err != nil {
		return nil, err
	}

	if n < length {
		return buf[:n], ErrShortPeek
	}

	return buf, nil
}

// Size returns the current file length.
func (h *RealHandle) Size() (int64, error) {
	h.mu.Lock()
	f := h.file
	h.mu.Unlock()

	if f == nil {
		return 0, ErrClosedHandle
	}

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("nativefile: stat: %w", err)
	}

	return info.Size(), nil
}

// Watch registers callback to fire on writes observed by an fsnotify watch
// on the handle's path. The first subscriber starts the watcher; the last
// unsubscribe stops it.
func (h *RealHandle) Watch(callback func()) (UnsubscribeFunc, error) {
	h.watchMu.Lock()
	defer h.watchMu.Unlock()

	if h.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("nativefile: watcher: %w", err)
		}

		if err := w.Add(h.path); err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("nativefile: watch %s: %w", h.path, err)
		}

		h.watcher = w
		h.callbacks = make(map[int]func())

		go h.pumpEvents(w)
	}

	id := h.nextID
	h.nextID++
	h.callbacks[id] = callback

	return func() {
		h.watchMu.Lock()
		defer h.watchMu.Unlock()

		delete(h.callbacks, id)

		if len(h.callbacks) == 0 && h.watcher != nil {
			_ = h.watcher.Close()
			h.watcher = nil
		}
	}, nil
}

// pumpEvents fans fsnotify events out to registered callbacks. Per §4.7,
// watches may deliver spurious wakeups - callers must re-peek and re-check.
func (h *RealHandle) pumpEvents(w *fsnotify.Watcher) {
	for range w.Events {
		h.watchMu.Lock()
		cbs := make([]func(), 0, len(h.callbacks))
		for _, cb := range h.callbacks {
			cbs = append(cbs, cb)
		}
		h.watchMu.Unlock()

		for _, cb := range cbs {
			cb()
		}
	}
}

// Close closes the underlying file descriptor and any active watch.
func (h *RealHandle) Close() error {
	h.mu.Lock()
	f := h.file
	h.file = nil
	h.mu.Unlock()

	h.watchMu.Lock()
	if h.watcher != nil {
		_ = h.watcher.Close()
		h.watcher = nil
	}
	h.watchMu.Unlock()

	if f == nil {
		return nil
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("nativefile: close: %w", err)
	}

	return nil
}

// ErrClosedHandle is returned by [RealHandle] and [Memory] methods called
// after [Handle.Close].
var ErrClosedHandle = errors.New("nativefile: handle closed")
