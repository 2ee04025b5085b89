package nativefile

import "sync"

// Memory is an in-memory [Handle], used by tests (and by callers that want
// an ephemeral [recordlog.Stream]) that don't want to touch disk. It
// buffers bytes in a growable slice and fires watchers synchronously after
// each write.
type Memory struct {
	mu     sync.Mutex
	data   []byte
	closed bool

	watchMu sync.Mutex
	nextID  int
	watches map[int]func()
}

// NewMemory returns an empty in-memory handle.
func NewMemory() *Memory {
	return &Memory{watches: make(map[int]func())}
}

// WritevSync appends buffers, in order, to the end of the buffer.
func (m *Memory) WritevSync(buffers [][]byte) (int, error) {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()
		return 0, ErrClosedHandle
	}

	total := 0
	for _, b := range buffers {
		m.data = append(m.data, b...)
		total += len(b)
	}

	m.mu.Unlock()

	m.fireWatches()

	return total, nil
}

// WriteSync appends buf to the end of the buffer.
func (m *Memory) WriteSync(buf []byte) (int, error) {
	return m.WritevSync([][]byte{buf})
}

// ReadSync copies bytes starting at position into buf.
func (m *Memory) ReadSync(buf []byte, position int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosedHandle
	}

	if position < 0 || position >= int64(len(m.data)) {
		return 0, nil
	}

	n := copy(buf, m.data[position:])

	return n, nil
}

// Peek returns up to length bytes starting at position without advancing
// anything. Returns [ErrShortPeek] if fewer than length bytes are available.
func (m *Memory) Peek(position int64, length int) ([]byte, error) {
	buf := make([]byte, length)

	n, err := m.ReadSync(buf, position)
	if err != nil {
		return nil, err
	}

	if n < length {
		return buf[:n], ErrShortPeek
	}

	return buf, nil
}

// Size returns the current buffer length.
func (m *Memory) Size() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrClosedHandle
	}

	return int64(len(m.data)), nil
}

// Watch registers callback to be invoked after every write. The returned
// func unsubscribes.
func (m *Memory) Watch(callback func()) (UnsubscribeFunc, error) {
	m.watchMu.Lock()
	defer m.watchMu.Unlock()

	id := m.nextID
	m.nextID++
	m.watches[id] = callback

	return func() {
		m.watchMu.Lock()
		defer m.watchMu.Unlock()
		delete(m.watches, id)
	}, nil
}

func (m *Memory) fireWatches() {
	m.watchMu.Lock()
	cbs := make([]func(), 0, len(m.watches))
	for _, cb := range m.watches {
		cbs = append(cbs, cb)
	}
	m.watchMu.Unlock()

	for _, cb := range cbs {
		cb()
	}
}

// Close marks the handle unusable. Idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	return nil
}
