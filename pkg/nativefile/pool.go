package nativefile

import (
	"container/list"
	"fmt"
	"runtime"
	"sync"
)

// HandlePool caches open [RealHandle]s by path, evicting the least-recently
// used handle once capacity is exceeded. Per §5, the default capacity is
// max(1, 1024/CPU_COUNT).
//
// Recovery from a handle going bad underneath the pool (e.g. the backing fd
// becoming invalid) is out of scope; callers that observe an error from a
// pooled handle should call [HandlePool.Evict] and retry with a fresh Acquire.
type HandlePool struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently used
	entries  map[string]*list.Element
}

type poolEntry struct {
	path   string
	handle *RealHandle
	refs   int
}

// NewHandlePool creates a pool with the default capacity derived from
// [runtime.NumCPU].
func NewHandlePool() *HandlePool {
	return NewHandlePoolWithCapacity(poolLRUCapacity(runtime.NumCPU()))
}

// NewHandlePoolWithCapacity creates a pool with an explicit capacity (must be >= 1).
func NewHandlePoolWithCapacity(capacity int) *HandlePool {
	if capacity < 1 {
		capacity = 1
	}

	return &HandlePool{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Acquire returns the pooled handle for path, opening it if necessary and
// marking it most-recently-used. Callers must call [HandlePool.Release] when
// done with the handle; the underlying fd is not closed until the handle is
// evicted and its reference count drops to zero.
func (p *HandlePool) Acquire(path string) (*RealHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if elem, ok := p.entries[path]; ok {
		p.order.MoveToFront(elem)

		entry := elem.Value.(*poolEntry)
		entry.refs++

		return entry.handle, nil
	}

	handle, err := OpenRealHandle(path)
	if err != nil {
		return nil, fmt.Errorf("nativefile: pool acquire: %w", err)
	}

	entry := &poolEntry{path: path, handle: handle, refs: 1}
	elem := p.order.PushFront(entry)
	p.entries[path] = elem

	p.evictLocked()

	return handle, nil
}

// Release decrements path's reference count. It does not close the handle;
// closing happens only on eviction.
func (p *HandlePool) Release(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elem, ok := p.entries[path]
	if !ok {
		return
	}

	entry := elem.Value.(*poolEntry)
	if entry.refs > 0 {
		entry.refs--
	}
}

// Evict closes and removes path from the pool regardless of its reference
// count, for callers recovering from a broken handle.
func (p *HandlePool) Evict(path string) error {
	p.mu.Lock()
	elem, ok := p.entries[path]
	if ok {
		delete(p.entries, path)
		p.order.Remove(elem)
	}
	p.mu.Unlock()

	if !ok {
		return nil
	}

	return elem.Value.(*poolEntry).handle.Close()
}

// evictLocked closes and drops least-recently-used, unreferenced entries
// until the pool is at or under capacity. Must be called with p.mu held.
func (p *HandlePool) evictLocked() {
	for p.order.Len() > p.capacity {
		back := p.order.Back()
		if back == nil {
			return
		}

		entry := back.Value.(*poolEntry)
		if entry.refs > 0 {
			// Oldest entry is still in use; nothing further back can be
			// evicted without violating LRU order, so stop (capacity is
			// a soft ceiling under contention, not a hard invariant).
			return
		}

		p.order.Remove(back)
		delete(p.entries, entry.path)
		_ = entry.handle.Close()
	}
}

// Len reports the number of handles currently pooled.
func (p *HandlePool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.order.Len()
}
