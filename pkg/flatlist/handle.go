package flatlist

import "fmt"

// Handle is a reusable view into one slot of a [FlatList], obtained via
// [FlatList.Handle]. It stays valid only until the list's next structural
// mutation (push, pop, unshift, shift, insert, delete, swap, resize,
// sort, reverse). Using a stale Handle returns [ErrHandleStale].
// Reserve and ShrinkToFit reallocate the buffer without invalidating
// handles: a Handle resolves its slot through the list on every use.
type Handle[T any] struct {
	list       *FlatList[T]
	index      int
	generation uint64
}

// Handle returns a reusable view into the slot at index i. Negative i
// counts from the end, resolved at call time (not re-resolved on reuse).
func (l *FlatList[T]) Handle(i int) (*Handle[T], error) {
	idx, err := l.normalize(i)
	if err != nil {
		return nil, fmt.Errorf("flatlist: Handle: %w", err)
	}

	return &Handle[T]{list: l, index: idx, generation: l.generation}, nil
}

func (h *Handle[T]) stale() bool { return h.generation != h.list.generation }

// Get decodes the value the handle points at.
func (h *Handle[T]) Get() (T, error) {
	var zero T

	if h.stale() {
		return zero, fmt.Errorf("flatlist: Handle.Get: %w", ErrHandleStale)
	}

	return h.list.codec.Decode(h.list.slot(h.index)), nil
}

// Set overwrites the value the handle points at.
func (h *Handle[T]) Set(v T) error {
	if h.stale() {
		return fmt.Errorf("flatlist: Handle.Set: %w", ErrHandleStale)
	}

	h.list.codec.Encode(h.list.slot(h.index), v)

	return nil
}
