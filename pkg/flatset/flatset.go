// Package flatset implements [FlatSet], a sorted [flatlist.FlatList] with
// uniqueness enforced on insert. Order and duplicate-freedom are
// maintained by the comparator supplied to [FlatSet.Add] and the
// search/range operations; FlatSet itself does not re-sort eagerly.
package flatset

import (
	"errors"
	"fmt"

	"github.com/flatrecord/flatrecord/pkg/flatlist"
)

// ErrDuplicate indicates [FlatSet.Add] rejected a value because an equal
// element (comparator result 0) already exists.
var ErrDuplicate = errors.New("flatset: duplicate element")

// CompareFunc returns <0, 0, or >0 according to whether a orders before,
// equal to, or after b.
type CompareFunc[T any] func(a, b T) int

// FlatSet is a [flatlist.FlatList] kept in non-decreasing order under a
// caller-supplied comparator, with duplicates (comparator result 0)
// rejected on insert.
type FlatSet[T any] struct {
	list *flatlist.FlatList[T]
}

// New creates an empty FlatSet using codec.
func New[T any](codec flatlist.Codec[T]) (*FlatSet[T], error) {
	list, err := flatlist.New[T](codec)
	if err != nil {
		return nil, err
	}

	return &FlatSet[T]{list: list}, nil
}

// Len returns the number of elements.
func (s *FlatSet[T]) Len() int { return s.list.Len() }

// At returns the element at index i (negative counts from the end).
func (s *FlatSet[T]) At(i int) (T, error) { return s.list.At(i) }

// List returns the underlying [flatlist.FlatList]. Mutating it directly
// bypasses FlatSet's ordering/uniqueness guarantees; callers that do so
// are responsible for restoring them.
func (s *FlatSet[T]) List() *flatlist.FlatList[T] { return s.list }

// lowerBound returns the smallest index i such that cmp(s.At(i), x) >= 0,
// i.e. the leftmost insertion point for x under cmp. Binary search over
// [0, Len()].
func (s *FlatSet[T]) lowerBound(x T, cmp CompareFunc[T]) int {
	lo, hi := 0, s.list.Len()

	for lo < hi {
		mid := (lo + hi) / 2

		v, _ := s.list.At(mid)
		if cmp(v, x) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

// Add inserts x at its sorted position under cmp, rejecting it with
// [ErrDuplicate] if an equal element already exists.
func (s *FlatSet[T]) Add(x T, cmp CompareFunc[T]) error {
	idx := s.lowerBound(x, cmp)

	if idx < s.list.Len() {
		existing, _ := s.list.At(idx)
		if cmp(existing, x) == 0 {
			return fmt.Errorf("flatset: Add: %w", ErrDuplicate)
		}
	}

	return s.list.Insert(idx, x)
}

// Delete removes the element at index i.
func (s *FlatSet[T]) Delete(i int) error { return s.list.Delete(i) }

// FindIndex returns the index of the first element for which pred
// returns 0 (an exact match under a three-way predicate), or -1. pred
// must be monotonic with respect to the set's order: it should return
// <0 for elements before the match, 0 for the match, >0 after.
func (s *FlatSet[T]) FindIndex(pred func(T) int) int {
	lo, hi := 0, s.list.Len()

	for lo < hi {
		mid := (lo + hi) / 2

		v, _ := s.list.At(mid)

		switch r := pred(v); {
		case r < 0:
			lo = mid + 1
		case r > 0:
			hi = mid
		default:
			return mid
		}
	}

	return -1
}

// Find returns the first element for which pred returns 0.
func (s *FlatSet[T]) Find(pred func(T) int) (T, bool) {
	i := s.FindIndex(pred)
	if i < 0 {
		var zero T
		return zero, false
	}

	v, _ := s.list.At(i)

	return v, true
}

// Lower returns the smallest index i such that pred(s.At(i)) >= 0: the
// leftmost position where elements stop comparing "before" under pred.
// hint, if in range, is probed first and narrows the binary search to
// the side of it where the boundary lies (useful for pred sequences from
// a narrowing scan).
func (s *FlatSet[T]) Lower(pred func(T) int, hint int) int {
	lo, hi := 0, s.list.Len()

	if hint >= 0 && hint < hi {
		v, _ := s.list.At(hint)
		if pred(v) >= 0 {
			hi = hint
		} else {
			lo = hint + 1
		}
	}

	for lo < hi {
		mid := (lo + hi) / 2

		v, _ := s.list.At(mid)
		if pred(v) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

// Upper returns the smallest index i such that pred(s.At(i)) > 0: one
// past the rightmost position where elements still compare "at or
// before" under pred.
func (s *FlatSet[T]) Upper(pred func(T) int, hint int) int {
	lo, hi := 0, s.list.Len()

	if hint >= 0 && hint < hi {
		v, _ := s.list.At(hint)
		if pred(v) > 0 {
			hi = hint
		} else {
			lo = hint + 1
		}
	}

	for lo < hi {
		mid := (lo + hi) / 2

		v, _ := s.list.At(mid)
		if pred(v) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return lo
}

// Range returns the half-open index span [lower, upper) of elements for
// which pred returns 0, given pred is monotonic over the set's order:
// upper is one past the last match, not the last match itself. If no
// element matches, lower == upper.
func (s *FlatSet[T]) Range(pred func(T) int) (lower, upper int) {
	lower = s.Lower(pred, -1)
	upper = s.Upper(pred, -1)

	return lower, upper
}
