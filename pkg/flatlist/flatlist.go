// Package flatlist implements [FlatList], a resizable packed array backed
// by one contiguous []byte, and [FlatSet] (see the sibling pkg/flatset)
// builds on it. Every element has a fixed byte width, described by a
// [Codec]; growing the list past its capacity reallocates the backing
// buffer (removing elements keeps it), never the elements within it.
package flatlist

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by [FlatList] operations.
var (
	// ErrInvalidElementType indicates a [Codec] reports a non-positive
	// element width.
	ErrInvalidElementType = errors.New("flatlist: invalid element type")

	// ErrBufferMisaligned indicates an adopted buffer's length isn't a
	// multiple of the element width.
	ErrBufferMisaligned = errors.New("flatlist: buffer length not a multiple of element width")

	// ErrIndexOutOfRange indicates an index passed to an accessor falls
	// outside [0, length) (after negative-index normalization).
	ErrIndexOutOfRange = errors.New("flatlist: index out of range")

	// ErrEmpty indicates pop/shift was called on an empty list.
	ErrEmpty = errors.New("flatlist: list is empty")

	// ErrHandleStale indicates a [Handle] was used after the structural
	// mutation that invalidated it.
	ErrHandleStale = errors.New("flatlist: handle is stale")
)

// Codec describes how FlatList encodes and decodes one element of type T
// to and from a fixed-width byte range. Implementations must report a
// constant, positive BytesPerElement.
type Codec[T any] interface {
	BytesPerElement() int
	Decode(buf []byte) T
	Encode(buf []byte, v T)
}

// FlatList is a resizable packed array of T, stored as one contiguous
// []byte of length*BytesPerElement bytes. Mutating operations that change
// length may reallocate the backing buffer.
type FlatList[T any] struct {
	codec Codec[T]
	width int
	buf   []byte
	length int

	// generation increments on every structural mutation (anything that
	// can move a slot or change the length); handles capture it to detect
	// staleness.
	generation uint64
}

// New creates an empty FlatList using codec.
func New[T any](codec Codec[T]) (*FlatList[T], error) {
	width := codec.BytesPerElement()
	if width <= 0 {
		return nil, fmt.Errorf("flatlist: New: %w", ErrInvalidElementType)
	}

	return &FlatList[T]{codec: codec, width: width}, nil
}

// Adopt wraps buf as the backing storage for a FlatList without copying
// it. len(buf) must be a multiple of the codec's element width.
func Adopt[T any](codec Codec[T], buf []byte) (*FlatList[T], error) {
	width := codec.BytesPerElement()
	if width <= 0 {
		return nil, fmt.Errorf("flatlist: Adopt: %w", ErrInvalidElementType)
	}

	if len(buf)%width != 0 {
		return nil, fmt.Errorf("flatlist: Adopt: %w", ErrBufferMisaligned)
	}

	return &FlatList[T]{codec: codec, width: width, buf: buf, length: len(buf) / width}, nil
}

// Len returns the number of elements currently stored.
func (l *FlatList[T]) Len() int { return l.length }

// Cap returns the number of elements the current backing buffer can hold
// without reallocating.
func (l *FlatList[T]) Cap() int { return len(l.buf) / l.width }

// BytesPerElement returns the codec's fixed element width.
func (l *FlatList[T]) BytesPerElement() int { return l.width }

// Buffer returns the live backing byte slice, length l.Len()*BytesPerElement.
func (l *FlatList[T]) Buffer() []byte { return l.buf[:l.length*l.width] }

func (l *FlatList[T]) slot(i int) []byte {
	return l.buf[i*l.width : (i+1)*l.width]
}

// normalize resolves a possibly-negative index (counting from the end)
// against the current length.
func (l *FlatList[T]) normalize(i int) (int, error) {
	if i < 0 {
		i += l.length
	}

	if i < 0 || i >= l.length {
		return 0, fmt.Errorf("flatlist: %w: %d", ErrIndexOutOfRange, i)
	}

	return i, nil
}

// At returns the decoded element at index i. Negative i counts from the
// end, as in `at(-1)` for the last element.
func (l *FlatList[T]) At(i int) (T, error) {
	var zero T

	idx, err := l.normalize(i)
	if err != nil {
		return zero, err
	}

	return l.codec.Decode(l.slot(idx)), nil
}

// SetAt overwrites the element at index i.
func (l *FlatList[T]) SetAt(i int, v T) error {
	idx, err := l.normalize(i)
	if err != nil {
		return err
	}

	l.codec.Encode(l.slot(idx), v)

	return nil
}

// ensureCapacity grows buf, if needed, to hold n elements, following a
// doubling growth policy; it does NOT change length.
func (l *FlatList[T]) ensureCapacity(n int) {
	if n <= l.Cap() {
		return
	}

	newCap := l.Cap()
	if newCap == 0 {
		newCap = 4
	}

	for newCap < n {
		newCap *= 2
	}

	grown := make([]byte, newCap*l.width)
	copy(grown, l.buf[:l.length*l.width])
	l.buf = grown
}

func (l *FlatList[T]) bumpGeneration() { l.generation++ }

// Push appends v to the end.
func (l *FlatList[T]) Push(v T) {
	l.ensureCapacity(l.length + 1)
	l.length++
	l.codec.Encode(l.slot(l.length-1), v)
	l.bumpGeneration()
}

// Pop removes and returns the last element.
func (l *FlatList[T]) Pop() (T, error) {
	var zero T

	if l.length == 0 {
		return zero, fmt.Errorf("flatlist: Pop: %w", ErrEmpty)
	}

	v := l.codec.Decode(l.slot(l.length - 1))
	l.length--
	l.bumpGeneration()

	return v, nil
}

// Unshift prepends v to the front, shifting every existing element right.
func (l *FlatList[T]) Unshift(v T) {
	l.ensureCapacity(l.length + 1)
	l.length++

	copy(l.buf[l.width:l.length*l.width], l.buf[0:(l.length-1)*l.width])
	l.codec.Encode(l.slot(0), v)
	l.bumpGeneration()
}

// Shift removes and returns the first element, shifting every remaining
// element left.
func (l *FlatList[T]) Shift() (T, error) {
	var zero T

	if l.length == 0 {
		return zero, fmt.Errorf("flatlist: Shift: %w", ErrEmpty)
	}

	v := l.codec.Decode(l.slot(0))
	copy(l.buf[0:(l.length-1)*l.width], l.buf[l.width:l.length*l.width])
	l.length--
	l.bumpGeneration()

	return v, nil
}

// Insert places v at index i, shifting elements at and after i right by
// one. i == Len() is equivalent to Push.
func (l *FlatList[T]) Insert(i int, v T) error {
	if i < 0 {
		i += l.length
	}

	if i < 0 || i > l.length {
		return fmt.Errorf("flatlist: Insert: %w: %d", ErrIndexOutOfRange, i)
	}

	l.ensureCapacity(l.length + 1)
	l.length++

	copy(l.buf[(i+1)*l.width:l.length*l.width], l.buf[i*l.width:(l.length-1)*l.width])
	l.codec.Encode(l.slot(i), v)
	l.bumpGeneration()

	return nil
}

// Delete removes the element at index i, shifting later elements left.
func (l *FlatList[T]) Delete(i int) error {
	idx, err := l.normalize(i)
	if err != nil {
		return fmt.Errorf("flatlist: Delete: %w", err)
	}

	copy(l.buf[idx*l.width:(l.length-1)*l.width], l.buf[(idx+1)*l.width:l.length*l.width])
	l.length--
	l.bumpGeneration()

	return nil
}

// Swap exchanges the elements at indices i and j in place.
func (l *FlatList[T]) Swap(i, j int) error {
	ii, err := l.normalize(i)
	if err != nil {
		return fmt.Errorf("flatlist: Swap: %w", err)
	}

	jj, err := l.normalize(j)
	if err != nil {
		return fmt.Errorf("flatlist: Swap: %w", err)
	}

	if ii == jj {
		return nil
	}

	var tmp [64]byte // generous scratch; widths beyond this are vanishingly rare for fixed record schemas
	scratch := tmp[:l.width]

	if l.width > len(tmp) {
		scratch = make([]byte, l.width)
	}

	copy(scratch, l.slot(ii))
	copy(l.slot(ii), l.slot(jj))
	copy(l.slot(jj), scratch)
	l.bumpGeneration()

	return nil
}

// Resize sets the list's length to n. Growing zero-fills new slots;
// shrinking discards trailing elements. Capacity grows as needed but
// never shrinks.
func (l *FlatList[T]) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("flatlist: Resize: %w: %d", ErrIndexOutOfRange, n)
	}

	if n > l.length {
		l.ensureCapacity(n)

		for i := l.length * l.width; i < n*l.width; i++ {
			l.buf[i] = 0
		}
	}

	l.length = n
	l.bumpGeneration()

	return nil
}

// Reserve ensures capacity for at least n elements without changing
// length. If force is true, it reallocates to exactly n even if current
// capacity already exceeds it (useful paired with [FlatList.ShrinkToFit]
// semantics in reverse).
func (l *FlatList[T]) Reserve(n int, force bool) {
	if force {
		if n < l.length {
			n = l.length
		}

		grown := make([]byte, n*l.width)
		copy(grown, l.buf[:l.length*l.width])
		l.buf = grown

		return
	}

	l.ensureCapacity(n)
}

// ShrinkToFit reallocates the backing buffer to exactly Len() elements.
func (l *FlatList[T]) ShrinkToFit() {
	if l.Cap() == l.length {
		return
	}

	shrunk := make([]byte, l.length*l.width)
	copy(shrunk, l.buf[:l.length*l.width])
	l.buf = shrunk
}

// Reverse reverses the list in place.
func (l *FlatList[T]) Reverse() {
	for i, j := 0, l.length-1; i < j; i, j = i+1, j-1 {
		_ = l.Swap(i, j)
	}
}

// ForEach calls fn with the decoded value of every element, in order.
func (l *FlatList[T]) ForEach(fn func(i int, v T)) {
	for i := 0; i < l.length; i++ {
		fn(i, l.codec.Decode(l.slot(i)))
	}
}

// FindIndex returns the index of the first element for which pred
// returns true, or -1.
func (l *FlatList[T]) FindIndex(pred func(T) bool) int {
	for i := 0; i < l.length; i++ {
		if pred(l.codec.Decode(l.slot(i))) {
			return i
		}
	}

	return -1
}

// Find returns the first element for which pred returns true.
func (l *FlatList[T]) Find(pred func(T) bool) (T, bool) {
	i := l.FindIndex(pred)
	if i < 0 {
		var zero T
		return zero, false
	}

	return l.codec.Decode(l.slot(i)), true
}

// Some reports whether pred returns true for at least one element.
func (l *FlatList[T]) Some(pred func(T) bool) bool {
	return l.FindIndex(pred) >= 0
}

// Every reports whether pred returns true for every element.
func (l *FlatList[T]) Every(pred func(T) bool) bool {
	for i := 0; i < l.length; i++ {
		if !pred(l.codec.Decode(l.slot(i))) {
			return false
		}
	}

	return true
}

// Reduce folds the list left-to-right, starting from init.
func Reduce[T, A any](l *FlatList[T], init A, fn func(acc A, v T) A) A {
	acc := init

	for i := 0; i < l.length; i++ {
		acc = fn(acc, l.codec.Decode(l.slot(i)))
	}

	return acc
}

// Map decodes every element through fn into a freshly-allocated slice.
func Map[T, R any](l *FlatList[T], fn func(T) R) []R {
	out := make([]R, l.length)

	for i := 0; i < l.length; i++ {
		out[i] = fn(l.codec.Decode(l.slot(i)))
	}

	return out
}

// Filter returns a new FlatList containing only the elements for which
// pred returns true, in order.
func (l *FlatList[T]) Filter(pred func(T) bool) *FlatList[T] {
	out := &FlatList[T]{codec: l.codec, width: l.width}

	for i := 0; i < l.length; i++ {
		v := l.codec.Decode(l.slot(i))
		if pred(v) {
			out.Push(v)
		}
	}

	return out
}
