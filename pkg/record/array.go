package record

import (
	"fmt"

	"github.com/flatrecord/flatrecord/pkg/prim"
)

// FixedArray is a view over a fixed-length, fixed-width array field
// (Length > 1) within a record's buffer. It aliases the buffer directly;
// writes through [FixedArray.Set] mutate the owning [Record] in place.
//
// The spec's reference implementation aliases such fields as a typed-array
// view on little-endian hosts; this package instead dispatches each
// element through [pkg/prim]'s per-kind codec, trading that micro-
// optimization for portability across host byte orders and avoiding
// unsafe.Pointer reinterpretation of the record buffer.
type FixedArray struct {
	kind   prim.Kind
	buffer []byte
	offset int
	length int
}

// Len returns the array's element count.
func (a *FixedArray) Len() int { return a.length }

// At returns the decoded value of element i. Panics if i is out of range.
func (a *FixedArray) At(i int) any {
	if i < 0 || i >= a.length {
		panic(fmt.Sprintf("record: FixedArray.At: index %d out of range [0,%d)", i, a.length))
	}

	return prim.GetValue(a.kind, a.buffer, a.elementOffset(i))
}

// Set writes v into element i.
func (a *FixedArray) Set(i int, v any) error {
	if i < 0 || i >= a.length {
		return fmt.Errorf("record: FixedArray.Set: %w: index %d out of range [0,%d)", ErrInvalidLength, i, a.length)
	}

	return prim.SetValue(a.kind, a.buffer, a.elementOffset(i), v)
}

// Slice decodes every element into a freshly-allocated []any, in index
// order.
func (a *FixedArray) Slice() []any {
	out := make([]any, a.length)

	for i := range out {
		out[i] = a.At(i)
	}

	return out
}

func (a *FixedArray) elementOffset(i int) int {
	return a.offset + i*a.kind.BytesPerElement()
}
