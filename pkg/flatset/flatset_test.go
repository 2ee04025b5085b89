package flatset_test

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/flatrecord/flatrecord/pkg/flatset"
)

type uint32Codec struct{}

func (uint32Codec) BytesPerElement() int { return 4 }
func (uint32Codec) Decode(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
func (uint32Codec) Encode(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func cmpUint32(a, b uint32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func newSet(t *testing.T) *flatset.FlatSet[uint32] {
	t.Helper()

	s, err := flatset.New[uint32](uint32Codec{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func Test_FlatSet_Add_Keeps_Sorted_Order(t *testing.T) {
	s := newSet(t)

	for _, v := range []uint32{5, 1, 3, 2, 4} {
		if err := s.Add(v, cmpUint32); err != nil {
			t.Fatalf("Add(%d): %v", v, err)
		}
	}

	for i, want := range []uint32{1, 2, 3, 4, 5} {
		got, err := s.At(i)
		if err != nil || got != want {
			t.Fatalf("At(%d) = %v, %v, want %v", i, got, err, want)
		}
	}
}

func Test_FlatSet_Add_Rejects_Duplicate(t *testing.T) {
	s := newSet(t)

	if err := s.Add(1, cmpUint32); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := s.Add(1, cmpUint32)
	if !errors.Is(err, flatset.ErrDuplicate) {
		t.Fatalf("err=%v, want ErrDuplicate", err)
	}

	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}

func Test_FlatSet_FindIndex_And_Find(t *testing.T) {
	s := newSet(t)
	for _, v := range []uint32{1, 3, 5, 7, 9} {
		_ = s.Add(v, cmpUint32)
	}

	pred := func(v uint32) int { return cmpUint32(v, 5) }

	idx := s.FindIndex(pred)
	if idx != 2 {
		t.Fatalf("FindIndex = %d, want 2", idx)
	}

	v, ok := s.Find(pred)
	if !ok || v != 5 {
		t.Fatalf("Find = %v, %v, want 5, true", v, ok)
	}

	if idx := s.FindIndex(func(v uint32) int { return cmpUint32(v, 4) }); idx != -1 {
		t.Fatalf("FindIndex(4) = %d, want -1", idx)
	}
}

func Test_FlatSet_Range_Matches_Predicate_Span(t *testing.T) {
	s := newSet(t)
	for _, v := range []uint32{1, 2, 2, 2, 3} {
		_ = s.Add(v, cmpUint32) // duplicates of 2 rejected; set stays {1,2,3}
	}

	lower, upper := s.Range(func(v uint32) int { return cmpUint32(v, 2) })
	if lower != 1 || upper != 2 {
		t.Fatalf("Range = [%d,%d), want [1,2)", lower, upper)
	}
}

func Test_FlatSet_Delete(t *testing.T) {
	s := newSet(t)
	for _, v := range []uint32{1, 2, 3} {
		_ = s.Add(v, cmpUint32)
	}

	if err := s.Delete(1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for i, want := range []uint32{1, 3} {
		got, _ := s.At(i)
		if got != want {
			t.Fatalf("At(%d) = %v, want %v", i, got, want)
		}
	}
}
