package prim

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ByteLenOf returns the number of bytes k's wire encoding of v occupies.
// Only defined for variable-width kinds ([KindUtf8], [KindBytes]); panics
// otherwise.
func ByteLenOf(k Kind, v any) (int, error) {
	switch k {
	case KindUtf8:
		s, ok := v.(string)
		if !ok {
			return 0, fmt.Errorf("prim: Utf8.getByteLengthOf: %w: got %T", ErrTypeMismatch, v)
		}

		return len(s), nil
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return 0, fmt.Errorf("prim: Bytes.getByteLengthOf: %w: got %T", ErrTypeMismatch, v)
		}

		return len(b), nil
	default:
		panic(fmt.Sprintf("prim: ByteLenOf: %s is not variable-width", k))
	}
}

// Encode renders v (a string for [KindUtf8], a []byte for [KindBytes]) to
// its wire bytes. The returned slice is always a fresh copy.
func Encode(k Kind, v any) ([]byte, error) {
	switch k {
	case KindUtf8:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("prim: Utf8.encode: %w: got %T", ErrTypeMismatch, v)
		}

		return []byte(s), nil
	case KindBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("prim: Bytes.encode: %w: got %T", ErrTypeMismatch, v)
		}

		out := make([]byte, len(b))
		copy(out, b)

		return out, nil
	default:
		panic(fmt.Sprintf("prim: Encode: %s is not variable-width", k))
	}
}

// Decode interprets payload as kind k's value: a string for [KindUtf8]
// (validated as UTF-8), a []byte copy for [KindBytes].
func Decode(k Kind, payload []byte) (any, error) {
	switch k {
	case KindUtf8:
		if !utf8.Valid(payload) {
			return nil, fmt.Errorf("prim: Utf8.decode: %w", ErrInvalidUtf8)
		}

		return string(payload), nil
	case KindBytes:
		out := make([]byte, len(payload))
		copy(out, payload)

		return out, nil
	default:
		panic(fmt.Sprintf("prim: Decode: %s is not variable-width", k))
	}
}

// ErrInvalidUtf8 indicates a Utf8 field's payload bytes are not valid UTF-8.
var ErrInvalidUtf8 = errors.New("invalid utf8")
