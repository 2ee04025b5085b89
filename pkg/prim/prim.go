// Package prim provides the closed set of primitive codecs record schemas
// are built from: little-endian fixed-width scalars, two reduced-precision
// floats, a one-byte boolean, and the two variable-width payload kinds
// (UTF-8 strings and raw byte blobs).
//
// Every fixed-width [Kind] reports its width via [Kind.BytesPerElement],
// and [GetValue]/[SetValue] read and write a byte slice in place - no
// allocation, no heap indirection. The two variable-width kinds instead
// use [ByteLenOf] (the encoded size of a value, needed by [record] to
// size a payload before writing it) and [Encode]/[Decode].
package prim

import "fmt"

// Kind identifies one of the primitive types a schema field can use.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt8
	KindInt16
	KindInt32
	KindUint8
	KindUint16
	KindUint32
	KindInt64  // BigInt64 in the wire spec: a signed 64-bit scalar.
	KindUint64 // BigUint64 in the wire spec.
	KindFloat8 // E5M2 8-bit float.
	KindFloat16
	KindFloat32
	KindFloat64
	KindBool
	KindUtf8
	KindBytes
)

// String returns the schema-facing name of k, as used in canonical JSON.
func (k Kind) String() string {
	switch k {
	case KindInt8:
		return "Int8"
	case KindInt16:
		return "Int16"
	case KindInt32:
		return "Int32"
	case KindUint8:
		return "Uint8"
	case KindUint16:
		return "Uint16"
	case KindUint32:
		return "Uint32"
	case KindInt64:
		return "BigInt64"
	case KindUint64:
		return "BigUint64"
	case KindFloat8:
		return "Float8"
	case KindFloat16:
		return "Float16"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindBool:
		return "Boolean"
	case KindUtf8:
		return "Utf8"
	case KindBytes:
		return "Bytes"
	default:
		return "Invalid"
	}
}

// ParseKind resolves a schema type name to its [Kind]. Returns
// [KindInvalid], false for anything outside the closed set in §3.1.
func ParseKind(name string) (Kind, bool) {
	for k := KindInt8; k <= KindBytes; k++ {
		if k.String() == name {
			return k, true
		}
	}

	return KindInvalid, false
}

// IsVariable reports whether k is a variable-width type (Utf8 or Bytes).
// Variable-width fields are only legal with schema length == 1 (§3.2).
func (k Kind) IsVariable() bool {
	return k == KindUtf8 || k == KindBytes
}

// BytesPerElement returns the fixed width of k in bytes, or 0 if k is
// variable-width. Panics if k is not a known kind - callers are expected to
// validate kinds via [ParseKind] first.
func (k Kind) BytesPerElement() int {
	c, ok := fixedCodecs[k]
	if ok {
		return c.width
	}

	if k.IsVariable() {
		return 0
	}

	panic(fmt.Sprintf("prim: unknown kind %d", k))
}
