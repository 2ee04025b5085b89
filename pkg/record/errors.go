// Package record implements the schema-driven, zero-copy record codec at
// the center of this module: each record is a flat byte buffer, and field
// accessors read and write that buffer in place with no heap indirection.
//
// A [Schema] describes an ordered list of named, typed fields (see
// [pkg/prim] for the primitive type set). Schemas are interned - see
// [Intern] - so that two equivalent schemas share one [*Schema] instance and
// one [Id]. A [Record] pairs a [*Schema] with a live []byte buffer; reading
// a field decodes straight out of that buffer, and writing a fixed-width
// field mutates it in place. Writing a variable-width field (Utf8 or Bytes)
// may grow or shrink the buffer - see [Record.Set].
package record

import "errors"

// Sentinel errors returned by schema validation and record construction.
// Callers should use [errors.Is] to check error classes.
var (
	// ErrBufferTooSmall indicates a caller-supplied byte view is shorter
	// than [Schema.MinBytesPerElement].
	ErrBufferTooSmall = errors.New("record: buffer too small")

	// ErrUnknownType indicates a field descriptor names a type outside
	// the closed primitive set in [pkg/prim].
	ErrUnknownType = errors.New("record: unknown type")

	// ErrInvalidFieldName indicates a field name doesn't match
	// /^[A-Za-z_$][A-Za-z0-9_$]*$/ or collides with the reserved "buffer"
	// accessor.
	ErrInvalidFieldName = errors.New("record: invalid field name")

	// ErrInvalidLength indicates a field's length is <= 0.
	ErrInvalidLength = errors.New("record: invalid length")

	// ErrVariadicUnsupported indicates a variable-width type (Utf8,
	// Bytes) was declared with length != 1.
	ErrVariadicUnsupported = errors.New("record: variadic variable-width field unsupported")

	// ErrUnknownField indicates Get/Set named a field not in the schema.
	ErrUnknownField = errors.New("record: unknown field")

	// ErrNotVariable indicates a variable-width operation was attempted
	// on a fixed-width field, or vice versa.
	ErrNotVariable = errors.New("record: field is not variable-width")

	// ErrNotArray indicates an array accessor was used on a
	// scalar (length == 1) field.
	ErrNotArray = errors.New("record: field is not an array")

	// ErrMalformedSchemaJSON indicates a log frame's schema blob isn't
	// valid canonical [name, schema] JSON.
	ErrMalformedSchemaJSON = errors.New("record: malformed schema json")
)
