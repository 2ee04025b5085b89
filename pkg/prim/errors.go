package prim

import "errors"

var (
	// ErrTypeMismatch indicates a value passed to SetValue/Encode doesn't
	// match the kind's expected Go representation.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrOutOfRange indicates a value passed to SetValue doesn't fit the
	// kind's bit width.
	ErrOutOfRange = errors.New("out of range")
)
