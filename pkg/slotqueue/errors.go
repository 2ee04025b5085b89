package slotqueue

import "errors"

var (
	// ErrInvalidKind indicates Adopt was called with a variable-width
	// prim.Kind (Utf8/Bytes), which has no fixed slot width.
	ErrInvalidKind = errors.New("slotqueue: invalid slot kind")

	// ErrRegionTooSmall indicates the adopted region is too small to hold
	// the control block plus at least 2 slots.
	ErrRegionTooSmall = errors.New("slotqueue: region too small")

	// ErrRegionMisaligned indicates the data region's byte length is not
	// a whole multiple of the slot width.
	ErrRegionMisaligned = errors.New("slotqueue: data region length not a multiple of slot width")
)
