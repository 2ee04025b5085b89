package ringbuf

import "errors"

var (
	// ErrRegionTooSmall indicates the adopted region is too small to hold
	// the three-word control block plus at least 4 bytes of data.
	ErrRegionTooSmall = errors.New("ringbuf: region too small")

	// ErrRegionMisaligned indicates the data region's byte length is not
	// divisible by 2, violating the constructor's alignment requirement.
	ErrRegionMisaligned = errors.New("ringbuf: data region length not divisible by 2")
)
