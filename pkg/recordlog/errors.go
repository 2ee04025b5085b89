package recordlog

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSchema indicates a frame references a schema id that was
	// never established earlier in the file (and wasn't pre-registered).
	// This is a genuine parse failure, not a pending-data condition, and
	// is terminal for the cursor that hit it.
	ErrUnknownSchema = errors.New("recordlog: unknown schema id")

	// ErrFrameCorrupt indicates a frame's header or declared lengths are
	// internally inconsistent (e.g. lengths that don't round-trip).
	ErrFrameCorrupt = errors.New("recordlog: corrupt frame")
)

// StreamWriteError indicates [Stream.WriteManySync]'s scatter/gather
// write returned fewer bytes than the precomputed total. Partial
// success is never reported as success: the in-memory write position is
// left unadvanced and the caller must treat the whole batch as not
// persisted.
type StreamWriteError struct {
	Wrote    int
	Expected int
}

func (e *StreamWriteError) Error() string {
	return fmt.Sprintf("recordlog: short write: wrote %d, expected %d", e.Wrote, e.Expected)
}
