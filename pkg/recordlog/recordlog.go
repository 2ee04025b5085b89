// Package recordlog implements the append-only record log §4.6/§4.7
// build on: [Stream] is a sequence of framed, schema-tagged [record.Record]s
// on a [nativefile.Handle], replayed through a caller-supplied [Projection]
// on open and kept current on every subsequent write; [Cursor] is the
// resumable frame iterator both replay and live tailing are built from.
package recordlog

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/flatrecord/flatrecord/pkg/nativefile"
	"github.com/flatrecord/flatrecord/pkg/record"
)

// Projection materializes application state from a stream's frames. Match
// decides whether a frame is worth decoding at all; Handle receives every
// frame Match accepted, both during replay (in file order, before any
// live write is processed) and synchronously after each live write.
// Handle must be cheap and must not call back into the Stream that
// invoked it (§9 "Projection callback timing").
type Projection interface {
	Match(schema *record.Schema, startPos, endPos int64) bool
	Handle(rec *record.Record, startPos, endPos int64)
}

// Stream is an append-only sequence of framed records backed by a
// [nativefile.Handle]. A Stream does not itself enforce the single-writer
// assumption §5 describes for the backing file across processes - that's
// the advisory lock in lock.go's job, taken by the caller (typically
// cmd/flatrecordctl) around the handle before Open.
type Stream struct {
	handle   nativefile.Handle
	registry *schemaRegistry

	mu         sync.Mutex
	writePos   int64
	projection Projection
}

// Open replays handle's existing frames through projection (which may be
// nil to skip decoding entirely, just establishing the write position),
// then returns a Stream positioned to append after the last frame a full
// header, schema blob, and body could be read back for. A short final
// frame - whether because a writer crashed mid-write or the file is
// simply still being written - is treated identically: silently
// discarded from the replay, and overwritten by the Stream's own next
// write (§9 Open Question (b) resolution).
func Open(handle nativefile.Handle, projection Projection) (*Stream, error) {
	registry := newSchemaRegistry()

	var maxObserved int64

	cursor := newCursor(handle, registry, 0)
	cursor.Filter(func(schema *record.Schema, startPos, endPos int64) bool {
		maxObserved = endPos

		return projection != nil && projection.Match(schema, startPos, endPos)
	})

	for {
		frame, ok, err := cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("recordlog: Open: %w", err)
		}
		if !ok {
			break
		}

		projection.Handle(frame.Record, frame.StartPos, frame.EndPos)
	}

	return &Stream{
		handle:     handle,
		registry:   registry,
		writePos:   maxObserved,
		projection: projection,
	}, nil
}

// Position returns the stream's current write position: the byte offset
// the next frame will be written at.
func (s *Stream) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writePos
}

// NewCursor returns a [Cursor] over the stream's handle and schema
// registry, starting at position (typically a previously-saved
// [Frame.EndPos], per §8 scenario 6's resume law, or 0 to re-replay).
// The returned cursor is independent of the Stream's own write position
// and safe to use concurrently with further writes.
func (s *Stream) NewCursor(position int64) *Cursor {
	return newCursor(s.handle, s.registry, position)
}

// WriteOneSync writes a single record and returns the number of bytes
// written.
func (s *Stream) WriteOneSync(rec *record.Record) (int, error) {
	return s.WriteManySync([]*record.Record{rec})
}

// WriteManySync writes records as one scatter/gather syscall (§4.6):
// for each record whose schema isn't yet known to this stream's
// registry, a schema blob is included and the registry is updated before
// the write is issued, not after it's confirmed. If the write then fails
// or comes up short, the schema stays registered, so later frames of that
// schema written by this Stream carry no schema blob. On success,
// records are handed to the stream's
// projection in order, synchronously, before WriteManySync returns.
//
// Returns (0, *StreamWriteError) if the underlying write returned fewer
// bytes than the batch's total size; the write position is left
// unadvanced in that case, per §7's propagation policy.
func (s *Stream) WriteManySync(records []*record.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	buffers := make([][]byte, 0, len(records)*3)
	ranges := make([]frameHeader, len(records))

	expected := 0

	for i, rec := range records {
		schema := rec.Schema()

		var schemaBlob []byte

		if !s.registry.knows(schema.Id()) {
			blob, err := schema.CanonicalJSON()
			if err != nil {
				return 0, fmt.Errorf("recordlog: WriteManySync: %w", err)
			}

			schemaBlob = blob
			s.registry.register(schema)
		}

		body := rec.Buffer()

		header := frameHeader{
			schemaId:  schema.Id(),
			bodyLen:   uint32(len(body)),
			schemaLen: uint32(len(schemaBlob)),
		}
		ranges[i] = header

		headerBuf := make([]byte, frameHeaderBytes)
		encodeFrameHeader(header, headerBuf)

		buffers = append(buffers, headerBuf)
		if len(schemaBlob) > 0 {
			buffers = append(buffers, schemaBlob)
		}
		buffers = append(buffers, body)

		expected += int(header.frameLen())
	}

	wrote, err := s.handle.WritevSync(buffers)
	if err != nil {
		return 0, fmt.Errorf("recordlog: WriteManySync: %w", err)
	}

	if wrote != expected {
		return 0, &StreamWriteError{Wrote: wrote, Expected: expected}
	}

	pos := s.writePos

	for i, rec := range records {
		startPos := pos
		endPos := pos + ranges[i].frameLen()

		if s.projection != nil && s.projection.Match(rec.Schema(), startPos, endPos) {
			s.projection.Handle(rec, startPos, endPos)
		}

		pos = endPos
	}

	s.writePos = pos

	return wrote, nil
}

// CopyTo streams every byte of the source handle to dst, in chunks, and
// returns the total copied. It reads raw bytes rather than re-decoding
// frames, so the destination is a byte-identical copy whose replay
// yields the same (type, buffer) sequence as the source (§8's copyTo
// law) without requiring dst to share the source's schema registry.
func (s *Stream) CopyTo(dst nativefile.Handle) (int64, error) {
	size, err := s.handle.Size()
	if err != nil {
		return 0, fmt.Errorf("recordlog: CopyTo: %w", err)
	}

	const chunk = 64 * 1024

	buf := make([]byte, chunk)

	var total int64

	for total < size {
		want := chunk
		if remaining := size - total; remaining < int64(want) {
			want = int(remaining)
		}

		n, err := s.handle.ReadSync(buf[:want], total)
		if n > 0 {
			if _, werr := dst.WriteSync(buf[:n]); werr != nil {
				return total, fmt.Errorf("recordlog: CopyTo: %w", werr)
			}

			total += int64(n)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return total, fmt.Errorf("recordlog: CopyTo: %w", err)
		}

		if n == 0 {
			break
		}
	}

	return total, nil
}
