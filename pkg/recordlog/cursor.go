package recordlog

import (
	"context"
	"errors"
	"fmt"

	"github.com/flatrecord/flatrecord/pkg/nativefile"
	"github.com/flatrecord/flatrecord/pkg/record"
)

// Frame is one decoded log entry together with its byte range, so callers
// can persist endPos as a resume point (§8 scenario 6).
type Frame struct {
	StartPos int64
	EndPos   int64
	Schema   *record.Schema
	Record   *record.Record
	Mapped   any // set if a Map function was chained; nil otherwise.
}

// MatchFunc decides whether a frame should be decoded and yielded.
// Filters run for every frame the cursor steps over, whether or not they
// ultimately reject it - a filter that just wants to observe position
// (e.g. [Open]'s replay bookkeeping) can do so unconditionally by putting
// itself first in the chain.
type MatchFunc func(schema *record.Schema, startPos, endPos int64) bool

// MapFunc transforms a decoded record before it's handed to the caller.
type MapFunc func(rec *record.Record) any

// Cursor is a resumable iterator over a recordlog's frames. It suspends
// only at frame boundaries, never mid-frame: a short peek for a header,
// schema blob, or body is read back as "not enough data yet", the same
// condition a torn writer-crash frame produces, and is not an error (§9
// Open Question (b)).
type Cursor struct {
	handle   nativefile.Handle
	registry *schemaRegistry
	pos      int64
	filters  []MatchFunc
	mappers  []MapFunc
}

// newCursor returns a Cursor over handle starting at position, sharing
// registry with the [Stream] that owns it. Exposed to external callers
// only via [Stream.NewCursor], since registry is built and populated
// internally by [Open] - there is no way to construct one from outside
// this package.
func newCursor(handle nativefile.Handle, registry *schemaRegistry, position int64) *Cursor {
	return &Cursor{handle: handle, registry: registry, pos: position}
}

// Filter chains a predicate; every previously-chained filter must also
// pass for a frame to be yielded. Returns the cursor for chaining.
func (c *Cursor) Filter(pred MatchFunc) *Cursor {
	c.filters = append(c.filters, pred)

	return c
}

// Map chains a transform applied to yielded frames, populating
// [Frame.Mapped]. Returns the cursor for chaining.
func (c *Cursor) Map(fn MapFunc) *Cursor {
	c.mappers = append(c.mappers, fn)

	return c
}

// Position returns the cursor's current byte offset: the start of the
// next frame it will attempt to decode.
func (c *Cursor) Position() int64 { return c.pos }

// Next attempts to decode and yield the next frame without blocking. It
// returns (frame, true, nil) on success, (nil, false, nil) if there
// isn't yet enough data on disk for a full frame (suspension - not an
// error; see [Cursor] doc), or (nil, false, err) on a genuine decode
// failure (unknown schema id, malformed schema JSON), which is terminal:
// every subsequent call on this cursor returns the same error.
func (c *Cursor) Next() (*Frame, bool, error) {
	for {
		header, ok, err := c.peekHeader()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		schemaStart := c.pos + frameHeaderBytes

		schema, err := c.resolveSchema(header, schemaStart)
		if err != nil {
			return nil, false, err
		}
		if schema == nil {
			return nil, false, nil // short peek on the schema blob.
		}

		bodyStart := schemaStart + int64(header.schemaLen)

		body, err := c.handle.Peek(bodyStart, int(header.bodyLen))
		if err != nil {
			if errors.Is(err, nativefile.ErrShortPeek) {
				return nil, false, nil
			}

			return nil, false, fmt.Errorf("recordlog: Cursor.Next: %w", err)
		}

		startPos := c.pos
		endPos := startPos + header.frameLen()

		passed := true

		for _, f := range c.filters {
			if !f(schema, startPos, endPos) {
				passed = false

				break
			}
		}

		if !passed {
			c.pos = endPos

			continue
		}

		rec, err := record.New(schema, body)
		if err != nil {
			return nil, false, fmt.Errorf("recordlog: Cursor.Next: %w", err)
		}

		frame := &Frame{StartPos: startPos, EndPos: endPos, Schema: schema, Record: rec}
		for _, m := range c.mappers {
			frame.Mapped = m(rec)
		}

		c.pos = endPos

		return frame, true, nil
	}
}

// peekHeader reads the fixed 16-byte header at the cursor's position.
// ok is false (no error) when fewer than 16 bytes are available yet.
func (c *Cursor) peekHeader() (frameHeader, bool, error) {
	buf, err := c.handle.Peek(c.pos, frameHeaderBytes)
	if err != nil {
		if errors.Is(err, nativefile.ErrShortPeek) {
			return frameHeader{}, false, nil
		}

		return frameHeader{}, false, fmt.Errorf("recordlog: Cursor.Next: %w", err)
	}

	return decodeFrameHeader(buf), true, nil
}

// resolveSchema returns the frame's schema. If header.schemaLen is 0 the
// schema must already be known to the registry (ErrUnknownSchema
// otherwise, terminal); if non-zero, the blob is parsed, interned, and
// registered. A nil, nil return means the schema blob itself is not yet
// fully on disk (suspension).
func (c *Cursor) resolveSchema(header frameHeader, schemaStart int64) (*record.Schema, error) {
	if header.schemaLen == 0 {
		schema, ok := c.registry.lookup(header.schemaId)
		if !ok {
			return nil, fmt.Errorf("recordlog: Cursor.Next: %w: %d", ErrUnknownSchema, header.schemaId)
		}

		return schema, nil
	}

	buf, err := c.handle.Peek(schemaStart, int(header.schemaLen))
	if err != nil {
		if errors.Is(err, nativefile.ErrShortPeek) {
			return nil, nil
		}

		return nil, fmt.Errorf("recordlog: Cursor.Next: %w", err)
	}

	schema, err := record.ParseCanonicalJSON(buf)
	if err != nil {
		return nil, fmt.Errorf("recordlog: Cursor.Next: %w", err)
	}

	if schema.Id() != header.schemaId {
		return nil, fmt.Errorf("recordlog: Cursor.Next: %w: header id %d, schema id %d",
			ErrFrameCorrupt, header.schemaId, schema.Id())
	}

	c.registry.register(schema)

	return schema, nil
}

// Await blocks until Next can yield a frame, ctx is cancelled, or Next
// returns a terminal error. It subscribes to the handle's change
// notifications for each suspension instead of busy-polling, matching
// live-tail use (cmd/flatrecordctl's `tail` subcommand).
func (c *Cursor) Await(ctx context.Context) (*Frame, error) {
	for {
		frame, ok, err := c.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			return frame, nil
		}

		if err := c.waitForChange(ctx); err != nil {
			return nil, err
		}
	}
}

// waitForChange blocks until the handle reports a change via
// [nativefile.Handle.Watch] or ctx is done. Watch notifications are
// spurious-wake-tolerant: the caller always re-runs Next rather than
// trusting the wakeup reason.
func (c *Cursor) waitForChange(ctx context.Context) error {
	notified := make(chan struct{}, 1)

	unsubscribe, err := c.handle.Watch(func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return fmt.Errorf("recordlog: Cursor.Await: %w", err)
	}
	defer unsubscribe()

	select {
	case <-notified:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
