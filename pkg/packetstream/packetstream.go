// Package packetstream layers length-prefixed packet framing over
// [ringbuf.Stream]: each packet is an 8-byte header (a little-endian
// Uint32 total size, counted from the header's first byte, followed by 4
// reserved bytes kept for alignment) followed by its payload.
package packetstream

import (
	"encoding/binary"
	"time"

	"github.com/flatrecord/flatrecord/pkg/ringbuf"
)

const headerBytes = 8

// PacketStream frames payloads over an underlying [ringbuf.Stream].
type PacketStream struct {
	stream *ringbuf.Stream
}

// New wraps stream with packet framing.
func New(stream *ringbuf.Stream) *PacketStream {
	return &PacketStream{stream: stream}
}

// TryWrite frames payload behind an 8-byte header and writes it in a
// single [ringbuf.Stream.TryWrite] call. It returns true on success, or
// false if the underlying stream didn't have room (retryable, not an
// error).
func (p *PacketStream) TryWrite(payload []byte) bool {
	buf := make([]byte, headerBytes+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(headerBytes+len(payload)))
	copy(buf[headerBytes:], payload)

	return p.stream.TryWrite(buf) == len(buf)
}

// TryRead reads the next framed packet, if one is fully available. The
// returned slice is a fresh copy; ok is false if no complete packet is
// currently available (retryable).
func (p *PacketStream) TryRead() (payload []byte, ok bool) {
	header := make([]byte, 4)
	if p.stream.Peek(0, header) != 4 {
		return nil, false
	}

	size := binary.LittleEndian.Uint32(header)
	if size < headerBytes {
		return nil, false
	}

	buf := make([]byte, size)
	if p.stream.TryRead(buf) != len(buf) {
		return nil, false
	}

	return buf[headerBytes:], true
}

// Write blocks until payload is written or timeout elapses (a negative
// timeout blocks indefinitely). It returns false on timeout.
func (p *PacketStream) Write(payload []byte, timeout time.Duration) bool {
	buf := make([]byte, headerBytes+len(payload))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(headerBytes+len(payload)))
	copy(buf[headerBytes:], payload)

	return p.stream.Write(buf, timeout) == len(buf)
}

// Read blocks until a full packet is read or timeout elapses (a negative
// timeout blocks indefinitely), returning its payload. ok is false on
// timeout.
func (p *PacketStream) Read(timeout time.Duration) (payload []byte, ok bool) {
	deadline := time.Time{}
	hasDeadline := timeout >= 0
	if hasDeadline {
		deadline = time.Now().Add(timeout)
	}

	for {
		if payload, ok := p.TryRead(); ok {
			return payload, true
		}

		remaining := time.Duration(-1)
		if hasDeadline {
			remaining = time.Until(deadline)
			if remaining <= 0 {
				return nil, false
			}
		}

		expect := p.stream.TailCV().Value()
		p.stream.TailCV().Wait(expect, remaining)

		if hasDeadline && !time.Now().Before(deadline) {
			if payload, ok := p.TryRead(); ok {
				return payload, true
			}
			return nil, false
		}
	}
}
