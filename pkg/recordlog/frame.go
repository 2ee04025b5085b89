package recordlog

import (
	"encoding/binary"

	"github.com/flatrecord/flatrecord/pkg/record"
)

// frameHeaderBytes is the fixed-size portion of every frame (§6.4):
// schema_id (BigUint64, but stored little-endian like every other
// on-disk integer - "Big" names the hash's own byte order, not the
// frame's), body_len, schema_len.
const frameHeaderBytes = 16

type frameHeader struct {
	schemaId  record.Id
	bodyLen   uint32
	schemaLen uint32
}

func decodeFrameHeader(buf []byte) frameHeader {
	return frameHeader{
		schemaId:  record.Id(binary.LittleEndian.Uint64(buf[0:8])),
		bodyLen:   binary.LittleEndian.Uint32(buf[8:12]),
		schemaLen: binary.LittleEndian.Uint32(buf[12:16]),
	}
}

func encodeFrameHeader(h frameHeader, out []byte) {
	binary.LittleEndian.PutUint64(out[0:8], uint64(h.schemaId))
	binary.LittleEndian.PutUint32(out[8:12], h.bodyLen)
	binary.LittleEndian.PutUint32(out[12:16], h.schemaLen)
}

// frameLen returns the total on-disk size of a frame with header h.
func (h frameHeader) frameLen() int64 {
	return frameHeaderBytes + int64(h.schemaLen) + int64(h.bodyLen)
}
