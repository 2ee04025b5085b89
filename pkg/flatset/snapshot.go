package flatset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/flatrecord/flatrecord/pkg/flatlist"
	"github.com/flatrecord/flatrecord/pkg/nativefile"
)

// Snapshot file format ("FST1"): a fixed 32-byte header followed by the
// set's packed element bytes. Modeled on the seqlock-generation-counter
// and CRC32-C-header pattern used elsewhere in this codebase's ecosystem
// for mmap'd, append-friendly binary stores - see DESIGN.md.
const (
	snapshotMagic       = "FST1"
	snapshotVersion     = 1
	snapshotHeaderBytes = 32

	offMagic      = 0
	offVersion    = 4
	offElemWidth  = 8
	offCount      = 12
	offGeneration = 16
	offCRC32C     = 24
)

// ErrSnapshotCorrupt indicates a snapshot file's header is malformed or
// its payload fails the stored CRC32-C check.
var ErrSnapshotCorrupt = errors.New("flatset: corrupt snapshot")

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Snapshot atomically writes s's current contents to path, tagged with
// generation (an opaque caller-assigned counter - e.g. the source log's
// write position - used by readers to tell snapshots apart, not
// interpreted by this package).
func Snapshot[T any](path string, s *FlatSet[T], generation uint64) error {
	payload := s.list.Buffer()

	header := make([]byte, snapshotHeaderBytes)
	copy(header[offMagic:], snapshotMagic)
	binary.LittleEndian.PutUint32(header[offVersion:], snapshotVersion)
	binary.LittleEndian.PutUint32(header[offElemWidth:], uint32(s.list.BytesPerElement()))
	binary.LittleEndian.PutUint32(header[offCount:], uint32(s.list.Len()))
	binary.LittleEndian.PutUint64(header[offGeneration:], generation)
	binary.LittleEndian.PutUint32(header[offCRC32C:], crc32.Checksum(payload, crc32cTable))

	writer := nativefile.NewAtomicWriter(nativefile.NewReal())

	buf := bytes.NewBuffer(make([]byte, 0, len(header)+len(payload)))
	buf.Write(header)
	buf.Write(payload)

	return writer.Write(path, buf, nativefile.AtomicWriteOptions{SyncDir: true, Perm: 0o644})
}

// LoadSnapshot reads a snapshot written by [Snapshot] and rebuilds a
// FlatSet over codec, returning the generation it was tagged with.
func LoadSnapshot[T any](path string, codec flatlist.Codec[T]) (*FlatSet[T], uint64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("flatset: LoadSnapshot: %w", err)
	}

	if len(raw) < snapshotHeaderBytes || string(raw[offMagic:offMagic+4]) != snapshotMagic {
		return nil, 0, fmt.Errorf("%w: bad header", ErrSnapshotCorrupt)
	}

	elemWidth := int(binary.LittleEndian.Uint32(raw[offElemWidth:]))
	count := int(binary.LittleEndian.Uint32(raw[offCount:]))
	generation := binary.LittleEndian.Uint64(raw[offGeneration:])
	wantCRC := binary.LittleEndian.Uint32(raw[offCRC32C:])

	payload := raw[snapshotHeaderBytes:]
	if len(payload) != count*elemWidth {
		return nil, 0, fmt.Errorf("%w: payload length mismatch", ErrSnapshotCorrupt)
	}

	if got := crc32.Checksum(payload, crc32cTable); got != wantCRC {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrSnapshotCorrupt)
	}

	if codec.BytesPerElement() != elemWidth {
		return nil, 0, fmt.Errorf("%w: element width mismatch", ErrSnapshotCorrupt)
	}

	list, err := flatlist.Adopt(codec, append([]byte(nil), payload...))
	if err != nil {
		return nil, 0, fmt.Errorf("flatset: LoadSnapshot: %w", err)
	}

	return &FlatSet[T]{list: list}, generation, nil
}
