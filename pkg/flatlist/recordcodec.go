package flatlist

import (
	"fmt"

	"github.com/flatrecord/flatrecord/pkg/record"
)

// RecordCodec adapts a fully fixed-width [record.Schema] into a [Codec]
// of *[record.Record], so a FlatList can pack records of that schema
// into one contiguous buffer. Constructing a RecordCodec for a
// variable-width schema fails: FlatList requires every element to have
// the same, fixed byte width.
type RecordCodec struct {
	schema *record.Schema
	width  int
}

// NewRecordCodec builds a [RecordCodec] for schema, which must be fully
// fixed-width (see [record.Schema.IsFixedWidth]).
func NewRecordCodec(schema *record.Schema) (*RecordCodec, error) {
	width, ok := schema.BytesPerElement()
	if !ok {
		return nil, fmt.Errorf("flatlist: NewRecordCodec: %w: schema has variable-width fields", ErrInvalidElementType)
	}

	return &RecordCodec{schema: schema, width: width}, nil
}

func (c *RecordCodec) BytesPerElement() int { return c.width }

// Decode wraps buf as a [record.Record] without copying it; the returned
// Record aliases the FlatList's backing storage.
func (c *RecordCodec) Decode(buf []byte) *record.Record {
	rec, err := record.New(c.schema, buf)
	if err != nil {
		// buf is always exactly c.width bytes, sliced from a FlatList
		// whose codec is this one, so this can only fail if the
		// schema genuinely isn't fixed-width - already excluded by
		// NewRecordCodec.
		panic(fmt.Sprintf("flatlist: RecordCodec.Decode: %v", err))
	}

	return rec
}

// Encode copies v's buffer into buf. v must belong to the same schema.
func (c *RecordCodec) Encode(buf []byte, v *record.Record) {
	copy(buf, v.Buffer())
}
