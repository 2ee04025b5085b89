package record

import (
	"encoding/binary"
	"fmt"

	"github.com/flatrecord/flatrecord/pkg/prim"
)

// Record pairs a [*Schema] with a live byte buffer (§3.3). Field access
// reads and writes buffer in place; setting a variable-width field may
// reallocate buffer, so callers must re-read [Record.Buffer] after any
// write to a Utf8 or Bytes field. Records are value-like: copying a Record
// copies the struct, not the buffer it points at.
type Record struct {
	schema *Schema
	buffer []byte
}

// New wraps buffer as a Record of schema, without copying it. buffer must
// be at least schema.MinBytesPerElement() bytes long.
func New(schema *Schema, buffer []byte) (*Record, error) {
	if len(buffer) < schema.MinBytesPerElement() {
		return nil, fmt.Errorf("record: New: %w: have %d, need %d", ErrBufferTooSmall, len(buffer), schema.MinBytesPerElement())
	}

	return &Record{schema: schema, buffer: buffer}, nil
}

// NewDefault allocates a fresh, minimally-sized buffer for schema with
// every fixed field zeroed and every variable field's offset slot pointing
// at the buffer's end (an empty payload), per §3.3's lifecycle rules.
func NewDefault(schema *Schema) *Record {
	buf := make([]byte, schema.MinBytesPerElement())
	end := uint32(len(buf))

	for _, f := range schema.variableFields() {
		binary.LittleEndian.PutUint32(buf[f.ByteOffset:], end)
	}

	return &Record{schema: schema, buffer: buf}
}

// Schema returns the record's schema.
func (r *Record) Schema() *Schema { return r.schema }

// Buffer returns the record's current backing byte slice. Re-read this
// after any [Record.Set] call on a variable-width field: the setter may
// have reassigned it.
func (r *Record) Buffer() []byte { return r.buffer }

// Get returns the decoded value of the named scalar or variable field.
// For a fixed-width array field (Length > 1), use [Record.Array] instead.
func (r *Record) Get(name string) (any, error) {
	f, ok := r.schema.fieldByName(name)
	if !ok {
		return nil, fmt.Errorf("record: Get: %w: %q", ErrUnknownField, name)
	}

	if f.Variable {
		return prim.Decode(f.Kind, r.variablePayload(f))
	}

	if f.Length > 1 {
		return nil, fmt.Errorf("record: Get: %w: %q, use Array", ErrNotArray, name)
	}

	return prim.GetValue(f.Kind, r.buffer, f.ByteOffset), nil
}

// Set writes value into the named scalar or variable field. Setting a
// variable-width field to a payload of a different byte length may grow
// or shrink [Record.Buffer] and shift every following variable field's
// payload and offset slot; see §4.1.
func (r *Record) Set(name string, value any) error {
	f, ok := r.schema.fieldByName(name)
	if !ok {
		return fmt.Errorf("record: Set: %w: %q", ErrUnknownField, name)
	}

	if f.Variable {
		return r.setVariable(f, value)
	}

	if f.Length > 1 {
		return fmt.Errorf("record: Set: %w: %q, use Array", ErrNotArray, name)
	}

	return prim.SetValue(f.Kind, r.buffer, f.ByteOffset, value)
}

// Array returns a view over the named fixed-length array field (Length >
// 1). The view aliases the record's buffer: writes through it mutate the
// record in place.
func (r *Record) Array(name string) (*FixedArray, error) {
	f, ok := r.schema.fieldByName(name)
	if !ok {
		return nil, fmt.Errorf("record: Array: %w: %q", ErrUnknownField, name)
	}

	if f.Variable || f.Length <= 1 {
		return nil, fmt.Errorf("record: Array: %w: %q", ErrNotArray, name)
	}

	return &FixedArray{kind: f.Kind, buffer: r.buffer, offset: f.ByteOffset, length: f.Length}, nil
}

// ToMap decodes every field into a map keyed by field name, in the order
// the schema declares them. Mainly useful for tests and debugging; it
// allocates, unlike the zero-copy accessors above.
func (r *Record) ToMap() (map[string]any, error) {
	out := make(map[string]any, len(r.schema.fields))

	for _, fd := range r.schema.fields {
		if fd.Length > 1 && !fd.Kind.IsVariable() {
			arr, err := r.Array(fd.Name)
			if err != nil {
				return nil, err
			}

			out[fd.Name] = arr.Slice()

			continue
		}

		v, err := r.Get(fd.Name)
		if err != nil {
			return nil, err
		}

		out[fd.Name] = v
	}

	return out, nil
}

// variableFieldRange returns the byte range [start, end) of f's payload:
// from its own offset slot to the next variable field's offset slot, or
// to the buffer's end if f is the last variable field (§3.2).
func (r *Record) variableFieldRange(f layoutField) (start, end int) {
	start = int(binary.LittleEndian.Uint32(r.buffer[f.ByteOffset:]))

	varFields := r.schema.variableFields()
	if f.VarIndex+1 < len(varFields) {
		next := varFields[f.VarIndex+1]
		end = int(binary.LittleEndian.Uint32(r.buffer[next.ByteOffset:]))
	} else {
		end = len(r.buffer)
	}

	return start, end
}

func (r *Record) variablePayload(f layoutField) []byte {
	start, end := r.variableFieldRange(f)

	return r.buffer[start:end]
}

// setVariable implements §4.1's variable-field setter: re-encode, compare
// lengths, grow (reallocate) or shrink (shift left, truncate) the buffer
// as needed, bump every later variable field's offset slot by the delta,
// then write the new payload.
func (r *Record) setVariable(f layoutField, value any) error {
	payload, err := prim.Encode(f.Kind, value)
	if err != nil {
		return err
	}

	start, end := r.variableFieldRange(f)
	oldLen := end - start
	newLen := len(payload)
	delta := newLen - oldLen

	switch {
	case delta > 0:
		grown := make([]byte, len(r.buffer)+delta)
		copy(grown, r.buffer[:start])
		copy(grown[start+newLen:], r.buffer[end:])
		r.buffer = grown
	case delta < 0:
		copy(r.buffer[start+newLen:], r.buffer[end:])
		r.buffer = r.buffer[:len(r.buffer)+delta]
	}

	if delta != 0 {
		varFields := r.schema.variableFields()
		for i := f.VarIndex + 1; i < len(varFields); i++ {
			slot := varFields[i].ByteOffset
			cur := int(binary.LittleEndian.Uint32(r.buffer[slot:]))
			binary.LittleEndian.PutUint32(r.buffer[slot:], uint32(cur+delta))
		}
	}

	copy(r.buffer[start:start+newLen], payload)

	return nil
}
