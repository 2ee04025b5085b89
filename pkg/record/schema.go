package record

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"sync"

	"github.com/flatrecord/flatrecord/pkg/prim"
)

// Id is a schema's stable 64-bit identifier: the first 8 bytes, interpreted
// big-endian, of SHA-256 over the canonical JSON of [name, schema] (§6.5).
// It is used by [recordlog] to deduplicate schema blobs across a log file.
type Id uint64

// FieldDef is one field of a schema, in the order the caller declared it.
// Declaration order only matters as a sort tiebreak (see [Schema] layout
// rules) and for the canonical JSON used to compute [Id].
type FieldDef struct {
	Name   string
	Kind   prim.Kind
	Length int // 1 for a scalar; >1 for a fixed-length inline array.
}

// jsonFieldDef is FieldDef's canonical JSON shape: ["name", "Type", length].
type jsonFieldDef struct {
	Name   string
	Kind   string
	Length int
}

func (f FieldDef) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{f.Name, f.Kind.String(), f.Length})
}

// layoutField is one field placed into the record's physical byte layout.
type layoutField struct {
	FieldDef
	ByteOffset int
	Variable   bool
	VarIndex   int // position among variable fields, in layout order; -1 for fixed fields.
}

// Schema is an interned, validated, laid-out field list. Schemas are
// immutable after [Intern] returns them; two calls to [Intern] with
// equivalent (name, fields) return the identical *Schema (see [Schema.Id]).
//
// The zero value is not usable; obtain a Schema via [Intern].
type Schema struct {
	name   string
	fields []FieldDef // original declaration order.
	layout []layoutField

	minBytesPerElement int
	fixedWidth         int  // valid iff fixed.
	fixed              bool // true iff no variable-width fields.

	id Id
}

var fieldNameRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// BuildSchema validates fields and computes a Schema's physical layout, but
// does not intern it. Most callers want [Intern] instead; BuildSchema is
// exposed for callers that want to inspect a layout without registering it.
func BuildSchema(name string, fields []FieldDef) (*Schema, error) {
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if f.Name == "buffer" || !fieldNameRE.MatchString(f.Name) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFieldName, f.Name)
		}

		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate field %q", ErrInvalidFieldName, f.Name)
		}

		seen[f.Name] = struct{}{}

		if f.Kind == prim.KindInvalid {
			return nil, fmt.Errorf("%w: field %q", ErrUnknownType, f.Name)
		}

		if f.Length <= 0 {
			return nil, fmt.Errorf("%w: field %q has length %d", ErrInvalidLength, f.Name, f.Length)
		}

		if f.Kind.IsVariable() && f.Length != 1 {
			return nil, fmt.Errorf("%w: field %q", ErrVariadicUnsupported, f.Name)
		}
	}

	layout, minBytes, fixedWidth, fixed := computeLayout(fields)

	s := &Schema{
		name:               name,
		fields:             append([]FieldDef(nil), fields...),
		layout:             layout,
		minBytesPerElement: minBytes,
		fixedWidth:         fixedWidth,
		fixed:              fixed,
	}

	id, err := computeId(name, fields)
	if err != nil {
		return nil, err
	}

	s.id = id

	return s, nil
}

// computeLayout implements the §3.2 layout invariants: fixed-width fields
// sorted widest-first (ties broken by declaration order), each offset
// rounded up to its own width; variable-width fields follow, each
// contributing a 4-byte offset slot rounded up to 4. For an all-fixed
// schema, the record's total size is further padded up to its widest
// field so [FlatList]'s fixed stride keeps every element's fields aligned,
// not just the first (§3.2, §8 scenario 2).
func computeLayout(fields []FieldDef) (layout []layoutField, minBytes int, fixedWidth int, fixed bool) {
	var fixedFields, varFields []FieldDef

	for _, f := range fields {
		if f.Kind.IsVariable() {
			varFields = append(varFields, f)
		} else {
			fixedFields = append(fixedFields, f)
		}
	}

	// Declaration order is preserved for ties because SliceStable only
	// reorders elements that compare unequal.
	sort.SliceStable(fixedFields, func(i, j int) bool {
		return fixedFields[i].Kind.BytesPerElement() > fixedFields[j].Kind.BytesPerElement()
	})

	cursor := 0
	maxWidth := 0
	out := make([]layoutField, 0, len(fields))

	for _, f := range fixedFields {
		width := f.Kind.BytesPerElement()
		if width > maxWidth {
			maxWidth = width
		}

		cursor = alignUp(cursor, width)

		out = append(out, layoutField{FieldDef: f, ByteOffset: cursor, VarIndex: -1})

		cursor += width * f.Length
	}

	for vi, f := range varFields {
		cursor = alignUp(cursor, 4)

		out = append(out, layoutField{FieldDef: f, ByteOffset: cursor, Variable: true, VarIndex: vi})

		cursor += 4
	}

	// Layout is sorted by placement, but callers look fields up by name;
	// restore declaration order isn't needed since record.go indexes by
	// name, not position. Keep layout ordered by offset, ascending, which
	// is also the order of increasing ByteOffset and - for variable
	// fields - ascending VarIndex; both are relied on by Record.variableFieldRange.
	sort.SliceStable(out, func(i, j int) bool { return out[i].ByteOffset < out[j].ByteOffset })

	fixedW := 0
	if len(varFields) == 0 {
		fixedW = alignUp(cursor, maxWidth)
	}

	return out, cursor, fixedW, len(varFields) == 0
}

func alignUp(x, width int) int {
	if width <= 0 {
		return x
	}

	rem := x % width
	if rem == 0 {
		return x
	}

	return x + (width - rem)
}

// Name returns the schema's name bucket. The empty string is the default
// bucket used when the caller doesn't supply one; per §3.2, two schemas
// with identical fields but different names (including "" vs a non-empty
// name) are NOT equal.
func (s *Schema) Name() string { return s.name }

// Fields returns the schema's fields in declaration order. The returned
// slice must not be mutated.
func (s *Schema) Fields() []FieldDef { return s.fields }

// Id returns the schema's stable 64-bit identifier (§6.5).
func (s *Schema) Id() Id { return s.id }

// MinBytesPerElement is the minimum legal buffer length for a record of
// this schema: the fixed-field area plus one 4-byte offset slot per
// variable field, with all variable payloads empty.
func (s *Schema) MinBytesPerElement() int { return s.minBytesPerElement }

// BytesPerElement returns the schema's fixed record size and true, or
// (0, false) if the schema has any variable-width field.
func (s *Schema) BytesPerElement() (int, bool) {
	if !s.fixed {
		return 0, false
	}

	return s.fixedWidth, true
}

// IsFixedWidth reports whether every field in the schema is fixed-width.
func (s *Schema) IsFixedWidth() bool { return s.fixed }

// fieldByName returns the laid-out field named name.
func (s *Schema) fieldByName(name string) (layoutField, bool) {
	for _, f := range s.layout {
		if f.Name == name {
			return f, true
		}
	}

	return layoutField{}, false
}

// variableFields returns the schema's variable-width fields, in layout
// (ascending offset / VarIndex) order.
func (s *Schema) variableFields() []layoutField {
	var out []layoutField

	for _, f := range s.layout {
		if f.Variable {
			out = append(out, f)
		}
	}

	return out
}

// CanonicalJSON returns the canonical [name, schema] encoding used for
// [Id] and for the schema blob written into a log frame (§6.4).
func (s *Schema) CanonicalJSON() ([]byte, error) {
	return canonicalJSON(s.name, s.fields)
}

func canonicalJSON(name string, fields []FieldDef) ([]byte, error) {
	defs := make([]jsonFieldDef, len(fields))
	for i, f := range fields {
		defs[i] = jsonFieldDef{Name: f.Name, Kind: f.Kind.String(), Length: f.Length}
	}

	buf, err := json.Marshal([]any{name, defs})
	if err != nil {
		return nil, fmt.Errorf("record: canonical json: %w", err)
	}

	return buf, nil
}

func computeId(name string, fields []FieldDef) (Id, error) {
	buf, err := canonicalJSON(name, fields)
	if err != nil {
		return 0, err
	}

	sum := sha256.Sum256(buf)

	return Id(binary.BigEndian.Uint64(sum[:8])), nil
}

// ParseCanonicalJSON decodes the [name, schema] JSON written into a log
// frame's schema blob, and returns a freshly-interned [*Schema] for it.
func ParseCanonicalJSON(buf []byte) (*Schema, error) {
	var raw []json.RawMessage

	if err := json.Unmarshal(buf, &raw); err != nil || len(raw) != 2 {
		return nil, fmt.Errorf("record: parse schema json: %w", ErrMalformedSchemaJSON)
	}

	var name string
	if err := json.Unmarshal(raw[0], &name); err != nil {
		return nil, fmt.Errorf("record: parse schema name: %w", err)
	}

	var defs []jsonFieldDef
	if err := json.Unmarshal(raw[1], &defs); err != nil {
		return nil, fmt.Errorf("record: parse schema fields: %w", err)
	}

	fields := make([]FieldDef, len(defs))

	for i, d := range defs {
		k, ok := prim.ParseKind(d.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownType, d.Kind)
		}

		fields[i] = FieldDef{Name: d.Name, Kind: k, Length: d.Length}
	}

	return Intern(name, fields)
}

// registry is the process-wide schema interning table, keyed by canonical

// JSON. Two Intern calls for equivalent (name, fields) return the identical
// *Schema pointer.
var registry sync.Map // map[string]*Schema

// Intern validates, lays out, and interns a schema. If an equivalent
// (name, fields) schema was already interned, the existing *Schema is
// returned; otherwise a new one is built, stored, and returned.
func Intern(name string, fields []FieldDef) (*Schema, error) {
	key, err := canonicalJSON(name, fields)
	if err != nil {
		return nil, err
	}

	if v, ok := registry.Load(string(key)); ok {
		return v.(*Schema), nil
	}

	s, err := BuildSchema(name, fields)
	if err != nil {
		return nil, err
	}

	actual, _ := registry.LoadOrStore(string(key), s)

	return actual.(*Schema), nil
}
