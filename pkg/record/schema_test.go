package record_test

import (
	"errors"
	"testing"

	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/record"
)

func Test_Intern_Returns_Same_Pointer_For_Equal_Schemas(t *testing.T) {
	fields := []record.FieldDef{
		{Name: "i32", Kind: prim.KindInt32, Length: 1},
		{Name: "name", Kind: prim.KindUtf8, Length: 1},
	}

	a, err := record.Intern("", fields)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	b, err := record.Intern("", append([]record.FieldDef(nil), fields...))
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	if a != b {
		t.Fatalf("Intern returned distinct schemas for equal input")
	}
}

func Test_Intern_Distinguishes_Schemas_By_Name(t *testing.T) {
	fields := []record.FieldDef{{Name: "x", Kind: prim.KindInt8, Length: 1}}

	a, err := record.Intern("", fields)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	b, err := record.Intern("named", fields)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	if a.Id() == b.Id() {
		t.Fatalf("schemas with different names produced the same Id")
	}
}

func Test_BuildSchema_Rejects_Reserved_Buffer_Name(t *testing.T) {
	_, err := record.BuildSchema("", []record.FieldDef{{Name: "buffer", Kind: prim.KindInt8, Length: 1}})

	if !errors.Is(err, record.ErrInvalidFieldName) {
		t.Fatalf("err=%v, want ErrInvalidFieldName", err)
	}
}

func Test_BuildSchema_Rejects_Invalid_Name(t *testing.T) {
	_, err := record.BuildSchema("", []record.FieldDef{{Name: "1bad", Kind: prim.KindInt8, Length: 1}})

	if !errors.Is(err, record.ErrInvalidFieldName) {
		t.Fatalf("err=%v, want ErrInvalidFieldName", err)
	}
}

func Test_BuildSchema_Rejects_NonPositive_Length(t *testing.T) {
	_, err := record.BuildSchema("", []record.FieldDef{{Name: "x", Kind: prim.KindInt8, Length: 0}})

	if !errors.Is(err, record.ErrInvalidLength) {
		t.Fatalf("err=%v, want ErrInvalidLength", err)
	}
}

func Test_BuildSchema_Rejects_Variadic_Variable_Field(t *testing.T) {
	_, err := record.BuildSchema("", []record.FieldDef{{Name: "tags", Kind: prim.KindUtf8, Length: 3}})

	if !errors.Is(err, record.ErrVariadicUnsupported) {
		t.Fatalf("err=%v, want ErrVariadicUnsupported", err)
	}
}

func Test_BuildSchema_Rejects_Unknown_Type(t *testing.T) {
	_, err := record.BuildSchema("", []record.FieldDef{{Name: "x", Kind: prim.KindInvalid, Length: 1}})

	if !errors.Is(err, record.ErrUnknownType) {
		t.Fatalf("err=%v, want ErrUnknownType", err)
	}
}

func Test_BuildSchema_Sorts_Fields_Widest_First(t *testing.T) {
	s, err := record.BuildSchema("", []record.FieldDef{
		{Name: "a", Kind: prim.KindUint8, Length: 1},
		{Name: "b", Kind: prim.KindUint32, Length: 1},
		{Name: "c", Kind: prim.KindUint16, Length: 1},
	})
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}

	width, ok := s.BytesPerElement()
	if !ok {
		t.Fatalf("expected fixed-width schema")
	}

	// b (4 bytes) at 0, c (2 bytes) at 4, a (1 byte) at 6: cursor lands
	// at 7, padded up to the widest field (4) so every packed element in
	// a FlatList starts 4-byte aligned, not just the first.
	if width != 8 {
		t.Fatalf("BytesPerElement = %d, want 8", width)
	}
}

// Test_BuildSchema_Reorder_Yields_Same_Layout_And_Padded_Size covers §8
// scenario 2: declaring a and b in either order produces the same layout
// (b, the wider field, first) and the same padded BYTES_PER_ELEMENT.
func Test_BuildSchema_Reorder_Yields_Same_Layout_And_Padded_Size(t *testing.T) {
	ab, err := record.BuildSchema("", []record.FieldDef{
		{Name: "a", Kind: prim.KindUint8, Length: 1},
		{Name: "b", Kind: prim.KindUint32, Length: 1},
	})
	if err != nil {
		t.Fatalf("BuildSchema(a,b): %v", err)
	}

	ba, err := record.BuildSchema("", []record.FieldDef{
		{Name: "b", Kind: prim.KindUint32, Length: 1},
		{Name: "a", Kind: prim.KindUint8, Length: 1},
	})
	if err != nil {
		t.Fatalf("BuildSchema(b,a): %v", err)
	}

	for _, s := range []*record.Schema{ab, ba} {
		width, ok := s.BytesPerElement()
		if !ok {
			t.Fatalf("expected fixed-width schema")
		}

		if width != 8 {
			t.Fatalf("BytesPerElement = %d, want 8", width)
		}
	}

	rec := record.NewDefault(ab)
	if err := rec.Set("a", uint64(1)); err != nil {
		t.Fatalf("Set a: %v", err)
	}

	if err := rec.Set("b", uint64(2)); err != nil {
		t.Fatalf("Set b: %v", err)
	}

	// b, the wider field, is placed at offset 0 regardless of
	// declaration order; a follows at offset 4.
	got, err := rec.Get("b")
	if err != nil {
		t.Fatalf("Get b: %v", err)
	}

	if got != uint64(2) {
		t.Fatalf("b = %v, want 2", got)
	}
}

func Test_BuildSchema_Empty_Schema_Is_Legal(t *testing.T) {
	s, err := record.BuildSchema("", nil)
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}

	if got, ok := s.BytesPerElement(); !ok || got != 0 {
		t.Fatalf("BytesPerElement = (%d, %v), want (0, true)", got, ok)
	}
}

func Test_ParseCanonicalJSON_Round_Trips_Through_Intern(t *testing.T) {
	fields := []record.FieldDef{
		{Name: "i32", Kind: prim.KindInt32, Length: 1},
		{Name: "name", Kind: prim.KindUtf8, Length: 1},
	}

	s, err := record.Intern("widget", fields)
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	buf, err := s.CanonicalJSON()
	if err != nil {
		t.Fatalf("CanonicalJSON: %v", err)
	}

	parsed, err := record.ParseCanonicalJSON(buf)
	if err != nil {
		t.Fatalf("ParseCanonicalJSON: %v", err)
	}

	if parsed != s {
		t.Fatalf("ParseCanonicalJSON produced a distinct schema instance")
	}
}

func Test_ParseCanonicalJSON_Rejects_Malformed_Json(t *testing.T) {
	_, err := record.ParseCanonicalJSON([]byte(`{"not":"a tuple"}`))

	if !errors.Is(err, record.ErrMalformedSchemaJSON) {
		t.Fatalf("err=%v, want ErrMalformedSchemaJSON", err)
	}
}
