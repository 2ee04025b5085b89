package flatlist_test

import (
	"testing"

	"github.com/flatrecord/flatrecord/pkg/flatlist"
	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/record"
)

func Test_RecordCodec_Packs_Fixed_Width_Records(t *testing.T) {
	schema, err := record.Intern("point", []record.FieldDef{
		{Name: "x", Kind: prim.KindFloat32, Length: 1},
		{Name: "y", Kind: prim.KindFloat32, Length: 1},
	})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	codec, err := flatlist.NewRecordCodec(schema)
	if err != nil {
		t.Fatalf("NewRecordCodec: %v", err)
	}

	list, err := flatlist.New[*record.Record](codec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := record.NewDefault(schema)
	_ = a.Set("x", 1.0)
	_ = a.Set("y", 2.0)

	b := record.NewDefault(schema)
	_ = b.Set("x", 3.0)
	_ = b.Set("y", 4.0)

	list.Push(a)
	list.Push(b)

	if got := list.BytesPerElement(); got != 8 {
		t.Fatalf("BytesPerElement = %d, want 8", got)
	}

	got0, err := list.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}

	x, _ := got0.Get("x")
	y, _ := got0.Get("y")

	if x != float64(1) || y != float64(2) {
		t.Fatalf("At(0) = (%v, %v), want (1, 2)", x, y)
	}
}

func Test_NewRecordCodec_Rejects_Variable_Width_Schema(t *testing.T) {
	schema, err := record.Intern("withname", []record.FieldDef{
		{Name: "name", Kind: prim.KindUtf8, Length: 1},
	})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	_, err = flatlist.NewRecordCodec(schema)
	if err == nil {
		t.Fatalf("expected error for variable-width schema")
	}
}
