package prim_test

import (
	"math"
	"testing"

	"github.com/flatrecord/flatrecord/pkg/prim"
)

func TestFixedCodecs_RoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind prim.Kind
		in   any
		want any
	}{
		{prim.KindInt8, int64(-7), int64(-7)},
		{prim.KindInt16, int64(-1234), int64(-1234)},
		{prim.KindInt32, int64(-70000), int64(-70000)},
		{prim.KindUint8, uint64(250), uint64(250)},
		{prim.KindUint16, uint64(60000), uint64(60000)},
		{prim.KindUint32, uint64(4_000_000_000), uint64(4_000_000_000)},
		{prim.KindInt64, int64(-9_000_000_000), int64(-9_000_000_000)},
		{prim.KindUint64, uint64(18_000_000_000_000_000_000), uint64(18_000_000_000_000_000_000)},
		{prim.KindFloat32, 3.5, 3.5},
		{prim.KindFloat64, math.Pi, math.Pi},
		{prim.KindBool, true, true},
		{prim.KindBool, false, false},
	}

	for _, tc := range cases {
		buf := make([]byte, 8)

		err := prim.SetValue(tc.kind, buf, 0, tc.in)
		if err != nil {
			t.Fatalf("%s: SetValue: %v", tc.kind, err)
		}

		got := prim.GetValue(tc.kind, buf, 0)
		if got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestFloat16_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, f := range []float64{0, 1, -1, 0.5, -2.25, 65504, -65504} {
		buf := make([]byte, 2)

		err := prim.SetValue(prim.KindFloat16, buf, 0, f)
		if err != nil {
			t.Fatalf("SetValue: %v", err)
		}

		got := prim.GetValue(prim.KindFloat16, buf, 0).(float64)
		if got != f {
			t.Fatalf("got %v, want %v", got, f)
		}
	}
}

func TestFloat8_ApproximatesInput(t *testing.T) {
	t.Parallel()

	buf := make([]byte, 1)

	err := prim.SetValue(prim.KindFloat8, buf, 0, 4.0)
	if err != nil {
		t.Fatalf("SetValue: %v", err)
	}

	got := prim.GetValue(prim.KindFloat8, buf, 0).(float64)
	if got != 4.0 {
		t.Fatalf("got %v, want 4", got)
	}
}

func TestBytesPerElement(t *testing.T) {
	t.Parallel()

	cases := map[prim.Kind]int{
		prim.KindInt8:    1,
		prim.KindUint16:  2,
		prim.KindInt32:   4,
		prim.KindInt64:   8,
		prim.KindFloat8:  1,
		prim.KindFloat16: 2,
		prim.KindFloat32: 4,
		prim.KindFloat64: 8,
		prim.KindBool:    1,
	}

	for k, want := range cases {
		if got := k.BytesPerElement(); got != want {
			t.Errorf("%s.BytesPerElement() = %d, want %d", k, got, want)
		}
	}

	if w := prim.KindUtf8.BytesPerElement(); w != 0 {
		t.Errorf("Utf8.BytesPerElement() = %d, want 0", w)
	}
}

func TestVariable_Utf8(t *testing.T) {
	t.Parallel()

	n, err := prim.ByteLenOf(prim.KindUtf8, "hi")
	if err != nil || n != 2 {
		t.Fatalf("ByteLenOf = %d, %v", n, err)
	}

	encoded, err := prim.Encode(prim.KindUtf8, "hi")
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := prim.Decode(prim.KindUtf8, encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if decoded != "hi" {
		t.Fatalf("Decode = %q, want hi", decoded)
	}
}

func TestVariable_Bytes(t *testing.T) {
	t.Parallel()

	in := []byte{1, 2, 3}

	n, err := prim.ByteLenOf(prim.KindBytes, in)
	if err != nil || n != 3 {
		t.Fatalf("ByteLenOf = %d, %v", n, err)
	}

	encoded, err := prim.Encode(prim.KindBytes, in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := prim.Decode(prim.KindBytes, encoded)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	got := decoded.([]byte)
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("Decode = %v, want %v", got, in)
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, ok := prim.ParseKind("Uint32")
	if !ok || k != prim.KindUint32 {
		t.Fatalf("ParseKind(Uint32) = %v, %v", k, ok)
	}

	_, ok = prim.ParseKind("NotAType")
	if ok {
		t.Fatal("ParseKind(NotAType) should fail")
	}
}
