package packetstream_test

import (
	"testing"
	"time"

	"github.com/flatrecord/flatrecord/pkg/packetstream"
	"github.com/flatrecord/flatrecord/pkg/ringbuf"
)

func newStream(t *testing.T, n int) *ringbuf.Stream {
	t.Helper()

	s, err := ringbuf.Adopt(ringbuf.NewRegion(n))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	return s
}

func Test_PacketStream_TryWrite_TryRead_Roundtrip(t *testing.T) {
	ps := packetstream.New(newStream(t, 64))

	if !ps.TryWrite([]byte("hello")) {
		t.Fatalf("TryWrite = false")
	}

	got, ok := ps.TryRead()
	if !ok {
		t.Fatalf("TryRead ok = false")
	}
	if string(got) != "hello" {
		t.Fatalf("TryRead = %q, want %q", got, "hello")
	}
}

func Test_PacketStream_TryRead_False_When_No_Packet(t *testing.T) {
	ps := packetstream.New(newStream(t, 64))

	if _, ok := ps.TryRead(); ok {
		t.Fatalf("TryRead ok = true on empty stream")
	}
}

func Test_PacketStream_Preserves_Multiple_Packets_In_Order(t *testing.T) {
	ps := packetstream.New(newStream(t, 64))

	for _, p := range []string{"one", "two", "three"} {
		if !ps.TryWrite([]byte(p)) {
			t.Fatalf("TryWrite(%q) = false", p)
		}
	}

	for _, want := range []string{"one", "two", "three"} {
		got, ok := ps.TryRead()
		if !ok || string(got) != want {
			t.Fatalf("TryRead = %q, %v, want %q, true", got, ok, want)
		}
	}
}

func Test_PacketStream_Read_Blocks_Until_Write(t *testing.T) {
	ps := packetstream.New(newStream(t, 64))

	go func() {
		time.Sleep(10 * time.Millisecond)
		ps.Write([]byte("late"), -1)
	}()

	got, ok := ps.Read(time.Second)
	if !ok || string(got) != "late" {
		t.Fatalf("Read = %q, %v, want %q, true", got, ok, "late")
	}
}

func Test_PacketStream_Read_Times_Out(t *testing.T) {
	ps := packetstream.New(newStream(t, 64))

	start := time.Now()
	_, ok := ps.Read(30 * time.Millisecond)
	if ok {
		t.Fatalf("Read ok = true on empty stream")
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Read returned before its timeout elapsed")
	}
}
