package ringbuf_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flatrecord/flatrecord/pkg/ringbuf"
)

func Test_Adopt_Rejects_Region_Too_Small(t *testing.T) {
	_, err := ringbuf.Adopt(make([]byte, 8))
	if !errors.Is(err, ringbuf.ErrRegionTooSmall) {
		t.Fatalf("err = %v, want ErrRegionTooSmall", err)
	}
}

func Test_Adopt_Rejects_Misaligned_Data_Region(t *testing.T) {
	_, err := ringbuf.Adopt(make([]byte, 12+5))
	if !errors.Is(err, ringbuf.ErrRegionMisaligned) {
		t.Fatalf("err = %v, want ErrRegionMisaligned", err)
	}
}

func Test_Stream_TryWrite_TryRead_Roundtrip(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(16))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	if n := s.TryWrite([]byte("hello")); n != 5 {
		t.Fatalf("TryWrite = %d, want 5", n)
	}

	dest := make([]byte, 5)
	if n := s.TryRead(dest); n != 5 {
		t.Fatalf("TryRead = %d, want 5", n)
	}
	if string(dest) != "hello" {
		t.Fatalf("TryRead content = %q, want %q", dest, "hello")
	}

	if !s.IsEmpty() {
		t.Fatalf("IsEmpty = false after draining buffer")
	}
}

func Test_Stream_TryWrite_Wraps_Around(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(8))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	if n := s.TryWrite([]byte("abcde")); n != 5 {
		t.Fatalf("TryWrite = %d, want 5", n)
	}

	dest := make([]byte, 5)
	if n := s.TryRead(dest); n != 5 {
		t.Fatalf("TryRead = %d, want 5", n)
	}

	// tail sits at 5 of 8 data bytes; this write straddles the end of the
	// data region and wraps tail around to 3.
	if n := s.TryWrite([]byte("wxyz12")); n != 6 {
		t.Fatalf("TryWrite (wrap) = %d, want 6", n)
	}

	dest2 := make([]byte, 6)
	if n := s.TryRead(dest2); n != 6 {
		t.Fatalf("TryRead (wrap) = %d, want 6", n)
	}
	if string(dest2) != "wxyz12" {
		t.Fatalf("TryRead (wrap) content = %q, want %q", dest2, "wxyz12")
	}
}

func Test_Stream_TryWrite_Rejects_Data_Larger_Than_Capacity(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(4))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	if n := s.TryWrite([]byte("abcd")); n != 0 {
		t.Fatalf("TryWrite(4 bytes into capacity 3) = %d, want 0", n)
	}

	if n := s.TryWrite([]byte("abc")); n != 3 {
		t.Fatalf("TryWrite(3 bytes into capacity 3) = %d, want 3", n)
	}
}

func Test_Stream_TryRead_Returns_Zero_When_Insufficient_Data(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(16))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	_ = s.TryWrite([]byte("ab"))

	dest := make([]byte, 4)
	if n := s.TryRead(dest); n != 0 {
		t.Fatalf("TryRead(4) with only 2 bytes available = %d, want 0", n)
	}
}

func Test_Stream_Peek_And_Scan_Do_Not_Advance(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(16))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	_ = s.TryWrite([]byte("hello"))

	dest := make([]byte, 5)
	if n := s.Peek(0, dest); n != 5 || string(dest) != "hello" {
		t.Fatalf("Peek = %d %q, want 5 %q", n, dest, "hello")
	}

	if got := s.Scan(5); string(got) != "hello" {
		t.Fatalf("Scan = %q, want %q", got, "hello")
	}

	if s.Size() != 5 {
		t.Fatalf("Size = %d after Peek/Scan, want unchanged 5", s.Size())
	}
}

func Test_Stream_Write_Blocks_Until_Reader_Frees_Space(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(4))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	if n := s.TryWrite([]byte("abc")); n != 3 {
		t.Fatalf("TryWrite = %d, want 3", n)
	}

	done := make(chan int, 1)
	go func() {
		done <- s.Write([]byte("d"), -1)
	}()

	time.Sleep(20 * time.Millisecond)

	dest := make([]byte, 3)
	if n := s.Read(dest, time.Second); n != 3 {
		t.Fatalf("Read = %d, want 3", n)
	}

	select {
	case n := <-done:
		if n != 1 {
			t.Fatalf("blocking Write = %d, want 1", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("blocking Write never unblocked")
	}
}

func Test_Stream_Write_Times_Out_When_No_Space_Frees(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(4))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	_ = s.TryWrite([]byte("abc"))

	start := time.Now()
	n := s.Write([]byte("d"), 30*time.Millisecond)
	if n != 0 {
		t.Fatalf("Write past timeout = %d, want 0", n)
	}
	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Write returned before its timeout elapsed")
	}
}

func Test_Stream_SleepUntilReadable(t *testing.T) {
	s, err := ringbuf.Adopt(ringbuf.NewRegion(16))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		s.TryWrite([]byte("hi"))
	}()

	if !s.SleepUntilReadable(2, time.Second) {
		t.Fatalf("SleepUntilReadable(2) = false, want true")
	}
}

// Test_Stream_SPSC_Stress_Preserves_Order covers §8 scenario 5: one
// producer and one consumer goroutine sharing a small (many-wraps)
// region, the producer writing a cyclic 1..254 byte sequence and the
// consumer checking every byte arrives exactly once, in order - the
// ring's central no-reorder/no-dup/no-gap invariant.
func Test_Stream_SPSC_Stress_Preserves_Order(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test")
	}

	s, err := ringbuf.Adopt(ringbuf.NewRegion(64))
	if err != nil {
		t.Fatalf("Adopt: %v", err)
	}

	const total = 200_000
	const cycle = 254 // byte values 1..254, cyclically.

	errCh := make(chan error, 1)

	go func() {
		buf := make([]byte, 1)

		for i := 0; i < total; i++ {
			buf[0] = byte(i%cycle) + 1

			if n := s.Write(buf, -1); n != 1 {
				errCh <- fmt.Errorf("producer Write at i=%d: wrote %d, want 1", i, n)
				return
			}
		}

		errCh <- nil
	}()

	dest := make([]byte, 1)

	for i := 0; i < total; i++ {
		if n := s.Read(dest, -1); n != 1 {
			t.Fatalf("consumer Read at i=%d: read %d, want 1", i, n)
		}

		want := byte(i%cycle) + 1
		if dest[0] != want {
			t.Fatalf("consumer Read at i=%d: got %d, want %d (reorder, duplicate, or gap)", i, dest[0], want)
		}
	}

	if err := <-errCh; err != nil {
		t.Fatal(err)
	}
}
