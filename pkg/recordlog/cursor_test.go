package recordlog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flatrecord/flatrecord/pkg/nativefile"
	"github.com/flatrecord/flatrecord/pkg/prim"
	"github.com/flatrecord/flatrecord/pkg/record"
	"github.com/flatrecord/flatrecord/pkg/recordlog"
)

func Test_Cursor_Next_Pending_On_Empty_Handle(t *testing.T) {
	handle := nativefile.NewMemory()

	stream, err := recordlog.Open(handle, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cur := stream.NewCursor(0)

	frame, ok, err := cur.Next()
	if frame != nil || ok || err != nil {
		t.Fatalf("Next() on empty handle = %v, %v, %v, want nil, false, nil", frame, ok, err)
	}
}

func Test_Open_Fails_On_Unknown_Schema_Reference(t *testing.T) {
	schema, err := record.Intern("Orphan", []record.FieldDef{{Name: "n", Kind: prim.KindUint32, Length: 1}})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	seedHandle := nativefile.NewMemory()

	seed, err := recordlog.Open(seedHandle, nil)
	if err != nil {
		t.Fatalf("Open(seed): %v", err)
	}

	first := record.NewDefault(schema)
	if _, err := seed.WriteOneSync(first); err != nil {
		t.Fatalf("WriteOneSync(first): %v", err)
	}

	firstEnd := seed.Position()

	second := record.NewDefault(schema)
	if _, err := seed.WriteOneSync(second); err != nil {
		t.Fatalf("WriteOneSync(second): %v", err)
	}

	size, err := seedHandle.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}

	tail, err := seedHandle.Peek(firstEnd, int(size-firstEnd))
	if err != nil {
		t.Fatalf("Peek(tail): %v", err)
	}

	// tail is the second frame on its own, with no schema blob of its
	// own: a log that begins here (e.g. a corrupted or hand-assembled
	// file) can never resolve it.
	orphanHandle := nativefile.NewMemory()
	if _, err := orphanHandle.WriteSync(tail); err != nil {
		t.Fatalf("WriteSync(tail): %v", err)
	}

	_, err = recordlog.Open(orphanHandle, nil)
	if !errors.Is(err, recordlog.ErrUnknownSchema) {
		t.Fatalf("Open(orphanHandle) err = %v, want ErrUnknownSchema", err)
	}
}

func Test_Cursor_Await_Unblocks_On_Write(t *testing.T) {
	schema, err := record.Intern("Await", []record.FieldDef{{Name: "n", Kind: prim.KindUint32, Length: 1}})
	if err != nil {
		t.Fatalf("Intern: %v", err)
	}

	handle := nativefile.NewMemory()

	stream, err := recordlog.Open(handle, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cur := stream.NewCursor(0)

	type result struct {
		frame *recordlog.Frame
		err   error
	}

	done := make(chan result, 1)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		frame, err := cur.Await(ctx)
		done <- result{frame, err}
	}()

	time.Sleep(20 * time.Millisecond)

	rec := record.NewDefault(schema)
	if err := rec.Set("n", uint64(42)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if _, err := stream.WriteOneSync(rec); err != nil {
		t.Fatalf("WriteOneSync: %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("Await err = %v", r.err)
		}

		v, _ := r.frame.Record.Get("n")
		if v.(uint64) != 42 {
			t.Fatalf("Await frame n = %v, want 42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Await never unblocked")
	}
}

func Test_Cursor_Await_Returns_On_Context_Cancel(t *testing.T) {
	handle := nativefile.NewMemory()

	stream, err := recordlog.Open(handle, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	cur := stream.NewCursor(0)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()

	_, err = cur.Await(ctx)
	if err == nil {
		t.Fatalf("Await on a stream with no writer = nil error, want context deadline error")
	}

	if time.Since(start) < 30*time.Millisecond {
		t.Fatalf("Await returned before its context deadline")
	}
}
