package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
	"golang.org/x/sys/unix"

	"github.com/flatrecord/flatrecord/pkg/ringbuf"
)

func newRingCommand(cfg Config) *Command {
	var (
		size  int
		write string
		read  int
	)

	fs := flag.NewFlagSet("ring", flag.ContinueOnError)
	fs.IntVar(&size, "size", 0, "ring data region size in bytes (default: config ring_size)")
	fs.StringVar(&write, "write", "", "bytes to TryWrite into a fresh ring")
	fs.IntVar(&read, "read", 0, "number of bytes to TryRead back out")

	return &Command{
		Flags: fs,
		Usage: "ring [flags]",
		Short: "Create an anonymous shared-memory ring buffer and exercise it",
		Long:  "For manual testing of the wrap/CAS behavior described for pkg/ringbuf.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			n := size
			if n == 0 {
				n = cfg.RingSize
			}

			region, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
			if err != nil {
				return fmt.Errorf("cli: ring: mmap: %w", err)
			}
			defer unix.Munmap(region) //nolint:errcheck // best-effort cleanup on process exit

			stream, err := ringbuf.Adopt(region)
			if err != nil {
				return fmt.Errorf("cli: ring: %w", err)
			}

			o.Printf("ring capacity=%d\n", stream.Capacity())

			if write != "" {
				n := stream.TryWrite([]byte(write))
				o.Printf("wrote %d of %d bytes\n", n, len(write))
			}

			if read > 0 {
				buf := make([]byte, read)

				n := stream.TryRead(buf)
				o.Printf("read %d bytes: %q\n", n, buf[:n])
			}

			return nil
		},
	}
}
