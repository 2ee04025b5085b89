package cli

import (
	"bufio"
	"fmt"
	"io"
)

// IO is a buffered output sink shared by every command's Exec, matching
// the teacher's own internal/cli.IO: warnings are buffered separately
// and flushed to errOut both before and after normal output, so they
// stay visible even when stdout is piped or truncated.
type IO struct {
	out     *bufio.Writer
	errOut  io.Writer
	warn    []string
	started bool
}

// NewIO wraps out/errOut for a single command invocation.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: bufio.NewWriter(out), errOut: errOut}
}

// Warn records a warning to be surfaced at both the start and end of
// this IO's output (e.g. "schema re-registered with an identical
// definition, frame already had one" for §6.4's tolerated case).
func (o *IO) Warn(msg string) {
	o.warn = append(o.warn, msg)
}

func (o *IO) flushWarnings() {
	for _, w := range o.warn {
		fmt.Fprintln(o.errOut, "warning:", w)
	}
}

// Printf writes to the buffered output, flushing any recorded warnings
// to errOut first if this is the first write.
func (o *IO) Printf(format string, args ...any) {
	if !o.started {
		o.started = true

		o.flushWarnings()
	}

	fmt.Fprintf(o.out, format, args...)
}

// Println is Printf's line-oriented counterpart.
func (o *IO) Println(args ...any) {
	if !o.started {
		o.started = true

		o.flushWarnings()
	}

	fmt.Fprintln(o.out, args...)
}

// ErrPrintln writes directly to errOut, bypassing buffering.
func (o *IO) ErrPrintln(args ...any) {
	fmt.Fprintln(o.errOut, args...)
}

// Finish flushes buffered output, re-emits any warnings, and returns the
// command's exit code contribution: 1 if warnings were ever recorded
// (even if the command otherwise succeeded), 0 otherwise.
func (o *IO) Finish() int {
	_ = o.out.Flush()

	o.flushWarnings()

	if len(o.warn) > 0 {
		return 1
	}

	return 0
}
