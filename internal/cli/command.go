package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one flatrecordctl subcommand, following the teacher's own
// Command shape: a pflag.FlagSet, usage/help text, and an Exec function
// that receives already-parsed args.
type Command struct {
	Flags *flag.FlagSet
	Usage string
	Short string
	Long  string
	Exec  func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command's invocation name: Usage's first word.
func (c *Command) Name() string {
	fields := strings.Fields(c.Usage)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// HelpLine is one line describing the command, for the top-level
// `flatrecordctl help` listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-28s %s", c.Usage, c.Short)
}

// PrintHelp prints the command's full usage and flag defaults.
func (c *Command) PrintHelp(o *IO) {
	o.ErrPrintln("Usage:", c.Usage)

	if c.Long != "" {
		o.ErrPrintln("")
		o.ErrPrintln(c.Long)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.ErrPrintln("")
		o.ErrPrintln("Flags:")
		o.ErrPrintln(c.Flags.FlagUsagesWrapped(0))
	}
}

// Run parses args against the command's flags, then invokes Exec.
// Returns the process exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	if c.Flags == nil {
		c.Flags = flag.NewFlagSet(c.Name(), flag.ContinueOnError)
	}

	c.Flags.SetOutput(ioDiscard{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", err)
		c.PrintHelp(o)

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return o.Finish()
}

type ioDiscard struct{}

func (ioDiscard) Write(p []byte) (int, error) { return len(p), nil }
