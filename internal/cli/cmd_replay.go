package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/flatrecord/flatrecord/pkg/record"
	"github.com/flatrecord/flatrecord/pkg/recordlog"
)

// printProjection replays every matched frame to an IO, optionally
// restricted to a single schema name.
type printProjection struct {
	o          *IO
	onlySchema string
}

func (p *printProjection) Match(schema *record.Schema, _, _ int64) bool {
	return p.onlySchema == "" || schema.Name() == p.onlySchema
}

func (p *printProjection) Handle(rec *record.Record, startPos, endPos int64) {
	fields, err := rec.ToMap()
	if err != nil {
		p.o.Printf("[%d,%d) %s: <undecodable: %v>\n", startPos, endPos, rec.Schema().Name(), err)

		return
	}

	p.o.Printf("[%d,%d) %s %v\n", startPos, endPos, rec.Schema().Name(), fields)
}

func newReplayCommand(cfg Config) *Command {
	var (
		logPath    string
		onlySchema string
	)

	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	fs.StringVar(&logPath, "log", "", "log file path (default: config log_path)")
	fs.StringVar(&onlySchema, "schema", "", "only print frames of this schema name")

	return &Command{
		Flags: fs,
		Usage: "replay [flags]",
		Short: "Print every frame in a log file, in order",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			path := resolveLogPath(cfg, logPath)

			handle, err := pooledHandle(cfg, path)
			if err != nil {
				return fmt.Errorf("cli: replay: %w", err)
			}
			defer releaseHandle(path)

			proj := &printProjection{o: o, onlySchema: onlySchema}

			stream, err := recordlog.Open(handle, proj)
			if err != nil {
				return fmt.Errorf("cli: replay: %w", err)
			}

			o.Printf("replayed through position %d\n", stream.Position())

			return nil
		},
	}
}
