package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/flatrecord/flatrecord/pkg/record"
	"github.com/flatrecord/flatrecord/pkg/recordlog"
)

func newTailCommand(cfg Config, logger *slog.Logger) *Command {
	var (
		logPath    string
		onlySchema string
		heartbeat  time.Duration
	)

	fs := flag.NewFlagSet("tail", flag.ContinueOnError)
	fs.StringVar(&logPath, "log", "", "log file path (default: config log_path)")
	fs.StringVar(&onlySchema, "schema", "", "only print frames of this schema name")
	fs.DurationVar(&heartbeat, "heartbeat", 10*time.Second, "how often to log a waiting-for-data heartbeat")

	return &Command{
		Flags: fs,
		Usage: "tail [flags]",
		Short: "Replay a log then block, printing new frames as they arrive",
		Long:  "Ctrl-C (or the parent signal handler's graceful shutdown) stops tailing.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			path := resolveLogPath(cfg, logPath)

			handle, err := pooledHandle(cfg, path)
			if err != nil {
				return fmt.Errorf("cli: tail: %w", err)
			}
			defer releaseHandle(path)

			proj := &printProjection{o: o, onlySchema: onlySchema}

			stream, err := recordlog.Open(handle, proj)
			if err != nil {
				return fmt.Errorf("cli: tail: %w", err)
			}

			cur := stream.NewCursor(stream.Position())
			if onlySchema != "" {
				cur.Filter(func(schema *record.Schema, _, _ int64) bool { return schema.Name() == onlySchema })
			}

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				return tailLoop(gctx, cur, o)
			})

			g.Go(func() error {
				return heartbeatLoop(gctx, logger, heartbeat, path)
			})

			if err := g.Wait(); err != nil && gctx.Err() == nil {
				return err
			}

			return nil
		},
	}
}

func tailLoop(ctx context.Context, cur *recordlog.Cursor, o *IO) error {
	for {
		frame, err := cur.Await(ctx)
		if err != nil {
			return err
		}

		fields, ferr := frame.Record.ToMap()
		if ferr != nil {
			o.Printf("[%d,%d) %s: <undecodable: %v>\n", frame.StartPos, frame.EndPos, frame.Schema.Name(), ferr)

			continue
		}

		o.Printf("[%d,%d) %s %v\n", frame.StartPos, frame.EndPos, frame.Schema.Name(), fields)
	}
}

func heartbeatLoop(ctx context.Context, logger *slog.Logger, every time.Duration, path string) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			logger.Info("tailing", "log", path)
		}
	}
}
