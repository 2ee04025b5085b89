package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/flatrecord/flatrecord/pkg/record"
	"github.com/flatrecord/flatrecord/pkg/recordlog"
)

// historyFileName is the inspect REPL's history file, the same
// dot-file-in-home-directory convention cmd/sloty uses.
const historyFileName = ".flatrecordctl_history"

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

func newInspectCommand(cfg Config) *Command {
	var logPath string

	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.StringVar(&logPath, "log", "", "log file path (default: config log_path)")

	return &Command{
		Flags: fs,
		Usage: "inspect [flags]",
		Short: "Interactively filter a log's frames by schema name",
		Long:  "Each typed line is a schema name; matching frames already in the log are printed immediately.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			path := resolveLogPath(cfg, logPath)

			handle, err := pooledHandle(cfg, path)
			if err != nil {
				return fmt.Errorf("cli: inspect: %w", err)
			}
			defer releaseHandle(path)

			stream, err := recordlog.Open(handle, nil)
			if err != nil {
				return fmt.Errorf("cli: inspect: %w", err)
			}

			return runInspectREPL(o, stream)
		},
	}
}

func runInspectREPL(o *IO, stream *recordlog.Stream) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(prefix string) []string { return nil })

	if f, err := os.Open(historyFilePath()); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	o.ErrPrintln("inspect: type a schema name to filter (blank = all), 'exit' to quit")

	for {
		input, err := line.Prompt("inspect> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}

			return fmt.Errorf("cli: inspect: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "exit" || input == "quit" {
			saveInspectHistory(line)

			return nil
		}

		line.AppendHistory(input)

		cur := stream.NewCursor(0)
		if input != "" {
			cur.Filter(func(schema *record.Schema, _, _ int64) bool { return schema.Name() == input })
		}

		printMatchingFrames(o, cur)
	}
}

func printMatchingFrames(o *IO, cur *recordlog.Cursor) {
	for {
		frame, ok, err := cur.Next()
		if err != nil {
			o.ErrPrintln("error:", err)

			return
		}
		if !ok {
			return
		}

		fields, ferr := frame.Record.ToMap()
		if ferr != nil {
			o.Printf("[%d,%d) %s: <undecodable: %v>\n", frame.StartPos, frame.EndPos, frame.Schema.Name(), ferr)

			continue
		}

		o.Printf("[%d,%d) %s %v\n", frame.StartPos, frame.EndPos, frame.Schema.Name(), fields)
	}
}

func saveInspectHistory(line *liner.State) {
	path := historyFilePath()
	if path == "" {
		return
	}

	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
