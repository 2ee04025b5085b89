package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func Test_Append_Then_Replay_RoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "events.log")

	appendArgs := []string{
		"flatrecordctl", "append",
		"--log", logPath,
		"--name", "Ping",
		"--field", "n:Uint32",
		"--value", "n=7",
	}

	var stdout, stderr bytes.Buffer
	if code := Run(nil, &stdout, &stderr, appendArgs, nil); code != 0 {
		t.Fatalf("append exit = %d, stderr = %s", code, stderr.String())
	}

	stdout.Reset()
	stderr.Reset()

	replayArgs := []string{"flatrecordctl", "replay", "--log", logPath}
	if code := Run(nil, &stdout, &stderr, replayArgs, nil); code != 0 {
		t.Fatalf("replay exit = %d, stderr = %s", code, stderr.String())
	}

	out := stdout.String()

	if !strings.Contains(out, "Ping") || !strings.Contains(out, "n:7") {
		t.Fatalf("replay output = %q, want it to mention the Ping record's n=7", out)
	}
}

func Test_Append_Missing_Schema_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logPath := filepath.Join(dir, "events.log")

	var stdout, stderr bytes.Buffer

	code := Run(nil, &stdout, &stderr, []string{"flatrecordctl", "append", "--log", logPath}, nil)
	if code == 0 {
		t.Fatalf("append with no schema = exit 0, want failure")
	}
}
