// Package main provides flatrecordctl, a CLI for defining record schemas,
// appending to and replaying append-only record logs, and exercising the
// shared-memory ring buffer.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/flatrecord/flatrecord/internal/cli"
)

func main() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	exitCode := cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, sigCh)

	os.Exit(exitCode)
}
