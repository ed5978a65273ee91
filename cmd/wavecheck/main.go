// Command wavecheck cross-validates emulated and native wave intrinsics on a
// device and reports a PASS/FAIL verdict per case.
//
// Exit status is 0 when every case passes, 1 when a case fails, and 2 when
// the harness itself cannot run (device, kernel, allocation or wave size
// errors).
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// Exit codes.
const (
	exitPass  = 0
	exitFail  = 1
	exitFatal = 2
)

// fatalError marks harness errors that abort the run.
type fatalError struct{ err error }

func (e fatalError) Error() string { return e.err.Error() }
func (e fatalError) Unwrap() error { return e.err }

func fatal(err error) error { return fatalError{err: err} }

// errSuiteFailed is returned by the run action when at least one case failed.
var errSuiteFailed = errors.New("one or more cases failed")

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	err := app.Run(ctx, args)

	var fe fatalError
	switch {
	case err == nil:
		return exitPass
	case errors.As(err, &fe):
		_, _ = fmt.Fprintf(stderr, "fatal: %v\n", fe.err)
		return exitFatal
	case errors.Is(err, errSuiteFailed):
		return exitFail
	default:
		_, _ = fmt.Fprintln(stderr, err)
		return exitFatal
	}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	opts := &options{}
	return &cli.Command{
		Name:      "wavecheck",
		Usage:     "Cross-validate emulated and native wave intrinsics",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     append(runFlags(opts), loggingFlags(opts)...),
		// Errors are mapped to exit codes by run.
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSuite(ctx, opts, stdout, stderr)
		},
		Commands: []*cli.Command{
			listCmd(stdout),
		},
	}
}
