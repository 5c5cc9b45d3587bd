// acorn: research notebook call log
//
// Records calls into per-task JSON databases and inspects them.
//
// Usage:
//
//	acorn record <entity-key> --project p --task t --args '[...]'
//	acorn show --project p --task t
//	acorn list
//	acorn validate <file>
//	acorn export <file> --out <sqlite>
//	acorn scenario <dir>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/acorn/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		// Subcommands report their own errors; only flag and usage errors
		// still need printing.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
