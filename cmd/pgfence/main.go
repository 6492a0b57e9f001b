package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgfence/pgfence/cmd/pgfence/flags"
	"github.com/pgfence/pgfence/internal/pgferr"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if flags.NoColor() {
			pterm.DisableColor()
		}
	}

	var exitCode int
	if err := cmd.Execute(); err != nil {
		exitCode = exitCodeFor(err)
		fmt.Fprintln(os.Stderr, err)
		return exitCode
	}
	return 0
}

func exitCodeFor(err error) int {
	var ci ciFailure
	if errors.As(err, &ci) {
		return 1
	}
	var fatal *pgferr.Error
	if errors.As(err, &fatal) {
		return pgferr.ExitCode(fatal)
	}
	return 2
}
