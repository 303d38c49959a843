package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/assay/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Command errors have already been reported in the requested format.
		// Anything else (unknown flags, missing arguments) comes from cobra.
		code := cli.GetExitCode(err)
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
			code = cli.ExitCommandError
		}
		os.Exit(code)
	}
}
