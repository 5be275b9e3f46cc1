package main

import (
	"os"

	"github.com/kernelgate/kernelgate/internal/cli"
)

func main() {
	// Commands render their own error output; Execute only carries the
	// exit code out.
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(cli.GetExitCode(err))
	}
}
