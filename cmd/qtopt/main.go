// Command qtopt runs query tree optimization passes from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qtopt/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
