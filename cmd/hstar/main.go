// Command hstar parses, normalizes and journals combinatory terms.
package main

import (
	"fmt"
	"os"

	"github.com/fritzo/libhstar/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
