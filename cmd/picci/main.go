// Command picci generates the PIConGPU compile test pipeline and runs
// physics checks on simulation output.
package main

import (
	"fmt"
	"os"

	"github.com/picongpu/picci/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintln(os.Stderr, "picci:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
