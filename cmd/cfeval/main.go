// Command cfeval evaluates counterfactual explanation algorithms against an
// ontology.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cfeval/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
