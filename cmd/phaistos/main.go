// Command phaistos is the superoptimizer's command-line front end
// (SPEC_FULL.md §7.4), grounded on the teacher's cmd/z80opt/main.go: one
// cobra root command with search, target, and verify subcommands.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "phaistos",
		Short:         "6502 superoptimizer — find smaller or faster equivalent instruction sequences",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newSearchCmd(), newTargetCmd(), newVerifyCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
