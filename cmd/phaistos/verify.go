package main

import (
	"fmt"
	"os"

	"github.com/ilmenit/Phaistos/pkg/result"
	"github.com/ilmenit/Phaistos/pkg/specfile"
	"github.com/ilmenit/Phaistos/pkg/verify"
	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <solution.json> <spec.file>",
		Short: "re-run the verification engine against a previously found solution",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			solFile, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			defer solFile.Close()
			sol, err := result.ReadJSON(solFile)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			specFile, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			defer specFile.Close()
			spec, err := specfile.Parse(specFile)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}

			engine := verify.New(*spec)
			ok, reason := engine.VerifyWithExplanation(sol.Instructions())
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL: %s\n", reason)
				return fmt.Errorf("verify: solution does not satisfy the spec")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "OK: solution satisfies every test vector")
			return nil
		},
	}
	return cmd
}
