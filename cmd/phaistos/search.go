package main

import (
	"fmt"
	"os"
	"time"

	"github.com/ilmenit/Phaistos/pkg/optimizer"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/result"
	"github.com/ilmenit/Phaistos/pkg/specfile"
	"github.com/spf13/cobra"
)

// defaultStokeFraction is how much of an explicit timeout the stochastic
// pre-pass gets once the deterministic search completes, for a speed goal.
const defaultStokeFraction = 4

// defaultStokeBudget is the stoke pre-pass allowance when no -t timeout
// was given to bound it against.
const defaultStokeBudget = 2 * time.Second

func newSearchCmd() *cobra.Command {
	var specPath, outputPath, outputFormat string
	var timeoutSeconds int
	var verbose, includeIllegal bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "search a spec file for the optimal instruction sequence realizing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if specPath == "" {
				return fmt.Errorf("search: -f <file> is required")
			}
			f, err := os.Open(specPath)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			defer f.Close()

			spec, err := specfile.Parse(f)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			cfg := optimizer.Config{IncludeIllegal: includeIllegal}
			if timeoutSeconds > 0 {
				cfg.Timeout = time.Duration(timeoutSeconds) * time.Second
			}
			if spec.Goal == ospec.Speed {
				cfg.StokeBudget = defaultStokeBudget
				if cfg.Timeout > 0 {
					cfg.StokeBudget = cfg.Timeout / defaultStokeFraction
				}
			}
			if verbose {
				cfg.Listener = stderrListener{}
			}

			d := optimizer.New(*spec, cfg)
			res := d.Optimize()

			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "tested %d sequences, %d valid, status %s\n",
					res.SequencesTested, res.ValidFound, res.Status)
			}
			if !res.Found() {
				return fmt.Errorf("search: no candidate satisfies the spec within the search bound")
			}

			sol := result.NewSolution(*spec, res)

			out := cmd.OutOrStdout()
			if outputPath != "" {
				outFile, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("search: %w", err)
				}
				defer outFile.Close()
				out = outFile
			}

			switch outputFormat {
			case "", "asm":
				fmt.Fprintln(out, sol.Disassembly())
			case "json":
				if err := result.WriteJSON(out, sol); err != nil {
					return fmt.Errorf("search: %w", err)
				}
			default:
				return fmt.Errorf("search: unknown --output-format %q (want asm or json)", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&specPath, "file", "f", "", "spec file to optimize (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the solution here instead of stdout")
	cmd.Flags().StringVar(&outputFormat, "output-format", "asm", "solution rendering: asm or json")
	cmd.Flags().IntVarP(&timeoutSeconds, "timeout", "t", 0, "search time limit in seconds (0 = no limit)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "report search progress and final statistics on stderr")
	cmd.Flags().BoolVarP(&includeIllegal, "illegal", "d", false, "include illegal/unstable opcodes in the search")
	return cmd
}

// stderrListener reports search progress on stderr, leaving stdout free
// for the solution a caller might be piping elsewhere.
type stderrListener struct{}

func (stderrListener) OnNewBest(bytes []byte, metric int, sequencesTested int64) {
	fmt.Fprintf(os.Stderr, "new best: %d bytes, metric %d, after %d sequences\n", len(bytes), metric, sequencesTested)
}

func (stderrListener) OnProgress(sequencesTested, validFound int64, cacheSize int) {
	fmt.Fprintf(os.Stderr, "progress: %d tested, %d valid, %d cache entries\n", sequencesTested, validFound, cacheSize)
}
