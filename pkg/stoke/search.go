// Package stoke implements an optional stochastic pre-pass over the
// deterministic superoptimizer search (SPEC_FULL.md §5.6): parallel
// Metropolis-Hastings chains with simulated annealing mutate away from a
// seed candidate, looking for a shorter or faster sequence that still
// satisfies an ospec.OptimizationSpec's test suite. Every proposal a chain
// reports is re-run through the full deterministic verify.Engine before it
// is returned: this package never substitutes its own accept/reject
// decision for that contract, it only proposes candidates faster than
// blind length-ordered enumeration can for longer targets.
package stoke

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/verify"
)

// Config holds one stochastic pre-pass run.
type Config struct {
	Engine     *verify.Engine
	Seed       []inst.Instruction // current best-so-far; chains mutate away from this
	Chains     int                // number of independent MCMC chains (goroutines)
	Iterations int                // iterations per chain, absent a Deadline
	Decay      float64            // temperature decay factor per step
	Deadline   time.Time          // if non-zero, chains stop early once passed
	Verbose    bool
}

// Result holds one verified improvement a chain found over Config.Seed.
type Result struct {
	Candidate []inst.Instruction
	ChainID   int
	Iter      int
}

// Run launches Chains independent MCMC chains in parallel and collects
// verified results, deduplicated by encoded byte content.
func Run(cfg Config) []Result {
	if cfg.Chains <= 0 {
		cfg.Chains = 1
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1_000_000
	}
	if cfg.Decay <= 0 || cfg.Decay >= 1 {
		cfg.Decay = 0.9999
	}
	hasDeadline := !cfg.Deadline.IsZero()

	if cfg.Verbose {
		fmt.Printf("stoke: %d chains x %d iterations (decay=%.6f), seed %d bytes\n",
			cfg.Chains, cfg.Iterations, cfg.Decay, inst.SeqByteSize(cfg.Seed))
	}

	var mu sync.Mutex
	var results []Result
	var wg sync.WaitGroup

	baseSeed := rand.Uint64()

	for i := 0; i < cfg.Chains; i++ {
		wg.Add(1)
		go func(chainID int) {
			defer wg.Done()

			seed := baseSeed + uint64(chainID)*0x9E3779B97F4A7C15
			chain := NewChain(cfg.Engine, cfg.Seed, 1.0, seed)

			for iter := 0; iter < cfg.Iterations; iter++ {
				if hasDeadline && iter%1024 == 0 && time.Now().After(cfg.Deadline) {
					break
				}

				chain.Step(cfg.Decay)

				if !chain.Improved() {
					continue
				}
				best, _ := chain.Best()
				if !cfg.Engine.Verify(best) {
					continue
				}

				mu.Lock()
				results = append(results, Result{Candidate: copySeq(best), ChainID: chainID, Iter: iter})
				mu.Unlock()

				if cfg.Verbose {
					fmt.Printf("  chain %d @ iter %d: %d bytes VERIFIED\n", chainID, iter, inst.SeqByteSize(best))
				}

				// Reset the chain to explore further from the same seed.
				chain = NewChain(cfg.Engine, cfg.Seed, 1.0, seed+uint64(iter))
			}
		}(i)
	}

	wg.Wait()
	return Deduplicate(results)
}

// Deduplicate removes results with identical encoded candidates.
func Deduplicate(results []Result) []Result {
	seen := make(map[string]bool)
	var unique []Result
	for _, r := range results {
		key := string(inst.SeqBytes(r.Candidate))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, r)
		}
	}
	return unique
}
