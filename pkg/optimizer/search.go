package optimizer

import (
	"sync"
	"time"

	"github.com/ilmenit/Phaistos/pkg/cache"
	"github.com/ilmenit/Phaistos/pkg/enumerate"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/stoke"
)

// Optimize runs the search to completion, a timeout, or an early stop on
// the size goal: enumeration is length-monotonic, so the first verified
// pass has the fewest instructions of any candidate. Length counts
// instructions, not bytes: the search stops at that first pass, so another
// candidate of the same length with fewer encoded bytes is not looked for.
func (d *Driver) Optimize() Result {
	d.cache.Clear()
	d.mu.Lock()
	d.maxLenBound = d.cfg.MaxLength
	d.haveBest = false
	d.mu.Unlock()
	d.tested.Store(0)
	d.found.Store(0)
	d.stop.Store(false)
	d.timedOut.Store(false)

	var deadline time.Time
	hasDeadline := d.cfg.Timeout > 0
	if hasDeadline {
		deadline = time.Now().Add(d.cfg.Timeout)
	}

	enumCfg := enumerate.Config{
		IncludeIllegal: d.cfg.IncludeIllegal,
		ByteValues:     enumerate.ByteValuesFromConstants(d.spec.ExactConstants()),
		Addresses:      enumerate.AddressesFromRegions(cache.LiveAddresses(d.spec)),
	}

	for length := 1; length <= d.currentMaxLen() && !d.stop.Load(); length++ {
		if hasDeadline && time.Now().After(deadline) {
			d.timedOut.Store(true)
			d.stop.Store(true)
			break
		}
		d.searchLength(length, enumCfg, deadline, hasDeadline)
	}

	if !d.timedOut.Load() {
		d.runStokePass(deadline, hasDeadline)
	}

	status := Done
	if d.timedOut.Load() {
		status = TimedOut
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	res := Result{
		SequencesTested: d.tested.Load(),
		ValidFound:      d.found.Load(),
		Status:          status,
	}
	if d.haveBest {
		res.Instructions = append([]inst.Instruction{}, d.best...)
		res.Metric = d.bestMetric
		res.Cycles = d.verifier.Cycles(d.best)
	}
	return res
}

// searchLength shards one candidate length across the worker pool,
// fixing the first instruction per shard (spec.md §5's disjoint
// opcode-prefix partitioning).
func (d *Driver) searchLength(length int, cfg enumerate.Config, deadline time.Time, hasDeadline bool) {
	firsts := enumerate.FirstInstructions(cfg)
	ch := make(chan inst.Instruction, len(firsts))
	for _, f := range firsts {
		ch <- f
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < d.cfg.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for first := range ch {
				if d.stop.Load() {
					return
				}
				d.searchShard(first, length, cfg, deadline, hasDeadline)
			}
		}()
	}
	wg.Wait()
}

// searchShard enumerates every length-n candidate with a fixed first
// instruction, checking the shared shutdown flag at candidate granularity
// (spec.md §5's cancellation model).
func (d *Driver) searchShard(first inst.Instruction, length int, cfg enumerate.Config, deadline time.Time, hasDeadline bool) {
	candidatesForShard(first, length, cfg, func(cand []inst.Instruction) bool {
		if d.stop.Load() {
			return false
		}
		n := d.tested.Load()
		if hasDeadline && n%256 == 0 && time.Now().After(deadline) {
			d.timedOut.Store(true)
			d.stop.Store(true)
			return false
		}
		d.checkCandidate(cand)
		return !d.stop.Load()
	})
}

// candidatesForShard enumerates every length-n sequence whose first
// instruction is fixed to first, reusing the enumerator's tail
// cross-product for positions 1..n-1.
func candidatesForShard(first inst.Instruction, length int, cfg enumerate.Config, fn func([]inst.Instruction) bool) {
	if length <= 1 {
		fn([]inst.Instruction{first})
		return
	}
	buf := make([]inst.Instruction, length)
	buf[0] = first
	enumerate.Sequences(length-1, cfg, func(tail []inst.Instruction) bool {
		copy(buf[1:], tail)
		return fn(buf)
	})
}

// checkCandidate prunes, cache-rewrites, and verifies one candidate,
// updating the driver's best-so-far and cache on success.
func (d *Driver) checkCandidate(cand []inst.Instruction) {
	n := d.tested.Add(1)
	if n%d.cfg.ProgressEvery == 0 {
		d.cfg.Listener.OnProgress(n, d.found.Load(), d.cache.Len())
	}

	if enumerate.ShouldPrune(cand) {
		return
	}

	forSize := d.spec.Goal == ospec.Size
	rewritten, _ := cache.Rewrite(cand, d.spec, d.cache, forSize)

	if !d.verifier.Verify(rewritten) {
		return
	}
	d.found.Add(1)
	d.recordCacheEntry(rewritten)

	metric := d.verifier.Size(rewritten)
	if !forSize {
		metric = d.verifier.Cycles(rewritten)
	}

	d.mu.Lock()
	improved := !d.haveBest || metric < d.bestMetric
	if improved {
		d.best = append([]inst.Instruction{}, rewritten...)
		d.bestMetric = metric
		d.haveBest = true
		if forSize {
			d.stop.Store(true)
		} else if bound := len(rewritten) + SpeedShrinkMargin; bound < d.maxLenBound {
			d.maxLenBound = bound
		}
	}
	d.mu.Unlock()

	if improved {
		d.cfg.Listener.OnNewBest(inst.SeqBytes(rewritten), metric, n)
	}
}

// recordCacheEntry projects a verified candidate onto the spec's live
// registers and addresses, using the test suite's first vector (see
// verify.Engine.Cycles) as the representative starting state, and inserts the observed transformation
// into the shared cache.
func (d *Driver) recordCacheEntry(cand []inst.Instruction) {
	vectors := d.verifier.Vectors()
	if len(vectors) == 0 {
		return
	}
	base := vectors[0]
	liveRegs := cache.LiveRegisters(d.spec)
	liveAddrs := cache.LiveAddresses(d.spec)
	input, output, cycles, err := cache.ObserveTransformation(cand, base.CPU, base.Memory, liveRegs, liveAddrs)
	if err != nil {
		return
	}
	d.cache.Insert(cache.BuildKey(input, output), inst.SeqBytes(cand), cycles)
}

// runStokePass invokes the optional stochastic pre-pass (SPEC_FULL.md
// §5.6) as a finishing accelerant once the deterministic search has run
// its course: for a speed goal with a best-so-far already in hand, it
// spends up to Config.StokeBudget mutating away from that best, folding
// back any candidate the pre-pass both improves on and re-verifies. It is
// a no-op for a size goal (the search has already stopped at its first pass)
// or when no best has been found yet (nothing to mutate away from).
func (d *Driver) runStokePass(deadline time.Time, hasDeadline bool) {
	if d.spec.Goal != ospec.Speed || d.cfg.StokeBudget <= 0 {
		return
	}

	d.mu.Lock()
	haveBest := d.haveBest
	seed := append([]inst.Instruction{}, d.best...)
	d.mu.Unlock()
	if !haveBest {
		return
	}

	budget := d.cfg.StokeBudget
	if hasDeadline {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if remaining < budget {
			budget = remaining
		}
	}

	results := stoke.Run(stoke.Config{
		Engine:     d.verifier,
		Seed:       seed,
		Chains:     d.cfg.StokeChains,
		Iterations: d.cfg.StokeIterations,
		Deadline:   time.Now().Add(budget),
	})

	for _, r := range results {
		d.adoptStokeResult(r.Candidate)
	}
}

// adoptStokeResult folds one stoke-proposed candidate into the driver's
// best-so-far if it beats the current cycle count, recording it in the
// shared cache the same way a deterministically-found candidate would be.
func (d *Driver) adoptStokeResult(cand []inst.Instruction) {
	metric := d.verifier.Cycles(cand)

	d.mu.Lock()
	improved := !d.haveBest || metric < d.bestMetric
	if improved {
		d.best = append([]inst.Instruction{}, cand...)
		d.bestMetric = metric
	}
	d.mu.Unlock()

	if !improved {
		return
	}
	d.found.Add(1)
	d.recordCacheEntry(cand)
	d.cfg.Listener.OnNewBest(inst.SeqBytes(cand), metric, d.tested.Load())
}
