package stoke

import (
	"math"
	"math/rand/v2"

	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/verify"
)

// Chain is a single Metropolis-Hastings MCMC chain with simulated
// annealing, mutating away from a seed candidate in search of a shorter
// or faster sequence that still satisfies engine's test suite.
type Chain struct {
	engine     *verify.Engine
	goal       ospec.Goal
	seedMetric int

	current     []inst.Instruction
	best        []inst.Instruction
	cost        int
	bestCost    int
	temperature float64
	rng         *rand.Rand
	mutator     *Mutator

	// Stats
	Accepted int64
	Rejected int64
}

// NewChain creates a new MCMC chain initialized from seed.
func NewChain(engine *verify.Engine, seed []inst.Instruction, temperature float64, rngSeed uint64) *Chain {
	rng := rand.New(rand.NewPCG(rngSeed, rngSeed^0xDEADBEEF))
	maxLen := len(seed) + 2 // allow some growth
	if maxLen < 10 {
		maxLen = 10
	}
	current := copySeq(seed)
	cost := Cost(engine, current)

	goal := engine.Goal()
	metric := engine.Size(seed)
	if goal == ospec.Speed {
		metric = engine.Cycles(seed)
	}

	return &Chain{
		engine:      engine,
		goal:        goal,
		seedMetric:  metric,
		current:     current,
		best:        copySeq(current),
		cost:        cost,
		bestCost:    cost,
		temperature: temperature,
		rng:         rng,
		mutator:     NewMutator(rng, maxLen),
	}
}

// Step performs one MCMC iteration: mutate, evaluate, accept/reject.
// Returns true if the step was accepted.
func (c *Chain) Step(decay float64) bool {
	candidate := c.mutator.Mutate(c.current)
	newCost := Cost(c.engine, candidate)
	delta := newCost - c.cost

	accepted := false
	if delta <= 0 {
		// Always accept improvements (or equal).
		accepted = true
	} else if c.temperature > 0 {
		// Accept worse solutions with probability e^(-delta/T).
		prob := math.Exp(-float64(delta) / c.temperature)
		if c.rng.Float64() < prob {
			accepted = true
		}
	}

	if accepted {
		c.current = candidate
		c.cost = newCost
		c.Accepted++

		if newCost < c.bestCost {
			c.best = copySeq(candidate)
			c.bestCost = newCost
		}
	} else {
		c.Rejected++
	}

	// Anneal.
	c.temperature *= decay

	return accepted
}

// Best returns the best candidate found so far and its cost.
func (c *Chain) Best() ([]inst.Instruction, int) {
	return c.best, c.bestCost
}

// Current returns the current candidate and its cost.
func (c *Chain) Current() ([]inst.Instruction, int) {
	return c.current, c.cost
}

// Improved reports whether the best candidate found so far passes every
// test vector and beats the seed on the spec's chosen metric.
func (c *Chain) Improved() bool {
	if c.bestCost >= mismatchPenalty {
		return false
	}
	metric := c.engine.Size(c.best)
	if c.goal == ospec.Speed {
		metric = c.engine.Cycles(c.best)
	}
	return metric < c.seedMetric
}
