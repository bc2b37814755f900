// Package optimizer implements the top-level search driver (spec.md
// §4.6): it enumerates increasingly long candidate sequences, prunes and
// cache-rewrites them, verifies the survivors against a spec's test
// suite, and tracks the best-so-far by the spec's chosen goal.
package optimizer

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ilmenit/Phaistos/pkg/cache"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/verify"
)

// Status is the driver's coarse state: Idle -> Searching ->
// (FoundBetter -> Searching)* -> (Done | TimedOut), per spec.md §4.6.
// Finding a better candidate has no Status value of its own, and a
// Result from Optimize always reports Done or TimedOut.
type Status uint8

const (
	Idle Status = iota
	Searching
	Done
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Searching:
		return "searching"
	case Done:
		return "done"
	case TimedOut:
		return "timed out"
	default:
		return "idle"
	}
}

// DefaultMaxLength is the enumerator's starting candidate-length ceiling.
const DefaultMaxLength = 32

// SpeedShrinkMargin bounds max_length once a speed-goal best is found:
// the search only needs to keep looking among candidates up to this many
// instructions longer than the best found so far.
const SpeedShrinkMargin = 4

// DefaultProgressEvery is how many checked candidates pass between
// progress notifications, absent an explicit Config.ProgressEvery.
const DefaultProgressEvery = 10000

// ProgressListener receives notifications during a search. Shards run
// concurrently, so a listener may be called from multiple goroutines at
// once (spec.md §5) and must be safe for that.
type ProgressListener interface {
	OnNewBest(bytes []byte, metric int, sequencesTested int64)
	OnProgress(sequencesTested, validFound int64, cacheSize int)
}

// NullListener discards every notification; the default when a Config
// names none.
type NullListener struct{}

func (NullListener) OnNewBest(bytes []byte, metric int, sequencesTested int64)   {}
func (NullListener) OnProgress(sequencesTested, validFound int64, cacheSize int) {}

// DefaultStokeIterations bounds a stoke chain absent an explicit
// Config.StokeIterations; StokeBudget's deadline is expected to cut a
// chain off long before this count is reached.
const DefaultStokeIterations = 2_000_000

// Config controls one optimization run.
type Config struct {
	MaxLength      int
	NumWorkers     int
	Timeout        time.Duration
	IncludeIllegal bool
	ProgressEvery  int64
	Listener       ProgressListener

	// StokeBudget, when positive and the spec's goal is speed, runs the
	// pkg/stoke stochastic pre-pass for up to this long once the
	// deterministic length-ordered search completes, seeded from the
	// current best-so-far (spec.md §4.6, SPEC_FULL.md §5.6). Zero
	// disables it: the accelerant is opt-in.
	StokeBudget     time.Duration
	StokeChains     int
	StokeIterations int
}

func (c Config) withDefaults() Config {
	if c.MaxLength <= 0 {
		c.MaxLength = DefaultMaxLength
	}
	if c.NumWorkers <= 0 {
		c.NumWorkers = runtime.NumCPU()
	}
	if c.ProgressEvery <= 0 {
		c.ProgressEvery = DefaultProgressEvery
	}
	if c.Listener == nil {
		c.Listener = NullListener{}
	}
	if c.StokeChains <= 0 {
		c.StokeChains = runtime.NumCPU()
	}
	if c.StokeIterations <= 0 {
		c.StokeIterations = DefaultStokeIterations
	}
	return c
}

// Result is the outcome of one Optimize call.
type Result struct {
	Instructions    []inst.Instruction
	Metric          int // bytes if the spec's goal is size, cycles if speed
	Cycles          int
	SequencesTested int64
	ValidFound      int64
	Status          Status
}

// Found reports whether Optimize located any verified candidate at all.
func (r Result) Found() bool { return len(r.Instructions) > 0 }

// Driver runs the search for one spec. Shared transformation-cache state
// and best-so-far bookkeeping are protected for concurrent shard access;
// the spec, verifier and opcode table are immutable and read-only once
// built (spec.md §5's shared-resource model).
type Driver struct {
	spec     ospec.OptimizationSpec
	verifier *verify.Engine
	cache    *cache.Cache
	cfg      Config

	mu          sync.Mutex
	best        []inst.Instruction
	bestMetric  int
	haveBest    bool
	maxLenBound int

	tested   atomic.Int64
	found    atomic.Int64
	stop     atomic.Bool
	timedOut atomic.Bool
}

// New builds a Driver with its own private transformation cache.
func New(spec ospec.OptimizationSpec, cfg Config) *Driver {
	return NewWithCache(spec, cfg, cache.New())
}

// NewWithCache builds a Driver sharing an existing transformation cache,
// e.g. across a batch of related specs optimized in the same process.
func NewWithCache(spec ospec.OptimizationSpec, cfg Config, c *cache.Cache) *Driver {
	return &Driver{
		spec:     spec,
		verifier: verify.New(spec),
		cache:    c,
		cfg:      cfg.withDefaults(),
	}
}

// Spec exposes the spec this driver was built for.
func (d *Driver) Spec() ospec.OptimizationSpec { return d.spec }

func (d *Driver) currentMaxLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.maxLenBound
}
