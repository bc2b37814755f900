package optimizer

import (
	"testing"
	"time"

	"github.com/ilmenit/Phaistos/pkg/enumerate"
	"github.com/ilmenit/Phaistos/pkg/inst"
	"github.com/ilmenit/Phaistos/pkg/ospec"
	"github.com/ilmenit/Phaistos/pkg/value"
)

// exactXSpec asks for X == 3 regardless of the starting state, searching
// for size: the shortest candidate realizing it is a single LDX #3.
func exactXSpec() ospec.OptimizationSpec {
	return ospec.OptimizationSpec{
		Goal:       ospec.Size,
		RunAddress: 0x0800,
		InputCPU:   ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
		OutputCPU:  ospec.CPUState{A: value.AnyValue(), X: value.ExactValue(3), Y: value.AnyValue(), SP: value.AnyValue()},
		OutputFlags: ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()},
	}
}

func TestOptimizeFindsSingleInstructionSolution(t *testing.T) {
	cfg := Config{MaxLength: 2, NumWorkers: 2, Timeout: 10 * time.Second}
	d := New(exactXSpec(), cfg)
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected the search to find a candidate realizing X == 3")
	}
	if len(res.Instructions) != 1 {
		t.Errorf("expected a 1-instruction solution (LDX #3), got %d instructions", len(res.Instructions))
	}
	if res.Status != Done {
		t.Errorf("expected status Done for a size goal that found its optimum, got %v", res.Status)
	}
}

func TestOptimizeStopsAtSizeGoalWithoutExhaustingLength(t *testing.T) {
	cfg := Config{MaxLength: DefaultMaxLength, NumWorkers: 2, Timeout: 10 * time.Second}
	d := New(exactXSpec(), cfg)
	res := d.Optimize()

	if res.SequencesTested >= int64(DefaultMaxLength)*int64(DefaultMaxLength) {
		t.Error("a size-goal search should stop as soon as length 1 succeeds, not explore every length up to MaxLength")
	}
}

func TestOptimizeReportsSequencesTested(t *testing.T) {
	d := New(exactXSpec(), Config{MaxLength: 1, NumWorkers: 2})
	res := d.Optimize()
	if res.SequencesTested == 0 {
		t.Error("expected at least one candidate to have been tested")
	}
}

type recordingListener struct {
	bests int
}

func (l *recordingListener) OnNewBest(bytes []byte, metric int, sequencesTested int64) { l.bests++ }
func (l *recordingListener) OnProgress(sequencesTested, validFound int64, cacheSize int) {}

func TestOptimizeNotifiesListenerOnBest(t *testing.T) {
	listener := &recordingListener{}
	cfg := Config{MaxLength: 2, NumWorkers: 2, Listener: listener}
	d := New(exactXSpec(), cfg)
	d.Optimize()
	if listener.bests == 0 {
		t.Error("expected OnNewBest to fire at least once")
	}
}

// exactYSpeedSpec asks for Y == 7 regardless of the starting state,
// optimizing for speed rather than size.
func exactYSpeedSpec() ospec.OptimizationSpec {
	any7 := ospec.FlagState{C: value.AnyValue(), Z: value.AnyValue(), I: value.AnyValue(), D: value.AnyValue(), B: value.AnyValue(), V: value.AnyValue(), N: value.AnyValue()}
	return ospec.OptimizationSpec{
		Goal:        ospec.Speed,
		RunAddress:  0x0800,
		InputCPU:    ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.AnyValue(), SP: value.AnyValue()},
		InputFlags:  any7,
		OutputCPU:   ospec.CPUState{A: value.AnyValue(), X: value.AnyValue(), Y: value.ExactValue(7), SP: value.AnyValue()},
		OutputFlags: any7,
	}
}

func TestOptimizeWithStokeBudgetCompletesForSpeedGoal(t *testing.T) {
	cfg := Config{
		MaxLength:       2,
		NumWorkers:      2,
		Timeout:         5 * time.Second,
		StokeBudget:     50 * time.Millisecond,
		StokeIterations: 50_000,
	}
	d := New(exactYSpeedSpec(), cfg)
	res := d.Optimize()

	if !res.Found() {
		t.Fatal("expected the search to find a candidate realizing Y == 7")
	}
	if res.Status == TimedOut {
		t.Error("expected the small search plus a short stoke budget to finish within the timeout")
	}
}

func TestRunStokePassNoopWithoutBestFound(t *testing.T) {
	cfg := Config{MaxLength: 1, NumWorkers: 1, StokeBudget: 10 * time.Millisecond}
	d := New(exactYSpeedSpec(), cfg)
	// No search has run yet, so there is no best-so-far to mutate away from.
	d.runStokePass(time.Time{}, false)
	if d.haveBest {
		t.Error("runStokePass should not fabricate a best when none exists")
	}
}

func TestCandidatesForShardFixesFirstInstruction(t *testing.T) {
	first := inst.Instruction{Op: 0xE8} // INX
	cfg := enumerate.DefaultConfig()
	count := 0
	candidatesForShard(first, 2, cfg, func(seq []inst.Instruction) bool {
		count++
		if seq[0] != first {
			t.Fatalf("expected every candidate's first instruction to be %v, got %v", first, seq[0])
		}
		return true
	})
	if count == 0 {
		t.Error("expected at least one length-2 candidate")
	}
}
