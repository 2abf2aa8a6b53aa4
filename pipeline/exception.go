package pipeline

import "github.com/archsims/mipscore/isa"

// ExceptionHaltState is the exception/halt tracker's state: a small
// explicit state machine rather than interleaved boolean flags.
// Exceptions are imprecise: a fault is recorded when the
// faulting instruction enters IF, and the squash it causes is deferred
// until that instruction reaches the stage that actually detects the
// fault (ID for invalid decode, EX for signed overflow).
type ExceptionHaltState int

const (
	// Normal: no exception pending, not draining a halt.
	Normal ExceptionHaltState = iota
	// ExceptionPending: an exception was observed at IF; still waiting
	// for the faulting instruction to reach its detection stage.
	ExceptionPending
	// HaltDraining: a halt instruction has entered the pipeline; no new
	// instructions are fetched until it retires.
	HaltDraining
)

// DetectAt identifies the stage an exception is expected to be detected
// at, meaningful only while state == ExceptionPending.
type DetectAt int

const (
	DetectAtNone DetectAt = iota
	DetectAtID            // invalid decode
	DetectAtEX            // signed overflow
)

// SquashDecision is returned by Advance: if Needed, the scheduler must
// squash Stage on the *next* cycle.
type SquashDecision struct {
	Needed bool
	Stage  Stage
}

// ExceptionHaltTracker implements C4: it latches exception/halt state as
// new instructions enter IF and decides, each cycle, whether a squash
// should be scheduled.
type ExceptionHaltTracker struct {
	state    ExceptionHaltState
	detectAt DetectAt
}

// State returns the tracker's current state.
func (t *ExceptionHaltTracker) State() ExceptionHaltState {
	return t.state
}

// Halting reports whether a halt is in flight. Once set it is sticky for
// the rest of the run.
func (t *ExceptionHaltTracker) Halting() bool {
	return t.state == HaltDraining
}

// Excepting reports whether an exception is pending detection.
func (t *ExceptionHaltTracker) Excepting() bool {
	return t.state == ExceptionPending
}

// SuppressFetch reports whether the scheduler should feed a bubble to
// Propagate instead of fetching a new instruction this cycle.
func (t *ExceptionHaltTracker) SuppressFetch() bool {
	return t.Halting() || t.Excepting()
}

// ObserveIF latches new state from the instruction that just entered IF.
// handleHalt: ifInstr.IsHalt is sticky, and wins over a concurrently
// observed exception (a halt sentinel does not also decode validly).
// handleException: ifInstr.IsOverflow or !ifInstr.IsValid arms
// ExceptionPending, with the detection stage depending on which flag
// fired. If an exception is already pending, a newly observed one is
// ignored: the pipeline holds at most one imprecise exception in flight,
// since the eventual squash flushes everything fetched behind it anyway.
func (t *ExceptionHaltTracker) ObserveIF(ifInstr isa.InstructionInfo) {
	if ifInstr.IsHalt {
		t.state = HaltDraining
		return
	}
	if t.state == HaltDraining {
		return
	}
	if t.state == ExceptionPending {
		return
	}
	if ifInstr.IsBubble() {
		return
	}
	if !ifInstr.IsValid {
		t.state = ExceptionPending
		t.detectAt = DetectAtID
		return
	}
	if ifInstr.IsOverflow {
		t.state = ExceptionPending
		t.detectAt = DetectAtEX
	}
}

// Advance inspects the current in-flight snapshot for the condition that
// would physically detect the pending exception and, if found, returns a
// decision to squash that stage next cycle, clearing the pending latch.
func (t *ExceptionHaltTracker) Advance(regs Registers) SquashDecision {
	if t.state != ExceptionPending {
		return SquashDecision{}
	}
	switch t.detectAt {
	case DetectAtID:
		if !regs.ID.IsValid && !regs.ID.IsBubble() {
			t.state = Normal
			t.detectAt = DetectAtNone
			return SquashDecision{Needed: true, Stage: ID}
		}
	case DetectAtEX:
		if regs.EX.IsOverflow {
			t.state = Normal
			t.detectAt = DetectAtNone
			return SquashDecision{Needed: true, Stage: EX}
		}
	}
	return SquashDecision{}
}
