package pipeline

import (
	"github.com/archsims/mipscore/cache"
	"github.com/archsims/mipscore/isa"
)

// Memory is an opaque handle to the backing memory store. The memory
// store itself is an external collaborator (out of scope for this core);
// the core never dereferences it, only hands it to the emulator.
type Memory = any

// Emulator is the external collaborator that functionally executes MIPS
// semantics. The core trusts its flags and addresses without
// re-validating them.
type Emulator interface {
	// ExecuteInstruction advances the emulator's own PC and architectural
	// state exactly once and returns the resulting InstructionInfo.
	ExecuteInstruction() isa.InstructionInfo
	// Din returns the total number of dynamic instructions executed so far.
	Din() uint64
	// SetMemory binds the backing store the emulator reads/writes.
	SetMemory(m Memory)
	// DumpRegMem writes final architectural state to basename.
	DumpRegMem(basename string) error
}

// Snapshot is the per-cycle record handed to the output sink.
type Snapshot struct {
	Cycle uint64
	Words [5]uint32
}

// StepOutcome reports what happened during one Engine.Step call.
type StepOutcome int

const (
	StepContinue StepOutcome = iota
	StepHalted
)

// Engine is the stateful cycle scheduler: it owns the hazard detector, the
// register-advance primitives, the exception/halt tracker, and the
// per-cycle orchestration that ties them together.
type Engine struct {
	iCache *cache.Cache
	dCache *cache.Cache

	regs Registers

	cycleCount uint64
	loadStalls uint64

	// Stall latches. exStall and wbStall are always false: the hazard
	// detector collapses all three hazard classes into idStall, since the
	// advance primitives already distinguish stages by who holds what;
	// both are retained for symmetry with the other named latches.
	ifStall, idStall, exStall, memStall, wbStall bool

	iCacheDelay uint64
	dCacheDelay uint64

	hazard    *HazardDetector
	exception *ExceptionHaltTracker
	pending   SquashDecision
}

// NewEngine creates an Engine bound to the given instruction and data
// caches, with all pipeline slots holding NOP and all latches clear.
func NewEngine(iCache, dCache *cache.Cache) *Engine {
	return &Engine{
		iCache:    iCache,
		dCache:    dCache,
		hazard:    NewHazardDetector(),
		exception: &ExceptionHaltTracker{},
	}
}

// CycleCount returns the number of cycles simulated so far.
func (e *Engine) CycleCount() uint64 {
	return e.cycleCount
}

// LoadStalls returns the number of distinct load-use/load-branch
// dependency pairs detected so far.
func (e *Engine) LoadStalls() uint64 {
	return e.loadStalls
}

// Registers returns the current pipeline register snapshot.
func (e *Engine) Registers() Registers {
	return e.regs
}

// currentStalledStage returns the highest-priority asserted stall latch
// (MEM > EX > ID > IF), and whether any latch was asserted at all.
func (e *Engine) currentStalledStage() (Stage, bool) {
	switch {
	case e.memStall:
		return MEM, true
	case e.exStall:
		return EX, true
	case e.idStall:
		return ID, true
	case e.ifStall:
		return IF, true
	default:
		return 0, false
	}
}

// Step advances the engine by exactly one cycle.
func (e *Engine) Step(emulator Emulator) (StepOutcome, error) {
	stage, stalled := e.currentStalledStage()

	if stalled {
		if stage == WB {
			return StepContinue, errStallAtWB
		}
		next, err := StallAt(e.regs, stage)
		if err != nil {
			return StepContinue, err
		}
		e.regs = next
	} else {
		base := e.regs
		if e.pending.Needed {
			base = Squash(base, e.pending.Stage)
			e.pending = SquashDecision{}
		}

		var incoming isa.InstructionInfo
		if e.exception.SuppressFetch() {
			incoming = isa.NOP
		} else {
			incoming = emulator.ExecuteInstruction()
		}
		e.regs = Propagate(base, incoming)
	}

	// Halt-at-WB terminal check: the 5-cycle drain falls out naturally
	// from the halt sentinel propagating through WB over successive
	// cycles while SuppressFetch() feeds bubbles behind it.
	if e.regs.WB.IsHalt {
		e.cycleCount++
		return StepHalted, nil
	}

	e.stepCacheAndHazards(stage, stalled)

	e.exception.ObserveIF(e.regs.IF)
	e.pending = e.exception.Advance(e.regs)

	e.cycleCount++
	return StepContinue, nil
}

// stepCacheAndHazards runs cache probing, delay countdown, and hazard
// detection for the cycle just advanced.
func (e *Engine) stepCacheAndHazards(stalledStage Stage, stalled bool) {
	e.ifStall = false
	e.idStall = false
	e.exStall = false
	e.memStall = false
	e.wbStall = false

	if !stalled && !e.regs.IF.IsBubble() {
		if !e.iCache.Access(e.regs.IF.PC, cache.Read) {
			e.iCacheDelay = uint64(e.iCache.Config().MissLatency)
		}
	}

	memStalledThisCycle := stalled && stalledStage == MEM
	if !memStalledThisCycle && !e.regs.MEM.IsBubble() && (e.regs.MEM.IsLoad() || e.regs.MEM.IsStore()) {
		addr, op := memAccess(e.regs.MEM)
		if !e.dCache.Access(addr, op) {
			e.dCacheDelay = uint64(e.dCache.Config().MissLatency)
		}
	}

	e.ifStall = e.iCacheDelay > 0
	e.memStall = e.dCacheDelay > 0

	if e.iCacheDelay > 0 {
		e.iCacheDelay--
	}
	if e.dCacheDelay > 0 {
		e.dCacheDelay--
	}

	signals, delta := e.hazard.Detect(e.regs)
	e.idStall = e.idStall || signals.Any()
	e.loadStalls += uint64(delta)
}

// memAccess returns the effective address and access kind for the MEM
// slot's load or store.
func memAccess(info isa.InstructionInfo) (uint32, cache.Op) {
	if info.IsLoad() {
		return info.LoadAddress, cache.Read
	}
	return info.StoreAddress, cache.Write
}
