// Package core provides the public driver API (C6): a thin façade over
// the pipeline engine that construct caches, drives cycles, and emits the
// final statistics record.
package core

import (
	"fmt"

	"github.com/archsims/mipscore/cache"
	"github.com/archsims/mipscore/pipeline"
)

// Status is the outcome of a driver call.
type Status int

const (
	// StatusSuccess: the requested cycles completed without halting.
	StatusSuccess Status = iota
	// StatusHalt: the pipeline drained a halt instruction out of WB.
	StatusHalt
	// StatusError: an unrecoverable programming invariant was violated.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusHalt:
		return "HALT"
	case StatusError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// SimulationStats is the final record emitted at Finalize.
type SimulationStats struct {
	DynamicInstructions uint64
	CycleCount          uint64
	IHits               uint64
	IMisses             uint64
	DHits               uint64
	DMisses             uint64
	LoadStalls          uint64
}

// OutputSink is the external collaborator that serializes per-cycle
// pipeline snapshots and the final statistics record. It is out of scope
// for this core; the dump package provides a reference implementation.
type OutputSink interface {
	DumpSnapshot(snapshot pipeline.Snapshot) error
	DumpStats(stats SimulationStats) error
}

// Simulator is the C6 façade: construct with NewSimulator, bind resources
// with Init, then drive with RunCycles/RunTillHalt and close out with
// Finalize.
type Simulator struct {
	engine         *pipeline.Engine
	emulator       pipeline.Emulator
	iCache         *cache.Cache
	dCache         *cache.Cache
	sink           OutputSink
	outputBasename string
	initialized    bool
}

// NewSimulator returns an unbound Simulator; call Init before driving it.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// Init constructs the instruction and data caches from the given configs,
// binds the emulator to memory, and remembers the output basename and
// sink for Finalize. A malformed CacheConfig is a programming error and
// yields StatusError.
func (s *Simulator) Init(
	iCacheCfg, dCacheCfg cache.Config,
	emulator pipeline.Emulator,
	memory pipeline.Memory,
	outputBasename string,
	sink OutputSink,
) (Status, error) {
	iCache, err := cache.New(iCacheCfg)
	if err != nil {
		return StatusError, fmt.Errorf("core: init: %w", err)
	}
	dCache, err := cache.New(dCacheCfg)
	if err != nil {
		return StatusError, fmt.Errorf("core: init: %w", err)
	}

	emulator.SetMemory(memory)

	s.engine = pipeline.NewEngine(iCache, dCache)
	s.emulator = emulator
	s.iCache = iCache
	s.dCache = dCache
	s.sink = sink
	s.outputBasename = outputBasename
	s.initialized = true

	return StatusSuccess, nil
}

// RunCycles drives n cycles (or until halt if n is 0). It returns HALT as
// soon as a halt instruction drains out of WB, SUCCESS on cycle
// exhaustion without a halt, and ERROR on a fatal invariant violation.
func (s *Simulator) RunCycles(n int) (Status, error) {
	if !s.initialized {
		return StatusError, fmt.Errorf("core: RunCycles called before Init")
	}

	unbounded := n == 0
	for i := 0; unbounded || i < n; i++ {
		outcome, err := s.engine.Step(s.emulator)
		if err != nil {
			return StatusError, fmt.Errorf("core: step: %w", err)
		}

		if s.sink != nil {
			regs := s.engine.Registers()
			snapshot := pipeline.Snapshot{
				Cycle: s.engine.CycleCount(),
				Words: regs.RawWords(),
			}
			if err := s.sink.DumpSnapshot(snapshot); err != nil {
				return StatusError, fmt.Errorf("core: dump snapshot: %w", err)
			}
		}

		if outcome == pipeline.StepHalted {
			return StatusHalt, nil
		}
	}

	return StatusSuccess, nil
}

// RunTillHalt repeatedly invokes RunCycles(1) until it returns HALT (or a
// fatal error occurs first).
func (s *Simulator) RunTillHalt() (Status, error) {
	for {
		status, err := s.RunCycles(1)
		if err != nil {
			return status, err
		}
		if status == StatusHalt {
			return status, nil
		}
	}
}

// Finalize emits the final register/memory dump via the emulator and the
// SimulationStats record via the output sink.
func (s *Simulator) Finalize() (Status, error) {
	if !s.initialized {
		return StatusError, fmt.Errorf("core: Finalize called before Init")
	}

	if err := s.emulator.DumpRegMem(s.outputBasename); err != nil {
		return StatusError, fmt.Errorf("core: dump reg/mem: %w", err)
	}

	if s.sink != nil {
		stats := s.Stats()
		if err := s.sink.DumpStats(stats); err != nil {
			return StatusError, fmt.Errorf("core: dump stats: %w", err)
		}
	}

	return StatusSuccess, nil
}

// Stats assembles the current SimulationStats snapshot without requiring
// a halt; Finalize uses this internally, and callers may poll it mid-run.
func (s *Simulator) Stats() SimulationStats {
	return SimulationStats{
		DynamicInstructions: s.emulator.Din(),
		CycleCount:          s.engine.CycleCount(),
		IHits:               s.iCache.Hits(),
		IMisses:             s.iCache.Misses(),
		DHits:               s.dCache.Hits(),
		DMisses:             s.dCache.Misses(),
		LoadStalls:          s.engine.LoadStalls(),
	}
}
