// Package pipeline implements the MIPS five-stage in-order pipeline core:
// the advance primitives, the hazard detector, the exception/halt
// tracker, and the per-cycle orchestration that ties them together.
package pipeline

import "github.com/archsims/mipscore/isa"

// Stage identifies one of the five pipeline stages.
type Stage int

const (
	IF Stage = iota
	ID
	EX
	MEM
	WB
)

// Registers holds the five in-flight instruction slots. The raw encoded
// words used for snapshot dumping are not stored separately: RawWords
// derives them from the slots, so they always match the InstructionInfo set.
type Registers struct {
	IF, ID, EX, MEM, WB isa.InstructionInfo
}

// RawWords returns the five raw encoded words in stage order, for
// snapshot dumping.
func (r Registers) RawWords() [5]uint32 {
	return [5]uint32{
		r.IF.Instruction,
		r.ID.Instruction,
		r.EX.Instruction,
		r.MEM.Instruction,
		r.WB.Instruction,
	}
}

// slot returns a pointer to the named stage's slot.
func (r *Registers) slot(s Stage) *isa.InstructionInfo {
	switch s {
	case IF:
		return &r.IF
	case ID:
		return &r.ID
	case EX:
		return &r.EX
	case MEM:
		return &r.MEM
	case WB:
		return &r.WB
	default:
		panic("pipeline: invalid stage")
	}
}

// Propagate computes the unstalled next-cycle register set: WB<-MEM,
// MEM<-EX, EX<-ID, ID<-IF, IF<-incoming. It reads only from prev (the
// previous cycle's snapshot) so cyclic in-place aliasing never occurs.
func Propagate(prev Registers, incoming isa.InstructionInfo) Registers {
	return Registers{
		IF:  incoming,
		ID:  prev.IF,
		EX:  prev.ID,
		MEM: prev.EX,
		WB:  prev.MEM,
	}
}

// StallAt advances all stages strictly downstream of stage as Propagate
// does, holds all stages at and upstream of stage, and inserts a bubble
// into the slot immediately downstream of the held region. StallAt(WB) is
// illegal: there is no stage downstream of WB to shift into.
func StallAt(prev Registers, stage Stage) (Registers, error) {
	switch stage {
	case IF:
		return Registers{IF: prev.IF, ID: isa.NOP, EX: prev.ID, MEM: prev.EX, WB: prev.MEM}, nil
	case ID:
		return Registers{IF: prev.IF, ID: prev.ID, EX: isa.NOP, MEM: prev.EX, WB: prev.MEM}, nil
	case EX:
		return Registers{IF: prev.IF, ID: prev.ID, EX: prev.EX, MEM: isa.NOP, WB: prev.MEM}, nil
	case MEM:
		return Registers{IF: prev.IF, ID: prev.ID, EX: prev.EX, MEM: prev.MEM, WB: isa.NOP}, nil
	default:
		return Registers{}, errStallAtWB
	}
}

// Squash replaces the instruction currently at stage with a bubble in
// place; no other slot shifts.
func Squash(regs Registers, stage Stage) Registers {
	next := regs
	*next.slot(stage) = isa.NOP
	return next
}
