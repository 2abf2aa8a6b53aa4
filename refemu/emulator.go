// Package refemu is a minimal, direct MIPS32 subset interpreter. It is a
// reference implementation of the instruction emulator, which the spec
// declares an external collaborator out of scope for the pipeline core;
// this package exists only so the core is runnable end to end.
package refemu

import (
	"fmt"
	"os"

	"github.com/archsims/mipscore/isa"
	"github.com/archsims/mipscore/pipeline"
)

// Option configures an Emulator at construction time.
type Option func(*Emulator)

// WithPC sets the emulator's initial program counter.
func WithPC(pc uint32) Option {
	return func(e *Emulator) { e.pc = pc }
}

// Emulator functionally executes the MIPS32 subset named in isa.go. Each
// ExecuteInstruction call fetches, decodes, and executes exactly one
// dynamic instruction and advances the emulator's own PC.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	alu     *ALU
	lsu     *LoadStoreUnit

	pc                uint32
	nextInstructionID uint64
}

// NewEmulator creates an Emulator with its own private memory and
// register file; SetMemory may later bind a different backing store.
func NewEmulator(opts ...Option) *Emulator {
	regFile := &RegFile{}
	memory := NewMemory()

	e := &Emulator{
		regFile: regFile,
		memory:  memory,
		alu:     NewALU(regFile),
		lsu:     NewLoadStoreUnit(regFile, memory),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// PC returns the emulator's current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// Memory returns the emulator's currently bound backing store, for tests
// that need to preload program bytes.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// RegFile returns the emulator's register file, for tests that need to
// inspect architectural state.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// SetMemory binds the backing store the emulator reads and writes. A nil
// or differently-typed m leaves the emulator's own private memory in
// place, since the memory store is an external collaborator this
// reference implementation does not require.
func (e *Emulator) SetMemory(m pipeline.Memory) {
	mem, ok := m.(*Memory)
	if !ok || mem == nil {
		return
	}
	e.memory = mem
	e.lsu = NewLoadStoreUnit(e.regFile, mem)
}

// Din returns the number of dynamic instructions executed so far.
func (e *Emulator) Din() uint64 {
	return e.nextInstructionID
}

// DumpRegMem writes final register file contents to "<basename>.regs".
func (e *Emulator) DumpRegMem(basename string) error {
	var out string
	for i, v := range e.regFile.R {
		out += fmt.Sprintf("r%-2d = 0x%08x\n", i, v)
	}
	out += fmt.Sprintf("pc  = 0x%08x\n", e.pc)

	if err := os.WriteFile(basename+".regs", []byte(out), 0644); err != nil {
		return fmt.Errorf("refemu: dump reg/mem: %w", err)
	}
	return nil
}

// ExecuteInstruction fetches the word at the current PC, decodes it,
// executes it against the bound register file and memory, advances PC
// (including taken branches), and returns the resulting InstructionInfo.
func (e *Emulator) ExecuteInstruction() isa.InstructionInfo {
	pc := e.pc
	word := e.memory.Read32(pc)
	id := e.nextInstructionID + 1
	e.nextInstructionID = id

	if word == isa.HaltWord {
		e.pc = pc + 4
		return isa.InstructionInfo{
			PC: pc, Instruction: word, IsValid: true, IsHalt: true, InstructionID: id,
		}
	}

	opcode := isa.Opcode((word >> 26) & 0x3f)
	rs := uint8((word >> 21) & 0x1f)
	rt := uint8((word >> 16) & 0x1f)
	rd := uint8((word >> 11) & 0x1f)
	shamt := uint8((word >> 6) & 0x1f)
	funct := isa.Funct(word & 0x3f)
	imm := uint16(word & 0xffff)

	info := isa.InstructionInfo{
		PC: pc, Instruction: word, Opcode: opcode, Funct: funct,
		Rs: rs, Rt: rt, Rd: rd, Shamt: shamt, Immediate: imm,
		IsValid: true, InstructionID: id,
	}

	nextPC := pc + 4

	switch opcode {
	case isa.OpR:
		e.executeRType(&info, rd, rs, rt, shamt, funct)
		if funct == isa.FnJR {
			nextPC = e.regFile.Read(rs)
		}
	case isa.OpADDI:
		info.IsOverflow = e.alu.AddImmediate(rt, rs, imm)
	case isa.OpADDIU:
		e.alu.AddImmediateUnsigned(rt, rs, imm)
	case isa.OpSLTI:
		e.alu.SetLessThanImmediate(rt, rs, imm)
	case isa.OpSLTIU:
		e.alu.SetLessThanImmediateUnsigned(rt, rs, imm)
	case isa.OpANDI:
		e.alu.AndImmediate(rt, rs, imm)
	case isa.OpORI:
		e.alu.OrImmediate(rt, rs, imm)
	case isa.OpLUI:
		e.alu.LoadUpperImmediate(rt, imm)
	case isa.OpLW:
		info.LoadAddress = e.lsu.LoadWord(rt, rs, imm)
	case isa.OpLBU:
		info.LoadAddress = e.lsu.LoadByteUnsigned(rt, rs, imm)
	case isa.OpLHU:
		info.LoadAddress = e.lsu.LoadHalfUnsigned(rt, rs, imm)
	case isa.OpSB:
		info.StoreAddress = e.lsu.StoreByte(rt, rs, imm)
	case isa.OpSH:
		info.StoreAddress = e.lsu.StoreHalf(rt, rs, imm)
	case isa.OpSW:
		info.StoreAddress = e.lsu.StoreWord(rt, rs, imm)
	case isa.OpBEQ, isa.OpBNE, isa.OpBLEZ, isa.OpBGTZ:
		target := pc + 4 + uint32(int32(int16(imm))<<2)
		info.Address = target
		if e.branchTaken(opcode, rs, rt) {
			nextPC = target
		}
	default:
		info.IsValid = false
	}

	if !info.IsValid || info.IsOverflow {
		nextPC = isa.ExceptionHandlerPC
	}

	e.pc = nextPC
	return info
}

// executeRType dispatches the funct-coded ALU operations.
func (e *Emulator) executeRType(info *isa.InstructionInfo, rd, rs, rt, shamt uint8, funct isa.Funct) {
	switch funct {
	case isa.FnSLL:
		e.alu.ShiftLeftLogical(rd, rt, shamt)
	case isa.FnSRL:
		e.alu.ShiftRightLogical(rd, rt, shamt)
	case isa.FnJR:
		// Handled by the caller, which needs rs to redirect PC.
	case isa.FnADD:
		info.IsOverflow = e.alu.Add(rd, rs, rt)
	case isa.FnADDU:
		e.alu.AddUnsigned(rd, rs, rt)
	case isa.FnSUB:
		info.IsOverflow = e.alu.Sub(rd, rs, rt)
	case isa.FnSUBU:
		e.alu.SubUnsigned(rd, rs, rt)
	case isa.FnAND:
		e.alu.And(rd, rs, rt)
	case isa.FnOR:
		e.alu.Or(rd, rs, rt)
	case isa.FnNOR:
		e.alu.Nor(rd, rs, rt)
	case isa.FnSLT:
		e.alu.SetLessThan(rd, rs, rt)
	case isa.FnSLTU:
		e.alu.SetLessThanUnsigned(rd, rs, rt)
	default:
		info.IsValid = false
	}
}

// branchTaken evaluates the branch condition for the given two/one
// operand branch opcode.
func (e *Emulator) branchTaken(opcode isa.Opcode, rs, rt uint8) bool {
	switch opcode {
	case isa.OpBEQ:
		return e.regFile.Read(rs) == e.regFile.Read(rt)
	case isa.OpBNE:
		return e.regFile.Read(rs) != e.regFile.Read(rt)
	case isa.OpBLEZ:
		return int32(e.regFile.Read(rs)) <= 0
	case isa.OpBGTZ:
		return int32(e.regFile.Read(rs)) > 0
	default:
		return false
	}
}
