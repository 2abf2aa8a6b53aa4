// Package isa defines the MIPS32 instruction fields and opcode/funct
// classification consumed by the pipeline core.
//
// InstructionInfo is produced by an external instruction emulator (see
// the pipeline.Emulator port) and is read-only data from the core's
// perspective. The classification tables below are closed enumerations:
// every opcode and funct the hazard detector cares about is named here,
// so a new instruction cannot silently bypass the classifier.
package isa

// Opcode is the 6-bit MIPS32 opcode field. Zero denotes an R-type
// instruction, whose operation is carried in Funct instead.
type Opcode uint8

// Funct is the 6-bit MIPS32 function field, meaningful only when Opcode
// is OpR.
type Funct uint8

// Opcodes named in the spec's classification tables. Values follow the
// standard MIPS32 encoding.
const (
	OpR      Opcode = 0x00 // R-type; operation carried in Funct.
	OpBEQ    Opcode = 0x04
	OpBNE    Opcode = 0x05
	OpBLEZ   Opcode = 0x06
	OpBGTZ   Opcode = 0x07
	OpADDI   Opcode = 0x08
	OpADDIU  Opcode = 0x09
	OpSLTI   Opcode = 0x0a
	OpSLTIU  Opcode = 0x0b
	OpANDI   Opcode = 0x0c
	OpORI    Opcode = 0x0d
	OpLUI    Opcode = 0x0f
	OpLW     Opcode = 0x23
	OpLBU    Opcode = 0x24
	OpLHU    Opcode = 0x25
	OpSB     Opcode = 0x28
	OpSH     Opcode = 0x29
	OpSW     Opcode = 0x2b
)

// Functs named in the spec's classification tables (R-type only).
const (
	FnSLL  Funct = 0x00
	FnSRL  Funct = 0x02
	FnJR   Funct = 0x08
	FnADD  Funct = 0x20
	FnADDU Funct = 0x21
	FnSUB  Funct = 0x22
	FnSUBU Funct = 0x23
	FnAND  Funct = 0x24
	FnOR   Funct = 0x25
	FnNOR  Funct = 0x27
	FnSLT  Funct = 0x2a
	FnSLTU Funct = 0x2b
)

// HaltWord is the architectural halt sentinel: a word that does not
// decode to any supported instruction but is recognized by the emulator
// and reported via InstructionInfo.IsHalt.
const HaltWord uint32 = 0xfeedfeed

// ExceptionHandlerPC is the PC the emulator resumes fetching from after
// an exception (invalid opcode or signed overflow). The core trusts the
// emulator to produce this value; it never encodes it itself.
const ExceptionHandlerPC uint32 = 0x00008000

// InstructionInfo is the read-only record the emulator hands the pipeline
// core for each dynamic instruction instance.
type InstructionInfo struct {
	PC          uint32
	Instruction uint32 // Encoded word; 0 denotes a bubble/NOP.
	Opcode      Opcode
	Funct       Funct
	Rs          uint8
	Rt          uint8
	Rd          uint8
	Shamt       uint8
	Immediate   uint16
	Address     uint32

	// LoadAddress/StoreAddress are the effective addresses computed by
	// functional execution. Valid only when Opcode is a load/store
	// respectively.
	LoadAddress  uint32
	StoreAddress uint32

	IsValid    bool // False iff the encoded word does not decode.
	IsOverflow bool // True iff execution detected signed overflow.
	IsHalt     bool // True iff this is the halt sentinel.

	// InstructionID ("din") is the monotonically increasing dynamic
	// instance number assigned at IF.
	InstructionID uint64
}

// NOP is the canonical bubble: zero encoded word, every flag false.
var NOP = InstructionInfo{}

// IsBubble reports whether this slot holds a bubble rather than a real
// dynamic instruction.
func (i InstructionInfo) IsBubble() bool {
	return i.Instruction == 0
}

// writesRT is the closed set of opcodes whose result register is Rt.
var writesRT = map[Opcode]bool{
	OpADDI:  true,
	OpADDIU: true,
	OpANDI:  true,
	OpLBU:   true,
	OpLHU:   true,
	OpLUI:   true,
	OpLW:    true,
	OpORI:   true,
	OpSLTI:  true,
	OpSLTIU: true,
}

// writesRD is the closed set of R-type functs whose result register is Rd.
var writesRD = map[Funct]bool{
	FnADD:  true,
	FnADDU: true,
	FnAND:  true,
	FnNOR:  true,
	FnOR:   true,
	FnSLT:  true,
	FnSLTU: true,
	FnSLL:  true,
	FnSRL:  true,
	FnSUB:  true,
	FnSUBU: true,
}

// loads is the closed set of load opcodes.
var loads = map[Opcode]bool{
	OpLBU: true,
	OpLHU: true,
	OpLW:  true,
}

// twoOperandBranches read both Rs and Rt.
var twoOperandBranches = map[Opcode]bool{
	OpBEQ: true,
	OpBNE: true,
}

// oneOperandBranches read only Rs.
var oneOperandBranches = map[Opcode]bool{
	OpBGTZ: true,
	OpBLEZ: true,
}

// rtReaderFuncts is the closed set of R-type functs that read Rt as a
// source operand in ID.
var rtReaderFuncts = map[Funct]bool{
	FnADD:  true,
	FnADDU: true,
	FnAND:  true,
	FnNOR:  true,
	FnOR:   true,
	FnSLT:  true,
	FnSLTU: true,
	FnSLL:  true,
	FnSRL:  true,
	FnSUB:  true,
	FnSUBU: true,
}

// rtReaderOpcodes is the closed set of non-R-type opcodes that read Rt as
// a source operand in ID (the stores). Loads are excluded: a load's Rt is
// a destination, never a source.
var rtReaderOpcodes = map[Opcode]bool{
	OpSB: true,
	OpSH: true,
	OpSW: true,
}

// rsReaderOpcodes is the closed set of non-R-type opcodes that read Rs as
// a source operand in ID.
var rsReaderOpcodes = map[Opcode]bool{
	OpADDI:  true,
	OpADDIU: true,
	OpANDI:  true,
	OpORI:   true,
	OpSLTI:  true,
	OpSLTIU: true,
	OpLW:    true,
	OpSH:    true,
	OpSW:    true,
	OpLBU:   true,
	OpLHU:   true,
	OpSB:    true,
}

// WritesRT reports whether this instruction's destination register is Rt.
// A bubble never classifies as any producer or consumer: its zero-valued
// Opcode/Funct fields alias real encodings (OpR, FnSLL), so every
// classifier below must check IsBubble first.
func (i InstructionInfo) WritesRT() bool {
	return !i.IsBubble() && writesRT[i.Opcode]
}

// WritesRD reports whether this instruction's destination register is Rd
// (R-type only).
func (i InstructionInfo) WritesRD() bool {
	return !i.IsBubble() && i.Opcode == OpR && writesRD[i.Funct]
}

// IsLoad reports whether this instruction is one of LBU/LHU/LW.
func (i InstructionInfo) IsLoad() bool {
	return !i.IsBubble() && loads[i.Opcode]
}

// IsStore reports whether this instruction is one of SB/SH/SW.
func (i InstructionInfo) IsStore() bool {
	return !i.IsBubble() && (i.Opcode == OpSB || i.Opcode == OpSH || i.Opcode == OpSW)
}

// IsTwoOperandBranch reports whether this is BEQ/BNE (reads Rs and Rt).
func (i InstructionInfo) IsTwoOperandBranch() bool {
	return !i.IsBubble() && twoOperandBranches[i.Opcode]
}

// IsOneOperandBranch reports whether this is BGTZ/BLEZ (reads Rs only).
func (i InstructionInfo) IsOneOperandBranch() bool {
	return !i.IsBubble() && oneOperandBranches[i.Opcode]
}

// IsBranch reports whether this instruction is any of BEQ/BNE/BGTZ/BLEZ.
func (i InstructionInfo) IsBranch() bool {
	return i.IsTwoOperandBranch() || i.IsOneOperandBranch()
}

// ReadsRTAsSource reports whether, in ID, this instruction reads Rt as a
// source operand (as opposed to a destination).
func (i InstructionInfo) ReadsRTAsSource() bool {
	if i.IsBubble() {
		return false
	}
	if i.Opcode == OpR {
		return rtReaderFuncts[i.Funct]
	}
	return rtReaderOpcodes[i.Opcode]
}

// ReadsRSAsSource reports whether, in ID, this instruction reads Rs as a
// source operand.
func (i InstructionInfo) ReadsRSAsSource() bool {
	if i.IsBubble() {
		return false
	}
	if i.Opcode == OpR {
		return rtReaderFuncts[i.Funct] || i.Funct == FnJR
	}
	return rsReaderOpcodes[i.Opcode]
}

// Destination returns the register this instruction writes and whether it
// writes one at all. The zero register (0) is always a legal return value
// here; callers must separately exclude it from hazard checks per spec.
func (i InstructionInfo) Destination() (reg uint8, writes bool) {
	switch {
	case i.WritesRT():
		return i.Rt, true
	case i.WritesRD():
		return i.Rd, true
	default:
		return 0, false
	}
}
