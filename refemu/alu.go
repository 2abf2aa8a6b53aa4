package refemu

// ALU implements the MIPS32 arithmetic and logic operations this
// reference emulator supports.
type ALU struct {
	regFile *RegFile
}

// NewALU creates an ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// addOverflows reports whether op1+op2, interpreted as signed 32-bit
// values, overflows: the classic same-sign-operands-differing-sign-result
// test.
func addOverflows(op1, op2, result uint32) bool {
	signsMatch := (op1^op2)&0x80000000 == 0
	resultDiffers := (op1^result)&0x80000000 != 0
	return signsMatch && resultDiffers
}

// subOverflows reports whether op1-op2, interpreted as signed 32-bit
// values, overflows.
func subOverflows(op1, op2, result uint32) bool {
	signsDiffer := (op1^op2)&0x80000000 != 0
	resultDiffersFromOp1 := (op1^result)&0x80000000 != 0
	return signsDiffer && resultDiffersFromOp1
}

// Add performs signed ADD: rd = rs + rt. overflow reports a trapped
// signed overflow; the destination is still written per MIPS semantics
// questions aside, since the core squashes on overflow rather than
// relying on the emulator to suppress the write.
func (a *ALU) Add(rd, rs, rt uint8) (overflow bool) {
	op1, op2 := a.regFile.Read(rs), a.regFile.Read(rt)
	result := op1 + op2
	a.regFile.Write(rd, result)
	return addOverflows(op1, op2, result)
}

// AddImmediate performs signed ADDI: rt = rs + signExtend(imm).
func (a *ALU) AddImmediate(rt, rs uint8, imm uint16) (overflow bool) {
	op1 := a.regFile.Read(rs)
	op2 := uint32(int32(int16(imm)))
	result := op1 + op2
	a.regFile.Write(rt, result)
	return addOverflows(op1, op2, result)
}

// AddUnsigned performs ADDU: rd = rs + rt, no overflow trap.
func (a *ALU) AddUnsigned(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)+a.regFile.Read(rt))
}

// AddImmediateUnsigned performs ADDIU: rt = rs + signExtend(imm), no trap.
func (a *ALU) AddImmediateUnsigned(rt, rs uint8, imm uint16) {
	a.regFile.Write(rt, a.regFile.Read(rs)+uint32(int32(int16(imm))))
}

// Sub performs signed SUB: rd = rs - rt.
func (a *ALU) Sub(rd, rs, rt uint8) (overflow bool) {
	op1, op2 := a.regFile.Read(rs), a.regFile.Read(rt)
	result := op1 - op2
	a.regFile.Write(rd, result)
	return subOverflows(op1, op2, result)
}

// SubUnsigned performs SUBU: rd = rs - rt, no overflow trap.
func (a *ALU) SubUnsigned(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)-a.regFile.Read(rt))
}

// And performs bitwise AND: rd = rs & rt.
func (a *ALU) And(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)&a.regFile.Read(rt))
}

// AndImmediate performs ANDI: rt = rs & zeroExtend(imm).
func (a *ALU) AndImmediate(rt, rs uint8, imm uint16) {
	a.regFile.Write(rt, a.regFile.Read(rs)&uint32(imm))
}

// Or performs bitwise OR: rd = rs | rt.
func (a *ALU) Or(rd, rs, rt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rs)|a.regFile.Read(rt))
}

// OrImmediate performs ORI: rt = rs | zeroExtend(imm).
func (a *ALU) OrImmediate(rt, rs uint8, imm uint16) {
	a.regFile.Write(rt, a.regFile.Read(rs)|uint32(imm))
}

// Nor performs bitwise NOR: rd = ^(rs | rt).
func (a *ALU) Nor(rd, rs, rt uint8) {
	a.regFile.Write(rd, ^(a.regFile.Read(rs) | a.regFile.Read(rt)))
}

// SetLessThan performs signed SLT: rd = 1 if rs < rt else 0.
func (a *ALU) SetLessThan(rd, rs, rt uint8) {
	if int32(a.regFile.Read(rs)) < int32(a.regFile.Read(rt)) {
		a.regFile.Write(rd, 1)
		return
	}
	a.regFile.Write(rd, 0)
}

// SetLessThanImmediate performs signed SLTI.
func (a *ALU) SetLessThanImmediate(rt, rs uint8, imm uint16) {
	if int32(a.regFile.Read(rs)) < int32(int16(imm)) {
		a.regFile.Write(rt, 1)
		return
	}
	a.regFile.Write(rt, 0)
}

// SetLessThanUnsigned performs unsigned SLTU.
func (a *ALU) SetLessThanUnsigned(rd, rs, rt uint8) {
	if a.regFile.Read(rs) < a.regFile.Read(rt) {
		a.regFile.Write(rd, 1)
		return
	}
	a.regFile.Write(rd, 0)
}

// SetLessThanImmediateUnsigned performs unsigned SLTIU: the immediate is
// sign-extended to 32 bits before the unsigned comparison, per MIPS32.
func (a *ALU) SetLessThanImmediateUnsigned(rt, rs uint8, imm uint16) {
	signExtended := uint32(int32(int16(imm)))
	if a.regFile.Read(rs) < signExtended {
		a.regFile.Write(rt, 1)
		return
	}
	a.regFile.Write(rt, 0)
}

// ShiftLeftLogical performs SLL: rd = rt << shamt.
func (a *ALU) ShiftLeftLogical(rd, rt, shamt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rt)<<shamt)
}

// ShiftRightLogical performs SRL: rd = rt >> shamt.
func (a *ALU) ShiftRightLogical(rd, rt, shamt uint8) {
	a.regFile.Write(rd, a.regFile.Read(rt)>>shamt)
}

// LoadUpperImmediate performs LUI: rt = imm << 16.
func (a *ALU) LoadUpperImmediate(rt uint8, imm uint16) {
	a.regFile.Write(rt, uint32(imm)<<16)
}
