package refemu

// LoadStoreUnit implements the MIPS32 load and store subset this
// reference emulator supports.
type LoadStoreUnit struct {
	regFile *RegFile
	memory  *Memory
}

// NewLoadStoreUnit creates a LoadStoreUnit connected to the given
// register file and memory.
func NewLoadStoreUnit(regFile *RegFile, memory *Memory) *LoadStoreUnit {
	return &LoadStoreUnit{regFile: regFile, memory: memory}
}

// effectiveAddress computes rs + signExtend(imm).
func (l *LoadStoreUnit) effectiveAddress(rs uint8, imm uint16) uint32 {
	return l.regFile.Read(rs) + uint32(int32(int16(imm)))
}

// LoadWord performs LW: rt = mem[rs+imm] (32-bit).
func (l *LoadStoreUnit) LoadWord(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.regFile.Write(rt, l.memory.Read32(addr))
	return addr
}

// LoadByteUnsigned performs LBU: rt = zeroExtend(mem[rs+imm]) (8-bit).
func (l *LoadStoreUnit) LoadByteUnsigned(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.regFile.Write(rt, uint32(l.memory.Read8(addr)))
	return addr
}

// LoadHalfUnsigned performs LHU: rt = zeroExtend(mem[rs+imm]) (16-bit).
func (l *LoadStoreUnit) LoadHalfUnsigned(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.regFile.Write(rt, uint32(l.memory.Read16(addr)))
	return addr
}

// StoreWord performs SW: mem[rs+imm] = rt (32-bit).
func (l *LoadStoreUnit) StoreWord(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.memory.Write32(addr, l.regFile.Read(rt))
	return addr
}

// StoreByte performs SB: mem[rs+imm] = rt[7:0].
func (l *LoadStoreUnit) StoreByte(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.memory.Write8(addr, uint8(l.regFile.Read(rt)))
	return addr
}

// StoreHalf performs SH: mem[rs+imm] = rt[15:0].
func (l *LoadStoreUnit) StoreHalf(rt, rs uint8, imm uint16) (addr uint32) {
	addr = l.effectiveAddress(rs, imm)
	l.memory.Write16(addr, uint16(l.regFile.Read(rt)))
	return addr
}
