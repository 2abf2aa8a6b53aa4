package refemu

// Memory is a minimal byte-addressable backing store. The spec's memory
// store is an external collaborator out of scope for the core; this is a
// private stand-in sized only for reference-emulator testing, not a
// general-purpose memory model.
type Memory struct {
	bytes map[uint32]uint8
}

// NewMemory returns an empty Memory.
func NewMemory() *Memory {
	return &Memory{bytes: make(map[uint32]uint8)}
}

// Read8 returns the byte at addr, or 0 if never written.
func (m *Memory) Read8(addr uint32) uint8 {
	return m.bytes[addr]
}

// Write8 stores a single byte at addr.
func (m *Memory) Write8(addr uint32, value uint8) {
	m.bytes[addr] = value
}

// Read16 returns a little-endian halfword at addr.
func (m *Memory) Read16(addr uint32) uint16 {
	return uint16(m.Read8(addr)) | uint16(m.Read8(addr+1))<<8
}

// Write16 stores a little-endian halfword at addr.
func (m *Memory) Write16(addr uint32, value uint16) {
	m.Write8(addr, uint8(value))
	m.Write8(addr+1, uint8(value>>8))
}

// Read32 returns a little-endian word at addr.
func (m *Memory) Read32(addr uint32) uint32 {
	return uint32(m.Read16(addr)) | uint32(m.Read16(addr+2))<<16
}

// Write32 stores a little-endian word at addr.
func (m *Memory) Write32(addr uint32, value uint32) {
	m.Write16(addr, uint16(value))
	m.Write16(addr+2, uint16(value>>16))
}
