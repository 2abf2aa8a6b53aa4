package refemu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsims/mipscore/isa"
	"github.com/archsims/mipscore/refemu"
)

var _ = Describe("Emulator", func() {
	It("executes ADDI and writes the destination register", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.Memory().Write32(0, 0x20080005) // ADDI $t0, $zero, 5

		info := e.ExecuteInstruction()

		Expect(info.IsValid).To(BeTrue())
		Expect(info.Opcode).To(Equal(isa.OpADDI))
		Expect(info.Rt).To(Equal(uint8(8)))
		Expect(e.RegFile().Read(8)).To(Equal(uint32(5)))
		Expect(e.PC()).To(Equal(uint32(4)))
	})

	It("detects signed overflow on ADD and redirects PC to the handler", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.RegFile().Write(1, 0x7fffffff)
		e.RegFile().Write(2, 1)
		e.Memory().Write32(0, 0x00221820) // ADD $3, $1, $2

		info := e.ExecuteInstruction()

		Expect(info.IsOverflow).To(BeTrue())
		Expect(e.PC()).To(Equal(isa.ExceptionHandlerPC))
	})

	It("does not overflow on ADDU for the same operands", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.RegFile().Write(1, 0x7fffffff)
		e.RegFile().Write(2, 1)
		e.Memory().Write32(0, 0x00221821) // ADDU $3, $1, $2

		info := e.ExecuteInstruction()

		Expect(info.IsOverflow).To(BeFalse())
		Expect(e.RegFile().Read(3)).To(Equal(uint32(0x80000000)))
	})

	It("round-trips a store and a load through memory", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.RegFile().Write(9, 0xcafef00d)
		e.Memory().Write32(0, 0xac090010) // SW $9, 16($zero)
		e.Memory().Write32(4, 0x8c080010) // LW $8, 16($zero)

		storeInfo := e.ExecuteInstruction()
		Expect(storeInfo.StoreAddress).To(Equal(uint32(16)))

		loadInfo := e.ExecuteInstruction()
		Expect(loadInfo.LoadAddress).To(Equal(uint32(16)))
		Expect(e.RegFile().Read(8)).To(Equal(uint32(0xcafef00d)))
	})

	It("recognizes the halt sentinel without decoding it as an instruction", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.Memory().Write32(0, isa.HaltWord)

		info := e.ExecuteInstruction()

		Expect(info.IsHalt).To(BeTrue())
		Expect(info.IsValid).To(BeTrue())
	})

	It("flags an unsupported opcode as invalid and redirects PC to the handler", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.Memory().Write32(0, 0xfc000000) // opcode 0x3f: not in the supported set

		info := e.ExecuteInstruction()

		Expect(info.IsValid).To(BeFalse())
		Expect(e.PC()).To(Equal(isa.ExceptionHandlerPC))
	})

	It("assigns monotonically increasing InstructionIDs and tracks Din", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.Memory().Write32(0, 0x20080001)
		e.Memory().Write32(4, 0x20090001)

		first := e.ExecuteInstruction()
		second := e.ExecuteInstruction()

		Expect(first.InstructionID).To(Equal(uint64(1)))
		Expect(second.InstructionID).To(Equal(uint64(2)))
		Expect(e.Din()).To(Equal(uint64(2)))
	})

	It("resolves a taken branch to PC+4+offset<<2", func() {
		e := refemu.NewEmulator(refemu.WithPC(0))
		e.RegFile().Write(1, 5)
		e.RegFile().Write(2, 5)
		e.Memory().Write32(0, 0x10220002) // BEQ $1, $2, 2

		e.ExecuteInstruction()

		Expect(e.PC()).To(Equal(uint32(4 + 2*4)))
	})
})
