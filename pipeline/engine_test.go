package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsims/mipscore/cache"
	"github.com/archsims/mipscore/isa"
	"github.com/archsims/mipscore/pipeline"
)

// scriptedEmulator replays a fixed sequence of InstructionInfo values, one
// per ExecuteInstruction call. It panics if the engine asks for more
// instructions than the scenario provides, which would indicate the test
// itself under-specified the program rather than a bug in the engine.
type scriptedEmulator struct {
	script []isa.InstructionInfo
	cursor int
}

func (s *scriptedEmulator) ExecuteInstruction() isa.InstructionInfo {
	if s.cursor >= len(s.script) {
		panic("scriptedEmulator: script exhausted; scenario fetched more instructions than provided")
	}
	info := s.script[s.cursor]
	s.cursor++
	return info
}

func (s *scriptedEmulator) Din() uint64                { return uint64(s.cursor) }
func (s *scriptedEmulator) SetMemory(_ pipeline.Memory) {}
func (s *scriptedEmulator) DumpRegMem(_ string) error   { return nil }

func mustCache(config cache.Config) *cache.Cache {
	c, err := cache.New(config)
	Expect(err).NotTo(HaveOccurred())
	return c
}

// runUntilHalt drives the engine with emulator until it reports StepHalted,
// failing the spec if that never happens within a generous cycle bound (a
// real bug here would otherwise hang the whole suite).
func runUntilHalt(engine *pipeline.Engine, emulator pipeline.Emulator) {
	const maxCycles = 1000
	for i := 0; i < maxCycles; i++ {
		outcome, err := engine.Step(emulator)
		Expect(err).NotTo(HaveOccurred())
		if outcome == pipeline.StepHalted {
			return
		}
	}
	Fail("engine did not halt within the cycle bound")
}

var _ = Describe("Engine", func() {
	Describe("basic pipeline drain", func() {
		It("drains a lone ADDI through a halt with both caches forced to miss every fetch", func() {
			// A single set, one way: every distinct PC evicts the
			// previous line, so both fetches miss.
			iCache := mustCache(cache.Config{CacheSize: 4, BlockSize: 4, Ways: 1, MissLatency: 2})
			dCache := mustCache(cache.Config{CacheSize: 4, BlockSize: 4, Ways: 1, MissLatency: 2})
			engine := pipeline.NewEngine(iCache, dCache)

			addi := isa.InstructionInfo{
				PC: 0x1000, Instruction: 0x20080001,
				Opcode: isa.OpADDI, Rs: 0, Rt: 8, Immediate: 1,
				IsValid: true, InstructionID: 1,
			}
			halt := isa.InstructionInfo{
				PC: 0x1004, Instruction: isa.HaltWord,
				IsValid: true, IsHalt: true, InstructionID: 2,
			}
			emulator := &scriptedEmulator{script: []isa.InstructionInfo{addi, halt}}

			runUntilHalt(engine, emulator)

			Expect(engine.CycleCount()).To(BeNumerically(">=", 10))
		})
	})

	Describe("load-use hazard dedupe", func() {
		It("counts exactly one loadStall for LW $t0,0($zero); ADD $t1,$t0,$t1; HALT", func() {
			iCache := mustCache(cache.Config{CacheSize: 1024, BlockSize: 4, Ways: 1, MissLatency: 1})
			dCache := mustCache(cache.Config{CacheSize: 1024, BlockSize: 4, Ways: 1, MissLatency: 1})

			// Pre-warm every address this scenario touches so every
			// fetch and data access is a guaranteed hit. That isolates
			// the hazard-induced ID stall from incidental miss-induced
			// IF stalls, which would otherwise shift instructions past
			// the cycle where the hazard is actually observable.
			iCache.Access(0x1000, cache.Read)
			iCache.Access(0x1004, cache.Read)
			iCache.Access(0x1008, cache.Read)
			dCache.Access(0, cache.Read)

			engine := pipeline.NewEngine(iCache, dCache)

			lw := isa.InstructionInfo{
				PC: 0x1000, Instruction: 0x8c080000,
				Opcode: isa.OpLW, Rs: 0, Rt: 8, Immediate: 0, LoadAddress: 0,
				IsValid: true, InstructionID: 1,
			}
			add := isa.InstructionInfo{
				PC: 0x1004, Instruction: 0x01094820,
				Opcode: isa.OpR, Funct: isa.FnADD, Rs: 8, Rt: 9, Rd: 9,
				IsValid: true, InstructionID: 2,
			}
			halt := isa.InstructionInfo{
				PC: 0x1008, Instruction: isa.HaltWord,
				IsValid: true, IsHalt: true, InstructionID: 3,
			}
			emulator := &scriptedEmulator{script: []isa.InstructionInfo{lw, add, halt}}

			runUntilHalt(engine, emulator)

			Expect(engine.LoadStalls()).To(Equal(uint64(1)))
		})
	})

	Describe("overflow exception timing", func() {
		It("squashes EX the cycle after the overflow flag is observed there, with no stat pollution", func() {
			iCache := mustCache(cache.Config{CacheSize: 1024, BlockSize: 4, Ways: 1, MissLatency: 1})
			dCache := mustCache(cache.Config{CacheSize: 1024, BlockSize: 4, Ways: 1, MissLatency: 1})
			engine := pipeline.NewEngine(iCache, dCache)

			filler := isa.InstructionInfo{
				PC: 0x1000, Instruction: 0x20050001,
				Opcode: isa.OpADDI, Rs: 0, Rt: 5, Immediate: 1,
				IsValid: true, InstructionID: 1,
			}
			overflowing := isa.InstructionInfo{
				PC: 0x1004, Instruction: 0x00225020,
				Opcode: isa.OpR, Funct: isa.FnADD, Rs: 1, Rt: 2, Rd: 10,
				IsValid: true, IsOverflow: true, InstructionID: 2,
			}
			handlerEntry := isa.InstructionInfo{
				PC: isa.ExceptionHandlerPC, Instruction: 0x20060001,
				Opcode: isa.OpADDI, Rs: 0, Rt: 6, Immediate: 1,
				IsValid: true, InstructionID: 3,
			}
			halt := isa.InstructionInfo{
				PC: isa.ExceptionHandlerPC + 4, Instruction: isa.HaltWord,
				IsValid: true, IsHalt: true, InstructionID: 4,
			}
			emulator := &scriptedEmulator{
				script: []isa.InstructionInfo{filler, overflowing, handlerEntry, halt},
			}

			var retiredIDs []uint64
			const maxCycles = 1000
			halted := false
			for i := 0; i < maxCycles && !halted; i++ {
				outcome, err := engine.Step(emulator)
				Expect(err).NotTo(HaveOccurred())
				if wb := engine.Registers().WB; !wb.IsBubble() {
					retiredIDs = append(retiredIDs, wb.InstructionID)
				}
				halted = outcome == pipeline.StepHalted
			}
			Expect(halted).To(BeTrue())

			// The overflowing instruction (id 2) must never reach WB:
			// it is squashed out of EX the cycle after the overflow
			// flag is first visible there.
			Expect(retiredIDs).NotTo(ContainElement(uint64(2)))
			Expect(retiredIDs).To(ContainElement(uint64(1)))

			// No hazard in this program: the squash itself must not be
			// mistaken for a load-related stall.
			Expect(engine.LoadStalls()).To(Equal(uint64(0)))
		})
	})
})
