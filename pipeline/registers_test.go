package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsims/mipscore/isa"
	"github.com/archsims/mipscore/pipeline"
)

func instr(word uint32) isa.InstructionInfo {
	return isa.InstructionInfo{Instruction: word}
}

var _ = Describe("Advance primitives", func() {
	Describe("Propagate", func() {
		It("should shift every stage down by one and admit the incoming instruction at IF", func() {
			prev := pipeline.Registers{
				IF:  instr(1),
				ID:  instr(2),
				EX:  instr(3),
				MEM: instr(4),
				WB:  instr(5),
			}

			next := pipeline.Propagate(prev, instr(6))

			Expect(next.IF).To(Equal(instr(6)))
			Expect(next.ID).To(Equal(instr(1)))
			Expect(next.EX).To(Equal(instr(2)))
			Expect(next.MEM).To(Equal(instr(3)))
			Expect(next.WB).To(Equal(instr(4)))
		})
	})

	Describe("StallAt", func() {
		var prev pipeline.Registers

		BeforeEach(func() {
			prev = pipeline.Registers{
				IF:  instr(1),
				ID:  instr(2),
				EX:  instr(3),
				MEM: instr(4),
				WB:  instr(5),
			}
		})

		It("should hold IF only and insert a bubble at ID for StallAt(IF)", func() {
			next, err := pipeline.StallAt(prev, pipeline.IF)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.IF).To(Equal(instr(1)))
			Expect(next.ID).To(Equal(isa.NOP))
			Expect(next.EX).To(Equal(instr(2)))
			Expect(next.MEM).To(Equal(instr(3)))
			Expect(next.WB).To(Equal(instr(4)))
		})

		It("should hold IF,ID and insert a bubble at EX for StallAt(ID)", func() {
			next, err := pipeline.StallAt(prev, pipeline.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.IF).To(Equal(instr(1)))
			Expect(next.ID).To(Equal(instr(2)))
			Expect(next.EX).To(Equal(isa.NOP))
			Expect(next.MEM).To(Equal(instr(3)))
			Expect(next.WB).To(Equal(instr(4)))
		})

		It("should hold IF,ID,EX and insert a bubble at MEM for StallAt(EX)", func() {
			next, err := pipeline.StallAt(prev, pipeline.EX)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.EX).To(Equal(instr(3)))
			Expect(next.MEM).To(Equal(isa.NOP))
			Expect(next.WB).To(Equal(instr(4)))
		})

		It("should hold IF,ID,EX,MEM and insert a bubble at WB for StallAt(MEM)", func() {
			next, err := pipeline.StallAt(prev, pipeline.MEM)
			Expect(err).NotTo(HaveOccurred())
			Expect(next.MEM).To(Equal(instr(4)))
			Expect(next.WB).To(Equal(isa.NOP))
		})

		It("should reject StallAt(WB)", func() {
			_, err := pipeline.StallAt(prev, pipeline.WB)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Squash", func() {
		It("should replace only the named stage with a bubble, in place", func() {
			prev := pipeline.Registers{
				IF:  instr(1),
				ID:  instr(2),
				EX:  instr(3),
				MEM: instr(4),
				WB:  instr(5),
			}

			next := pipeline.Squash(prev, pipeline.EX)

			Expect(next.IF).To(Equal(instr(1)))
			Expect(next.ID).To(Equal(instr(2)))
			Expect(next.EX).To(Equal(isa.NOP))
			Expect(next.MEM).To(Equal(instr(4)))
			Expect(next.WB).To(Equal(instr(5)))
		})
	})
})
