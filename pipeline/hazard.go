package pipeline

import "github.com/archsims/mipscore/isa"

// HazardSignals is the pure result of the hazard detector: which stall
// classes the current in-flight snapshot requires.
type HazardSignals struct {
	LoadUseStall          bool
	LoadBranchStall       bool
	ArithmeticBranchStall bool
}

// Any reports whether any hazard class fired.
func (h HazardSignals) Any() bool {
	return h.LoadUseStall || h.LoadBranchStall || h.ArithmeticBranchStall
}

// dependencyPair identifies one (consumer, producer) dynamic-instance
// pair that triggered a load-use or load-branch hazard.
type dependencyPair struct {
	consumer uint64
	producer uint64
}

// DependencyDedupe is a bounded ring of at most five recently seen
// (consumer, producer) pairs, used to avoid double-counting loadStalls
// when the same hazard is detected across the two cycles a load spends
// in EX then MEM.
type DependencyDedupe struct {
	entries [5]dependencyPair
	count   int
	next    int
}

const dependencyDedupeCapacity = 5

// seen reports whether this pair has already been recorded.
func (d *DependencyDedupe) seen(pair dependencyPair) bool {
	for i := 0; i < d.count; i++ {
		if d.entries[i] == pair {
			return true
		}
	}
	return false
}

// record appends the pair, evicting the oldest entry if the ring is full.
// It is a no-op if the pair is already present.
func (d *DependencyDedupe) record(pair dependencyPair) {
	if d.seen(pair) {
		return
	}
	if d.count < dependencyDedupeCapacity {
		d.entries[d.count] = pair
		d.count++
		return
	}
	d.entries[d.next] = pair
	d.next = (d.next + 1) % dependencyDedupeCapacity
}

// HazardDetector evaluates the three hazard classes over a pipeline
// snapshot. It carries only the dependency dedupe ring as state; the
// hazard evaluation itself is a pure function of the snapshot.
type HazardDetector struct {
	dedupe DependencyDedupe
}

// NewHazardDetector creates a HazardDetector with an empty dedupe ring.
func NewHazardDetector() *HazardDetector {
	return &HazardDetector{}
}

// Detect evaluates the current in-flight snapshot and returns the
// required stall signals. loadStallsDelta is the number of NEW distinct
// (consumer, producer) pairs this call should add to the running
// loadStalls counter (0 or 1, since at most one load-use or load-branch
// hazard can be newly observed per cycle in a 5-stage in-order pipeline).
func (h *HazardDetector) Detect(regs Registers) (signals HazardSignals, loadStallsDelta int) {
	delta := 0

	// Load-use: load in EX, consumer in ID reads the load's Rt.
	if regs.EX.IsLoad() && regs.EX.Rt != 0 {
		if consumerReads(regs.ID, regs.EX.Rt) {
			signals.LoadUseStall = true
			delta += h.countIfNew(dependencyPair{regs.ID.InstructionID, regs.EX.InstructionID})
		}
	}

	// Load-branch: branch in ID, producing load in EX or MEM.
	if regs.ID.IsBranch() {
		if producer, ok := loadBranchProducer(regs); ok {
			signals.LoadBranchStall = true
			delta += h.countIfNew(dependencyPair{regs.ID.InstructionID, producer.InstructionID})
		}
	}

	// Arithmetic/branch: branch in ID, ALU producer in EX (not yet MEM).
	// Loads are excluded here even though they write RT: a load producer
	// is a load-branch hazard, handled above.
	if regs.ID.IsBranch() && !regs.EX.IsLoad() && (regs.EX.WritesRT() || regs.EX.WritesRD()) {
		destReg, writes := regs.EX.Destination()
		if writes && destReg != 0 && branchReadsReg(regs.ID, destReg) {
			signals.ArithmeticBranchStall = true
			// Arithmetic-branch stalls are never counted in loadStalls.
		}
	}

	return signals, delta
}

// countIfNew records pair if unseen and returns 1, else returns 0.
func (h *HazardDetector) countIfNew(pair dependencyPair) int {
	if h.dedupe.seen(pair) {
		return 0
	}
	h.dedupe.record(pair)
	return 1
}

// consumerReads reports whether consumer, while in ID, reads loadRt as
// either its RS or RT source operand. The zero register never triggers a
// hazard.
func consumerReads(consumer isa.InstructionInfo, loadRt uint8) bool {
	if loadRt == 0 {
		return false
	}
	if consumer.ReadsRSAsSource() && consumer.Rs == loadRt {
		return true
	}
	if consumer.ReadsRTAsSource() && consumer.Rt == loadRt {
		return true
	}
	return false
}

// branchReadsReg reports whether the branch's operand registers
// (per its arity) include reg. The zero register never triggers a hazard.
func branchReadsReg(branch isa.InstructionInfo, reg uint8) bool {
	if reg == 0 {
		return false
	}
	if branch.IsTwoOperandBranch() {
		return branch.Rs == reg || branch.Rt == reg
	}
	if branch.IsOneOperandBranch() {
		return branch.Rs == reg
	}
	return false
}

// loadBranchProducer returns the load instruction (in EX or MEM) whose
// destination register the branch in ID reads, if any. EX is checked
// first since it is the more restrictive (earlier) stall point; either
// stage, when matched, yields the same producer instance across the two
// cycles the load occupies EX then MEM, so the dedupe ring collapses them
// to a single counted stall.
func loadBranchProducer(regs Registers) (isa.InstructionInfo, bool) {
	if regs.EX.IsLoad() && regs.EX.Rt != 0 && branchReadsReg(regs.ID, regs.EX.Rt) {
		return regs.EX, true
	}
	if regs.MEM.IsLoad() && regs.MEM.Rt != 0 && branchReadsReg(regs.ID, regs.MEM.Rt) {
		return regs.MEM, true
	}
	return isa.InstructionInfo{}, false
}
