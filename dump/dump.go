// Package dump provides a reference OutputSink: a deterministic per-cycle
// text trace plus a JSON final-statistics file. The real output dumper is
// an external collaborator; this is a minimal stand-in so the core is
// runnable end to end.
package dump

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/archsims/mipscore/core"
	"github.com/archsims/mipscore/pipeline"
)

// Sink writes a per-cycle pipeline trace to "<basename>.trace" and the
// final SimulationStats to "<basename>.stats.json".
type Sink struct {
	basename string
	trace    *os.File
}

// New creates a Sink rooted at basename. The trace file is created (and
// truncated if it already exists) immediately; callers must call Close
// once done driving the simulation.
func New(basename string) (*Sink, error) {
	trace, err := os.Create(basename + ".trace")
	if err != nil {
		return nil, fmt.Errorf("dump: create trace file: %w", err)
	}
	return &Sink{basename: basename, trace: trace}, nil
}

// Close flushes and closes the trace file.
func (s *Sink) Close() error {
	if err := s.trace.Close(); err != nil {
		return fmt.Errorf("dump: close trace file: %w", err)
	}
	return nil
}

// DumpSnapshot appends one line to the trace file: the cycle number
// followed by the five pipeline stages' raw instruction words, in
// IF/ID/EX/MEM/WB order.
func (s *Sink) DumpSnapshot(snapshot pipeline.Snapshot) error {
	_, err := fmt.Fprintf(s.trace, "%d %08x %08x %08x %08x %08x\n",
		snapshot.Cycle,
		snapshot.Words[0], snapshot.Words[1], snapshot.Words[2],
		snapshot.Words[3], snapshot.Words[4],
	)
	if err != nil {
		return fmt.Errorf("dump: write trace line: %w", err)
	}
	return nil
}

// DumpStats writes stats as indented JSON to "<basename>.stats.json".
func (s *Sink) DumpStats(stats core.SimulationStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("dump: marshal stats: %w", err)
	}
	if err := os.WriteFile(s.basename+".stats.json", data, 0644); err != nil {
		return fmt.Errorf("dump: write stats file: %w", err)
	}
	return nil
}
