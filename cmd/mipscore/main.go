// Package main provides the entry point for mipscore, a cycle-accurate
// five-stage MIPS32 pipeline simulator with split instruction/data caches.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/archsims/mipscore/config"
	"github.com/archsims/mipscore/core"
	"github.com/archsims/mipscore/dump"
	"github.com/archsims/mipscore/refemu"
)

var (
	configPath = flag.String("config", "", "Path to a cache configuration JSON file")
	output     = flag.String("o", "sim", "Basename for the output trace/stats/register files")
	maxCycles  = flag.Int("max-cycles", 0, "Stop after this many cycles (0 runs until halt)")
	verbose    = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: mipscore [options] <program.hex>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	simCfg := config.DefaultSimConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		simCfg = loaded
	}
	if err := simCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error validating config: %v\n", err)
		os.Exit(1)
	}

	memory := refemu.NewMemory()
	words, err := loadProgram(programPath, memory)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Words: %d\n", words)
	}

	sink, err := dump.New(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output sink: %v\n", err)
		os.Exit(1)
	}
	defer sink.Close()

	emulator := refemu.NewEmulator(refemu.WithPC(0))

	sim := core.NewSimulator()
	status, err := sim.Init(simCfg.ICache, simCfg.DCache, emulator, memory, *output, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing simulator: %v\n", err)
		os.Exit(1)
	}
	if status == core.StatusError {
		fmt.Fprintf(os.Stderr, "Simulator init reported %s\n", status)
		os.Exit(1)
	}

	if *maxCycles > 0 {
		status, err = sim.RunCycles(*maxCycles)
	} else {
		status, err = sim.RunTillHalt()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running simulation: %v\n", err)
		os.Exit(1)
	}

	if _, err := sim.Finalize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error finalizing simulation: %v\n", err)
		os.Exit(1)
	}

	stats := sim.Stats()
	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Status: %s\n", status)
		fmt.Printf("Dynamic instructions: %d\n", stats.DynamicInstructions)
		fmt.Printf("Cycles: %d\n", stats.CycleCount)
		fmt.Printf("I$ hits/misses: %d/%d\n", stats.IHits, stats.IMisses)
		fmt.Printf("D$ hits/misses: %d/%d\n", stats.DHits, stats.DMisses)
		fmt.Printf("Load stalls: %d\n", stats.LoadStalls)
	}

	if status != core.StatusHalt && status != core.StatusSuccess {
		os.Exit(1)
	}
}

// loadProgram reads one hex instruction word per line from path and writes
// it into memory starting at address 0, returning the number of words
// loaded. Blank lines and lines starting with "#" are skipped, so program
// listings can carry comments.
func loadProgram(path string, memory *refemu.Memory) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	addr := uint32(0)
	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		word, err := strconv.ParseUint(strings.TrimPrefix(line, "0x"), 16, 32)
		if err != nil {
			return 0, fmt.Errorf("parse word %q: %w", line, err)
		}
		memory.Write32(addr, uint32(word))
		addr += 4
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan %s: %w", path, err)
	}

	return count, nil
}
