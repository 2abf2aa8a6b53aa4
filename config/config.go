// Package config holds the JSON-backed configuration for the two caches
// the pipeline core drives: instruction and data.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/archsims/mipscore/cache"
)

// SimConfig bundles the I$/D$ geometries the CLI loads before constructing
// a core.Simulator.
type SimConfig struct {
	ICache cache.Config `json:"icache"`
	DCache cache.Config `json:"dcache"`
}

// DefaultSimConfig returns a SimConfig with a modest direct-mapped I$ and a
// two-way D$, both with a ten-cycle miss penalty.
func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		ICache: cache.Config{CacheSize: 1024, BlockSize: 16, Ways: 1, MissLatency: 10},
		DCache: cache.Config{CacheSize: 1024, BlockSize: 16, Ways: 2, MissLatency: 10},
	}
}

// LoadConfig reads a SimConfig from a JSON file, starting from the
// defaults so a partial file only overrides the fields it sets.
func LoadConfig(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := DefaultSimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// SaveConfig writes a SimConfig to a JSON file.
func (c *SimConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: serialize: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate checks both cache geometries against cache.Config's constraints.
func (c *SimConfig) Validate() error {
	if err := c.ICache.Validate(); err != nil {
		return fmt.Errorf("config: icache: %w", err)
	}
	if err := c.DCache.Validate(); err != nil {
		return fmt.Errorf("config: dcache: %w", err)
	}
	return nil
}
