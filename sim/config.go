// sim/config.go
package sim

import "fmt"

// Config groups every recognized simulation parameter (spec.md §6). It is
// copied (deep, via Clone) by NewSimulation so that mutating the caller's
// Config after a simulation has started has no effect — replacing the
// source's module-level constants with an explicit, non-mutable-in-place
// configuration value (spec.md §9 "Module-level configuration").
type Config struct {
	SimulationTimeMs int64 `yaml:"simulation_time_ms"`
	WindowSizeMs     int64 `yaml:"window_size_ms"`
	LBASizeBytes     int64 `yaml:"lba_size_bytes"`
	ChunkSizeBytes   int64 `yaml:"chunk_size_bytes"`
	TotalChunks      int64 `yaml:"total_chunks"`

	Tiers []TierConfig `yaml:"tiers"`

	TracePath     string            `yaml:"trace_path"`
	TraceFormat   string            `yaml:"trace_format"`
	FormatOptions map[string]string `yaml:"format_options"`

	Seed int64 `yaml:"seed"`

	// DebugAssertions enables the O(1)-placement-map-matches-tier-residency
	// assertion described in spec.md §9. Off by default; never enabled on
	// the hot path in production configurations.
	DebugAssertions bool `yaml:"debug_assertions"`
}

// Clone returns a deep copy, so callers cannot mutate a Config that has
// already been handed to NewSimulation.
func (c Config) Clone() Config {
	out := c
	out.Tiers = make([]TierConfig, len(c.Tiers))
	for i, t := range c.Tiers {
		t.Devices = append([]DeviceConfig(nil), t.Devices...)
		out.Tiers[i] = t
	}
	if c.FormatOptions != nil {
		out.FormatOptions = make(map[string]string, len(c.FormatOptions))
		for k, v := range c.FormatOptions {
			out.FormatOptions[k] = v
		}
	}
	return out
}

// StartupError signals a configuration or environment problem discovered
// before any simulated time has elapsed (spec.md §7). The process should
// exit non-zero on this class of error.
type StartupError struct {
	Msg string
}

func (e *StartupError) Error() string { return "startup error: " + e.Msg }

// Validate checks the configuration invariants that must hold before a
// simulation can start: at least two tiers with the last one marked as
// the unbounded bottom tier, positive sizes, and (spec.md §9 Open
// Question resolution) that every non-bottom tier can hold the initial
// population of every chunk it would need to, which in practice means no
// non-bottom tier may be asked to hold the full chunk set — initial
// population always starts at the bottom tier (spec.md §4.4), so this
// reduces to checking that the bottom tier is actually unbounded and is
// the last configured tier.
func (c *Config) Validate() error {
	if c.LBASizeBytes <= 0 {
		return &StartupError{Msg: "lba_size_bytes must be > 0"}
	}
	if c.ChunkSizeBytes <= 0 || c.ChunkSizeBytes%c.LBASizeBytes != 0 {
		return &StartupError{Msg: "chunk_size_bytes must be a positive multiple of lba_size_bytes"}
	}
	if c.TotalChunks <= 0 {
		return &StartupError{Msg: "total_chunks must be > 0"}
	}
	if len(c.Tiers) < 2 {
		return &StartupError{Msg: "at least two tiers are required (one fast tier, one bottom tier)"}
	}
	bottom := c.Tiers[len(c.Tiers)-1]
	if !bottom.IsBottom {
		return &StartupError{Msg: "the last configured tier must be the bottom (backing) tier"}
	}
	if len(bottom.Devices) == 0 {
		return &StartupError{Msg: fmt.Sprintf("tier %d (%s): bottom tier must configure at least one device", len(c.Tiers)-1, bottom.Name)}
	}
	for i, t := range c.Tiers[:len(c.Tiers)-1] {
		if t.IsBottom {
			return &StartupError{Msg: fmt.Sprintf("tier %d (%s): only the last tier may be the bottom tier", i, t.Name)}
		}
		if t.CapacityBytes <= 0 {
			return &StartupError{Msg: fmt.Sprintf("tier %d (%s): capacity_bytes must be > 0", i, t.Name)}
		}
		if len(t.Devices) == 0 {
			return &StartupError{Msg: fmt.Sprintf("tier %d (%s): must configure at least one device", i, t.Name)}
		}
	}
	if c.WindowSizeMs <= 0 {
		return &StartupError{Msg: "window_size_ms must be > 0"}
	}
	if c.SimulationTimeMs <= 0 {
		return &StartupError{Msg: "simulation_time_ms must be > 0"}
	}
	return nil
}
