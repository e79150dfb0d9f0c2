// Package config loads volt's runtime tunables. Following
// osakka-entitydb's config package, every value has a sensible default
// overridable through an environment variable — no flags or config
// file library is used here (see SPEC_FULL.md §A.3 for why).
package config

import (
	"os"
	"strconv"
)

// Config holds the values spec.md §4.6 hardcodes as constants
// (FRAMES_MAX, STACK_MAX) plus the debug/native toggles the CLI
// exposes.
type Config struct {
	// FramesMax is the maximum call-frame nesting depth. Exceeding it
	// raises "Call stack overflow" (spec.md §8 boundary behavior).
	// Environment: VOLT_FRAMES_MAX. Default: 64.
	FramesMax int

	// StackPerFrame is the number of value-stack slots reserved per
	// frame of nesting; StackMax = StackPerFrame * FramesMax.
	// Environment: VOLT_STACK_PER_FRAME. Default: 256.
	StackPerFrame int

	// DebugTrace enables per-instruction disassembly as each
	// instruction executes (the disassembler's diagnostic role from
	// spec.md §2's component table). Environment: VOLT_DEBUG_TRACE.
	// Default: false.
	DebugTrace bool

	// EnableNatives toggles registration of clock()/input_num().
	// Environment: VOLT_ENABLE_NATIVES. Default: true.
	EnableNatives bool
}

// Load reads Config from the environment, falling back to defaults
// for anything unset or unparseable.
func Load() Config {
	return Config{
		FramesMax:     getEnvInt("VOLT_FRAMES_MAX", 64),
		StackPerFrame: getEnvInt("VOLT_STACK_PER_FRAME", 256),
		DebugTrace:    getEnvBool("VOLT_DEBUG_TRACE", false),
		EnableNatives: getEnvBool("VOLT_ENABLE_NATIVES", true),
	}
}

// StackMax is the total fixed-size value stack capacity, per spec.md
// §4.6 (STACK_MAX = 256 * FRAMES_MAX).
func (c Config) StackMax() int {
	return c.StackPerFrame * c.FramesMax
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
