// Package cmn holds the runtime's ambient stack: configuration, the four
// error kinds of the fail-stop model, and the abort helper every layer
// calls into. Named and shaped after aistore's cmn package — a grab-bag of
// small, dependency-light pieces every other package imports.
package cmn

import (
	"os"
	"strconv"
	"sync"
)

// Config holds the tunables spec.md §6 calls out: radix and crossover for
// the collectives tree, and the two completion/optimization switches.
// Defaults mirror what a transport would report absent an override.
type Config struct {
	TreeRadix          int
	TreeCrossover      int
	EventCompletion    bool
	OnNodeOptimization bool
	FenceIsQuiet       bool

	// DiagCapacity, when > 0, turns on the diagnostic journal (diag
	// package): a bounded ring of this many recent collective
	// invocations. 0 leaves diagnostics off, the default.
	DiagCapacity int
}

// DefaultConfig matches the original runtime's conservative defaults: a
// radix of 2 and a crossover of 8 PEs, no event-completion overhead unless
// asked for.
func DefaultConfig() Config {
	return Config{
		TreeRadix:          2,
		TreeCrossover:      8,
		EventCompletion:    false,
		OnNodeOptimization: false,
		FenceIsQuiet:       false,
		DiagCapacity:       0,
	}
}

// gco is the global-config-owner, mirroring aistore's cmn.GCO.Get() idiom:
// a package singleton populated once and read thereafter.
var gco struct {
	once sync.Once
	cfg  Config
}

// GCO returns the process-wide Config, loading it from the environment
// exactly once on first call.
func GCO() *Config {
	gco.once.Do(func() {
		gco.cfg = DefaultConfig()
		loadEnv(&gco.cfg)
	})
	return &gco.cfg
}

func loadEnv(c *Config) {
	if v, ok := os.LookupEnv("SHMEM_TREE_RADIX"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.TreeRadix = n
		}
	}
	if v, ok := os.LookupEnv("SHMEM_TREE_CROSSOVER"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.TreeCrossover = n
		}
	}
	if v, ok := os.LookupEnv("SHMEM_EVENT_COMPLETION"); ok {
		c.EventCompletion = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("SHMEM_ON_NODE_OPTIMIZATION"); ok {
		c.OnNodeOptimization = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("SHMEM_FENCE_IS_QUIET"); ok {
		c.FenceIsQuiet = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("SHMEM_DIAG_CAPACITY"); ok {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.DiagCapacity = n
		}
	}
}
