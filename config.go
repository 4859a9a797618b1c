package jobgraph

import "runtime"

// defaultMaxConcurrentJobs is the pool size used when Config.MaxConcurrentJobs
// is left at its zero value.
const defaultMaxConcurrentJobs = 4096

// Config holds construction-time configuration for a Scheduler. It follows
// the same plain-struct-plus-defaulting pattern as the teacher package's
// Config/DefaultConfig pair: every field is optional, and NewWithConfig fills
// in sane values for whatever is left at its zero value.
type Config struct {
	// ThreadCount is the number of worker goroutines to start. Zero means
	// runtime.NumCPU().
	ThreadCount int

	// MaxConcurrentJobs is the capacity of the pre-allocated job pool. Zero
	// means defaultMaxConcurrentJobs.
	MaxConcurrentJobs int

	// StrictAllocation controls pool-overflow behavior: true makes Schedule
	// and ScheduleParallelFor fail with ErrPoolExhausted once the pool is
	// full; false makes them lazily allocate a fresh job record instead.
	StrictAllocation bool

	// ThreadNamePrefix is a cosmetic prefix used to label worker goroutines
	// in runtime/trace regions. Purely informational; it has no effect on
	// scheduling.
	ThreadNamePrefix string
}

// DefaultConfig returns a Config with hardware-parallelism worker count,
// a 4096-job pool, lazy (non-strict) allocation, and the "jobgraph-worker"
// thread name prefix.
func DefaultConfig() Config {
	return Config{
		ThreadCount:       runtime.NumCPU(),
		MaxConcurrentJobs: defaultMaxConcurrentJobs,
		StrictAllocation:  false,
		ThreadNamePrefix:  "jobgraph-worker",
	}
}

// withDefaults returns a copy of cfg with zero-valued fields replaced by
// their DefaultConfig equivalents.
func (cfg Config) withDefaults() Config {
	if cfg.ThreadCount <= 0 {
		cfg.ThreadCount = runtime.NumCPU()
	}
	if cfg.MaxConcurrentJobs <= 0 {
		cfg.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if cfg.ThreadNamePrefix == "" {
		cfg.ThreadNamePrefix = "jobgraph-worker"
	}
	return cfg
}
