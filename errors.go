package jobgraph

import "errors"

// Sentinel errors returned synchronously to the caller of the offending API.
// Workers never surface these; a user job that fails is the user's concern.
var (
	// ErrPoolExhausted is returned by Schedule/ScheduleParallelFor when the
	// job pool is full and the scheduler was built with StrictAllocation.
	ErrPoolExhausted = errors.New("jobgraph: pool exhausted")

	// ErrWrongThread is returned when a producer-only API (Schedule,
	// ScheduleParallelFor, CombineDependencies, Flush, Dispose) is called
	// from a goroutine other than the one that constructed the Scheduler.
	ErrWrongThread = errors.New("jobgraph: called from non-owning goroutine")

	// ErrForeignHandle is returned when a Handle issued by one Scheduler is
	// passed to a different Scheduler instance.
	ErrForeignHandle = errors.New("jobgraph: handle belongs to a different scheduler")
)
