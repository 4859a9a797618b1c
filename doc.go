// Package jobgraph implements a zero-allocation task scheduler with
// dependency graphs: a fixed pool of worker goroutines executes small
// user-supplied jobs, with support for sequential dependencies, parallel
// fan-in via CombineDependencies, and data-parallel index ranges via
// ScheduleParallelFor.
//
// The scheduler is built around a Chase–Lev work-stealing deque per worker
// and the Lin et al. adaptive thief/waiter algorithm (bounded steal
// attempts, bounded yields, then block on a notifier). Jobs are pooled,
// version-tagged records; a Handle is the opaque (job, version) pair that
// identifies one scheduling.
//
// All producer-facing methods — Schedule, ScheduleParallelFor,
// CombineDependencies, Flush, Dispose — must be called from the goroutine
// that constructed the Scheduler. Complete may be called from any
// goroutine, including a worker mid-job.
package jobgraph
