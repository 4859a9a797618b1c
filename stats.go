package jobgraph

import "sync/atomic"

// schedulerStats holds the atomic counters backing Stats(). Modeled on the
// teacher package's Metrics struct, adapted from a single-run batch summary
// (TotalJobs/ProcessedJobs/FailedJobs with start/end timestamps) into
// running counters suited to a long-lived scheduler that keeps accepting
// work across many flush/complete cycles.
type schedulerStats struct {
	scheduled      atomic.Int64
	completed      atomic.Int64
	stealAttempts  atomic.Int64
	stealSuccesses atomic.Int64
}

// Stats is a point-in-time snapshot of scheduler activity. Diagnostic only;
// nothing in §4's algorithms depends on it.
type Stats struct {
	ScheduledJobs  int64
	CompletedJobs  int64
	StealAttempts  int64
	StealSuccesses int64
	ActiveWorkers  int64
}

// Stats returns a snapshot of the scheduler's running counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		ScheduledJobs:  s.stats.scheduled.Load(),
		CompletedJobs:  s.stats.completed.Load(),
		StealAttempts:  s.stats.stealAttempts.Load(),
		StealSuccesses: s.stats.stealSuccesses.Load(),
		ActiveWorkers:  int64(s.numActives.Load()),
	}
}
