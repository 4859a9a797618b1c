package jobgraph

// Handle is the opaque (job, version) pair returned by Schedule,
// ScheduleParallelFor, and CombineDependencies (C6). It identifies one
// scheduling of one job; a Handle is stale once the underlying record's
// version no longer matches, or once the job has completed.
type Handle struct {
	sched *Scheduler
	job   *job
	ver   uint32
}

// Stale reports whether the handle no longer refers to a live scheduling:
// either the record has completed, or it has been recycled and reissued to
// a different scheduling (P7).
func (h Handle) Stale() bool {
	if h.job == nil {
		return true
	}
	version, complete := h.job.snapshotVersion()
	return complete || version != h.ver
}

// sameScheduler reports whether h was issued by s, used to surface
// ErrForeignHandle.
func (h Handle) sameScheduler(s *Scheduler) bool {
	return h.job == nil || h.sched == s
}
