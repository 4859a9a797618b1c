package jobgraph

import (
	"runtime"
	"sync/atomic"
)

// parallelForRange is the state one parallel-for's slice jobs share: the
// range deque they drain together, and an authoritative "the owner has
// observed the deque empty" signal. thieves must not infer emptiness from
// their own dwindling numbers — that requires every other thief to have
// already exited, which isn't guaranteed to ever happen — so ownerDone is
// the one fact that is: the owner is the deque's sole Chase–Lev writer on
// bottom, and rangeEmpty from tryPopBottom means top >= bottom permanently
// (nothing ever pushes back into this deque after construction).
type parallelForRange struct {
	rd        *rangeDeque
	ownerDone atomic.Bool
}

// ParallelForWork is the parallel-for job contract (§6): Execute is called
// for every index in [0, n), Finish exactly once after all of them,
// BatchSize controls how many indices each handed-out range covers, and
// ThreadCount requests how many slice jobs should participate (0 means
// "use the worker count").
type ParallelForWork interface {
	Execute(i int)
	Finish()
	BatchSize() int
	ThreadCount() int
}

// finishWork adapts ParallelForWork.Finish into Work so the synthetic
// "finish" job can run through the ordinary job-execution path alongside
// every other job.
type finishWork struct{ pf ParallelForWork }

func (f finishWork) Execute() { f.pf.Finish() }

// sliceWork is one of the T jobs a parallel-for is split into (C8). All T
// slices share one rangeDeque; exactly one of them — the first — is its
// Chase–Lev owner and calls tryPopBottom, the rest are pure thieves calling
// trySteal. The spec's own Open Questions note flags TryPopBottom's
// single-owner assumption as a source ambiguity; giving every slice both
// roles would let two goroutines mutate the deque's bottom without a CAS
// between them, so this resolves the ambiguity toward the one
// interpretation that keeps the Chase–Lev invariant intact. See DESIGN.md.
type sliceWork struct {
	pf     ParallelForWork
	shared *parallelForRange
	owner  bool
}

func (sw *sliceWork) Execute() {
	if sw.owner {
		for {
			switch r, status := sw.shared.rd.tryPopBottom(); status {
			case rangeSuccess:
				sw.run(r)
			case rangeAbort:
				// Raced a thief for the last range; retry.
			case rangeEmpty:
				sw.shared.ownerDone.Store(true)
				return
			}
		}
	}

	for {
		switch r, status := sw.shared.rd.trySteal(); status {
		case rangeSuccess:
			sw.run(r)
		case rangeAbort:
			// Raced the owner or another thief on top; retry.
		case rangeEmpty:
			if sw.shared.ownerDone.Load() {
				return
			}
			runtime.Gosched()
		}
	}
}

func (sw *sliceWork) run(r indexRange) {
	for i := r.Start; i < r.End; i++ {
		sw.pf.Execute(int(i))
	}
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// ScheduleParallelFor partitions [0, n) into batches of work.BatchSize(),
// schedules min(work.ThreadCount(), worker count, ceil(n/batch)) slice jobs
// distributed over a shared rangeDeque, and returns the handle of a
// synthetic "finish" job that depends on every slice and calls
// work.Finish() exactly once they have all drained the range (C8/§4.7).
// Must be called from the scheduler's owning goroutine.
func (s *Scheduler) ScheduleParallelFor(work ParallelForWork, n int, deps ...Handle) (Handle, error) {
	if err := s.checkOwnerThread(); err != nil {
		return Handle{}, err
	}
	if err := s.checkHandles(deps); err != nil {
		return Handle{}, err
	}

	batch := work.BatchSize()
	if batch <= 0 {
		batch = 1
	}

	threadCount := work.ThreadCount()
	if threadCount <= 0 {
		threadCount = len(s.deques)
	}

	numBatches := 0
	if n > 0 {
		numBatches = (n + batch - 1) / batch
	}
	sliceCount := min3(threadCount, len(s.deques), numBatches)
	if sliceCount < 0 {
		sliceCount = 0
	}

	finishJob, err := s.pool.acquire()
	if err != nil {
		return Handle{}, err
	}

	if sliceCount == 0 {
		finishJob.mu.Lock()
		finishJob.work = finishWork{pf: work}
		finishJob.mu.Unlock()

		linkDependencies(finishJob, deps)
		s.stats.scheduled.Add(1)
		s.stageIfReady(finishJob)
		return Handle{sched: s, job: finishJob, ver: finishJob.currentVersion()}, nil
	}

	// Acquire every slice record before linking or staging anything: if the
	// pool is exhausted partway through, nothing has been published to
	// s.pending yet, so there is nothing to roll back beyond releasing what
	// was acquired so far.
	sliceJobs := make([]*job, 0, sliceCount)
	for i := 0; i < sliceCount; i++ {
		sj, err := s.pool.acquire()
		if err != nil {
			for _, acquired := range sliceJobs {
				s.pool.release(acquired)
			}
			s.pool.release(finishJob)
			return Handle{}, err
		}
		sliceJobs = append(sliceJobs, sj)
	}

	finishJob.mu.Lock()
	finishJob.work = finishWork{pf: work}
	finishJob.mu.Unlock()

	rd := newRangeDeque(0, int64(n), int64(batch))
	shared := &parallelForRange{rd: rd}

	sliceHandles := make([]Handle, 0, sliceCount)
	for i, sj := range sliceJobs {
		sj.mu.Lock()
		sj.work = &sliceWork{pf: work, shared: shared, owner: i == 0}
		sj.mu.Unlock()

		linkDependencies(sj, deps)
		s.stats.scheduled.Add(1)
		s.stageIfReady(sj)

		sliceHandles = append(sliceHandles, Handle{sched: s, job: sj, ver: sj.currentVersion()})
	}

	linkDependencies(finishJob, sliceHandles)
	s.stats.scheduled.Add(1)
	s.stageIfReady(finishJob)

	return Handle{sched: s, job: finishJob, ver: finishJob.currentVersion()}, nil
}
