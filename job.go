package jobgraph

import "sync"

// Work is the user job contract (§6): an object supplying Execute, called
// by the library exactly once per scheduling. job.work is nil only for the
// synthetic jobs created by CombineDependencies (§4.6).
type Work interface {
	Execute()
}

// WorkFunc adapts a plain function to Work, the same convenience the
// teacher package gets for free from Processor being a function type.
type WorkFunc func()

func (f WorkFunc) Execute() { f() }

// job is a pooled, version-tagged record (C5). Every mutation of version,
// work, depCount, dependents, waitSubs, and isComplete happens under mu, per
// spec invariant 1-6; depCount decrements performed by a sibling executing
// job take this job's own mu, never a separate lock.
type job struct {
	mu sync.Mutex

	version    uint32
	work       Work
	depCount   int
	dependents []*job
	event      *waitEvent
	waitSubs   int
	isComplete bool

	pool *jobPool
}

func newJob(p *jobPool) *job {
	return &job{event: newWaitEvent(), pool: p}
}

// tryAddDependent appends dependent to j's dependents list and returns true,
// provided j is still at version and not yet complete. If j is stale the
// call is a silent no-op and returns false — the spec's "dependency handle
// that is already stale is silently dropped" failure semantics.
func (j *job) tryAddDependent(dependent *job, version uint32) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.version != version || j.isComplete {
		return false
	}
	j.dependents = append(j.dependents, dependent)
	return true
}

// incrementDepCount is called by schedule immediately after tryAddDependent
// succeeds, under the dependent's own lock.
func (j *job) incrementDepCount() {
	j.mu.Lock()
	j.depCount++
	j.mu.Unlock()
}

// isReadyLocked reports depCount == 0. Caller must hold j.mu.
func (j *job) isReadyLocked() bool {
	return j.depCount == 0
}

// snapshotVersion returns the current version under lock, for Handle
// staleness checks that must not race a concurrent re-pool.
func (j *job) snapshotVersion() (version uint32, complete bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.version, j.isComplete
}

// trySubscribe registers a waiter on j's wait event, provided the handle
// that named j is still live. Returns the event to wait on and true, or
// (nil, false) if the job is already stale (already complete, or recycled
// and reissued under a new version) — in which case the caller has nothing
// to wait for.
func (j *job) trySubscribe(version uint32) (*waitEvent, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.version != version || j.isComplete {
		return nil, false
	}
	j.waitSubs++
	return j.event, true
}

// unsubscribe decrements the waiter count and, if this was the last
// subscriber of an already-complete job, returns the record to its pool.
func (j *job) unsubscribe() {
	j.mu.Lock()
	j.waitSubs--
	release := j.isComplete && j.waitSubs <= 0
	j.mu.Unlock()
	if release {
		j.pool.release(j)
	}
}

// finishAndCollectReady marks j complete, decrements every dependent's
// depCount under the dependent's own lock, and returns the subset that
// reached zero — newly runnable because j was their last outstanding
// dependency. Called by the worker that just ran j.work, with no lock held.
func (j *job) finishAndCollectReady() []*job {
	j.mu.Lock()
	j.isComplete = true
	deps := j.dependents
	subs := j.waitSubs
	j.mu.Unlock()

	var ready []*job
	for _, dep := range deps {
		dep.mu.Lock()
		dep.depCount--
		if dep.depCount == 0 {
			ready = append(ready, dep)
		}
		dep.mu.Unlock()
	}

	if subs > 0 {
		j.event.signal()
	} else {
		j.pool.release(j)
	}
	return ready
}

// jobPool owns a fixed-capacity ring of job records (C5). acquire pops a
// free record or, on overflow, either allocates a new one or fails with
// ErrPoolExhausted depending on strict. Recycled records keep their
// allocated dependents slice (truncated, not freed) so steady-state
// operation performs no heap allocation, matching spec §4.5/P5.
type jobPool struct {
	free   chan *job
	strict bool
}

func newJobPool(capacity int, strict bool) *jobPool {
	p := &jobPool{
		free:   make(chan *job, capacity),
		strict: strict,
	}
	for i := 0; i < capacity; i++ {
		p.free <- newJob(p)
	}
	return p
}

// acquire pops a free job record, or overflows per the strict flag.
func (p *jobPool) acquire() (*job, error) {
	select {
	case j := <-p.free:
		return j, nil
	default:
	}
	if p.strict {
		return nil, ErrPoolExhausted
	}
	return newJob(p), nil
}

// release resets a completed job's fields and returns it to the ring. Jobs
// that overflowed a full pool (strict == false case) are simply dropped for
// the garbage collector when the ring has no room left for them.
func (p *jobPool) release(j *job) {
	j.mu.Lock()
	j.version++
	j.work = nil
	j.depCount = 0
	j.dependents = j.dependents[:0]
	j.isComplete = false
	j.waitSubs = 0
	j.event.reset()
	j.mu.Unlock()

	select {
	case p.free <- j:
	default:
		// Ring is at capacity (this job was an overflow allocation); let
		// the garbage collector reclaim it instead of blocking.
	}
}
