package jobgraph

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"runtime/trace"
	"sync"
	"sync/atomic"
)

// Scheduler is the producer-facing handle for a fixed pool of worker
// goroutines executing a dependency graph of small jobs (C7). Construct one
// with New or NewWithConfig from whichever goroutine will act as the
// producer: Schedule, ScheduleParallelFor, CombineDependencies, Flush, and
// Dispose must all be called from that same goroutine afterward. Complete
// may be called from any goroutine, including a worker mid-job.
type Scheduler struct {
	cfg      Config
	pool     *jobPool
	ownerGID uint64

	deques []*workStealingDeque[*job]
	master *masterQueue
	notif  *notifier

	pending []*job // producer-thread-only staging list, not yet visible to workers

	numActives atomic.Int32
	numThieves atomic.Int32
	cancelled  atomic.Bool

	wg    sync.WaitGroup
	once  sync.Once
	stats schedulerStats
}

// New constructs a Scheduler with DefaultConfig and starts its worker
// goroutines. The calling goroutine becomes the producer.
func New() *Scheduler {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig constructs a Scheduler with cfg (defaulted via
// Config.withDefaults) and starts its worker goroutines. The calling
// goroutine becomes the producer.
func NewWithConfig(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()

	s := &Scheduler{
		cfg:      cfg,
		pool:     newJobPool(cfg.MaxConcurrentJobs, cfg.StrictAllocation),
		ownerGID: goroutineID(),
		master:   newMasterQueue(),
		notif:    newNotifier(),
	}

	s.deques = make([]*workStealingDeque[*job], cfg.ThreadCount)
	for i := range s.deques {
		s.deques[i] = newWorkStealingDeque[*job](32)
	}

	s.wg.Add(cfg.ThreadCount)
	for i := 0; i < cfg.ThreadCount; i++ {
		go s.workerLoop(i)
	}

	return s
}

func (s *Scheduler) checkOwnerThread() error {
	if goroutineID() != s.ownerGID {
		return ErrWrongThread
	}
	return nil
}

func (s *Scheduler) checkHandles(handles []Handle) error {
	for _, h := range handles {
		if !h.sameScheduler(s) {
			return ErrForeignHandle
		}
	}
	return nil
}

// linkDependencies wires dependent to every live handle in deps, silently
// dropping any handle that is already stale, and increments dependent's
// depCount once per handle it was linked to.
func linkDependencies(dependent *job, deps []Handle) {
	for _, d := range deps {
		if d.job == nil {
			continue
		}
		if d.job.tryAddDependent(dependent, d.ver) {
			dependent.incrementDepCount()
		}
	}
}

// stageIfReady appends j to the producer-thread pending list if it has no
// outstanding dependencies.
func (s *Scheduler) stageIfReady(j *job) {
	j.mu.Lock()
	ready := j.isReadyLocked()
	j.mu.Unlock()
	if ready {
		s.pending = append(s.pending, j)
	}
}

func (j *job) currentVersion() uint32 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.version
}

// Schedule acquires a job record for work, links it to deps (dependencies
// already stale are silently dropped), and stages it for the next Flush if
// it has no outstanding dependency. Must be called from the scheduler's
// owning goroutine.
func (s *Scheduler) Schedule(work Work, deps ...Handle) (Handle, error) {
	if err := s.checkOwnerThread(); err != nil {
		return Handle{}, err
	}
	if err := s.checkHandles(deps); err != nil {
		return Handle{}, err
	}

	j, err := s.pool.acquire()
	if err != nil {
		return Handle{}, err
	}

	j.mu.Lock()
	j.work = work
	j.mu.Unlock()

	linkDependencies(j, deps)
	s.stats.scheduled.Add(1)
	s.stageIfReady(j)

	return Handle{sched: s, job: j, ver: j.currentVersion()}, nil
}

// CombineDependencies creates a synthetic job with no user work whose sole
// purpose is to complete once every handle in deps has completed — the
// logical AND of its inputs (§4.6). Must be called from the scheduler's
// owning goroutine.
func (s *Scheduler) CombineDependencies(deps ...Handle) (Handle, error) {
	if err := s.checkOwnerThread(); err != nil {
		return Handle{}, err
	}
	if err := s.checkHandles(deps); err != nil {
		return Handle{}, err
	}

	j, err := s.pool.acquire()
	if err != nil {
		return Handle{}, err
	}

	linkDependencies(j, deps)
	s.stats.scheduled.Add(1)
	s.stageIfReady(j)

	return Handle{sched: s, job: j, ver: j.currentVersion()}, nil
}

// Flush publishes every staged, ready job to the master queue in the order
// they were scheduled and wakes one worker. Must be called from the
// scheduler's owning goroutine.
func (s *Scheduler) Flush() error {
	if err := s.checkOwnerThread(); err != nil {
		return err
	}
	if len(s.pending) == 0 {
		return nil
	}
	s.master.enqueueAll(s.pending)
	s.pending = s.pending[:0]
	s.notif.notifyOne()
	return nil
}

// Complete blocks the caller until h is stale (the job it named has
// completed). May be called concurrently, from any goroutine including a
// worker executing a different job, and returns immediately for a handle
// that is already stale. Calling Complete on a handle whose job was never
// flushed blocks forever — the caller's responsibility to avoid (§7).
func (s *Scheduler) Complete(h Handle) error {
	if !h.sameScheduler(s) {
		return ErrForeignHandle
	}
	if h.job == nil {
		return nil
	}
	event, ok := h.job.trySubscribe(h.ver)
	if !ok {
		return nil
	}
	event.wait()
	h.job.unsubscribe()
	return nil
}

// Dispose requests cancellation and wakes every worker. Idempotent; blocks
// until all worker goroutines have exited. Must be called from the
// scheduler's owning goroutine. Jobs already flushed are still run by the
// workers before they exit, so Dispose returns only once that work is done;
// jobs staged but not yet flushed are never run. Dispose does not make later
// Schedule, ScheduleParallelFor, CombineDependencies or Flush calls fail:
// they still return without error, but no worker remains to run what they
// stage.
func (s *Scheduler) Dispose() error {
	if err := s.checkOwnerThread(); err != nil {
		return err
	}
	s.once.Do(func() {
		s.cancelled.Store(true)
		s.notif.notifyAll()
		s.wg.Wait()
		s.notif.dispose()
	})
	return nil
}

// runJob executes j.work (absent for combine jobs), marks j complete, and
// feeds any now-ready dependents back into the executing worker: the first
// into cache (a single-slot LIFO fast path), the rest to the bottom of the
// worker's own deque.
func (s *Scheduler) runJob(id int, j *job, cache **job) {
	if j.work != nil {
		j.work.Execute()
	}
	ready := j.finishAndCollectReady()
	s.stats.completed.Add(1)

	if len(ready) == 0 {
		return
	}
	*cache = ready[0]
	for _, r := range ready[1:] {
		s.deques[id].pushBottom(r)
	}
}

// exploit drains the worker's cache and own deque, running every job it
// finds, until both are empty (Algorithm 3).
func (s *Scheduler) exploit(id int, cache **job) {
	if s.numActives.Add(1) == 1 && s.numThieves.Load() == 0 {
		s.notif.notifyOne()
	}

	for {
		var j *job
		if *cache != nil {
			j = *cache
			*cache = nil
		} else if popped, ok := s.deques[id].tryPopBottom(); ok {
			j = popped
		} else {
			break
		}
		s.runJob(id, j, cache)
	}

	s.numActives.Add(-1)
}

// explore repeatedly picks a random peer (including itself, which means
// "try the master queue instead") and attempts one steal, backing off to
// runtime.Gosched after 2*(numWorkers-1) failures and giving up after 100
// such yields (Algorithm 4).
func (s *Scheduler) explore(id int) (*job, bool) {
	n := len(s.deques)
	fails := 0
	yields := 0

	for {
		if s.cancelled.Load() {
			return nil, false
		}

		victim := rand.IntN(n)
		s.stats.stealAttempts.Add(1)

		var (
			task  *job
			found bool
		)
		if victim == id {
			task, found = s.master.tryDequeue()
		} else {
			task, found = s.deques[victim].trySteal()
		}

		if found {
			s.stats.stealSuccesses.Add(1)
			return task, true
		}

		fails++
		if fails > 2*(n-1) {
			runtime.Gosched()
			yields++
			if yields >= 100 {
				return nil, false
			}
		}
	}
}

// waitForTask implements the steal-or-sleep phase (Algorithm 5). It
// returns false when the caller should exit its worker loop (cancellation
// observed), true when it should loop back into exploit — either because a
// task was placed in cache, or because it just woke from notifier.wait and
// should try exploiting again.
func (s *Scheduler) waitForTask(id int, cache **job) bool {
	for {
		s.numThieves.Add(1)

		if task, found := s.explore(id); found {
			if s.numThieves.Add(-1) == 0 {
				s.notif.notifyOne()
			}
			*cache = task
			return true
		}

		if mj, ok := s.master.tryDequeue(); ok {
			if s.numThieves.Add(-1) == 0 {
				s.notif.notifyOne()
			}
			*cache = mj
			return true
		}

		if s.cancelled.Load() {
			s.numThieves.Add(-1)
			s.notif.notifyAll()
			return false
		}

		if s.numThieves.Add(-1) == 0 && s.numActives.Load() > 0 {
			continue
		}

		s.notif.wait()
		return true
	}
}

// workerLoop is one worker goroutine's body (Algorithm 1/2). The region
// covers the goroutine's entire lifetime, so it shows up once per worker in
// a runtime/trace capture under cfg.ThreadNamePrefix rather than once per
// job — tracing a lock-free scheduler at per-job granularity would dwarf
// the work it's measuring.
func (s *Scheduler) workerLoop(id int) {
	defer s.wg.Done()
	defer trace.StartRegion(context.Background(), fmt.Sprintf("%s-%d", s.cfg.ThreadNamePrefix, id)).End()

	var cache *job
	for {
		s.exploit(id, &cache)
		if !s.waitForTask(id, &cache) {
			return
		}
	}
}
