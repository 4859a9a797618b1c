package jobgraph

import "sync"

// masterQueue is the single multi-producer/multi-consumer queue that
// receives flushed jobs (§4.6). Only Flush enqueues (a batch at a time,
// order preserved); any worker may dequeue. In practice enqueues are
// producer-only, as the spec notes, so a mutex-guarded ring is simpler and
// just as correct as a lock-free MPMC queue here — the lock-freedom budget
// of this library is spent on the per-worker deques (C2/C3), which are the
// structures actually on the steal hot path.
type masterQueue struct {
	mu    sync.Mutex
	items []*job
	head  int
}

func newMasterQueue() *masterQueue {
	return &masterQueue{}
}

// enqueueAll appends jobs to the queue, preserving order.
func (q *masterQueue) enqueueAll(jobs []*job) {
	if len(jobs) == 0 {
		return
	}
	q.mu.Lock()
	q.items = append(q.items, jobs...)
	q.mu.Unlock()
}

// tryDequeue removes and returns the oldest queued job, if any.
func (q *masterQueue) tryDequeue() (*job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= len(q.items) {
		if q.head > 0 {
			q.items = q.items[:0]
			q.head = 0
		}
		return nil, false
	}
	j := q.items[q.head]
	q.items[q.head] = nil
	q.head++

	// Compact once consumed entries dominate, so the backing array doesn't
	// grow without bound across many flush/drain cycles.
	if q.head > 64 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return j, true
}
