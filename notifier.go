package jobgraph

import "sync"

// notifier is the wake-one/wake-all primitive that parks idle workers
// between steal attempts (C4). It is built on sync.Cond rather than a raw
// OS primitive — idiomatic for an embedded Go library, and the teacher
// package shows the same preference for stdlib synchronization primitives
// over hand-rolled ones throughout (sync.WaitGroup, sync.RWMutex).
//
// notifyOne is coalescing: a notification with no current waiter is
// remembered exactly once and consumed by the next wait call, never
// accumulated. notifyAll is permanent and is used only for shutdown: once
// called, every past and future wait call returns immediately.
type notifier struct {
	mu           sync.Mutex
	cond         *sync.Cond
	pending      bool
	shuttingDown bool
	disposeOnce  sync.Once
}

func newNotifier() *notifier {
	n := &notifier{}
	n.cond = sync.NewCond(&n.mu)
	return n
}

// wait blocks until a notification arrives, a prior coalesced notification
// is consumed, or shutdown has been signaled.
func (n *notifier) wait() {
	n.mu.Lock()
	for !n.pending && !n.shuttingDown {
		n.cond.Wait()
	}
	if !n.shuttingDown {
		n.pending = false
	}
	n.mu.Unlock()
}

// notifyOne wakes exactly one waiter, or remembers the notification for the
// next call to wait if nobody is currently blocked.
func (n *notifier) notifyOne() {
	n.mu.Lock()
	n.pending = true
	n.cond.Signal()
	n.mu.Unlock()
}

// notifyAll wakes every waiter and makes all future waits return
// immediately. Used only during dispose.
func (n *notifier) notifyAll() {
	n.mu.Lock()
	n.shuttingDown = true
	n.cond.Broadcast()
	n.mu.Unlock()
}

// dispose releases the notifier. Idempotent; safe to call more than once.
// sync.Cond holds no OS resources of its own, so this exists for symmetry
// with the spec's C4 contract and as the single place a future
// OS-primitive-backed implementation would release them.
func (n *notifier) dispose() {
	n.disposeOnce.Do(func() {
		n.mu.Lock()
		n.shuttingDown = true
		n.cond.Broadcast()
		n.mu.Unlock()
	})
}

// waitEvent is a manual-reset signal: one per job record, per spec §3's
// wait_event field. Unlike notifier it has no coalescing or wake-one
// semantics — it is either signaled (permanently, until reset) or not.
type waitEvent struct {
	mu    sync.Mutex
	ch    chan struct{}
	fired bool
}

func newWaitEvent() *waitEvent {
	return &waitEvent{ch: make(chan struct{})}
}

// signal sets the event. Idempotent.
func (e *waitEvent) signal() {
	e.mu.Lock()
	if !e.fired {
		e.fired = true
		close(e.ch)
	}
	e.mu.Unlock()
}

// wait blocks until signal has been called.
func (e *waitEvent) wait() {
	e.mu.Lock()
	ch := e.ch
	e.mu.Unlock()
	<-ch
}

// reset clears the event back to unsignaled, for reuse by a re-pooled job
// record. Must only be called when no goroutine holds a reference to the
// previous signaled state (i.e. under the job's lock, with
// waitSubs == 0).
func (e *waitEvent) reset() {
	e.mu.Lock()
	if e.fired {
		e.ch = make(chan struct{})
		e.fired = false
	}
	e.mu.Unlock()
}
