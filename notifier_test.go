package jobgraph

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type NotifierTestSuite struct {
	suite.Suite
}

func TestNotifierTestSuite(t *testing.T) {
	suite.Run(t, new(NotifierTestSuite))
}

func (ts *NotifierTestSuite) TestNotifyOneWakesOneWaiter() {
	n := newNotifier()
	done := make(chan struct{})
	go func() {
		n.wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	n.notifyOne()

	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("waiter was never woken")
	}
}

func (ts *NotifierTestSuite) TestNotifyOneIsCoalescedWithoutAWaiter() {
	n := newNotifier()
	n.notifyOne() // nobody waiting yet: remembered once

	done := make(chan struct{})
	go func() {
		n.wait() // should return immediately, consuming the remembered notification
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("pending notification was not consumed by the next wait")
	}
}

func (ts *NotifierTestSuite) TestNotifyAllWakesEveryWaiterPermanently() {
	n := newNotifier()
	const waiters = 5
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			defer wg.Done()
			n.wait()
		}()
	}

	time.Sleep(10 * time.Millisecond)
	n.notifyAll()

	ok := make(chan struct{})
	go func() {
		wg.Wait()
		close(ok)
	}()

	select {
	case <-ok:
	case <-time.After(time.Second):
		ts.Fail("not all waiters woke after notifyAll")
	}

	// Future waits must return immediately once shut down.
	done := make(chan struct{})
	go func() {
		n.wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("wait blocked after permanent shutdown")
	}
}

func (ts *NotifierTestSuite) TestDisposeIsIdempotent() {
	n := newNotifier()
	ts.NotPanics(func() {
		n.dispose()
		n.dispose()
	})
}

func (ts *NotifierTestSuite) TestWaitEventSignalIsIdempotentAndManualReset() {
	e := newWaitEvent()
	e.signal()
	e.signal() // idempotent

	done := make(chan struct{})
	go func() {
		e.wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		ts.Fail("wait did not return for an already-signaled event")
	}

	e.reset()
	waited := make(chan struct{})
	go func() {
		e.wait()
		close(waited)
	}()
	select {
	case <-waited:
		ts.Fail("wait returned immediately after reset")
	case <-time.After(50 * time.Millisecond):
	}

	e.signal()
	select {
	case <-waited:
	case <-time.After(time.Second):
		ts.Fail("wait never returned after re-signal")
	}
}
