package jobgraph

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type JobPoolTestSuite struct {
	suite.Suite
}

func TestJobPoolTestSuite(t *testing.T) {
	suite.Run(t, new(JobPoolTestSuite))
}

func (ts *JobPoolTestSuite) TestAcquireReturnsDistinctRecordsUpToCapacity() {
	p := newJobPool(4, true)
	seen := map[*job]bool{}
	for i := 0; i < 4; i++ {
		j, err := p.acquire()
		ts.NoError(err)
		ts.False(seen[j])
		seen[j] = true
	}
}

// TestP6StrictModeExhaustion is spec property P6: under strict allocation,
// the (max+1)-th concurrent acquire fails with ErrPoolExhausted.
func (ts *JobPoolTestSuite) TestP6StrictModeExhaustion() {
	p := newJobPool(32, true)
	for i := 0; i < 32; i++ {
		_, err := p.acquire()
		ts.NoError(err)
	}
	_, err := p.acquire()
	ts.ErrorIs(err, ErrPoolExhausted)
}

func (ts *JobPoolTestSuite) TestNonStrictModeOverflowsLazily() {
	p := newJobPool(2, false)
	_, err := p.acquire()
	ts.NoError(err)
	_, err = p.acquire()
	ts.NoError(err)
	j, err := p.acquire()
	ts.NoError(err)
	ts.NotNil(j)
}

func (ts *JobPoolTestSuite) TestReleaseBumpsVersionAndClearsState() {
	p := newJobPool(1, true)
	j, err := p.acquire()
	ts.NoError(err)

	j.mu.Lock()
	j.work = WorkFunc(func() {})
	j.dependents = append(j.dependents, &job{})
	j.depCount = 1
	v0 := j.version
	j.mu.Unlock()

	p.release(j)

	j.mu.Lock()
	ts.Equal(v0+1, j.version)
	ts.Nil(j.work)
	ts.Equal(0, j.depCount)
	ts.Len(j.dependents, 0)
	ts.False(j.isComplete)
	j.mu.Unlock()

	j2, err := p.acquire()
	ts.NoError(err)
	ts.Same(j, j2)
}

// TestP7HandleIsolation is spec property P7: a handle whose underlying
// record has been re-pooled and reissued must not be mistaken for the new
// job; Complete on the old handle returns immediately.
func (ts *JobPoolTestSuite) TestP7HandleIsolation() {
	p := newJobPool(1, true)
	j, err := p.acquire()
	ts.NoError(err)

	staleVersion := j.currentVersion()
	staleHandle := Handle{job: j, ver: staleVersion}

	ts.False(staleHandle.Stale())

	p.release(j) // simulate completion + repool
	j2, err := p.acquire()
	ts.NoError(err)
	ts.Same(j, j2) // same record, reissued

	ts.True(staleHandle.Stale())
}

func (ts *JobPoolTestSuite) TestTryAddDependentRejectsStaleDependency() {
	p := newJobPool(2, true)
	dep, _ := p.acquire()
	dependent, _ := p.acquire()

	staleVersion := dep.currentVersion()
	p.release(dep) // dep is now stale relative to staleVersion

	ok := dep.tryAddDependent(dependent, staleVersion)
	ts.False(ok)
}

func (ts *JobPoolTestSuite) TestFinishAndCollectReadyDecrementsDependents() {
	p := newJobPool(4, true)
	parent, _ := p.acquire()
	childA, _ := p.acquire()
	childB, _ := p.acquire()

	ts.True(parent.tryAddDependent(childA, parent.currentVersion()))
	childA.incrementDepCount()
	ts.True(parent.tryAddDependent(childB, parent.currentVersion()))
	childB.incrementDepCount()

	ready := parent.finishAndCollectReady()
	ts.Len(ready, 2)
	ts.ElementsMatch([]*job{childA, childB}, ready)
}

func (ts *JobPoolTestSuite) TestCompleteSubscribeUnsubscribeRepoolsOnLastUnsubscribe() {
	p := newJobPool(1, true)
	j, _ := p.acquire()
	ver := j.currentVersion()

	event, ok := j.trySubscribe(ver)
	ts.True(ok)

	j.finishAndCollectReady() // marks complete; waitSubs>0 so it signals instead of repooling
	event.wait()

	j.unsubscribe() // last subscriber: should repool now

	j2, err := p.acquire()
	ts.NoError(err)
	ts.Same(j, j2)
}
