package jobgraph

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"
)

type RangeDequeTestSuite struct {
	suite.Suite
}

func TestRangeDequeTestSuite(t *testing.T) {
	suite.Run(t, new(RangeDequeTestSuite))
}

func (ts *RangeDequeTestSuite) TestSetComputesBatchCount() {
	d := newRangeDeque(0, 10, 3)
	ts.Equal(int64(4), d.bottom.Load()) // ceil(10/3) == 4
	ts.Equal(int64(0), d.top.Load())
}

func (ts *RangeDequeTestSuite) TestRangeAtComputesHalfOpenIntervals() {
	d := newRangeDeque(100, 10, 3)
	ts.Equal(indexRange{Start: 100, End: 103}, d.rangeAt(0))
	ts.Equal(indexRange{Start: 103, End: 106}, d.rangeAt(1))
	ts.Equal(indexRange{Start: 106, End: 109}, d.rangeAt(2))
	ts.Equal(indexRange{Start: 109, End: 110}, d.rangeAt(3)) // clipped to end
}

func (ts *RangeDequeTestSuite) TestPopThenEmpty() {
	d := newRangeDeque(0, 2, 1)
	_, status := d.tryPopBottom()
	ts.Equal(rangeSuccess, status)
	_, status = d.tryPopBottom()
	ts.Equal(rangeSuccess, status)
	_, status = d.tryPopBottom()
	ts.Equal(rangeEmpty, status)
}

// TestP1UniquenessUnderParallelStealing is spec property P1: for a Range
// Deque over [0, N) with batch B, accessed by one owner popping and k
// thieves stealing until empty, every integer in [0, N) is yielded exactly
// once across all successful operations.
func (ts *RangeDequeTestSuite) TestP1UniquenessUnderParallelStealing() {
	const n = 1_000_003 // deliberately not a clean multiple of the batch
	const batch = 17
	const thieves = 8

	d := newRangeDeque(0, n, batch)

	var covered atomic.Int64
	seen := make([]atomic.Bool, n)
	markRange := func(r indexRange) {
		for i := r.Start; i < r.End; i++ {
			if seen[i].Swap(true) {
				ts.Failf("duplicate index", "index %d yielded twice", i)
			}
		}
		covered.Add(r.End - r.Start)
	}

	var wg sync.WaitGroup
	wg.Add(thieves)
	for t := 0; t < thieves; t++ {
		go func() {
			defer wg.Done()
			for {
				r, status := d.trySteal()
				switch status {
				case rangeSuccess:
					markRange(r)
				case rangeAbort:
					continue
				case rangeEmpty:
					if d.top.Load() >= d.bottom.Load() {
						return
					}
				}
			}
		}()
	}

	for {
		r, status := d.tryPopBottom()
		switch status {
		case rangeSuccess:
			markRange(r)
		case rangeAbort:
			continue
		case rangeEmpty:
			goto drained
		}
	}
drained:

	wg.Wait()
	ts.Equal(int64(n), covered.Load())
	for i := range seen {
		ts.True(seen[i].Load(), "index %d never yielded", i)
	}
}
