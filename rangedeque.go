package jobgraph

import "sync/atomic"

// rangeStatus is the three-valued result of a range deque operation.
type rangeStatus int

const (
	rangeEmpty rangeStatus = iota
	rangeAbort
	rangeSuccess
)

// indexRange is a half-open interval [Start, End) of work-item indices.
type indexRange struct {
	Start, End int64
}

// rangeDeque is the Chase–Lev deque specialization used by the parallel-for
// driver (C8): slot i names the sub-range [start+i*batch,
// min(start+(i+1)*batch, end)) rather than storing an element, so no backing
// buffer is needed — only five integers of state per deque. Follows the same
// atomic top/bottom protocol as workStealingDeque (deque.go), reduced to the
// no-buffer case the teacher package never needed because its jobs always
// carry a payload.
type rangeDeque struct {
	bottom atomic.Int64
	top    atomic.Int64

	start, end, batch int64
}

// newRangeDeque initializes a range deque over [start, start+count) split
// into batches of size batch. bottom is set to the number of batches; top to
// zero, matching set(start, count, batch) in the spec.
func newRangeDeque(start, count, batch int64) *rangeDeque {
	if batch <= 0 {
		batch = 1
	}
	numBatches := (count + batch - 1) / batch
	d := &rangeDeque{start: start, end: start + count, batch: batch}
	d.bottom.Store(numBatches)
	d.top.Store(0)
	return d
}

func (d *rangeDeque) rangeAt(i int64) indexRange {
	lo := d.start + i*d.batch
	hi := lo + d.batch
	if hi > d.end {
		hi = d.end
	}
	return indexRange{Start: lo, End: hi}
}

// tryPopBottom removes a batch index from the bottom. Owner-only.
func (d *rangeDeque) tryPopBottom() (indexRange, rangeStatus) {
	b := d.bottom.Load() - 1
	d.bottom.Store(b)

	t := d.top.Load()
	size := b - t

	if size < 0 {
		d.bottom.Store(t)
		return indexRange{}, rangeEmpty
	}

	candidate := d.rangeAt(b)

	if size > 0 {
		return candidate, rangeSuccess
	}

	if !d.top.CompareAndSwap(t, t+1) {
		d.bottom.Store(t + 1)
		return indexRange{}, rangeAbort
	}
	d.bottom.Store(t + 1)
	return candidate, rangeSuccess
}

// trySteal removes a batch index from the top. Any number of thieves call
// this concurrently.
func (d *rangeDeque) trySteal() (indexRange, rangeStatus) {
	t := d.top.Load()
	b := d.bottom.Load()

	if b-t <= 0 {
		return indexRange{}, rangeEmpty
	}

	candidate := d.rangeAt(t)

	if !d.top.CompareAndSwap(t, t+1) {
		return indexRange{}, rangeAbort
	}
	return candidate, rangeSuccess
}
