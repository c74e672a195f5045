package progress

import (
	"math"
	"time"
)

// DefaultRateWindow is the time constant of the throughput average. A sample
// taken this long ago has 1/e of the weight of a sample taken now.
const DefaultRateWindow = 15 * time.Second

// estimator computes a smoothed throughput in steps per second.
//
// It is an exponentially weighted moving average where the weight of every
// sample is proportional to the wall time it covers, not to the number of
// calls. A burst of updates in a short interval contributes the same as a
// single update covering that interval. The average starts at zero and is
// debiased by the total weight recorded so far, so early estimates are not
// dragged towards zero.
type estimator struct {
	window   time.Duration
	smoothed float64
	// remaining is the weight still assigned to the zero initial value.
	remaining float64
	prevPos   uint64
	prevTime  time.Time

	// the interval folded in last, and the average before it was folded in
	last          span
	lastSmoothed  float64
	lastRemaining float64
}

type span struct {
	pos   uint64
	start time.Time
	ok    bool
}

func newEstimator(window time.Duration, pos uint64, now time.Time) estimator {
	if window <= 0 {
		window = DefaultRateWindow
	}
	return estimator{window: window, remaining: 1, prevPos: pos, prevTime: now}
}

func (e *estimator) reset(pos uint64, now time.Time) {
	*e = newEstimator(e.window, pos, now)
}

// record a position observed at now.
func (e *estimator) record(pos uint64, now time.Time) {
	if pos < e.prevPos {
		e.reset(pos, now)
		return
	}
	dt := now.Sub(e.prevTime)
	if dt <= 0 {
		e.extend(pos)
		return
	}
	e.last = span{pos: e.prevPos, start: e.prevTime, ok: true}
	e.lastSmoothed, e.lastRemaining = e.smoothed, e.remaining
	sample := float64(pos-e.prevPos) / dt.Seconds()
	e.smoothed, e.remaining = e.fold(e.smoothed, e.remaining, sample, dt)
	e.prevPos = pos
	e.prevTime = now
}

// extend the last interval to end at pos, for an update at the same instant
// as the previous one. Before any interval was recorded the progress is left
// for the first one.
func (e *estimator) extend(pos uint64) {
	if !e.last.ok {
		return
	}
	dt := e.prevTime.Sub(e.last.start)
	sample := float64(pos-e.last.pos) / dt.Seconds()
	e.smoothed, e.remaining = e.fold(e.lastSmoothed, e.lastRemaining, sample, dt)
	e.prevPos = pos
}

func (e *estimator) fold(smoothed, remaining, sample float64, dt time.Duration) (float64, float64) {
	decay := math.Exp(-dt.Seconds() / e.window.Seconds())
	return decay*smoothed + (1-decay)*sample, remaining * decay
}

// rate returns the throughput at now. The time since the last recorded
// sample counts as an interval with no progress, so a stalled bar slows down
// instead of reporting its last rate forever. The second return value is
// false while no wall time has been observed, or the rate is not a positive
// finite number.
func (e *estimator) rate(now time.Time) (float64, bool) {
	smoothed, remaining := e.smoothed, e.remaining
	if dt := now.Sub(e.prevTime); dt > 0 && remaining < 1 {
		smoothed, remaining = e.fold(smoothed, remaining, 0, dt)
	}
	if remaining >= 1 {
		return 0, false
	}
	r := smoothed / (1 - remaining)
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
		return 0, false
	}
	return r, true
}
