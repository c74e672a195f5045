package progress

import (
	"math"
	"time"
)

// Status of a bar.
type Status uint8

const (
	StatusActive Status = iota
	StatusFinished
	StatusAbandoned
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	case StatusAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// IsTerminal returns true if no further progress can be recorded.
func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// FinishPolicy controls what happens to the line of a finished bar.
type FinishPolicy uint8

const (
	// FinishDefault uses the policy of the Multi that draws the bar.
	FinishDefault FinishPolicy = iota
	// FinishLeave keeps the final line printed. When the bar is removed from
	// a Multi the line stays above the remaining bars.
	FinishLeave
	// FinishErase removes the line of the bar once it is finished.
	FinishErase
)

func (p FinishPolicy) String() string {
	switch p {
	case FinishLeave:
		return "leave"
	case FinishErase:
		return "erase"
	}
	return "default"
}

// state is the mutable record of one bar. It is guarded by Bar.mu.
type state struct {
	pos        uint64
	length     uint64
	hasLength  bool
	message    string
	prefix     string
	status     Status
	started    time.Time
	lastUpdate time.Time
	ticks      uint64
	est        estimator
}

func newState(length uint64, hasLength bool, window time.Duration, now time.Time) state {
	return state{
		length:     length,
		hasLength:  hasLength,
		started:    now,
		lastUpdate: now,
		est:        newEstimator(window, 0, now),
	}
}

func (s *state) clamp(pos uint64) uint64 {
	if s.hasLength && pos > s.length {
		return s.length
	}
	return pos
}

// inc advances the position by delta, saturating at the length.
func (s *state) inc(delta uint64, now time.Time) {
	pos := s.pos + delta
	if pos < s.pos {
		pos = ^uint64(0)
	}
	s.setPos(pos, now)
}

// setPos moves to pos. Moving backwards restarts the rate estimate.
func (s *state) setPos(pos uint64, now time.Time) {
	s.pos = s.clamp(pos)
	s.lastUpdate = now
	s.est.record(s.pos, now)
}

func (s *state) setLength(length uint64, now time.Time) {
	s.length = length
	s.hasLength = true
	s.setPos(s.pos, now)
}

func (s *state) touch(now time.Time) {
	s.lastUpdate = now
	s.est.record(s.pos, now)
}

func (s *state) finish(status Status, now time.Time) {
	if status == StatusFinished && s.hasLength {
		s.pos = s.length
	}
	s.status = status
	s.lastUpdate = now
}

func (s *state) reset(now time.Time) {
	s.pos = 0
	s.status = StatusActive
	s.started = now
	s.lastUpdate = now
	s.est.reset(0, now)
}

// Snapshot is an immutable copy of the state of a bar, taken at one instant.
// Templates are rendered from snapshots so that rendering never observes a
// partially applied update.
type Snapshot struct {
	Position  uint64
	Length    uint64
	HasLength bool
	Message   string
	Prefix    string
	Status    Status
	Ticks     uint64

	Started    time.Time
	LastUpdate time.Time
	// Taken is the time the snapshot was taken.
	Taken time.Time

	// Rate is the smoothed throughput in steps per second. It is only
	// meaningful when RateKnown is true.
	Rate      float64
	RateKnown bool
	// ETA is the estimated time until Position reaches Length. It is only
	// meaningful when ETAKnown is true.
	ETA      time.Duration
	ETAKnown bool
}

func (s *state) snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Position:   s.pos,
		Length:     s.length,
		HasLength:  s.hasLength,
		Message:    s.message,
		Prefix:     s.prefix,
		Status:     s.status,
		Ticks:      s.ticks,
		Started:    s.started,
		LastUpdate: s.lastUpdate,
		Taken:      now,
	}

	switch s.status {
	case StatusActive:
		snap.Rate, snap.RateKnown = s.est.rate(now)
	default:
		// average over the whole run once nothing is moving anymore
		if elapsed := s.lastUpdate.Sub(s.started); elapsed > 0 && s.pos > 0 {
			snap.Rate, snap.RateKnown = float64(s.pos)/elapsed.Seconds(), true
		}
	}

	switch {
	case !s.hasLength:
	case s.status == StatusFinished:
		snap.ETAKnown = true
	case s.status == StatusActive && snap.RateKnown:
		remaining := float64(s.length - s.pos)
		snap.ETA = secondsToDuration(remaining / snap.Rate)
		snap.ETAKnown = true
	}
	return snap
}

func secondsToDuration(secs float64) time.Duration {
	const max = float64(1<<63-1) / float64(time.Second)
	if secs >= max {
		return time.Duration(1<<63 - 1)
	}
	return time.Duration(secs * float64(time.Second))
}

// Elapsed returns the time since the bar was started.
func (s Snapshot) Elapsed() time.Duration {
	if s.Status.IsTerminal() {
		return s.LastUpdate.Sub(s.Started)
	}
	return s.Taken.Sub(s.Started)
}

// Duration returns the expected total duration, elapsed time plus ETA.
func (s Snapshot) Duration() (time.Duration, bool) {
	if !s.ETAKnown {
		return 0, false
	}
	return s.Elapsed() + s.ETA, true
}

// Fraction returns the completion between 0 and 1. A bar with a length of
// zero is complete, a bar without a length is at zero.
func (s Snapshot) Fraction() float64 {
	switch {
	case !s.HasLength:
		return 0
	case s.Length == 0:
		return 1
	}
	f := float64(s.Position) / float64(s.Length)
	if f > 1 {
		return 1
	}
	return f
}

// Percent returns the completion as an integer between 0 and 100.
func (s Snapshot) Percent() int {
	if s.HasLength && s.Length > 0 && s.Position <= math.MaxUint64/100 {
		return int(min(s.Position*100/s.Length, 100))
	}
	return int(s.Fraction() * 100)
}
