package progress

import (
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// detached is the owner of bars that were removed from a Multi, so that later
// updates to those bars are never drawn.
var detached = &Multi{target: Hidden(), clock: clockwork.NewRealClock()}

// Alignment is the vertical placement of the bars of a Multi when the number
// of lines drawn shrinks.
type Alignment uint8

const (
	// AlignTop keeps the first bar on the first line of the region, the
	// region shrinks with the number of lines.
	AlignTop Alignment = iota
	// AlignBottom keeps the last bar on the last line of the region. The
	// lines freed at the top are left blank until the region is cleared.
	AlignBottom
)

func (a Alignment) String() string {
	if a == AlignBottom {
		return "bottom"
	}
	return "top"
}

// Multi draws a group of bars on one DrawTarget. The bars are drawn as a
// block of lines, in the order they were inserted. All writes to the target
// are serialized by the Multi, bars may be updated from any goroutine.
type Multi struct {
	target *DrawTarget
	clock  clockwork.Clock

	mu           sync.Mutex
	members      []*Bar
	orphans      []string
	finishPolicy FinishPolicy
	alignment    Alignment
	suspended    bool
	tickInterval time.Duration
	ticker       *ticker

	flushArmed atomic.Bool
	steady     atomic.Bool

	// queued lines are printed above the bars by the next draw. They are
	// guarded by their own lock, so lines can be queued while mu is held.
	queueMu sync.Mutex
	queued  []string
}

// NewMulti returns a Multi that draws on target. A nil target draws on
// Stderr.
func NewMulti(target *DrawTarget) *Multi {
	if target == nil {
		target = Stderr()
	}
	return &Multi{target: target, clock: clock, finishPolicy: FinishLeave}
}

// Target returns the target the Multi draws on.
func (m *Multi) Target() *DrawTarget {
	return m.target
}

// SetFinishPolicy sets what happens to the line of a finished bar that has no
// policy of its own. The default is FinishLeave.
func (m *Multi) SetFinishPolicy(policy FinishPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishPolicy = policy
}

// SetAlignment sets how the bars are placed when lines are removed. The
// default is AlignTop.
func (m *Multi) SetAlignment(align Alignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alignment = align
}

// Add appends b below the other bars and returns its index.
func (m *Multi) Add(b *Bar) int {
	return m.insert(b, func(members []*Bar) int {
		return len(members)
	})
}

// Insert inserts b at index. An index past the end appends b.
func (m *Multi) Insert(index int, b *Bar) int {
	return m.insert(b, func([]*Bar) int {
		return index
	})
}

// InsertFromBack inserts b index lines from the bottom. An index of zero
// appends b.
func (m *Multi) InsertFromBack(index int, b *Bar) int {
	return m.insert(b, func(members []*Bar) int {
		return len(members) - index
	})
}

// InsertBefore inserts b above ref. If ref is not part of the Multi, b is
// appended.
func (m *Multi) InsertBefore(ref, b *Bar) int {
	return m.insert(b, func(members []*Bar) int {
		if i := slices.Index(members, ref); i >= 0 {
			return i
		}
		return len(members)
	})
}

// InsertAfter inserts b below ref. If ref is not part of the Multi, b is
// appended.
func (m *Multi) InsertAfter(ref, b *Bar) int {
	return m.insert(b, func(members []*Bar) int {
		if i := slices.Index(members, ref); i >= 0 {
			return i + 1
		}
		return len(members)
	})
}

func (m *Multi) insert(b *Bar, index func(members []*Bar) int) int {
	b.detach(m)

	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.Index(m.members, b); i >= 0 {
		m.members = slices.Delete(m.members, i, i+1)
	}
	i := index(m.members)
	switch {
	case i < 0:
		i = 0
	case i > len(m.members):
		i = len(m.members)
	}
	m.members = slices.Insert(m.members, i, b)
	b.owner.Store(m)

	if b.isActive() {
		m.startTickerLocked()
	}
	m.drawLocked(false)
	return i
}

// Remove b from the Multi. A finished bar with the FinishLeave policy stays
// printed above the remaining bars, any other bar is erased.
func (m *Multi) Remove(b *Bar) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.Index(m.members, b)
	if i < 0 {
		return
	}
	now := m.clock.Now()
	m.orphans = append(m.orphans, b.leftover(m.target.Width(), now, m.finishPolicy)...)
	m.members = slices.Delete(m.members, i, i+1)
	b.owner.CompareAndSwap(m, detached)
	m.drawLocked(true)
}

// Len returns the number of bars in the Multi.
func (m *Multi) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

// Println prints msg above the bars. The line is never redrawn.
func (m *Multi) Println(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orphans = append(m.orphans, strings.Split(msg, "\n")...)
	m.drawLocked(true)
}

// Suspend erases the bars, runs fn, and draws the bars again. Redraws
// requested while fn runs are dropped, so fn can write to the terminal.
func (m *Multi) Suspend(fn func()) {
	m.mu.Lock()
	m.target.Clear()
	m.suspended = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.suspended = false
		m.drawLocked(true)
	}()
	fn()
}

// Clear erases the bars. They are drawn again on the next update.
func (m *Multi) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target.Clear()
}

// Redraw draws all the bars now, ignoring the refresh interval.
func (m *Multi) Redraw() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawLocked(true)
}

// requestRedraw draws all the bars, unless the refresh interval has not
// passed since the last write. In that case a single deferred draw is
// scheduled for when it has.
func (m *Multi) requestRedraw() {
	if m.flushArmed.Load() && !m.target.ready(m.clock.Now()) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drawLocked(false)
}

// drawLocked renders every bar and hands the frame to the target. The caller
// must hold m.mu.
func (m *Multi) drawLocked(force bool) drawResult {
	switch {
	case m.suspended:
		return drawSkipped
	case !m.target.active():
		m.orphans = nil
		m.takeQueued()
		return drawSkipped
	}
	now := m.clock.Now()
	if !force && !m.target.ready(now) {
		m.armFlushLocked(now)
		return drawLimited
	}

	width := m.target.Width()
	var lines []string
	for _, b := range m.members {
		lines = append(lines, b.render(width, now, m.finishPolicy)...)
	}
	persistent := append(m.orphans, m.takeQueued()...)
	m.orphans = nil

	result := m.target.draw(persistent, lines, m.alignment, force, now)
	if result == drawLimited {
		m.armFlushLocked(now)
	}
	return result
}

// printQueued prints lines above the bars like Println. It may be called
// while m.mu is held, for example by a logger writing from inside a draw, in
// which case the lines are drawn by a separate goroutine once m.mu is free.
func (m *Multi) printQueued(lines []string) {
	m.queueMu.Lock()
	m.queued = append(m.queued, lines...)
	m.queueMu.Unlock()

	if !m.mu.TryLock() {
		go m.Redraw()
		return
	}
	defer m.mu.Unlock()
	m.drawLocked(true)
}

func (m *Multi) takeQueued() []string {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	lines := m.queued
	m.queued = nil
	return lines
}

func (m *Multi) armFlushLocked(now time.Time) {
	if !m.flushArmed.CompareAndSwap(false, true) {
		return
	}
	m.clock.AfterFunc(m.target.retryAfter(now), m.flush)
}

func (m *Multi) flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushArmed.Store(false)
	m.drawLocked(false)
}
