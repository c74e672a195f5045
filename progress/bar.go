package progress

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// Options configure a new Bar.
type Options struct {
	// Length is the number of steps to completion.
	Length uint64
	// UnknownLength creates a bar that has no length, usually rendered as a
	// spinner. Length is ignored.
	UnknownLength bool
	// Style used to render the bar. Defaults to DefaultBarStyle, or
	// DefaultSpinnerStyle when the length is unknown.
	Style *Style
	// Template is compiled into a copy of Style, when set.
	Template string
	Prefix   string
	Message  string
	// OnFinish overrides the FinishPolicy of the Multi that draws the bar.
	OnFinish FinishPolicy
	// RateWindow is the time constant of the throughput average. Defaults to
	// DefaultRateWindow.
	RateWindow time.Duration
	// Target of a bar that is not added to a Multi. Defaults to Stderr.
	Target *DrawTarget
}

// Bar is the progress of one task. All methods are safe to call from
// multiple goroutines.
//
// A Bar is drawn by the Multi it was added to. A Bar that was never added to
// a Multi is drawn on Options.Target after its first update.
type Bar struct {
	clock    clockwork.Clock
	target   *DrawTarget
	onFinish FinishPolicy

	mu    sync.Mutex
	state state
	style *Style

	owner atomic.Pointer[Multi]
}

// New returns a Bar configured by opts. It returns an error if the template
// can not be compiled.
func New(opts Options) (*Bar, error) {
	style := opts.Style
	if style == nil {
		style = DefaultBarStyle()
		if opts.UnknownLength {
			style = DefaultSpinnerStyle()
		}
	}
	if opts.Template != "" {
		var err error
		if style, err = style.WithTemplate(opts.Template); err != nil {
			return nil, errors.Wrap(err, "failed to create bar")
		}
	}

	now := clock.Now()
	b := &Bar{
		clock:    clock,
		target:   opts.Target,
		onFinish: opts.OnFinish,
		style:    style,
		state:    newState(opts.Length, !opts.UnknownLength, opts.RateWindow, now),
	}
	b.state.message = opts.Message
	b.state.prefix = opts.Prefix
	return b, nil
}

func mustNew(opts Options) *Bar {
	b, err := New(opts)
	if err != nil {
		panic(err)
	}
	return b
}

// NewBar returns a Bar with the default style and length steps.
func NewBar(length uint64) *Bar {
	return mustNew(Options{Length: length})
}

// NewSpinner returns a Bar without a length, rendered with the default
// spinner style.
func NewSpinner() *Bar {
	return mustNew(Options{UnknownLength: true})
}

// update applies fn to the state, unless the bar is finished or abandoned,
// and requests a redraw.
func (b *Bar) update(fn func(s *state, now time.Time)) {
	b.mu.Lock()
	if b.state.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	now := b.clock.Now()
	fn(&b.state, now)
	if !b.steady() {
		b.state.ticks++
	}
	b.mu.Unlock()
	b.redraw(false)
}

// steady returns true while a ticker animates the bar.
func (b *Bar) steady() bool {
	m := b.owner.Load()
	return m != nil && m.steady.Load()
}

func (b *Bar) redraw(force bool) {
	m := b.owner.Load()
	if m == nil {
		m = b.standalone()
	}
	if force {
		m.Redraw()
		return
	}
	m.requestRedraw()
}

// standalone attaches the bar to a private Multi that draws on the target of
// the bar.
func (b *Bar) standalone() *Multi {
	target := b.target
	if target == nil {
		target = Stderr()
	}
	m := NewMulti(target)
	m.members = []*Bar{b}
	if b.owner.CompareAndSwap(nil, m) {
		return m
	}
	return b.owner.Load()
}

// detach removes the bar from the Multi that draws it, unless that is next.
func (b *Bar) detach(next *Multi) {
	if prev := b.owner.Load(); prev != nil && prev != next {
		prev.Remove(b)
	}
}

// Inc advances the position by delta. The position never exceeds the length.
func (b *Bar) Inc(delta uint64) {
	b.update(func(s *state, now time.Time) {
		s.inc(delta, now)
	})
}

// SetPosition moves the bar to pos. Moving backwards restarts the rate
// estimate.
func (b *Bar) SetPosition(pos uint64) {
	b.update(func(s *state, now time.Time) {
		s.setPos(pos, now)
	})
}

// SetLength sets the length of the bar, which turns a spinner into a bar.
func (b *Bar) SetLength(length uint64) {
	b.update(func(s *state, now time.Time) {
		s.setLength(length, now)
	})
}

// IncLength adds delta to the length of the bar.
func (b *Bar) IncLength(delta uint64) {
	b.update(func(s *state, now time.Time) {
		length := s.length + delta
		if length < s.length {
			length = ^uint64(0)
		}
		s.setLength(length, now)
	})
}

// SetMessage sets the text rendered by {msg} and {wide_msg}.
func (b *Bar) SetMessage(msg string) {
	b.update(func(s *state, now time.Time) {
		s.message = msg
		s.touch(now)
	})
}

// SetPrefix sets the text rendered by {prefix}.
func (b *Bar) SetPrefix(prefix string) {
	b.update(func(s *state, now time.Time) {
		s.prefix = prefix
		s.touch(now)
	})
}

// Tick advances the spinner by one frame.
func (b *Bar) Tick() {
	b.mu.Lock()
	if b.state.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	b.state.ticks++
	b.state.touch(b.clock.Now())
	b.mu.Unlock()
	b.redraw(false)
}

// tick advances the spinner of an active bar. It returns false if the bar is
// finished or abandoned.
func (b *Bar) tick() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state.status.IsTerminal() {
		return false
	}
	b.state.ticks++
	return true
}

// Reset moves the bar back to zero and makes it active again. The elapsed
// time and the rate estimate start over.
func (b *Bar) Reset() {
	b.mu.Lock()
	b.state.reset(b.clock.Now())
	b.mu.Unlock()
	if m := b.owner.Load(); m != nil && m != detached {
		m.wake()
	}
	b.redraw(false)
}

// ResetETA discards the rate estimate.
func (b *Bar) ResetETA() {
	b.mu.Lock()
	b.state.est.reset(b.state.pos, b.clock.Now())
	b.mu.Unlock()
	b.redraw(false)
}

// ResetElapsed restarts the elapsed time.
func (b *Bar) ResetElapsed() {
	b.mu.Lock()
	b.state.started = b.clock.Now()
	b.mu.Unlock()
	b.redraw(false)
}

// Finish moves the bar to its length, if it has one, and marks it finished.
// The final state is drawn immediately. Calling Finish more than once has no
// effect.
func (b *Bar) Finish() {
	b.terminate(StatusFinished, nil, FinishDefault)
}

// FinishWithMessage sets the message and finishes the bar.
func (b *Bar) FinishWithMessage(msg string) {
	b.terminate(StatusFinished, &msg, FinishDefault)
}

// FinishAndClear finishes the bar and erases its line.
func (b *Bar) FinishAndClear() {
	b.terminate(StatusFinished, nil, FinishErase)
}

// Abandon stops the bar at its current position.
func (b *Bar) Abandon() {
	b.terminate(StatusAbandoned, nil, FinishDefault)
}

// AbandonWithMessage sets the message and abandons the bar.
func (b *Bar) AbandonWithMessage(msg string) {
	b.terminate(StatusAbandoned, &msg, FinishDefault)
}

func (b *Bar) terminate(status Status, msg *string, policy FinishPolicy) {
	b.mu.Lock()
	if b.state.status.IsTerminal() {
		b.mu.Unlock()
		return
	}
	if msg != nil {
		b.state.message = *msg
	}
	if policy != FinishDefault {
		b.onFinish = policy
	}
	b.state.finish(status, b.clock.Now())
	b.mu.Unlock()
	b.redraw(true)
}

// Println prints msg above the bars drawn with this bar.
func (b *Bar) Println(msg string) {
	m := b.owner.Load()
	if m == nil {
		m = b.standalone()
	}
	m.Println(msg)
}

// Suspend hides the bars drawn with this bar while fn runs.
func (b *Bar) Suspend(fn func()) {
	m := b.owner.Load()
	if m == nil {
		m = b.standalone()
	}
	m.Suspend(fn)
}

// EnableSteadyTick redraws the bar every interval, advancing the spinner,
// until it is finished. When the bar is part of a Multi, the ticker of the
// Multi is enabled. It does nothing on a bar removed from its Multi.
func (b *Bar) EnableSteadyTick(interval time.Duration) {
	m := b.owner.Load()
	switch m {
	case detached:
		return
	case nil:
		m = b.standalone()
	}
	m.EnableSteadyTick(interval)
}

// DisableSteadyTick stops the ticker enabled by EnableSteadyTick.
func (b *Bar) DisableSteadyTick() {
	if m := b.owner.Load(); m != nil && m != detached {
		m.DisableSteadyTick()
	}
}

// SetStyle replaces the style of the bar.
func (b *Bar) SetStyle(style *Style) {
	if style == nil {
		return
	}
	b.mu.Lock()
	b.style = style
	b.mu.Unlock()
	b.redraw(false)
}

// Snapshot returns a copy of the current state of the bar.
func (b *Bar) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.snapshot(b.clock.Now())
}

func (b *Bar) Position() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.pos
}

// Length returns the length of the bar, and false if it has none.
func (b *Bar) Length() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.length, b.state.hasLength
}

func (b *Bar) Message() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.message
}

func (b *Bar) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.status
}

// IsFinished returns true if the bar is finished or abandoned.
func (b *Bar) IsFinished() bool {
	return b.Status().IsTerminal()
}

func (b *Bar) Elapsed() time.Duration {
	return b.Snapshot().Elapsed()
}

// ETA returns the estimated time to completion, and false if it is unknown.
func (b *Bar) ETA() (time.Duration, bool) {
	snap := b.Snapshot()
	return snap.ETA, snap.ETAKnown
}

// Rate returns the smoothed throughput in steps per second, and false if it
// is unknown.
func (b *Bar) Rate() (float64, bool) {
	snap := b.Snapshot()
	return snap.Rate, snap.RateKnown
}

// isActive is called by the Multi with its lock held.
func (b *Bar) isActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.state.status.IsTerminal()
}

// render the bar for a frame. A finished bar with the erase policy renders
// no lines.
func (b *Bar) render(width int, now time.Time, fallback FinishPolicy) []string {
	b.mu.Lock()
	snap := b.state.snapshot(now)
	style := b.style
	policy := b.policy(fallback)
	b.mu.Unlock()

	if snap.Status == StatusFinished && policy == FinishErase {
		return nil
	}
	return style.template.render(snap, style, width)
}

// leftover returns the lines that stay printed when the bar is removed from a
// Multi.
func (b *Bar) leftover(width int, now time.Time, fallback FinishPolicy) []string {
	b.mu.Lock()
	finished := b.state.status == StatusFinished
	policy := b.policy(fallback)
	b.mu.Unlock()

	if !finished || policy != FinishLeave {
		return nil
	}
	return b.render(width, now, fallback)
}

func (b *Bar) policy(fallback FinishPolicy) FinishPolicy {
	if b.onFinish != FinishDefault {
		return b.onFinish
	}
	if fallback == FinishDefault {
		return FinishLeave
	}
	return fallback
}
