package progress

import (
	"io"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/astralkn/termprogress/internal/term"
	"github.com/astralkn/termprogress/internal/termwriter"
	"github.com/astralkn/termprogress/internal/text"
	"github.com/astralkn/termprogress/log"
)

const defaultTermWidth = term.DefaultWidth

// DefaultRefreshInterval is the minimum time between two physical writes to
// an interactive terminal.
const DefaultRefreshInterval = 50 * time.Millisecond

// Capabilities describes the output a DrawTarget writes to.
type Capabilities interface {
	IsTerminal() bool
	Width() int
	SupportsCursor() bool
}

// FixedCapabilities are Capabilities that never change.
type FixedCapabilities struct {
	Interactive bool
	Columns     int
	Cursor      bool
}

func (c FixedCapabilities) IsTerminal() bool {
	return c.Interactive
}

func (c FixedCapabilities) Width() int {
	return c.Columns
}

func (c FixedCapabilities) SupportsCursor() bool {
	return c.Cursor
}

// TargetOptions configure a DrawTarget.
type TargetOptions struct {
	// RefreshInterval is the minimum time between two physical writes. Zero
	// uses DefaultRefreshInterval, a negative value disables the limit.
	RefreshInterval time.Duration
	// Width overrides the width reported by the capabilities.
	Width int
}

func (o TargetOptions) interval() time.Duration {
	if o.RefreshInterval == 0 {
		return DefaultRefreshInterval
	}
	return o.RefreshInterval
}

type targetKind uint8

const (
	kindTerm targetKind = iota
	kindStream
	kindHidden
)

func (k targetKind) String() string {
	switch k {
	case kindTerm:
		return "term"
	case kindStream:
		return "stream"
	}
	return "hidden"
}

// DrawTarget writes rendered frames to an output.
//
// A terminal target redraws the frame in place, a stream target appends every
// frame that differs from the previous one, and a hidden target discards
// everything. Physical writes are rate limited. After a failed write the
// target is degraded and stops writing, the error is logged and never
// returned to the caller.
type DrawTarget struct {
	kind    targetKind
	caps    Capabilities
	width   int
	clock   clockwork.Clock
	limiter *limiter

	mu        sync.Mutex
	out       *termwriter.Writer
	drawn     bool
	lastLines []string
	lastRows  int
	lastWidth int
	writes    int

	// degraded is read without mu, so that log output routed through a Multi
	// can check it while a draw is failing.
	degraded atomic.Bool
}

// NewTermTarget returns a target that redraws frames in place on out. If caps
// report no support for cursor movement the target appends frames like a
// stream target.
func NewTermTarget(out io.Writer, caps Capabilities, opts TargetOptions) *DrawTarget {
	if caps == nil {
		caps = FixedCapabilities{Interactive: true, Cursor: true}
	}
	kind := kindTerm
	if !caps.SupportsCursor() {
		log.Debugf("output does not support cursor movement, appending frames")
		kind = kindStream
	}
	return newTarget(kind, out, caps, opts)
}

// NewStreamTarget returns a target that appends frames to out, without any
// cursor movement.
func NewStreamTarget(out io.Writer, opts TargetOptions) *DrawTarget {
	return newTarget(kindStream, out, FixedCapabilities{}, opts)
}

// Hidden returns a target that discards every frame.
func Hidden() *DrawTarget {
	return newTarget(kindHidden, io.Discard, FixedCapabilities{}, TargetOptions{})
}

// Stderr returns a target for os.Stderr. A terminal is redrawn in place. Any
// other output is appended to at most once per second.
func Stderr() *DrawTarget {
	return stdTarget(os.Stderr)
}

// Stdout returns a target for os.Stdout, chosen like Stderr.
func Stdout() *DrawTarget {
	return stdTarget(os.Stdout)
}

func stdTarget(f *os.File) *DrawTarget {
	info := term.Detect(f)
	if info.IsTerminal() && info.SupportsCursor() {
		return NewTermTarget(f, info, TargetOptions{})
	}
	return NewStreamTarget(f, TargetOptions{
		RefreshInterval: time.Second,
		Width:           info.Width(),
	})
}

func newTarget(kind targetKind, out io.Writer, caps Capabilities, opts TargetOptions) *DrawTarget {
	return &DrawTarget{
		kind:    kind,
		caps:    caps,
		width:   opts.Width,
		clock:   clock,
		limiter: newLimiter(opts.interval()),
		out:     termwriter.New(out),
	}
}

// IsHidden returns true if the target never writes anything.
func (t *DrawTarget) IsHidden() bool {
	return t.kind == kindHidden
}

// Width returns the number of columns available to a frame.
func (t *DrawTarget) Width() int {
	if t.width > 0 {
		return t.width
	}
	if w := t.caps.Width(); w > 0 {
		return w
	}
	return defaultTermWidth
}

// Draw replaces the previous frame with lines. It returns true if anything
// was written. A frame identical to the previous one is never written. Unless
// force is set, a frame is dropped when the previous write was too recent.
func (t *DrawTarget) Draw(lines []string, force bool) bool {
	return t.draw(nil, lines, AlignTop, force, t.clock.Now()) == drawWritten
}

// Clear erases the last frame, when the target supports it.
func (t *DrawTarget) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearLocked()
}

// Writes returns the number of physical writes made by the target.
func (t *DrawTarget) Writes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writes
}

type drawResult uint8

const (
	drawWritten drawResult = iota
	drawUnchanged
	drawLimited
	drawSkipped
	drawFailed
)

// active returns true if a draw could reach the output.
func (t *DrawTarget) active() bool {
	if t.kind == kindHidden {
		return false
	}
	return !t.degraded.Load()
}

func (t *DrawTarget) ready(now time.Time) bool {
	return t.limiter.ready(now)
}

func (t *DrawTarget) retryAfter(now time.Time) time.Duration {
	return t.limiter.wait(now)
}

// draw writes persistent lines once, above the live region, followed by the
// live lines, which replace the previous live lines.
func (t *DrawTarget) draw(persistent, lines []string, align Alignment, force bool, now time.Time) drawResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.kind == kindHidden || t.degraded.Load() {
		return drawSkipped
	}

	width := t.Width()
	if align == AlignBottom && t.kind == kindTerm {
		lines = t.padTopLocked(persistent, lines, width)
	}
	if len(persistent) == 0 && t.drawn && width == t.lastWidth && slices.Equal(lines, t.lastLines) {
		return drawUnchanged
	}
	if !t.limiter.take(now) && !force {
		return drawLimited
	}

	switch t.kind {
	case kindTerm:
		t.out.Redraw(t.lastRows, persistent, lines)
	case kindStream:
		t.out.Append(persistent)
		t.out.Append(lines)
	}
	if err := t.out.Flush(); err != nil {
		t.degrade(err)
		return drawFailed
	}
	t.writes++
	t.drawn = true
	t.lastLines = append(t.lastLines[:0], lines...)
	t.lastRows = text.VisualRows(lines, width)
	t.lastWidth = width
	return drawWritten
}

// padTopLocked prepends blank lines to a frame that is shorter than the last
// one, so that the lines keep their distance to the bottom of the region.
func (t *DrawTarget) padTopLocked(persistent, lines []string, width int) []string {
	shift := t.lastRows - text.VisualRows(persistent, width) - text.VisualRows(lines, width)
	if shift <= 0 {
		return lines
	}
	return append(make([]string, shift, shift+len(lines)), lines...)
}

func (t *DrawTarget) clearLocked() {
	if t.degraded.Load() {
		return
	}
	if t.kind == kindTerm {
		t.out.Clear(t.lastRows)
		if err := t.out.Flush(); err != nil {
			t.degrade(err)
			return
		}
	}
	t.drawn = false
	t.lastLines = nil
	t.lastRows = 0
}

func (t *DrawTarget) degrade(err error) {
	t.degraded.Store(true)
	log.WithField("target", t.kind).Warnf("progress output disabled after write failure: %v", err)
}
