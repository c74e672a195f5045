package progress

import (
	"io"
	"math"
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/jonboulle/clockwork"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/assert/cmp"

	"github.com/astralkn/termprogress/internal/text"
)

func patchClock(t *testing.T) clockwork.FakeClock {
	t.Helper()
	fake := clockwork.NewFakeClockAt(time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC))
	orig := clock
	clock = fake
	t.Cleanup(func() {
		clock = orig
	})
	return fake
}

func newHiddenBar(t *testing.T, opts Options) *Bar {
	t.Helper()
	opts.Target = Hidden()
	b, err := New(opts)
	assert.NilError(t, err)
	return b
}

// newScreenTarget returns a terminal target without a refresh limit.
func newScreenTarget(width int) (*DrawTarget, *text.Screen) {
	screen := new(text.Screen)
	target := NewTermTarget(screen,
		FixedCapabilities{Interactive: true, Cursor: true, Columns: width},
		TargetOptions{RefreshInterval: -1})
	return target, screen
}

func TestBar_IncToLength(t *testing.T) {
	b := newHiddenBar(t, Options{Length: 100})
	for i := 0; i < 10; i++ {
		b.Inc(10)
	}

	snap := b.Snapshot()
	assert.Equal(t, snap.Position, uint64(100))
	assert.Equal(t, snap.Percent(), 100)
	assert.Equal(t, snap.Status, StatusActive)
	assert.Assert(t, !b.IsFinished())

	b.Finish()
	assert.Equal(t, b.Status(), StatusFinished)
}

func TestBar_PositionClampedToLength(t *testing.T) {
	b := newHiddenBar(t, Options{Length: 10})
	b.Inc(7)
	b.Inc(7)
	assert.Equal(t, b.Position(), uint64(10))

	b.SetPosition(50)
	assert.Equal(t, b.Position(), uint64(10))

	b.SetLength(5)
	assert.Equal(t, b.Position(), uint64(5))
}

func TestBar_PositionSaturates(t *testing.T) {
	b := newHiddenBar(t, Options{UnknownLength: true})
	b.Inc(math.MaxUint64 - 1)
	b.Inc(10)
	assert.Equal(t, b.Position(), uint64(math.MaxUint64))

	b.IncLength(math.MaxUint64)
	b.IncLength(1)
	length, ok := b.Length()
	assert.Assert(t, ok)
	assert.Equal(t, length, uint64(math.MaxUint64))
}

func TestBar_PositionProperties(t *testing.T) {
	fn := func(length uint16, steps []uint16) bool {
		b := newHiddenBar(t, Options{Length: uint64(length)})
		var prev uint64
		for _, step := range steps {
			b.Inc(uint64(step))
			pos := b.Position()
			if pos > uint64(length) || pos < prev {
				t.Logf("length=%d pos=%d prev=%d", length, pos, prev)
				return false
			}
			prev = pos
		}
		return true
	}
	assert.NilError(t, quick.Check(fn, nil))
}

func TestBar_NoUpdatesAfterFinish(t *testing.T) {
	b := newHiddenBar(t, Options{Length: 10, Message: "copying"})
	b.Inc(3)
	b.AbandonWithMessage("interrupted")

	b.Inc(3)
	b.SetPosition(8)
	b.SetMessage("ignored")
	b.SetLength(100)
	b.Finish()

	snap := b.Snapshot()
	assert.Equal(t, snap.Position, uint64(3))
	assert.Equal(t, snap.Length, uint64(10))
	assert.Equal(t, snap.Message, "interrupted")
	assert.Equal(t, snap.Status, StatusAbandoned)
}

func TestBar_FinishMovesToLength(t *testing.T) {
	b := newHiddenBar(t, Options{Length: 10})
	b.Inc(4)
	b.FinishWithMessage("done")
	b.FinishWithMessage("twice")

	snap := b.Snapshot()
	assert.Equal(t, snap.Position, uint64(10))
	assert.Equal(t, snap.Message, "done")
	assert.Equal(t, snap.Status, StatusFinished)
	assert.Assert(t, snap.ETAKnown)
	assert.Equal(t, snap.ETA, time.Duration(0))
}

func TestBar_Reset(t *testing.T) {
	fake := patchClock(t)
	b := newHiddenBar(t, Options{Length: 10})
	fake.Advance(time.Second)
	b.Inc(5)
	b.Finish()

	fake.Advance(time.Second)
	b.Reset()
	snap := b.Snapshot()
	assert.Equal(t, snap.Position, uint64(0))
	assert.Equal(t, snap.Status, StatusActive)
	assert.Equal(t, snap.Elapsed(), time.Duration(0))
	assert.Assert(t, !snap.RateKnown)

	b.Inc(2)
	assert.Equal(t, b.Position(), uint64(2))
}

func TestBar_ResetElapsed(t *testing.T) {
	fake := patchClock(t)
	b := newHiddenBar(t, Options{Length: 10})
	fake.Advance(3 * time.Second)
	assert.Equal(t, b.Elapsed(), 3*time.Second)

	b.ResetElapsed()
	fake.Advance(time.Second)
	assert.Equal(t, b.Elapsed(), time.Second)
}

func TestBar_ETAUnknownWithoutLength(t *testing.T) {
	fake := patchClock(t)
	target, screen := newScreenTarget(80)
	b, err := New(Options{UnknownLength: true, Template: "{eta} {eta_precise} {len}", Target: target})
	assert.NilError(t, err)

	for i := 0; i < 5; i++ {
		fake.Advance(time.Second)
		b.Inc(10)
		assert.Equal(t, screen.Contents(), "unknown unknown ?")
		_, ok := b.ETA()
		assert.Assert(t, !ok)
	}
	rate, ok := b.Rate()
	assert.Assert(t, ok)
	assert.Assert(t, math.Abs(rate-10) < 1e-6, "rate=%v", rate)
}

func TestBar_ETAUnknownBeforeTimeElapsed(t *testing.T) {
	patchClock(t)
	b := newHiddenBar(t, Options{Length: 100})
	b.Inc(10)
	b.Inc(10)

	_, ok := b.ETA()
	assert.Assert(t, !ok)
	_, ok = b.Rate()
	assert.Assert(t, !ok)
}

func TestBar_ETAConverges(t *testing.T) {
	fake := patchClock(t)
	const rate = 50.0
	b := newHiddenBar(t, Options{Length: 10000})

	intervals := []time.Duration{
		100 * time.Millisecond,
		700 * time.Millisecond,
		20 * time.Millisecond,
		1300 * time.Millisecond,
	}
	for i := 0; i < 40; i++ {
		dt := intervals[i%len(intervals)]
		fake.Advance(dt)
		b.Inc(uint64(math.Round(rate * dt.Seconds())))
	}

	snap := b.Snapshot()
	assert.Assert(t, snap.ETAKnown)
	expected := float64(snap.Length-snap.Position) / rate
	actual := snap.ETA.Seconds()
	assert.Assert(t, math.Abs(actual-expected) < expected*0.01,
		"eta=%v expected=%v", actual, expected)
}

func TestBar_SetPositionBackwardsResetsRate(t *testing.T) {
	fake := patchClock(t)
	b := newHiddenBar(t, Options{Length: 100})
	fake.Advance(time.Second)
	b.Inc(50)
	_, ok := b.Rate()
	assert.Assert(t, ok)

	b.SetPosition(10)
	_, ok = b.Rate()
	assert.Assert(t, !ok)
}

func TestBar_FinishedRateIsAverage(t *testing.T) {
	fake := patchClock(t)
	b := newHiddenBar(t, Options{Length: 100})
	fake.Advance(10 * time.Second)
	b.Inc(100)
	b.Finish()
	fake.Advance(time.Minute)

	snap := b.Snapshot()
	assert.Assert(t, snap.RateKnown)
	assert.Assert(t, math.Abs(snap.Rate-10) < 1e-9, "rate=%v", snap.Rate)
	assert.Equal(t, snap.Elapsed(), 10*time.Second)
}

func TestBar_Standalone(t *testing.T) {
	target, screen := newScreenTarget(40)
	b, err := New(Options{Length: 4, Template: "{pos}/{len} {msg}", Target: target})
	assert.NilError(t, err)
	assert.Equal(t, screen.Writes(), 0, "nothing is drawn before the first update")

	b.Inc(1)
	assert.Equal(t, screen.Contents(), "1/4")

	b.Println("starting")
	b.SetMessage("copying")
	assert.Equal(t, screen.Contents(), "starting\n1/4 copying")

	b.FinishWithMessage("done")
	assert.Equal(t, screen.Contents(), "starting\n4/4 done")
}

func TestBar_FinishAndClear(t *testing.T) {
	target, screen := newScreenTarget(40)
	b, err := New(Options{Length: 4, Template: "{pos}/{len}", Target: target})
	assert.NilError(t, err)

	b.Inc(1)
	assert.Equal(t, screen.Contents(), "1/4")
	b.FinishAndClear()
	assert.Equal(t, screen.Contents(), "")
}

func TestBar_Suspend(t *testing.T) {
	target, screen := newScreenTarget(40)
	b, err := New(Options{Length: 4, Template: "{pos}/{len}", Target: target})
	assert.NilError(t, err)
	b.Inc(1)

	b.Suspend(func() {
		assert.Equal(t, screen.Contents(), "")
		b.Inc(1)
		assert.Equal(t, screen.Contents(), "")
	})
	assert.Equal(t, screen.Contents(), "2/4")
}

func TestBar_Wrap(t *testing.T) {
	b := newHiddenBar(t, Options{Length: 4096})
	n, err := io.Copy(io.Discard, b.Wrap(strings.NewReader(strings.Repeat("x", 3000))))
	assert.NilError(t, err)
	assert.Equal(t, n, int64(3000))
	assert.Equal(t, b.Position(), uint64(3000))

	out := new(strings.Builder)
	_, err = io.Copy(b.WrapWriter(out), strings.NewReader(strings.Repeat("y", 2000)))
	assert.NilError(t, err)
	assert.Equal(t, out.Len(), 2000)
	assert.Equal(t, b.Position(), uint64(4096))
}

func TestNew_InvalidTemplate(t *testing.T) {
	_, err := New(Options{Template: "{pos} {nonexistent}"})
	assert.ErrorContains(t, err, `unknown placeholder "nonexistent"`)
}

func TestBar_SpinnerAdvancesOnUpdate(t *testing.T) {
	b := newHiddenBar(t, Options{UnknownLength: true})
	b.SetMessage("a")
	b.Inc(1)
	b.Tick()
	assert.Assert(t, cmp.Equal(b.Snapshot().Ticks, uint64(3)))
}
