package progress

import (
	"time"
)

// ticker advances the spinners of a Multi and requests a redraw every
// interval. It stops by itself when no bar is active.
type ticker struct {
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

// EnableSteadyTick advances the spinner of every active bar and redraws the
// bars every interval. The ticker stops when every bar is finished or
// abandoned, and starts again when an active bar is added. An interval of
// zero disables the ticker.
func (m *Multi) EnableSteadyTick(interval time.Duration) {
	m.mu.Lock()
	old := m.ticker
	m.ticker = nil
	m.steady.Store(false)
	m.tickInterval = interval
	if m.hasActiveLocked() {
		m.startTickerLocked()
	}
	m.mu.Unlock()

	old.halt()
}

// DisableSteadyTick stops the ticker.
func (m *Multi) DisableSteadyTick() {
	m.EnableSteadyTick(0)
}

// wake restarts the ticker after a bar became active again.
func (m *Multi) wake() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startTickerLocked()
}

func (m *Multi) hasActiveLocked() bool {
	for _, b := range m.members {
		if b.isActive() {
			return true
		}
	}
	return false
}

func (m *Multi) startTickerLocked() {
	if m.tickInterval <= 0 || m.ticker != nil {
		return
	}
	tk := &ticker{
		interval: m.tickInterval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	m.ticker = tk
	m.steady.Store(true)
	go tk.run(m)
}

func (tk *ticker) run(m *Multi) {
	defer close(tk.done)
	t := m.clock.NewTicker(tk.interval)
	defer t.Stop()
	for {
		select {
		case <-tk.stop:
			return
		case <-t.Chan():
			if !m.tick(tk) {
				return
			}
		}
	}
}

// halt stops the ticker and waits for it to exit. It must not be called with
// m.mu held.
func (tk *ticker) halt() {
	if tk == nil {
		return
	}
	close(tk.stop)
	<-tk.done
}

// tick advances every active bar by one frame and requests a redraw. It
// returns false when the ticker should stop.
func (m *Multi) tick(tk *ticker) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ticker != tk {
		return false
	}
	active := false
	for _, b := range m.members {
		if b.tick() {
			active = true
		}
	}
	if !active {
		m.ticker = nil
		m.steady.Store(false)
		return false
	}
	m.drawLocked(false)
	return true
}
