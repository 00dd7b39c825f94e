package arena

import "time"

// Ticker drives the simulation. It matches time.Ticker behind a method so a
// test can feed ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// ManualTicker only fires when Fire is called.
type ManualTicker struct {
	ch chan time.Time
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }
func (m *ManualTicker) Stop()               {}

// Fire blocks until the arena has picked the tick up.
func (m *ManualTicker) Fire() { m.ch <- time.Now() }

// Factory adapts the ticker to Config.NewTicker.
func (m *ManualTicker) Factory() func(time.Duration) Ticker {
	return func(time.Duration) Ticker { return m }
}
