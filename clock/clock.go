// Package clock drives the scheduler's time base by raising a timer
// interrupt that announces elapsed ticks.
package clock

import (
	"time"

	"zsched/defs"
)

/// Cpu_i is what a clock needs from the kernel: a way to raise an
/// interrupt and the tick announcement to run inside it.
type Cpu_i interface {
	Raise(h func())
	Announce(n defs.Ticks_t)
}

/// Period returns the wall-clock length of one tick.
func Period(ticks_per_sec int) time.Duration {
	if ticks_per_sec <= 0 {
		panic("bad tick rate")
	}
	return time.Second / time.Duration(ticks_per_sec)
}

/// Ticker_t raises one tick interrupt per period until stopped.
type Ticker_t struct {
	cpu  Cpu_i
	stop chan struct{}
	done chan struct{}
	// ticks raised so far
	Raised int64
}

/// Start begins ticking cpu every period. The ticker also stops by itself
/// when halt is closed; halt may be nil.
func Start(cpu Cpu_i, period time.Duration, halt <-chan struct{}) *Ticker_t {
	t := &Ticker_t{
		cpu:  cpu,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go t.run(period, halt)
	return t
}

func (t *Ticker_t) run(period time.Duration, halt <-chan struct{}) {
	defer close(t.done)
	tk := time.NewTicker(period)
	defer tk.Stop()
	tick := func() { t.cpu.Announce(1) }
	for {
		select {
		case <-tk.C:
			t.Raised++
			t.cpu.Raise(tick)
		case <-halt:
			return
		case <-t.stop:
			return
		}
	}
}

/// Stop stops the ticker and waits for its goroutine to exit. Raised is
/// stable afterwards.
func (t *Ticker_t) Stop() {
	select {
	case <-t.stop:
	default:
		close(t.stop)
	}
	<-t.done
}

/// Done is closed once the ticker has stopped.
func (t *Ticker_t) Done() <-chan struct{} {
	return t.done
}

/// Drive raises n single-tick interrupts back to back, for tests that
/// need a deterministic clock.
func Drive(cpu Cpu_i, n int) {
	for i := 0; i < n; i++ {
		cpu.Raise(func() { cpu.Announce(1) })
	}
}
