package accnt

import "sync/atomic"

import "zsched/defs"

/**
 * Accnt_t accumulates per-thread scheduling accounting.
 *
 * Run and ready time are kept in ticks. The scheduler charges the thread
 * that is current when a tick is announced and stamps the tick at which a
 * thread entered READY, so queueing delay can be charged when it is
 * dispatched. Fields are updated atomically so a snapshot may be taken from
 * outside the CPU.
 */
type Accnt_t struct {
	/// Ticks spent RUNNING.
	Runticks int64
	/// Ticks spent READY waiting for the CPU.
	Readyticks int64
	/// Times the thread was dispatched.
	Dispatches int64
	/// Times the thread was displaced while still runnable.
	Preempted int64
	readysince int64
}

/// Tick charges n ticks of run time.
func (a *Accnt_t) Tick(n defs.Ticks_t) {
	atomic.AddInt64(&a.Runticks, int64(n))
}

/// Made_ready records that the thread became READY at tick now.
func (a *Accnt_t) Made_ready(now defs.Ticks_t) {
	atomic.StoreInt64(&a.readysince, int64(now))
}

/// Dispatched charges the time since Made_ready as ready time and counts a
/// dispatch.
func (a *Accnt_t) Dispatched(now defs.Ticks_t) {
	d := int64(now) - atomic.LoadInt64(&a.readysince)
	if d > 0 {
		atomic.AddInt64(&a.Readyticks, d)
	}
	atomic.AddInt64(&a.Dispatches, 1)
}

/// Preempt counts an involuntary switch-out.
func (a *Accnt_t) Preempt() {
	atomic.AddInt64(&a.Preempted, 1)
}

/// Snap_t is a consistent copy of an Accnt_t.
type Snap_t struct {
	Runticks   int64
	Readyticks int64
	Dispatches int64
	Preempted  int64
}

/// Fetch returns a snapshot of the accounting information.
func (a *Accnt_t) Fetch() Snap_t {
	return Snap_t{
		Runticks:   atomic.LoadInt64(&a.Runticks),
		Readyticks: atomic.LoadInt64(&a.Readyticks),
		Dispatches: atomic.LoadInt64(&a.Dispatches),
		Preempted:  atomic.LoadInt64(&a.Preempted),
	}
}

/// Add merges another snapshot into this one.
func (s *Snap_t) Add(n Snap_t) {
	s.Runticks += n.Runticks
	s.Readyticks += n.Readyticks
	s.Dispatches += n.Dispatches
	s.Preempted += n.Preempted
}
