package sched

import (
	"zsched/defs"
	"zsched/irq"
	"zsched/timeout"
	"zsched/tinfo"
	"zsched/waitq"
)

// Blocking on wait queues and timeouts. Functions that take neither a key
// nor the lock themselves expect the caller to hold the interrupt lock.

/// Waitq_init prepares q in the configured wake order.
func (k *Kernel_t) Waitq_init(q *waitq.Waitq_t) {
	q.Init(&k.Ti, k.Conf.Waitq_prio)
}

/// Wait_insert pends t on q without blocking; Swap blocks.
func (k *Kernel_t) Wait_insert(q *waitq.Waitq_t, t *tinfo.Thread_t) {
	c := k.cpu()
	k.assert_locked(c)
	if t == c.Current && t.State == defs.RUNNING {
		t.Retval = defs.TimedOut
	}
	c.Runq.Remove(t)
	q.Insert(t)
	k.event(Ev_pend, t, nil)
}

/// Wait_remove takes t off q, if it is there.
func (k *Kernel_t) Wait_remove(q *waitq.Waitq_t, t *tinfo.Thread_t) bool {
	k.assert_locked(k.cpu())
	return q.Remove(t)
}

/// Wait_remove_head pops q's first waiter without readying it.
func (k *Kernel_t) Wait_remove_head(q *waitq.Waitq_t) *tinfo.Thread_t {
	k.assert_locked(k.cpu())
	return q.Remove_head()
}

/// Pend blocks the current thread on q for at most to and returns the value
/// it was woken with: the signaller's value, TimedOut, or Aborted. With a
/// NoWait timeout it returns TimedOut without blocking. The lock taken
/// with key is released.
func (k *Kernel_t) Pend(q *waitq.Waitq_t, to defs.Timeout_t, key irq.Key_t) defs.Err_t {
	c := k.cpu()
	k.assert_blockable(c)
	if to.Is_nowait() {
		c.Irq.Unlock(key)
		return defs.TimedOut
	}
	cur := c.Current
	cur.Retval = defs.TimedOut
	q.Insert(cur)
	if !to.Is_forever() {
		k.Timeout_schedule(cur, defs.Ticks_t(to))
	}
	c.Stats.Pends.Inc()
	k.event(Ev_pend, cur, nil)
	return k.swap(key, false)
}

/// Timeout_schedule arms t's timeout; on expiry t is taken off any wait
/// queue and readied with TimedOut.
func (k *Kernel_t) Timeout_schedule(t *tinfo.Thread_t, ticks defs.Ticks_t) {
	k.assert_locked(k.cpu())
	k.Timeouts.Add(&t.Timeout, ticks, func(*timeout.Timeout_t) {
		k.thread_timeout(t)
	})
}

/// Timeout_cancel disarms t's timeout, reporting whether it was pending.
func (k *Kernel_t) Timeout_cancel(t *tinfo.Thread_t) bool {
	k.assert_locked(k.cpu())
	return k.Timeouts.Abort(&t.Timeout)
}

func (k *Kernel_t) thread_timeout(t *tinfo.Thread_t) {
	switch t.State {
	case defs.PENDING:
		if t.Pendq != nil {
			t.Pendq.Remove(t)
		}
	case defs.SLEEPING:
	default:
		return
	}
	t.Retval = defs.TimedOut
	k.cpu().Stats.Timeouts.Inc()
	k.event(Ev_timeout, t, nil)
	k.Ready(t)
}

// wake readies a thread already taken off its wait queue.
func (k *Kernel_t) wake(t *tinfo.Thread_t, val defs.Err_t) {
	k.Timeouts.Abort(&t.Timeout)
	t.Retval = val
	k.cpu().Stats.Wakeups.Inc()
	k.event(Ev_wake, t, nil)
	k.Ready(t)
}

/// Unpend_first wakes q's first waiter with val and returns it, or nil if
/// nobody waits. Its timeout is cancelled.
func (k *Kernel_t) Unpend_first(q *waitq.Waitq_t, val defs.Err_t) *tinfo.Thread_t {
	k.assert_locked(k.cpu())
	t := q.Remove_head()
	if t == nil {
		return nil
	}
	k.wake(t, val)
	return t
}

/// Unpend wakes t with val if it is pended on some wait queue.
func (k *Kernel_t) Unpend(t *tinfo.Thread_t, val defs.Err_t) bool {
	k.assert_locked(k.cpu())
	if t.State != defs.PENDING || t.Pendq == nil {
		return false
	}
	t.Pendq.Remove(t)
	k.wake(t, val)
	return true
}

/// Unpend_all wakes every waiter of q with val, in queue order.
func (k *Kernel_t) Unpend_all(q *waitq.Waitq_t, val defs.Err_t) int {
	n := 0
	for k.Unpend_first(q, val) != nil {
		n++
	}
	return n
}

/// Wait_abort cancels every wait on q; the waiters see Aborted.
func (k *Kernel_t) Wait_abort(q *waitq.Waitq_t) int {
	return k.Unpend_all(q, defs.Aborted)
}

/// Remaining returns the ticks before t's timeout fires, 0 if none.
func (k *Kernel_t) Remaining(t *tinfo.Thread_t) (r defs.Ticks_t) {
	k.cpu().Irq.With(func() { r = k.Timeouts.Remaining(&t.Timeout) })
	return r
}

/// Expires returns the uptime at which t's timeout fires, or the current
/// uptime if none is pending.
func (k *Kernel_t) Expires(t *tinfo.Thread_t) (r defs.Ticks_t) {
	k.cpu().Irq.With(func() { r = k.Timeouts.Expires(&t.Timeout) })
	return r
}

/// NextTimeout returns the ticks until the earliest pending deadline, for
/// a tickless clock driver.
func (k *Kernel_t) NextTimeout() (n defs.Ticks_t, ok bool) {
	k.cpu().Irq.With(func() { n, ok = k.Timeouts.Next() })
	return n, ok
}

/// Uptime returns ticks announced since boot.
func (k *Kernel_t) Uptime() defs.Ticks_t {
	return k.Timeouts.Uptime()
}
