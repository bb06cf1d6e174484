package sched

import (
	"zsched/accnt"
	"zsched/defs"
	"zsched/irq"
	"zsched/stats"
	"zsched/timeout"
	"zsched/tinfo"
	"zsched/util"
	"zsched/waitq"
)

/// Create allocates a thread that runs entry at priority prio. With a
/// NoWait delay it is READY at once, with Forever it stays SUSPENDED until
/// Start, otherwise it is started after delay ticks.
func (k *Kernel_t) Create(name string, prio defs.Prio_t, entry func(),
	delay defs.Timeout_t) (*tinfo.Thread_t, defs.Err_t) {
	if entry == nil || !k.Conf.Valid_prio(prio) {
		return nil, -defs.EINVAL
	}
	c := k.cpu()
	key := c.Irq.Lock()
	t := k.Ti.Alloc(name, prio)
	if t == nil {
		c.Irq.Unlock(key)
		return nil, -defs.ENOMEM
	}
	t.Entry = func() { k.thread_entry(t, entry) }
	k.nlive++
	k.event(Ev_create, t, nil)
	switch {
	case delay.Is_forever():
	case delay.Is_nowait():
		k.Ready(t)
	default:
		k.Timeouts.Add(&t.Timeout, defs.Ticks_t(delay), func(*timeout.Timeout_t) {
			if t.State == defs.SUSPENDED {
				k.Ready(t)
			}
		})
	}
	k.Reschedule(key)
	return t, 0
}

/// Start readies a thread created with a delay, ahead of time.
func (k *Kernel_t) Start(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if t.State != defs.SUSPENDED {
		c.Irq.Unlock(key)
		return
	}
	k.Timeouts.Abort(&t.Timeout)
	k.Ready(t)
	k.Reschedule(key)
}

/// Release returns a DEAD thread's slot to the arena.
func (k *Kernel_t) Release(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	k.Ti.Release(t)
	c.Irq.Unlock(key)
}

/// Current returns the thread running on the CPU.
func (k *Kernel_t) Current() *tinfo.Thread_t {
	return k.cpu().Current
}

/// IsPreemptThread reports whether the caller is a thread that may be
/// preempted by an equal-priority one.
func (k *Kernel_t) IsPreemptThread() bool {
	c := k.cpu()
	return !c.Irq.In_isr() && k.is_preempt(c.Current)
}

/// Stats returns the CPU's event counters.
func (k *Kernel_t) Stats() *stats.Sched_t {
	return &k.cpu().Stats
}

/// Yield moves the current thread behind all READY threads of its
/// priority and runs the first of them, if any.
func (k *Kernel_t) Yield() {
	c := k.cpu()
	if c.Irq.In_isr() {
		k.fatal("yield from interrupt context")
	}
	key := c.Irq.Lock()
	c.Stats.Yields.Inc()
	k.swap(key, true)
}

/// Sleep blocks the current thread for to ticks. It returns 0 when the
/// sleep ran out, or the ticks left if Wakeup ended it early. Forever
/// suspends the thread and NoWait yields.
func (k *Kernel_t) Sleep(to defs.Timeout_t) defs.Ticks_t {
	c := k.cpu()
	k.assert_blockable(c)
	cur := c.Current
	switch {
	case to.Is_forever():
		k.Suspend(cur)
		return 0
	case to.Is_nowait():
		k.Yield()
		return 0
	}
	key := c.Irq.Lock()
	ticks := util.Max(defs.Ticks_t(to), 1)
	cur.Sleepuntil = k.Timeouts.Uptime() + ticks
	cur.State = defs.SLEEPING
	k.Timeout_schedule(cur, ticks)
	c.Stats.Sleeps.Inc()
	k.event(Ev_sleep, cur, nil)
	k.swap(key, false)

	key = c.Irq.Lock()
	left := cur.Sleepuntil - k.Timeouts.Uptime()
	c.Irq.Unlock(key)
	return util.Clamp(left, 0, ticks)
}

/// Wakeup ends t's sleep early. It does nothing unless t is SLEEPING.
func (k *Kernel_t) Wakeup(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if t.State != defs.SLEEPING {
		c.Irq.Unlock(key)
		return
	}
	k.wake(t, defs.Signaled)
	k.Reschedule(key)
}

/// Suspend takes t out of scheduling until Resume. A pending wait or sleep
/// is cancelled; a wait interrupted this way returns TimedOut.
func (k *Kernel_t) Suspend(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if t.State == defs.SUSPENDED || t.State == defs.DEAD {
		c.Irq.Unlock(key)
		return
	}
	if t == c.Idle {
		k.fatal("suspending the idle thread")
	}
	k.Timeouts.Abort(&t.Timeout)
	if t.Pendq != nil {
		t.Pendq.Remove(t)
	}
	c.Runq.Remove(t)
	t.Retval = defs.TimedOut
	t.State = defs.SUSPENDED
	k.event(Ev_suspend, t, nil)
	k.leave(c, t, key)
}

// leave finishes an operation that took t out of scheduling. If t is the
// current thread it gives up the CPU, at once or at interrupt exit.
func (k *Kernel_t) leave(c *Cpu_t, t *tinfo.Thread_t, key irq.Key_t) {
	switch {
	case t != c.Current:
		k.Reschedule(key)
	case c.Irq.In_isr():
		c.resched = true
		c.Irq.Unlock(key)
	default:
		k.swap(key, false)
	}
}

/// Resume makes a suspended thread READY.
func (k *Kernel_t) Resume(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if t.State != defs.SUSPENDED {
		c.Irq.Unlock(key)
		return
	}
	// a thread created with a start delay still has its start timeout
	k.Timeouts.Abort(&t.Timeout)
	k.Ready(t)
	k.Reschedule(key)
}

/// Abort kills t and wakes its joiners. A thread aborting itself does not
/// return.
func (k *Kernel_t) Abort(t *tinfo.Thread_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if t.State == defs.DEAD {
		c.Irq.Unlock(key)
		return
	}
	if t == c.Idle {
		k.fatal("aborting the idle thread")
	}
	k.abort_locked(c, t)
	k.leave(c, t, key)
}

func (k *Kernel_t) abort_locked(c *Cpu_t, t *tinfo.Thread_t) {
	k.Timeouts.Abort(&t.Timeout)
	if t.Pendq != nil {
		t.Pendq.Remove(t)
	}
	c.Runq.Remove(t)
	t.State = defs.DEAD
	k.nlive--
	c.Stats.Aborts.Inc()
	k.event(Ev_abort, t, nil)
	if q, ok := k.joinqs[t.Tid]; ok {
		k.Unpend_all(q, defs.Signaled)
		delete(k.joinqs, t.Tid)
	}
}

func (k *Kernel_t) joinq(t *tinfo.Thread_t) *waitq.Waitq_t {
	q, ok := k.joinqs[t.Tid]
	if !ok {
		q = &waitq.Waitq_t{}
		k.Waitq_init(q)
		k.joinqs[t.Tid] = q
	}
	return q
}

/// Join waits up to to for t to die. It returns 0 once t is DEAD,
/// -EBUSY for NoWait while t lives, -EDEADLK when t is the caller or is
/// itself joining the caller, and -EAGAIN on timeout.
func (k *Kernel_t) Join(t *tinfo.Thread_t, to defs.Timeout_t) defs.Err_t {
	c := k.cpu()
	key := c.Irq.Lock()
	cur := c.Current
	var ret defs.Err_t
	switch {
	case t.State == defs.DEAD:
		ret = 0
	case to.Is_nowait():
		ret = -defs.EBUSY
	case t == cur:
		ret = -defs.EDEADLK
	case t.State == defs.PENDING && k.joinqs[cur.Tid] != nil && k.joinqs[cur.Tid].Contains(t):
		ret = -defs.EDEADLK
	default:
		return k.Pend(k.joinq(t), to, key)
	}
	c.Irq.Unlock(key)
	return ret
}

/// PrioritySet changes t's priority, moving it within its ready or wait
/// queue, and reschedules.
func (k *Kernel_t) PrioritySet(t *tinfo.Thread_t, prio defs.Prio_t) defs.Err_t {
	c := k.cpu()
	if !k.Conf.Valid_prio(prio) || t == c.Idle {
		return -defs.EINVAL
	}
	key := c.Irq.Lock()
	switch {
	case c.Runq.Contains(t):
		c.Runq.Remove(t)
		t.Prio = prio
		c.Runq.Insert(t)
	case t.Pendq != nil:
		t.Prio = prio
		t.Pendq.Reposition(t)
	default:
		t.Prio = prio
	}
	if t.State == defs.READY || t.State == defs.RUNNING {
		c.resched = true
	}
	k.event(Ev_prio, t, nil)
	k.Reschedule(key)
	return 0
}

/// SchedLock makes the current thread non-preemptible until the matching
/// SchedUnlock. Locks nest.
func (k *Kernel_t) SchedLock() {
	c := k.cpu()
	if c.Irq.In_isr() {
		k.fatal("scheduler lock from interrupt context")
	}
	key := c.Irq.Lock()
	c.Current.Schedlock++
	c.Irq.Unlock(key)
}

/// SchedUnlock undoes one SchedLock and reschedules when the last is gone.
func (k *Kernel_t) SchedUnlock() {
	c := k.cpu()
	key := c.Irq.Lock()
	cur := c.Current
	if cur.Schedlock == 0 {
		k.fatal("unbalanced scheduler unlock")
	}
	cur.Schedlock--
	if cur.Schedlock == 0 {
		k.Reschedule(key)
		return
	}
	c.Irq.Unlock(key)
}

/// TimesliceSet sets the slice length, 0 to disable slicing, and the most
/// urgent priority it applies to.
func (k *Kernel_t) TimesliceSet(ticks int, prio defs.Prio_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	k.slice = util.Max(ticks, 0)
	k.sliceprio = prio
	c.sliceout = false
	if c.Current != nil {
		c.Current.Slice = k.slice
	}
	c.Irq.Unlock(key)
}

/// Tsnap_t is a copy of one thread's identity and accounting.
type Tsnap_t struct {
	Tid   defs.Tid_t
	Name  string
	Prio  defs.Prio_t
	State defs.Tstate_t
	Accnt accnt.Snap_t
}

/// Snapshot copies every allocated thread. Call it on the CPU or after the
/// kernel halted.
func (k *Kernel_t) Snapshot() []Tsnap_t {
	var ret []Tsnap_t
	k.Ti.Iter(func(t *tinfo.Thread_t) bool {
		ret = append(ret, Tsnap_t{
			Tid:   t.Tid,
			Name:  t.Name,
			Prio:  t.Prio,
			State: t.State,
			Accnt: t.Accnt.Fetch(),
		})
		return false
	})
	return ret
}
