// Package sched is the scheduler core: the per-CPU dispatch state, the swap
// engine, and the thread services built from them.
//
// All scheduler state is mutated with the CPU interrupt lock held by the
// execution context that owns the CPU. Other goroutines may only raise
// interrupts (Raise) or read counters.
package sched

import (
	"fmt"
	"sync"

	"golang.org/x/sys/cpu"

	"zsched/arch"
	"zsched/circbuf"
	"zsched/defs"
	"zsched/irq"
	"zsched/kconfig"
	"zsched/runq"
	"zsched/stats"
	"zsched/timeout"
	"zsched/tinfo"
	"zsched/waitq"
)

const Debug = false

/// Cpu_t is the dispatch state of one CPU.
type Cpu_t struct {
	_       cpu.CacheLinePad
	Id      int
	Current *tinfo.Thread_t
	Idle    *tinfo.Thread_t
	Irq     irq.Irqlock_t
	Runq    runq.Runq_t
	Stats   stats.Sched_t
	// a dispatch decision is owed once interrupts are enabled
	resched bool
	// the current thread used up its slice
	sliceout   bool
	delivering bool
	_          cpu.CacheLinePad
}

/// Kernel_t is the scheduler context. It is created once before boot and
/// lives as long as the threads it runs.
type Kernel_t struct {
	Conf     kconfig.Kconfig_t
	Ti       tinfo.Threadinfo_t
	Timeouts timeout.List_t
	Cpus     []Cpu_t
	arch     arch.Arch_i

	slice     int
	sliceprio defs.Prio_t
	started   bool
	// threads not DEAD, idle excluded
	nlive   int
	joinqs  map[defs.Tid_t]*waitq.Waitq_t
	haltreq bool
	halting bool
	halted  chan struct{}

	// leaf lock; Trace may be read off the CPU
	tracemu sync.Mutex
	trace   circbuf.Circbuf_t[Event_t]
}

/// MkKernel builds a scheduler for conf on the given port. The idle thread
/// is created and READY; interrupts stay masked until Boot.
func MkKernel(conf *kconfig.Kconfig_t, a arch.Arch_i) (*Kernel_t, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("sched: %w", err)
	}
	k := &Kernel_t{
		Conf:      *conf,
		Cpus:      make([]Cpu_t, 1),
		arch:      a,
		slice:     conf.Slice_ticks,
		sliceprio: conf.Slice_prio,
		joinqs:    make(map[defs.Tid_t]*waitq.Waitq_t),
		halted:    make(chan struct{}),
	}
	k.Ti.Init(conf.Maxthreads)
	k.trace.Cb_init(conf.Trace_depth)

	c := k.cpu()
	c.Irq.Init()
	c.Irq.Onenable = k.irq_enabled
	c.Runq.Init(&k.Ti, conf.Highest(), conf.Lowest())

	idle := k.Ti.Alloc("idle", conf.Lowest())
	idle.Entry = func() { k.thread_entry(idle, k.idle) }
	c.Idle = idle
	c.Runq.Insert(idle)
	return k, nil
}

func (k *Kernel_t) cpu() *Cpu_t {
	return &k.Cpus[0]
}

func (k *Kernel_t) fatal(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	panic(fmt.Sprintf("sched: %s (current %v, tick %d)", msg,
		k.cpu().Current, k.Timeouts.Uptime()))
}

func (k *Kernel_t) assert_locked(c *Cpu_t) {
	if c.Irq.Depth() == 0 {
		k.fatal("interrupt lock not held")
	}
}

func (k *Kernel_t) assert_blockable(c *Cpu_t) {
	switch {
	case c.Irq.In_isr():
		k.fatal("blocking call from interrupt context")
	case !k.started:
		k.fatal("blocking call before boot")
	case c.Current == c.Idle:
		k.fatal("idle thread cannot block")
	}
}

/// Lock masks interrupts on the CPU.
func (k *Kernel_t) Lock() irq.Key_t {
	return k.cpu().Irq.Lock()
}

/// Unlock restores the interrupt state saved in key.
func (k *Kernel_t) Unlock(key irq.Key_t) {
	k.cpu().Irq.Unlock(key)
}

func (k *Kernel_t) is_preempt(t *tinfo.Thread_t) bool {
	return !t.Prio.Is_coop() && t.Schedlock == 0
}

func (k *Kernel_t) sliceable(c *Cpu_t, t *tinfo.Thread_t) bool {
	return k.slice > 0 && t != c.Idle && k.is_preempt(t) &&
		defs.Prio_cmp(t.Prio, k.sliceprio) <= 0
}

// should_preempt decides whether cand displaces the RUNNING thread old.
// A strictly more urgent thread always wins, cooperative or not; equal
// priority wins only on yield or, for a preemptible thread, under the
// equal-priority policy.
func (k *Kernel_t) should_preempt(c *Cpu_t, old, cand *tinfo.Thread_t, yield bool) bool {
	if old == c.Idle {
		return true
	}
	if old.Schedlock > 0 && !yield {
		return false
	}
	switch cmp := defs.Prio_cmp(cand.Prio, old.Prio); {
	case cmp > 0:
		return true
	case cmp < 0:
		return false
	}
	return yield || (k.Conf.Preempt_equal && k.is_preempt(old))
}

func (k *Kernel_t) resched_needed(c *Cpu_t, yield bool) bool {
	if c.Current.State != defs.RUNNING {
		return true
	}
	cand := c.Runq.Peek()
	return cand != nil && k.should_preempt(c, c.Current, cand, yield)
}

// next_up removes and returns the thread to dispatch. A displaced but
// runnable current thread is requeued after its successor is taken off the
// queue: behind its equals on yield, ahead of them when preempted. The idle
// thread always goes to the back.
func (k *Kernel_t) next_up(c *Cpu_t, yield bool) *tinfo.Thread_t {
	old := c.Current
	next := c.Runq.Peek()
	if old.State == defs.RUNNING {
		if next == nil || !k.should_preempt(c, old, next, yield) {
			return old
		}
		c.Runq.Remove(next)
		switch {
		case yield || old == c.Idle:
			c.Runq.Insert(old)
		default:
			c.Runq.Insert_head(old)
			old.Accnt.Preempt()
			c.Stats.Preempts.Inc()
		}
		old.Accnt.Made_ready(k.Timeouts.Uptime())
		return next
	}
	if next == nil {
		k.fatal("empty ready queue")
	}
	c.Runq.Remove(next)
	return next
}

func (k *Kernel_t) dispatch(c *Cpu_t, old, next *tinfo.Thread_t) {
	next.State = defs.RUNNING
	next.Slice = k.slice
	next.Accnt.Dispatched(k.Timeouts.Uptime())
	c.Current = next
	k.event(Ev_switch, next, old)
	if Debug {
		fmt.Printf("sched: %v -> %v at %d\n", old, next, k.Timeouts.Uptime())
	}
}

/// Swap gives up the CPU to the next thread the scheduler picks and
/// returns the caller's return slot once it runs again. The caller holds
/// the interrupt lock with key; it is released on return.
func (k *Kernel_t) Swap(key irq.Key_t) defs.Err_t {
	return k.swap(key, false)
}

func (k *Kernel_t) swap(key irq.Key_t, yield bool) defs.Err_t {
	c := k.cpu()
	if c.Irq.Depth() == 0 || c.Irq.Enabled() {
		k.fatal("swap without the interrupt lock")
	}
	if c.Irq.In_isr() {
		k.fatal("swap from interrupt context")
	}
	c.resched = false
	c.sliceout = false
	old := c.Current
	next := k.next_up(c, yield)
	if next == old {
		old.State = defs.RUNNING
		c.Stats.Noswaps.Inc()
		c.Irq.Unlock(key)
		return old.Retval
	}

	dead := old.State == defs.DEAD
	k.dispatch(c, old, next)
	c.Stats.Swaps.Inc()
	old.Irqdepth = c.Irq.Depth()
	k.arch.SaveAndSwitchTo(old, next)
	if dead {
		// next owns the CPU now
		return defs.Aborted
	}
	c.Irq.Switch_depth(old.Irqdepth)
	c.Irq.Unlock(key)
	return old.Retval
}

/// Reschedule releases the interrupt lock, switching first if a READY
/// thread should displace the current one. From an interrupt, or with
/// interrupts locked by an outer section, the switch is deferred until
/// interrupts are enabled again.
func (k *Kernel_t) Reschedule(key irq.Key_t) {
	c := k.cpu()
	switch {
	case !k.started:
	case c.Irq.In_isr():
		c.resched = true
	case key != irq.Enabled:
	case k.resched_needed(c, false):
		k.swap(key, false)
		return
	default:
		c.resched = false
	}
	c.Irq.Unlock(key)
}

/// Ready makes t READY. The caller holds the interrupt lock and
/// reschedules afterwards.
func (k *Kernel_t) Ready(t *tinfo.Thread_t) {
	c := k.cpu()
	k.assert_locked(c)
	switch {
	case t.State == defs.DEAD:
		k.fatal("readying dead thread %v", t)
	case t.State == defs.RUNNING && t == c.Current:
		return
	case c.Runq.Contains(t):
		return
	}
	c.Runq.Insert(t)
	t.Accnt.Made_ready(k.Timeouts.Uptime())
	c.resched = true
	k.event(Ev_ready, t, nil)
}

/// Boot dispatches the most urgent READY thread. The port starts it with
/// one interrupt-lock level held; its entry code releases it.
func (k *Kernel_t) Boot() {
	c := k.cpu()
	if k.started {
		k.fatal("booted twice")
	}
	key := c.Irq.Lock()
	first := c.Runq.Peek()
	c.Runq.Remove(first)
	k.started = true
	k.dispatch(c, nil, first)
	c.Irq.Restore(key)
	c.Irq.Switch_depth(1)
	k.arch.Enter(first)
}

/// Run boots the kernel and blocks until it halts: when no thread but idle
/// is left alive, or after Shutdown once the CPU idles.
func (k *Kernel_t) Run() {
	k.Boot()
	<-k.halted
}

/// Halted is closed when the kernel halts.
func (k *Kernel_t) Halted() <-chan struct{} {
	return k.halted
}

/// Shutdown asks the kernel to halt the next time the CPU idles. It may be
/// called from any goroutine.
func (k *Kernel_t) Shutdown() {
	k.Raise(func() { k.haltreq = true })
}

// thread_entry is the first code a new thread runs; a thread whose body
// returns is aborted.
func (k *Kernel_t) thread_entry(t *tinfo.Thread_t, body func()) {
	c := k.cpu()
	c.Irq.Switch_depth(1)
	c.Irq.Unlock(irq.Enabled)
	body()
	if k.halting {
		return
	}
	key := c.Irq.Lock()
	t.Returned = true
	k.abort_locked(c, t)
	k.swap(key, false)
}

// idle waits for interrupts until nothing is left to run.
func (k *Kernel_t) idle() {
	c := k.cpu()
	for {
		key := c.Irq.Lock()
		if k.haltreq || k.nlive == 0 {
			k.halting = true
			c.Irq.Restore(key)
			close(k.halted)
			return
		}
		if c.Irq.Has_pending() {
			c.Irq.Unlock(key)
			continue
		}
		c.Irq.Restore(key)
		<-c.Irq.Kick()
	}
}
