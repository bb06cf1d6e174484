package sched

import "zsched/defs"

/// Raise queues an interrupt handler for the CPU. It may be called from any
/// goroutine; the handler runs on the CPU the next time interrupts are
/// enabled.
func (k *Kernel_t) Raise(h func()) {
	k.cpu().Irq.Raise(h)
}

/// Interrupt raises h and delivers it at once if interrupts are enabled.
/// Only the context owning the CPU may call it.
func (k *Kernel_t) Interrupt(h func()) {
	k.Raise(h)
	k.Checkpoint()
}

/// Checkpoint is a preemption point: pending interrupts are delivered and
/// any reschedule they requested happens here.
func (k *Kernel_t) Checkpoint() {
	c := k.cpu()
	c.Irq.Unlock(c.Irq.Lock())
}

func (k *Kernel_t) isr(c *Cpu_t, h func()) {
	key := c.Irq.Lock()
	c.Irq.Isr_enter()
	c.Stats.Irqs.Inc()
	h()
	c.Irq.Isr_exit()
	c.Irq.Restore(key)
}

// irq_enabled runs each time interrupts become enabled on the CPU. It
// delivers queued interrupts and then acts as the interrupt exit path,
// switching if a handler readied a more urgent thread or a slice ran out.
func (k *Kernel_t) irq_enabled() {
	c := k.cpu()
	if c.delivering {
		return
	}
	c.delivering = true
	for hs := c.Irq.Take(); len(hs) != 0; hs = c.Irq.Take() {
		for _, h := range hs {
			k.isr(c, h)
		}
	}
	c.delivering = false

	if !c.resched || !k.started {
		return
	}
	key := c.Irq.Lock()
	yield := c.sliceout
	if yield {
		c.sliceout = false
		c.Current.Slice = k.slice
	}
	if k.resched_needed(c, yield) {
		k.swap(key, yield)
		return
	}
	c.resched = false
	c.Irq.Unlock(key)
}

/// IsInIsr reports whether the caller runs in interrupt context.
func (k *Kernel_t) IsInIsr() bool {
	return k.cpu().Irq.In_isr()
}

/// Announce is the clock interrupt body: it charges n ticks to the current
/// thread, runs down its time slice and expires due timeouts.
func (k *Kernel_t) Announce(n defs.Ticks_t) {
	c := k.cpu()
	key := c.Irq.Lock()
	if cur := c.Current; cur != nil && k.started {
		cur.Accnt.Tick(n)
		if cur == c.Idle {
			c.Stats.Idleticks.Add(int64(n))
		}
		if k.sliceable(c, cur) {
			cur.Slice -= int(n)
			if cur.Slice <= 0 && !c.sliceout {
				c.sliceout = true
				c.resched = true
				c.Stats.Slices.Inc()
			}
		}
	}
	c.Stats.Ticks.Add(int64(n))
	k.Timeouts.Announce(n)
	k.event_arg(Ev_tick, nil, nil, int64(n))
	c.Irq.Unlock(key)
}
