package sched

import (
	"fmt"

	"zsched/defs"
	"zsched/tinfo"
)

/// Evkind_t names a scheduler trace event.
type Evkind_t uint8

const (
	Ev_switch Evkind_t = iota /// Tid dispatched, From switched out
	Ev_ready
	Ev_pend
	Ev_sleep
	Ev_wake
	Ev_timeout
	Ev_suspend
	Ev_abort
	Ev_create
	Ev_prio
	Ev_tick /// Arg ticks announced
)

var evnames = [...]string{
	Ev_switch:  "switch",
	Ev_ready:   "ready",
	Ev_pend:    "pend",
	Ev_sleep:   "sleep",
	Ev_wake:    "wake",
	Ev_timeout: "timeout",
	Ev_suspend: "suspend",
	Ev_abort:   "abort",
	Ev_create:  "create",
	Ev_prio:    "prio",
	Ev_tick:    "tick",
}

func (e Evkind_t) String() string {
	if int(e) < len(evnames) {
		return evnames[e]
	}
	return fmt.Sprintf("ev(%d)", int(e))
}

/// Event_t is one entry of the scheduler trace.
type Event_t struct {
	Tick defs.Ticks_t
	Kind Evkind_t
	Tid  defs.Tid_t
	Name string
	Prio defs.Prio_t
	From defs.Tid_t
	Arg  int64
}

func (e Event_t) String() string {
	switch e.Kind {
	case Ev_tick:
		return fmt.Sprintf("%d tick +%d", e.Tick, e.Arg)
	case Ev_switch:
		return fmt.Sprintf("%d switch %d -> %s(%d)", e.Tick, e.From, e.Name, e.Tid)
	}
	return fmt.Sprintf("%d %v %s(%d) prio %d", e.Tick, e.Kind, e.Name, e.Tid, e.Prio)
}

func (k *Kernel_t) event(kind Evkind_t, t, from *tinfo.Thread_t) {
	k.event_arg(kind, t, from, 0)
}

func (k *Kernel_t) event_arg(kind Evkind_t, t, from *tinfo.Thread_t, arg int64) {
	if k.trace.Bufsz() == 0 {
		return
	}
	e := Event_t{
		Tick: k.Timeouts.Uptime(),
		Kind: kind,
		Tid:  defs.Nil_tid,
		From: defs.Nil_tid,
		Arg:  arg,
	}
	if t != nil {
		e.Tid, e.Name, e.Prio = t.Tid, t.Name, t.Prio
	}
	if from != nil {
		e.From = from.Tid
	}
	k.tracemu.Lock()
	k.trace.Put(e)
	k.tracemu.Unlock()
}

/// Trace returns the recorded events, oldest first. Only the most recent
/// Trace_depth events are kept.
func (k *Kernel_t) Trace() []Event_t {
	k.tracemu.Lock()
	defer k.tracemu.Unlock()
	return k.trace.Copyout_n(nil, 0)
}
