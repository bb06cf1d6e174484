package arch

import "fmt"

import "zsched/defs"
import "zsched/tinfo"

// hctx_t is the continuation of one thread on the host port: the goroutine
// running it and the slot it parks on.
type hctx_t struct {
	// one-slot semaphore; a resume may land before the matching park
	wake    chan struct{}
	started bool
}

// Host_t runs each kernel thread on its own goroutine. Exactly one of them
// holds the CPU; the rest are parked in SaveAndSwitchTo. Switching costs a
// goroutine handoff rather than a register save.
type Host_t struct{}

// MkHost returns the goroutine port.
func MkHost() *Host_t {
	return &Host_t{}
}

func (h *Host_t) ctx(t *tinfo.Thread_t) *hctx_t {
	if t.Ctx == nil {
		t.Ctx = &hctx_t{wake: make(chan struct{}, 1)}
	}
	c, ok := t.Ctx.(*hctx_t)
	if !ok {
		panic(fmt.Sprintf("arch: %v has a foreign context %T", t, t.Ctx))
	}
	return c
}

func (h *Host_t) resume(t *tinfo.Thread_t) {
	c := h.ctx(t)
	if !c.started {
		c.started = true
		go t.Entry()
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
		panic(fmt.Sprintf("arch: %v resumed twice", t))
	}
}

func (h *Host_t) SaveAndSwitchTo(from, to *tinfo.Thread_t) {
	c := h.ctx(from)
	// from may be touched by to as soon as it runs
	exited := from.State == defs.DEAD && from.Returned
	h.resume(to)
	if exited {
		return
	}
	<-c.wake
}

func (h *Host_t) Enter(initial *tinfo.Thread_t) {
	h.resume(initial)
}
