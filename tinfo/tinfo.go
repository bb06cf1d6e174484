package tinfo

import "fmt"

import "zsched/accnt"
import "zsched/defs"
import "zsched/timeout"

/// Thread_t stores per-thread scheduler state. Threads live in a
/// Threadinfo_t arena and are referred to by index; queues hold links, never
/// ownership. All mutable fields are protected by the CPU interrupt lock.
type Thread_t struct {
	Tid   defs.Tid_t
	Name  string
	Prio  defs.Prio_t
	State defs.Tstate_t
	// delivered by whoever readies the thread from PENDING/SLEEPING
	Retval defs.Err_t
	// link into the ready queue or one wait queue, never both
	Qlink Link_t
	// the wait queue Qlink is on, if any
	Pendq Pendq_i
	// at most one pending timeout
	Timeout timeout.Timeout_t
	// opaque continuation owned by the architecture port
	Ctx interface{}
	// body run by the port when the thread is first dispatched
	Entry func()
	// Entry has returned
	Returned bool
	// interrupt-lock nesting saved across a swap
	Irqdepth int
	// k_sched_lock nesting; nonzero makes the thread behave as cooperative
	Schedlock int
	// absolute tick a sleep ends at
	Sleepuntil defs.Ticks_t
	// slice ticks left while RUNNING
	Slice int
	Accnt accnt.Accnt_t
	inuse bool
}

func (t *Thread_t) String() string {
	if t == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s(%d, prio %d, %v)", t.Name, t.Tid, t.Prio, t.State)
}

/// Queued reports whether the thread is linked in any list.
func (t *Thread_t) Queued() bool {
	return t.Qlink.owner != nil
}

/// On reports whether the thread is linked in l.
func (t *Thread_t) On(l *List_t) bool {
	return t.Qlink.owner == l
}

/// Pendq_i is the view of a wait queue a thread keeps while pended on it.
type Pendq_i interface {
	Remove(t *Thread_t) bool
	Reposition(t *Thread_t)
}

/// Threadinfo_t is the arena of all thread objects.
type Threadinfo_t struct {
	Threads []Thread_t
	free    []defs.Tid_t
	live    int
}

/// Init allocates n thread slots.
func (ti *Threadinfo_t) Init(n int) {
	if n <= 0 {
		panic("bad arena size")
	}
	ti.Threads = make([]Thread_t, n)
	ti.free = make([]defs.Tid_t, 0, n)
	for i := n - 1; i >= 0; i-- {
		ti.free = append(ti.free, defs.Tid_t(i))
	}
	ti.live = 0
}

/// Alloc returns a fresh thread object, or nil when the arena is full.
func (ti *Threadinfo_t) Alloc(name string, prio defs.Prio_t) *Thread_t {
	if len(ti.free) == 0 {
		return nil
	}
	tid := ti.free[len(ti.free)-1]
	ti.free = ti.free[:len(ti.free)-1]
	t := &ti.Threads[tid]
	*t = Thread_t{
		Tid:   tid,
		Name:  name,
		Prio:  prio,
		State: defs.SUSPENDED,
		Qlink: Link_t{next: defs.Nil_tid, prev: defs.Nil_tid},
		inuse: true,
	}
	ti.live++
	return t
}

/// Release returns a DEAD thread's slot to the arena.
func (ti *Threadinfo_t) Release(t *Thread_t) {
	if !t.inuse {
		panic("release of free thread")
	}
	if t.State != defs.DEAD || t.Queued() || t.Timeout.Linked() {
		panic(fmt.Sprintf("release of live thread %v", t))
	}
	t.inuse = false
	ti.free = append(ti.free, t.Tid)
	ti.live--
}

/// Get returns the thread with the given id.
func (ti *Threadinfo_t) Get(tid defs.Tid_t) *Thread_t {
	if tid < 0 || int(tid) >= len(ti.Threads) || !ti.Threads[tid].inuse {
		panic(fmt.Sprintf("bad tid %d", tid))
	}
	return &ti.Threads[tid]
}

/// Live returns the number of allocated threads.
func (ti *Threadinfo_t) Live() int {
	return ti.live
}

/// Iter calls f on each allocated thread until f returns true.
func (ti *Threadinfo_t) Iter(f func(*Thread_t) bool) {
	for i := range ti.Threads {
		t := &ti.Threads[i]
		if t.inuse && f(t) {
			return
		}
	}
}
