// Package waitq is the queue of threads blocked on one synchronization
// object. Order is FIFO unless the queue was created priority-ordered, in
// which case more urgent threads wake first and equals stay FIFO.
package waitq

import "zsched/defs"
import "zsched/tinfo"

/// Waitq_t is a wait queue. Callers hold the interrupt lock.
type Waitq_t struct {
	l    tinfo.List_t
	prio bool
}

/// Init binds the queue to the thread arena.
func (q *Waitq_t) Init(ti *tinfo.Threadinfo_t, prio bool) {
	q.l.Init(ti)
	q.prio = prio
}

/// Insert appends t and marks it PENDING.
func (q *Waitq_t) Insert(t *tinfo.Thread_t) {
	if q.prio {
		var at *tinfo.Thread_t
		q.l.Iter(func(w *tinfo.Thread_t) bool {
			if defs.Prio_cmp(t.Prio, w.Prio) > 0 {
				at = w
				return true
			}
			return false
		})
		q.l.Insert_before(at, t)
	} else {
		q.l.Append(t)
	}
	t.State = defs.PENDING
	t.Pendq = q
}

/// Remove_head pops the first waiter, or returns nil. The thread's state
/// is left for the caller to decide.
func (q *Waitq_t) Remove_head() *tinfo.Thread_t {
	t := q.l.Pop()
	if t != nil {
		t.Pendq = nil
	}
	return t
}

/// Remove unlinks t if it is waiting here; otherwise it does nothing.
func (q *Waitq_t) Remove(t *tinfo.Thread_t) bool {
	if !q.l.Remove(t) {
		return false
	}
	t.Pendq = nil
	return true
}

/// Reposition re-sorts t after its priority changed.
func (q *Waitq_t) Reposition(t *tinfo.Thread_t) {
	if !q.prio || !q.l.Remove(t) {
		return
	}
	st := t.State
	q.Insert(t)
	t.State = st
}

/// Contains reports whether t waits here.
func (q *Waitq_t) Contains(t *tinfo.Thread_t) bool {
	return t.On(&q.l)
}

/// Peek returns the first waiter without removing it.
func (q *Waitq_t) Peek() *tinfo.Thread_t {
	return q.l.Head()
}

func (q *Waitq_t) Len() int {
	return q.l.Len()
}

func (q *Waitq_t) Empty() bool {
	return q.l.Empty()
}

/// Iter visits waiters in wake order until f returns true.
func (q *Waitq_t) Iter(f func(*tinfo.Thread_t) bool) {
	q.l.Iter(f)
}
