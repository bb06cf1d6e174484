// Package runq is the ready queue: one FIFO bucket per priority level and a
// bitmap of non-empty buckets, so the most urgent thread is found with a
// single find-first-set.
package runq

import "fmt"

import "zsched/defs"
import "zsched/tinfo"
import "zsched/util"

/// Runq_t holds the READY threads of one CPU.
type Runq_t struct {
	buckets []tinfo.List_t
	bitmap  uint64
	base    defs.Prio_t
	n       int
}

/// Init creates buckets for priorities highest..lowest inclusive.
func (rq *Runq_t) Init(ti *tinfo.Threadinfo_t, highest, lowest defs.Prio_t) {
	nb := int(lowest-highest) + 1
	if nb <= 0 || nb > 64 {
		panic(fmt.Sprintf("runq: bad priority range %d..%d", highest, lowest))
	}
	rq.buckets = make([]tinfo.List_t, nb)
	for i := range rq.buckets {
		rq.buckets[i].Init(ti)
	}
	rq.bitmap = 0
	rq.base = highest
	rq.n = 0
}

func (rq *Runq_t) bucket(p defs.Prio_t) (int, *tinfo.List_t) {
	i := int(p - rq.base)
	if i < 0 || i >= len(rq.buckets) {
		panic(fmt.Sprintf("runq: priority %d out of range", p))
	}
	return i, &rq.buckets[i]
}

func (rq *Runq_t) add(t *tinfo.Thread_t, head bool) {
	i, b := rq.bucket(t.Prio)
	if head {
		b.Prepend(t)
	} else {
		b.Append(t)
	}
	rq.bitmap |= 1 << uint(i)
	rq.n++
	t.State = defs.READY
}

/// Insert queues t behind every READY thread of its priority and marks it
/// READY.
func (rq *Runq_t) Insert(t *tinfo.Thread_t) {
	rq.add(t, false)
}

/// Insert_head queues t ahead of every READY thread of its priority; used
/// for a thread displaced before its turn was over.
func (rq *Runq_t) Insert_head(t *tinfo.Thread_t) {
	rq.add(t, true)
}

/// Remove unlinks t, returning false if it was not queued here. The
/// thread's state is left for the caller to set.
func (rq *Runq_t) Remove(t *tinfo.Thread_t) bool {
	i, b := rq.bucket(t.Prio)
	if !b.Remove(t) {
		return false
	}
	if b.Empty() {
		rq.bitmap &^= 1 << uint(i)
	}
	rq.n--
	return true
}

/// Contains reports whether t is queued here.
func (rq *Runq_t) Contains(t *tinfo.Thread_t) bool {
	_, b := rq.bucket(t.Prio)
	return t.On(b)
}

/// Peek returns the most urgent READY thread without removing it, or nil.
func (rq *Runq_t) Peek() *tinfo.Thread_t {
	i := util.Ffs(rq.bitmap)
	if i < 0 {
		return nil
	}
	return rq.buckets[i].Head()
}

/// Len returns the number of READY threads.
func (rq *Runq_t) Len() int {
	return rq.n
}

/// Iter visits READY threads most urgent first, FIFO within a priority,
/// until f returns true.
func (rq *Runq_t) Iter(f func(*tinfo.Thread_t) bool) {
	stop := false
	for w := rq.bitmap; w != 0 && !stop; w &= w - 1 {
		rq.buckets[util.Ffs(w)].Iter(func(t *tinfo.Thread_t) bool {
			stop = f(t)
			return stop
		})
	}
}
