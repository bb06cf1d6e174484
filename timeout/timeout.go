// Package timeout keeps pending expirations in a delta list: each entry
// stores the ticks it expires after its predecessor, so advancing time only
// touches the head.
//
// The list is not locked; callers hold the CPU interrupt lock around every
// operation, including the expiry callbacks run from Announce.
package timeout

import "zsched/defs"

// Timeout_t is an intrusive list entry, normally embedded in its owner.
type Timeout_t struct {
	next   *Timeout_t
	prev   *Timeout_t
	dticks defs.Ticks_t
	linked bool
	// Fn runs when the entry expires, after it has been unlinked. It may
	// add or abort timeouts, including this one.
	Fn func(*Timeout_t)
}

// Linked reports whether the entry is pending.
func (to *Timeout_t) Linked() bool {
	return to.linked
}

// List_t is a delta-ordered list of timeouts and the tick counter it is
// measured against.
type List_t struct {
	first *Timeout_t
	last  *Timeout_t
	n     int
	curr  defs.Ticks_t
}

// Add schedules to to fire after ticks ticks. Timeouts of less than one
// tick are rounded up to one. Entries with equal deadlines fire in the
// order they were added.
func (l *List_t) Add(to *Timeout_t, ticks defs.Ticks_t, fn func(*Timeout_t)) {
	if to.linked {
		panic("timeout already pending")
	}
	if ticks < 1 {
		ticks = 1
	}
	to.Fn = fn
	to.linked = true
	l.n++
	for t := l.first; t != nil; t = t.next {
		if t.dticks > ticks {
			t.dticks -= ticks
			to.dticks = ticks
			to.next = t
			to.prev = t.prev
			if t.prev == nil {
				l.first = to
			} else {
				t.prev.next = to
			}
			t.prev = to
			return
		}
		ticks -= t.dticks
	}
	to.dticks = ticks
	to.next = nil
	to.prev = l.last
	if l.last == nil {
		l.first = to
	} else {
		l.last.next = to
	}
	l.last = to
}

func (l *List_t) unlink(to *Timeout_t) {
	if to.next != nil {
		to.next.dticks += to.dticks
		to.next.prev = to.prev
	} else {
		l.last = to.prev
	}
	if to.prev != nil {
		to.prev.next = to.next
	} else {
		l.first = to.next
	}
	to.next, to.prev = nil, nil
	to.dticks = 0
	to.linked = false
	l.n--
}

// Abort cancels to, returning false if it was not pending.
func (l *List_t) Abort(to *Timeout_t) bool {
	if !to.linked {
		return false
	}
	l.unlink(to)
	return true
}

// Announce advances time by ticks and fires every entry whose deadline has
// been reached, earliest first. Time is advanced to each entry's deadline
// before its callback runs, so timeouts added from a callback are measured
// from that point.
func (l *List_t) Announce(ticks defs.Ticks_t) int {
	if ticks < 0 {
		panic("negative announce")
	}
	fired := 0
	for l.first != nil && l.first.dticks <= ticks {
		to := l.first
		dt := to.dticks
		l.curr += dt
		ticks -= dt
		// the successor's delta is already relative to this deadline
		to.dticks = 0
		l.unlink(to)
		fired++
		to.Fn(to)
	}
	if l.first != nil {
		l.first.dticks -= ticks
	}
	l.curr += ticks
	return fired
}

// Remaining returns the ticks until to fires, or 0 if it is not pending.
func (l *List_t) Remaining(to *Timeout_t) defs.Ticks_t {
	if !to.linked {
		return 0
	}
	var r defs.Ticks_t
	for t := l.first; t != nil; t = t.next {
		r += t.dticks
		if t == to {
			return r
		}
	}
	panic("pending timeout not on list")
}

// Expires returns the absolute tick at which to fires, or the current tick
// if it is not pending.
func (l *List_t) Expires(to *Timeout_t) defs.Ticks_t {
	return l.curr + l.Remaining(to)
}

// Next returns the ticks until the earliest deadline and false if nothing
// is pending.
func (l *List_t) Next() (defs.Ticks_t, bool) {
	if l.first == nil {
		return 0, false
	}
	return l.first.dticks, true
}

// Uptime returns the number of ticks announced so far.
func (l *List_t) Uptime() defs.Ticks_t {
	return l.curr
}

// Len returns the number of pending entries.
func (l *List_t) Len() int {
	return l.n
}
