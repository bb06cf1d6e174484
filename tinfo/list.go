package tinfo

import "fmt"

import "zsched/defs"

/// Link_t is the intrusive node a thread uses to sit in one List_t.
type Link_t struct {
	next  defs.Tid_t
	prev  defs.Tid_t
	owner *List_t
}

/// List_t is a doubly linked list of threads threaded through their Qlink
/// fields by index. The list does not own its members.
type List_t struct {
	head defs.Tid_t
	tail defs.Tid_t
	n    int
	ti   *Threadinfo_t
}

/// Init empties the list and binds it to an arena.
func (l *List_t) Init(ti *Threadinfo_t) {
	l.head, l.tail = defs.Nil_tid, defs.Nil_tid
	l.n = 0
	l.ti = ti
}

/// Len returns the number of members.
func (l *List_t) Len() int {
	return l.n
}

/// Empty reports whether the list has no members.
func (l *List_t) Empty() bool {
	return l.n == 0
}

/// Head returns the first member or nil.
func (l *List_t) Head() *Thread_t {
	if l.head == defs.Nil_tid {
		return nil
	}
	return &l.ti.Threads[l.head]
}

/// Tail returns the last member or nil.
func (l *List_t) Tail() *Thread_t {
	if l.tail == defs.Nil_tid {
		return nil
	}
	return &l.ti.Threads[l.tail]
}

/// Next returns the member after t or nil.
func (l *List_t) Next(t *Thread_t) *Thread_t {
	if t.Qlink.owner != l {
		panic(fmt.Sprintf("%v not on list", t))
	}
	if t.Qlink.next == defs.Nil_tid {
		return nil
	}
	return &l.ti.Threads[t.Qlink.next]
}

func (l *List_t) claim(t *Thread_t) {
	if t.Qlink.owner != nil {
		panic(fmt.Sprintf("double insertion of %v", t))
	}
	if l.ti == nil {
		panic("list not initialized")
	}
	t.Qlink.owner = l
	l.n++
}

/// Append links t at the tail.
func (l *List_t) Append(t *Thread_t) {
	l.claim(t)
	t.Qlink.next = defs.Nil_tid
	t.Qlink.prev = l.tail
	if l.tail == defs.Nil_tid {
		l.head = t.Tid
	} else {
		l.ti.Threads[l.tail].Qlink.next = t.Tid
	}
	l.tail = t.Tid
}

/// Prepend links t at the head.
func (l *List_t) Prepend(t *Thread_t) {
	l.claim(t)
	t.Qlink.prev = defs.Nil_tid
	t.Qlink.next = l.head
	if l.head == defs.Nil_tid {
		l.tail = t.Tid
	} else {
		l.ti.Threads[l.head].Qlink.prev = t.Tid
	}
	l.head = t.Tid
}

/// Insert_before links t ahead of member at; a nil at appends.
func (l *List_t) Insert_before(at, t *Thread_t) {
	if at == nil {
		l.Append(t)
		return
	}
	if at.Qlink.owner != l {
		panic(fmt.Sprintf("%v not on list", at))
	}
	if at.Qlink.prev == defs.Nil_tid {
		l.Prepend(t)
		return
	}
	l.claim(t)
	p := &l.ti.Threads[at.Qlink.prev]
	t.Qlink.prev = p.Tid
	t.Qlink.next = at.Tid
	p.Qlink.next = t.Tid
	at.Qlink.prev = t.Tid
}

/// Remove unlinks t. It is a no-op if t is not a member.
func (l *List_t) Remove(t *Thread_t) bool {
	if t.Qlink.owner != l {
		return false
	}
	if t.Qlink.prev == defs.Nil_tid {
		l.head = t.Qlink.next
	} else {
		l.ti.Threads[t.Qlink.prev].Qlink.next = t.Qlink.next
	}
	if t.Qlink.next == defs.Nil_tid {
		l.tail = t.Qlink.prev
	} else {
		l.ti.Threads[t.Qlink.next].Qlink.prev = t.Qlink.prev
	}
	t.Qlink = Link_t{next: defs.Nil_tid, prev: defs.Nil_tid}
	l.n--
	return true
}

/// Pop unlinks and returns the head, or nil.
func (l *List_t) Pop() *Thread_t {
	t := l.Head()
	if t != nil {
		l.Remove(t)
	}
	return t
}

/// Iter calls f on each member in order until f returns true. f must not
/// unlink members other than the one it is given.
func (l *List_t) Iter(f func(*Thread_t) bool) {
	for tid := l.head; tid != defs.Nil_tid; {
		t := &l.ti.Threads[tid]
		next := t.Qlink.next
		if f(t) {
			return
		}
		tid = next
	}
}
