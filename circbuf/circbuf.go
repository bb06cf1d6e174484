package circbuf

import "zsched/util"

/// Circbuf_t implements a fixed-capacity circular buffer of T. head and tail
/// only grow; positions are taken modulo the buffer size. It is not safe for
/// concurrent use and references no global variables.
type Circbuf_t[T any] struct {
	Buf   []T /// underlying storage
	bufsz int /// capacity in elements
	head  int /// write position
	tail  int /// read position
}

/// Cb_init allocates room for sz elements. A zero size yields a buffer that
/// is always full and drops everything written to it.
func (cb *Circbuf_t[T]) Cb_init(sz int) {
	if sz < 0 {
		panic("bad circbuf size")
	}
	cb.Buf = make([]T, sz)
	cb.bufsz = sz
	cb.head, cb.tail = 0, 0
}

/// Bufsz returns the configured buffer size.
func (cb *Circbuf_t[T]) Bufsz() int {
	return cb.bufsz
}

/// Full returns true when the buffer cannot accept more data.
func (cb *Circbuf_t[T]) Full() bool {
	return cb.head-cb.tail == cb.bufsz
}

/// Empty reports whether the buffer contains any data.
func (cb *Circbuf_t[T]) Empty() bool {
	return cb.head == cb.tail
}

/// Left returns the remaining capacity.
func (cb *Circbuf_t[T]) Left() int {
	return cb.bufsz - cb.Used()
}

/// Used returns the current number of elements in the buffer.
func (cb *Circbuf_t[T]) Used() int {
	return cb.head - cb.tail
}

/// Written returns how many elements have ever been appended.
func (cb *Circbuf_t[T]) Written() int {
	return cb.head
}

/// Push appends v, returning false if the buffer is full.
func (cb *Circbuf_t[T]) Push(v T) bool {
	if cb.Full() {
		return false
	}
	cb.Buf[cb.head%cb.bufsz] = v
	cb.head++
	return true
}

/// Put appends v, discarding the oldest element when full.
func (cb *Circbuf_t[T]) Put(v T) {
	if cb.bufsz == 0 {
		cb.head++
		cb.tail++
		return
	}
	if cb.Full() {
		cb.tail++
	}
	cb.Buf[cb.head%cb.bufsz] = v
	cb.head++
}

/// Pop removes and returns the oldest element.
func (cb *Circbuf_t[T]) Pop() (T, bool) {
	var zero T
	if cb.Empty() {
		return zero, false
	}
	v := cb.Buf[cb.tail%cb.bufsz]
	cb.Buf[cb.tail%cb.bufsz] = zero
	cb.tail++
	return v, true
}

/// Copyout_n appends up to max of the oldest elements to dst without
/// consuming them; max of 0 means all.
func (cb *Circbuf_t[T]) Copyout_n(dst []T, max int) []T {
	n := cb.Used()
	if max != 0 {
		n = util.Min(max, n)
	}
	for i := 0; i < n; i++ {
		dst = append(dst, cb.Buf[(cb.tail+i)%cb.bufsz])
	}
	return dst
}

/// Advtail discards sz elements after they have been consumed.
func (cb *Circbuf_t[T]) Advtail(sz int) {
	if sz != 0 && (cb.Empty() || cb.Used() < sz) {
		panic("advancing empty cb")
	}
	cb.tail += sz
}
