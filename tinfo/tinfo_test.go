package tinfo

import (
	"testing"

	"zsched/defs"
)

func TestArena(t *testing.T) {
	var ti Threadinfo_t
	ti.Init(2)
	a := ti.Alloc("a", 1)
	b := ti.Alloc("b", 2)
	if a == nil || b == nil || ti.Alloc("c", 3) != nil {
		t.Fatalf("arena of two gave wrong allocations")
	}
	if ti.Get(a.Tid) != a || ti.Live() != 2 {
		t.Fatalf("Get/Live broken")
	}
	if a.State != defs.SUSPENDED || a.Queued() {
		t.Fatalf("fresh thread %v", a)
	}
	a.State = defs.DEAD
	ti.Release(a)
	if ti.Live() != 1 {
		t.Fatalf("Live = %d", ti.Live())
	}
	c := ti.Alloc("c", 3)
	if c == nil || c.Tid != a.Tid || c.Name != "c" {
		t.Fatalf("slot not reused: %v", c)
	}
	n := 0
	ti.Iter(func(*Thread_t) bool { n++; return false })
	if n != 2 {
		t.Fatalf("Iter visited %d", n)
	}
}

func TestReleaseLivePanics(t *testing.T) {
	var ti Threadinfo_t
	ti.Init(1)
	a := ti.Alloc("a", 0)
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	ti.Release(a)
}

func TestList(t *testing.T) {
	var ti Threadinfo_t
	ti.Init(4)
	var l List_t
	l.Init(&ti)
	a := ti.Alloc("a", 0)
	b := ti.Alloc("b", 0)
	c := ti.Alloc("c", 0)
	l.Append(b)
	l.Prepend(a)
	l.Insert_before(nil, c)
	if l.Head() != a || l.Tail() != c || l.Next(a) != b || l.Len() != 3 {
		t.Fatalf("bad link order")
	}
	l.Remove(b)
	if l.Next(a) != c || b.Queued() {
		t.Fatalf("remove middle broken")
	}
	l.Insert_before(c, b)
	if l.Next(a) != b || l.Next(b) != c {
		t.Fatalf("Insert_before broken")
	}
	if l.Pop() != a || l.Head() != b || !b.On(&l) {
		t.Fatalf("Pop broken")
	}
	if l.Remove(a) {
		t.Fatalf("removed non-member")
	}
}
