package timeline

import (
	"bytes"
	"image/png"
	"testing"

	"zsched/defs"
	"zsched/sched"
)

func trace() []sched.Event_t {
	sw := func(tick defs.Ticks_t, tid defs.Tid_t, name string) sched.Event_t {
		return sched.Event_t{Tick: tick, Kind: sched.Ev_switch, Tid: tid, Name: name}
	}
	return []sched.Event_t{
		sw(0, 1, "A"),
		{Tick: 3, Kind: sched.Ev_tick, Arg: 1},
		sw(4, 2, "B"),
		sw(9, 0, "idle"),
		sw(12, 1, "A"),
	}
}

func TestSpans(t *testing.T) {
	sp := Spans(trace(), 20)
	want := []Span_t{
		{1, "A", 0, 4},
		{2, "B", 4, 9},
		{0, "idle", 9, 12},
		{1, "A", 12, 20},
	}
	if len(sp) != len(want) {
		t.Fatalf("spans %v", sp)
	}
	for i := range want {
		if sp[i] != want[i] {
			t.Fatalf("span %d = %v, want %v", i, sp[i], want[i])
		}
	}
	if len(Spans(nil, 5)) != 0 {
		t.Fatalf("spans from empty trace")
	}
}

func TestRender(t *testing.T) {
	sp := Spans(trace(), 20)
	img := Render(sp, 400)
	b := img.Bounds()
	if b.Dx() != 400 || b.Dy() != 2*margin+4*rowh {
		t.Fatalf("bounds %v", b)
	}
	var buf bytes.Buffer
	if err := WritePNG(&buf, sp, 400); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Fatalf("bad png: %v", err)
	}
}
