// Package timeline draws a scheduler trace as a Gantt chart: one row per
// thread, a bar for every interval the thread held the CPU.
package timeline

import (
	"fmt"
	"image"
	"io"
	"sort"

	"github.com/fogleman/gg"

	"zsched/defs"
	"zsched/sched"
)

/// Span_t is an interval during which a thread ran.
type Span_t struct {
	Tid   defs.Tid_t
	Name  string
	Start defs.Ticks_t
	End   defs.Ticks_t
}

/// Spans turns the switch events of a trace into run intervals. The
/// thread running when the trace ends is closed at end.
func Spans(evs []sched.Event_t, end defs.Ticks_t) []Span_t {
	var ret []Span_t
	var cur *Span_t
	for _, e := range evs {
		if e.Kind != sched.Ev_switch {
			continue
		}
		if cur != nil {
			cur.End = e.Tick
			ret = append(ret, *cur)
		}
		cur = &Span_t{Tid: e.Tid, Name: e.Name, Start: e.Tick}
	}
	if cur != nil {
		cur.End = end
		if cur.End < cur.Start {
			cur.End = cur.Start
		}
		ret = append(ret, *cur)
	}
	return ret
}

const (
	rowh   = 18
	labelw = 110
	margin = 10
)

var palette = [][3]float64{
	{0.27, 0.51, 0.71},
	{0.80, 0.36, 0.36},
	{0.40, 0.65, 0.40},
	{0.85, 0.60, 0.25},
	{0.55, 0.45, 0.70},
	{0.35, 0.65, 0.70},
}

/// Render draws spans into an image width pixels wide; the height follows
/// from the number of threads.
func Render(spans []Span_t, width int) image.Image {
	rows := map[defs.Tid_t]int{}
	var names []Span_t
	var t0, t1 defs.Ticks_t
	for i, s := range spans {
		if _, ok := rows[s.Tid]; !ok {
			rows[s.Tid] = 0
			names = append(names, s)
		}
		if i == 0 || s.Start < t0 {
			t0 = s.Start
		}
		if s.End > t1 {
			t1 = s.End
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Tid < names[j].Tid })
	for i, n := range names {
		rows[n.Tid] = i
	}

	height := 2*margin + rowh*len(names) + rowh
	if width < labelw+2*margin+1 {
		width = labelw + 2*margin + 1
	}
	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	plotw := float64(width - labelw - 2*margin)
	span := float64(t1 - t0)
	if span == 0 {
		span = 1
	}
	x := func(t defs.Ticks_t) float64 {
		return float64(labelw+margin) + plotw*float64(t-t0)/span
	}

	for i, n := range names {
		y := float64(margin + i*rowh)
		if i%2 == 1 {
			dc.SetRGB(0.95, 0.95, 0.95)
			dc.DrawRectangle(float64(labelw+margin), y, plotw, rowh)
			dc.Fill()
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(fmt.Sprintf("%s#%d", n.Name, n.Tid), margin, y+rowh/2, 0, 0.5)
	}
	for _, s := range spans {
		r := rows[s.Tid]
		c := palette[int(s.Tid)%len(palette)]
		dc.SetRGB(c[0], c[1], c[2])
		w := x(s.End) - x(s.Start)
		if w < 1 {
			w = 1
		}
		dc.DrawRectangle(x(s.Start), float64(margin+r*rowh+2), w, rowh-4)
		dc.Fill()
	}

	axis := float64(margin + len(names)*rowh + rowh/2)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(x(t0), axis-rowh/2, x(t1), axis-rowh/2)
	dc.Stroke()
	dc.DrawStringAnchored(fmt.Sprintf("%d", t0), x(t0), axis, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%d ticks", t1), x(t1), axis, 1, 0.5)
	return dc.Image()
}

/// WritePNG renders spans and encodes the image as PNG.
func WritePNG(w io.Writer, spans []Span_t, width int) error {
	dc := gg.NewContextForImage(Render(spans, width))
	if err := dc.EncodePNG(w); err != nil {
		return fmt.Errorf("timeline: %w", err)
	}
	return nil
}
