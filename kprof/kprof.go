// Package kprof exports per-thread scheduler accounting as a pprof
// profile, so run and queueing time can be browsed with go tool pprof.
package kprof

import (
	"fmt"
	"io"
	"time"

	"github.com/google/pprof/profile"

	"zsched/sched"
)

// Sample value indexes.
const (
	Vrun = iota
	Vready
	Vdispatch
	Vpreempt
)

/// Build makes a profile with one sample per thread. Each sample's stack
/// is the thread under a frame for its priority, so the flame graph groups
/// threads by priority. Tick values are scaled to nanoseconds with tick.
func Build(threads []sched.Tsnap_t, tick time.Duration) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "run", Unit: "nanoseconds"},
			{Type: "ready", Unit: "nanoseconds"},
			{Type: "dispatches", Unit: "count"},
			{Type: "preemptions", Unit: "count"},
		},
		DefaultSampleType: "run",
		PeriodType:        &profile.ValueType{Type: "tick", Unit: "nanoseconds"},
		Period:            int64(tick),
		TimeNanos:         time.Now().UnixNano(),
	}
	locs := map[string]*profile.Location{}
	loc := func(name string) *profile.Location {
		if l, ok := locs[name]; ok {
			return l
		}
		id := uint64(len(p.Location) + 1)
		f := &profile.Function{ID: id, Name: name, SystemName: name}
		l := &profile.Location{ID: id, Line: []profile.Line{{Function: f}}}
		p.Function = append(p.Function, f)
		p.Location = append(p.Location, l)
		locs[name] = l
		return l
	}
	var total int64
	for _, th := range threads {
		a := th.Accnt
		total += a.Runticks
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{
				loc(fmt.Sprintf("%s#%d", th.Name, th.Tid)),
				loc(fmt.Sprintf("prio %d", th.Prio)),
			},
			Value: []int64{
				a.Runticks * int64(tick),
				a.Readyticks * int64(tick),
				a.Dispatches,
				a.Preempted,
			},
			Label:    map[string][]string{"thread": {th.Name}, "state": {th.State.String()}},
			NumLabel: map[string][]int64{"prio": {int64(th.Prio)}},
		})
	}
	p.DurationNanos = total * int64(tick)
	return p
}

/// Write builds the profile and writes it gzipped to w.
func Write(w io.Writer, threads []sched.Tsnap_t, tick time.Duration) error {
	p := Build(threads, tick)
	if err := p.CheckValid(); err != nil {
		return fmt.Errorf("kprof: %w", err)
	}
	if err := p.Write(w); err != nil {
		return fmt.Errorf("kprof: %w", err)
	}
	return nil
}
