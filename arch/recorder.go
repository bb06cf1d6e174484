package arch

import "zsched/defs"
import "zsched/tinfo"

// Switch_t is one context transfer seen by a Recorder_t.
type Switch_t struct {
	From defs.Tid_t
	To   defs.Tid_t
}

// Recorder_t is a port that runs no code: it logs each transfer and returns
// immediately, leaving the caller to act on behalf of whichever thread the
// scheduler made current. Tests use it to drive the scheduler state machine
// step by step on one goroutine.
type Recorder_t struct {
	Switches []Switch_t
	Entered  defs.Tid_t
}

func MkRecorder() *Recorder_t {
	return &Recorder_t{Entered: defs.Nil_tid}
}

func (r *Recorder_t) SaveAndSwitchTo(from, to *tinfo.Thread_t) {
	r.Switches = append(r.Switches, Switch_t{From: from.Tid, To: to.Tid})
}

func (r *Recorder_t) Enter(initial *tinfo.Thread_t) {
	r.Entered = initial.Tid
}

// Reset forgets recorded switches.
func (r *Recorder_t) Reset() {
	r.Switches = r.Switches[:0]
}
