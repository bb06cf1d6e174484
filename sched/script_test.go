package sched

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"zsched/arch"
	"zsched/defs"
	"zsched/irq"
	"zsched/kconfig"
	"zsched/tinfo"
	"zsched/waitq"
)

// Each testdata/*.txtar archive holds a scenario:
//
//	-- config --   optional .config fragment
//	-- script --   one command per line, run on the recording port
//	-- switches -- optional expected context transfers, "A->B" per line
//
// Commands act on behalf of the current thread unless they name one.

type script_t struct {
	t       *testing.T
	k       *Kernel_t
	rec     *arch.Recorder_t
	threads map[string]*tinfo.Thread_t
	queues  map[string]*waitq.Waitq_t
	line    int
	booted  bool
}

func (s *script_t) fatalf(format string, args ...interface{}) {
	s.t.Helper()
	s.t.Fatalf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

func (s *script_t) thread(name string) *tinfo.Thread_t {
	if name == "idle" {
		return s.k.cpu().Idle
	}
	th, ok := s.threads[name]
	if !ok {
		s.fatalf("no thread %q", name)
	}
	return th
}

func (s *script_t) queue(name string) *waitq.Waitq_t {
	q, ok := s.queues[name]
	if !ok {
		q = &waitq.Waitq_t{}
		s.k.Waitq_init(q)
		s.queues[name] = q
	}
	return q
}

func (s *script_t) num(a string) int64 {
	n, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		s.fatalf("bad number %q", a)
	}
	return n
}

func (s *script_t) timeout(a string) defs.Timeout_t {
	switch a {
	case "forever":
		return defs.Forever
	case "nowait":
		return defs.NoWait
	}
	return defs.Ticks(s.num(a))
}

var errvals = []defs.Err_t{defs.Signaled, defs.TimedOut, defs.Aborted,
	-defs.EBUSY, -defs.EDEADLK, -defs.EINVAL}

func (s *script_t) errval(a string) defs.Err_t {
	for _, e := range errvals {
		if e.String() == a {
			return e
		}
	}
	return defs.Err_t(s.num(a))
}

var states = map[string]defs.Tstate_t{}

func init() {
	for st := defs.RUNNING; st <= defs.DEAD; st++ {
		states[st.String()] = st
	}
}

func (s *script_t) run(cmd string, args []string) {
	k := s.k
	argc := map[string]int{
		"create": -1, "boot": 0, "pend": 2, "signal": 2, "isr-signal": 2,
		"tick": 1, "yield": 0, "sleep": 1, "wakeup": 1, "suspend": 1,
		"resume": 1, "abort": 1, "prio": 2, "slice": 2, "join": 2,
		"schedlock": 0, "schedunlock": 0, "isr-resume": 1, "expect": -1,
	}
	n, ok := argc[cmd]
	if !ok {
		s.fatalf("unknown command %q", cmd)
	}
	if n >= 0 && len(args) != n {
		s.fatalf("%s takes %d arguments", cmd, n)
	}
	switch cmd {
	case "create":
		if len(args) < 2 || len(args) > 3 {
			s.fatalf("create NAME PRIO [DELAY]")
		}
		delay := defs.NoWait
		if len(args) == 3 {
			delay = s.timeout(args[2])
		}
		th, err := k.Create(args[0], defs.Prio_t(s.num(args[1])), func() {}, delay)
		if err != 0 {
			s.fatalf("create: %v", err)
		}
		s.threads[args[0]] = th
	case "boot":
		boot(k)
		s.booted = true
	case "pend":
		k.Pend(s.queue(args[0]), s.timeout(args[1]), k.Lock())
	case "signal":
		key := k.Lock()
		k.Unpend_first(s.queue(args[0]), s.errval(args[1]))
		k.Reschedule(key)
	case "isr-signal":
		q, v := s.queue(args[0]), s.errval(args[1])
		k.Interrupt(func() {
			key := k.Lock()
			k.Unpend_first(q, v)
			k.Reschedule(key)
		})
	case "tick":
		tick(k, int(s.num(args[0])))
	case "yield":
		k.Yield()
	case "sleep":
		k.Sleep(s.timeout(args[0]))
	case "wakeup":
		k.Wakeup(s.thread(args[0]))
	case "suspend":
		k.Suspend(s.thread(args[0]))
	case "resume":
		k.Resume(s.thread(args[0]))
	case "isr-resume":
		th := s.thread(args[0])
		k.Interrupt(func() { k.Resume(th) })
	case "abort":
		th := s.thread(args[0])
		self := th == k.Current()
		k.Abort(th)
		if self {
			k.Unlock(irq.Enabled)
		}
	case "prio":
		if r := k.PrioritySet(s.thread(args[0]), defs.Prio_t(s.num(args[1]))); r != 0 {
			s.fatalf("prio: %v", r)
		}
	case "slice":
		k.TimesliceSet(int(s.num(args[0])), defs.Prio_t(s.num(args[1])))
	case "join":
		k.Join(s.thread(args[0]), s.timeout(args[1]))
	case "schedlock":
		k.SchedLock()
	case "schedunlock":
		k.SchedUnlock()
	case "expect":
		s.expect(args)
	}
	if s.booted {
		invariants(s.t, k)
	}
}

func (s *script_t) expect(args []string) {
	if len(args) < 2 {
		s.fatalf("expect WHAT ...")
	}
	k := s.k
	switch args[0] {
	case "current":
		if cur := k.Current(); cur != s.thread(args[1]) {
			s.fatalf("current is %v, want %s", cur, args[1])
		}
	case "state":
		want, ok := states[args[2]]
		if !ok {
			s.fatalf("bad state %q", args[2])
		}
		if th := s.thread(args[1]); th.State != want {
			s.fatalf("%v, want %v", th, want)
		}
	case "retval":
		if th := s.thread(args[1]); th.Retval != s.errval(args[2]) {
			s.fatalf("%s retval %v, want %s", th.Name, th.Retval, args[2])
		}
	case "waiters":
		if n := s.queue(args[1]).Len(); n != int(s.num(args[2])) {
			s.fatalf("%s has %d waiters", args[1], n)
		}
	case "timeouts":
		if n := k.Timeouts.Len(); n != int(s.num(args[1])) {
			s.fatalf("%d timeouts pending", n)
		}
	case "swaps":
		if n := k.Stats().Swaps.Get(); n != s.num(args[1]) {
			s.fatalf("%d swaps", n)
		}
	default:
		s.fatalf("cannot expect %q", args[0])
	}
}

func run_scenario(t *testing.T, ar *txtar.Archive) {
	conf := kconfig.MkKconfig()
	var script, want []byte
	for _, f := range ar.Files {
		switch f.Name {
		case "config":
			if err := conf.Parse(bytes.NewReader(f.Data)); err != nil {
				t.Fatalf("config: %v", err)
			}
		case "script":
			script = f.Data
		case "switches":
			want = f.Data
		default:
			t.Fatalf("unexpected section %q", f.Name)
		}
	}
	rec := arch.MkRecorder()
	k, err := MkKernel(conf, rec)
	if err != nil {
		t.Fatal(err)
	}
	s := &script_t{
		t:       t,
		k:       k,
		rec:     rec,
		threads: make(map[string]*tinfo.Thread_t),
		queues:  make(map[string]*waitq.Waitq_t),
	}
	for i, l := range strings.Split(string(script), "\n") {
		s.line = i + 1
		if j := strings.IndexByte(l, '#'); j >= 0 {
			l = l[:j]
		}
		f := strings.Fields(l)
		if len(f) == 0 {
			continue
		}
		s.run(f[0], f[1:])
	}
	if want != nil {
		got := strings.Join(strings.Fields(switches(k, rec)), "\n")
		if w := strings.TrimSpace(string(want)); got != w {
			t.Fatalf("switches:\n%s\nwant:\n%s", got, w)
		}
	}
}

func TestScenarios(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatalf("no scenarios")
	}
	for _, file := range files {
		t.Run(strings.TrimSuffix(filepath.Base(file), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(file)
			if err != nil {
				t.Fatal(err)
			}
			run_scenario(t, ar)
		})
	}
}
