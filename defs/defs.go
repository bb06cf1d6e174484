package defs

import "strconv"

/// Err_t is an errno-style return code delivered to a thread when it
/// resumes from a blocking call. Zero means success; failures are negative.
type Err_t int

/// Return codes used by the scheduler and its blocking services.
const (
	EINTR   Err_t = 4  /// wait aborted
	EAGAIN  Err_t = 11 /// timed out
	ENOMEM  Err_t = 12 /// thread arena exhausted
	EBUSY   Err_t = 16 /// would block, no wait requested
	EINVAL  Err_t = 22 /// bad argument
	EDEADLK Err_t = 35 /// join would deadlock
)

/// Sentinels placed in a thread's return-value slot.
const (
	Signaled Err_t = 0       /// woken by an object signal
	TimedOut Err_t = -EAGAIN /// woken by timeout expiry
	Aborted  Err_t = -EINTR  /// wait cancelled from outside
)

var errnames = map[Err_t]string{
	EINTR:   "EINTR",
	EAGAIN:  "EAGAIN",
	ENOMEM:  "ENOMEM",
	EBUSY:   "EBUSY",
	EINVAL:  "EINVAL",
	EDEADLK: "EDEADLK",
}

/// String renders the code as "-EAGAIN", "0", etc.
func (e Err_t) String() string {
	if e == 0 {
		return "0"
	}
	n := e
	sign := ""
	if n < 0 {
		n = -n
		sign = "-"
	}
	if s, ok := errnames[n]; ok {
		return sign + s
	}
	return strconv.Itoa(int(e))
}

/// Tid_t is a thread's stable index in the thread arena.
type Tid_t int32

/// Nil_tid marks an empty link.
const Nil_tid Tid_t = -1

/// Tstate_t is the scheduling state of a thread.
type Tstate_t uint8

const (
	RUNNING Tstate_t = iota
	READY
	PENDING
	SLEEPING
	SUSPENDED
	DEAD
)

var statenames = [...]string{
	RUNNING:   "RUNNING",
	READY:     "READY",
	PENDING:   "PENDING",
	SLEEPING:  "SLEEPING",
	SUSPENDED: "SUSPENDED",
	DEAD:      "DEAD",
}

func (s Tstate_t) String() string {
	if int(s) < len(statenames) {
		return statenames[s]
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

/// Ticks_t counts system clock ticks.
type Ticks_t int64

/// Timeout_t is a relative timeout in ticks. Forever never expires and
/// NoWait expires immediately; a negative value also means NoWait.
type Timeout_t int64

const (
	NoWait  Timeout_t = 0
	Forever Timeout_t = -1 << 63
)

/// Ticks returns a finite relative timeout of n ticks.
func Ticks(n int64) Timeout_t {
	if n < 0 {
		return NoWait
	}
	return Timeout_t(n)
}

/// Is_forever reports whether the timeout never expires.
func (t Timeout_t) Is_forever() bool {
	return t == Forever
}

/// Is_nowait reports whether the timeout has already elapsed.
func (t Timeout_t) Is_nowait() bool {
	return t != Forever && t <= 0
}

/// Prio_t is a thread priority; lower values are more urgent. Negative
/// priorities are cooperative.
type Prio_t int

/// Is_coop reports whether the priority falls in the cooperative range.
func (p Prio_t) Is_coop() bool {
	return p < 0
}

/// Prio_cmp returns >0 if a is more urgent than b, 0 if equal, <0 otherwise.
func Prio_cmp(a, b Prio_t) int {
	return int(b) - int(a)
}
