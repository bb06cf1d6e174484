// Package kconfig holds the scheduler's build-time style configuration.
package kconfig

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"zsched/defs"
)

/// Kconfig_t describes the configured scheduler limits and policies.
type Kconfig_t struct {
	// cooperative priorities are -Coopprios .. -1
	Coopprios int
	// preemptible priorities are 0 .. Preemptprios-1; the last is idle
	Preemptprios int
	// size of the thread arena, idle included
	Maxthreads    int
	Ticks_per_sec int
	// time slice length in ticks; 0 disables slicing
	Slice_ticks int
	// most urgent priority still subject to slicing
	Slice_prio defs.Prio_t
	// a preemptible thread is displaced by an equal-priority thread becoming
	// ready, rather than only at slice expiry or yield
	Preempt_equal bool
	// wait queues wake in priority order instead of FIFO
	Waitq_prio bool
	// scheduler trace ring capacity in events
	Trace_depth int
}

/// MkKconfig returns the default configuration.
func MkKconfig() *Kconfig_t {
	return &Kconfig_t{
		Coopprios:     16,
		Preemptprios:  15,
		Maxthreads:    64,
		Ticks_per_sec: 100,
		Slice_ticks:   0,
		Slice_prio:    0,
		Trace_depth:   1024,
	}
}

/// PrioCoop mirrors K_PRIO_COOP: the x'th cooperative priority.
func (c *Kconfig_t) PrioCoop(x int) defs.Prio_t {
	return defs.Prio_t(-(c.Coopprios - x))
}

/// PrioPreempt mirrors K_PRIO_PREEMPT.
func (c *Kconfig_t) PrioPreempt(x int) defs.Prio_t {
	return defs.Prio_t(x)
}

/// Highest returns the most urgent priority.
func (c *Kconfig_t) Highest() defs.Prio_t {
	return defs.Prio_t(-c.Coopprios)
}

/// Lowest returns the least urgent priority, which the idle thread uses.
func (c *Kconfig_t) Lowest() defs.Prio_t {
	return defs.Prio_t(c.Preemptprios - 1)
}

/// Nprios is the total number of priority levels.
func (c *Kconfig_t) Nprios() int {
	return c.Coopprios + c.Preemptprios
}

/// Valid_prio reports whether p is a priority a thread may take. Lowest is
/// reserved for the idle thread.
func (c *Kconfig_t) Valid_prio(p defs.Prio_t) bool {
	return p >= c.Highest() && p < c.Lowest()
}

/// Validate rejects inconsistent settings.
func (c *Kconfig_t) Validate() error {
	switch {
	case c.Coopprios < 0 || c.Preemptprios < 1:
		return fmt.Errorf("kconfig: need at least one preemptible priority (coop %d, preempt %d)",
			c.Coopprios, c.Preemptprios)
	case c.Nprios() > 64:
		return fmt.Errorf("kconfig: %d priority levels exceed 64", c.Nprios())
	case c.Maxthreads < 2:
		return fmt.Errorf("kconfig: maxthreads %d leaves no room beside idle", c.Maxthreads)
	case c.Ticks_per_sec <= 0:
		return fmt.Errorf("kconfig: ticks per second must be positive")
	case c.Slice_ticks < 0:
		return fmt.Errorf("kconfig: negative slice %d", c.Slice_ticks)
	case c.Trace_depth < 0:
		return fmt.Errorf("kconfig: negative trace depth")
	}
	return nil
}

type setter func(c *Kconfig_t, v string) error

func intset(f func(c *Kconfig_t) *int) setter {
	return func(c *Kconfig_t, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*f(c) = n
		return nil
	}
}

func boolset(f func(c *Kconfig_t) *bool) setter {
	return func(c *Kconfig_t, v string) error {
		switch v {
		case "y":
			*f(c) = true
		case "n":
			*f(c) = false
		default:
			return fmt.Errorf("want y or n, got %q", v)
		}
		return nil
	}
}

var symbols = map[string]setter{
	"NUM_COOP_PRIORITIES":       intset(func(c *Kconfig_t) *int { return &c.Coopprios }),
	"NUM_PREEMPT_PRIORITIES":    intset(func(c *Kconfig_t) *int { return &c.Preemptprios }),
	"MAX_THREADS":               intset(func(c *Kconfig_t) *int { return &c.Maxthreads }),
	"SYS_CLOCK_TICKS_PER_SEC":   intset(func(c *Kconfig_t) *int { return &c.Ticks_per_sec }),
	"TIMESLICE_SIZE":            intset(func(c *Kconfig_t) *int { return &c.Slice_ticks }),
	"SCHED_TRACE_DEPTH":         intset(func(c *Kconfig_t) *int { return &c.Trace_depth }),
	"TIMESLICING_PREEMPT_EQUAL": boolset(func(c *Kconfig_t) *bool { return &c.Preempt_equal }),
	"WAITQ_PRIORITY":            boolset(func(c *Kconfig_t) *bool { return &c.Waitq_prio }),
	"TIMESLICE_PRIORITY": func(c *Kconfig_t, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Slice_prio = defs.Prio_t(n)
		return nil
	},
}

/// Parse overlays a Kconfig-style fragment onto c. Lines have the form
/// CONFIG_NAME=value; "# CONFIG_NAME is not set" turns a bool off.
/// Unknown symbols are ignored.
func (c *Kconfig_t) Parse(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
			if name, ok := strings.CutSuffix(rest, " is not set"); ok {
				name = strings.TrimPrefix(name, "CONFIG_")
				if set, ok := symbols[name]; ok {
					if err := set(c, "n"); err != nil {
						return fmt.Errorf("kconfig: line %d: CONFIG_%s: %w",
							lineno, name, err)
					}
				}
			}
			continue
		}
		name, val, ok := strings.Cut(line, "=")
		if !ok || !strings.HasPrefix(name, "CONFIG_") {
			return fmt.Errorf("kconfig: line %d: malformed %q", lineno, line)
		}
		set, ok := symbols[strings.TrimPrefix(name, "CONFIG_")]
		if !ok {
			continue
		}
		val = strings.Trim(val, "\"")
		if err := set(c, val); err != nil {
			return fmt.Errorf("kconfig: line %d: %s: %w", lineno, name, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("kconfig: %w", err)
	}
	return c.Validate()
}
