package stats

import "reflect"
import "strings"
import "sync/atomic"

import "golang.org/x/text/language"
import "golang.org/x/text/message"

/// Counter_t is a statistical counter. Increments are atomic so that the
/// counters may be read from outside the CPU that owns them.
type Counter_t int64

/// Inc increments the counter.
func (c *Counter_t) Inc() {
	atomic.AddInt64((*int64)(c), 1)
}

/// Add adds n to the counter.
func (c *Counter_t) Add(n int64) {
	atomic.AddInt64((*int64)(c), n)
}

/// Get returns the current value.
func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Sched_t counts scheduler events on one CPU.
type Sched_t struct {
	Swaps     Counter_t // real context transfers
	Noswaps   Counter_t // swap calls that kept the caller
	Preempts  Counter_t // RUNNING -> READY by a more urgent thread
	Slices    Counter_t // time-slice expiries
	Yields    Counter_t
	Pends     Counter_t // RUNNING -> PENDING
	Sleeps    Counter_t // RUNNING -> SLEEPING
	Wakeups   Counter_t // PENDING/SLEEPING -> READY by signal
	Timeouts  Counter_t // PENDING/SLEEPING -> READY by expiry
	Aborts    Counter_t
	Irqs      Counter_t // delivered interrupts
	Ticks     Counter_t
	Idleticks Counter_t
}

var printer = message.NewPrinter(language.English)

/// Stats2String converts a struct of counters to a printable string, one
/// "#Name: value" line per counter, with digit grouping.
func Stats2String(st interface{}) string {
	v := reflect.ValueOf(st)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	var b strings.Builder
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if f.Type() != reflect.TypeOf(Counter_t(0)) {
			continue
		}
		n := f.Int()
		if f.CanAddr() {
			n = f.Addr().Interface().(*Counter_t).Get()
		}
		b.WriteString(printer.Sprintf("\n\t#%s: %d", v.Type().Field(i).Name, n))
	}
	return b.String() + "\n"
}
