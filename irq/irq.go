// Package irq is the interrupt-lock primitive of one CPU.
//
// Lock masks asynchronous interrupts and returns a key recording whether
// they were enabled before; Unlock with that key restores exactly that
// state, so a nested Lock/Unlock pair never re-enables interrupts early.
// Only the execution context that owns the CPU calls Lock and Unlock.
// Interrupts may be raised from any goroutine; they are queued and handed
// to the owner through the Onenable hook when interrupts become enabled.
package irq

import "fmt"
import "sync"

/// Key_t encodes the interrupt state before a Lock.
type Key_t uint8

const (
	Masked  Key_t = 0 /// interrupts were already disabled
	Enabled Key_t = 1 /// interrupts were enabled
)

/// Irqlock_t is the interrupt state of one CPU.
type Irqlock_t struct {
	enabled bool
	depth   int
	isr     int
	// Onenable runs whenever Unlock restores the enabled state.
	Onenable func()

	// protects pending; a leaf lock, and the only state shared with
	// goroutines that do not own the CPU
	mu      sync.Mutex
	pending []func()
	kick    chan struct{}
}

/// Init sets up a CPU with interrupts masked, as at boot.
func (l *Irqlock_t) Init() {
	l.enabled = false
	l.depth = 0
	l.isr = 0
	l.kick = make(chan struct{}, 1)
}

/// Lock masks interrupts and returns the key that undoes it.
func (l *Irqlock_t) Lock() Key_t {
	k := Masked
	if l.enabled {
		k = Enabled
	}
	l.enabled = false
	l.depth++
	return k
}

/// Restore undoes one Lock without running the Onenable hook.
func (l *Irqlock_t) Restore(k Key_t) {
	if l.depth <= 0 {
		panic("irq: unlock without lock")
	}
	l.depth--
	switch k {
	case Masked:
	case Enabled:
		if l.depth != 0 {
			panic(fmt.Sprintf("irq: key re-enables interrupts at nesting depth %d", l.depth))
		}
		l.enabled = true
	default:
		panic(fmt.Sprintf("irq: bad key %d", k))
	}
}

/// Unlock undoes one Lock. When this re-enables interrupts the Onenable
/// hook runs, which is where queued interrupts are delivered.
func (l *Irqlock_t) Unlock(k Key_t) {
	l.Restore(k)
	if l.enabled && l.Onenable != nil {
		l.Onenable()
	}
}

/// With runs f with interrupts locked and unlocks on every exit path.
func (l *Irqlock_t) With(f func()) {
	k := l.Lock()
	defer l.Unlock(k)
	f()
}

/// Enabled reports whether interrupts are currently enabled.
func (l *Irqlock_t) Enabled() bool {
	return l.enabled
}

/// Depth returns the number of outstanding Locks.
func (l *Irqlock_t) Depth() int {
	return l.depth
}

/// Switch_depth installs the nesting state of a context resuming on the
/// CPU and returns the one it replaces. Interrupts stay masked; the resumed
/// context re-enables them with its own key.
func (l *Irqlock_t) Switch_depth(d int) int {
	old := l.depth
	l.depth = d
	l.enabled = false
	return old
}

/// Isr_enter marks the start of interrupt handling.
func (l *Irqlock_t) Isr_enter() {
	l.isr++
}

/// Isr_exit marks the end of interrupt handling.
func (l *Irqlock_t) Isr_exit() {
	if l.isr <= 0 {
		panic("irq: isr exit without entry")
	}
	l.isr--
}

/// In_isr reports whether an interrupt is being handled.
func (l *Irqlock_t) In_isr() bool {
	return l.isr > 0
}

/// Raise queues an interrupt handler. It may be called from any goroutine.
func (l *Irqlock_t) Raise(h func()) {
	l.mu.Lock()
	l.pending = append(l.pending, h)
	l.mu.Unlock()
	select {
	case l.kick <- struct{}{}:
	default:
	}
}

/// Take removes and returns the queued handlers in the order raised.
func (l *Irqlock_t) Take() []func() {
	l.mu.Lock()
	p := l.pending
	l.pending = nil
	l.mu.Unlock()
	return p
}

/// Has_pending reports whether handlers are queued.
func (l *Irqlock_t) Has_pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending) != 0
}

/// Kick is signalled after each Raise, for a CPU waiting for interrupts.
func (l *Irqlock_t) Kick() <-chan struct{} {
	return l.kick
}
