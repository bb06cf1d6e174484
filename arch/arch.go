// Package arch is the boundary between the scheduler and the mechanism that
// actually moves a CPU from one thread's continuation to another's.
//
// A port implements Arch_i once; the scheduler decides who runs and calls
// the port only to carry the decision out. Ports keep whatever state they
// need in Thread_t.Ctx.
package arch

import "zsched/tinfo"

// Arch_i is the context-switch contract every port satisfies.
type Arch_i interface {
	// SaveAndSwitchTo captures the continuation of from, which is the
	// running context, and transfers the CPU to to, starting it at its
	// Entry if it never ran. It returns when from is dispatched again. A
	// DEAD from is never dispatched again: the port returns at once if its
	// entry function already returned, and otherwise never returns.
	SaveAndSwitchTo(from, to *tinfo.Thread_t)
	// Enter transfers the CPU to the first thread at boot.
	Enter(initial *tinfo.Thread_t)
}
