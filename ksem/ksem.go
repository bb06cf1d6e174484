// Package ksem is a counting semaphore built on the scheduler's wait
// queues.
package ksem

import (
	"zsched/defs"
	"zsched/sched"
	"zsched/waitq"
)

/// Sem_t is a counting semaphore with an upper limit.
type Sem_t struct {
	k     *sched.Kernel_t
	count uint
	limit uint
	wq    waitq.Waitq_t
}

/// Init sets the semaphore up with an initial count and a limit.
func (s *Sem_t) Init(k *sched.Kernel_t, initial, limit uint) defs.Err_t {
	if limit == 0 || initial > limit {
		return -defs.EINVAL
	}
	s.k = k
	s.count = initial
	s.limit = limit
	k.Waitq_init(&s.wq)
	return 0
}

/// Give hands the semaphore to the first waiter, or bumps the count up to
/// the limit when nobody waits. It may be called from an interrupt.
func (s *Sem_t) Give() {
	key := s.k.Lock()
	if s.k.Unpend_first(&s.wq, 0) == nil && s.count < s.limit {
		s.count++
	}
	s.k.Reschedule(key)
}

/// Take decrements the count, waiting up to to for a Give when it is zero.
/// It returns 0, -EBUSY for NoWait on an empty semaphore, -EAGAIN on
/// timeout, or -EAGAIN when Reset cancels the wait.
func (s *Sem_t) Take(to defs.Timeout_t) defs.Err_t {
	key := s.k.Lock()
	if s.count > 0 {
		s.count--
		s.k.Unlock(key)
		return 0
	}
	if to.Is_nowait() {
		s.k.Unlock(key)
		return -defs.EBUSY
	}
	return s.k.Pend(&s.wq, to, key)
}

/// Reset zeroes the count and fails every waiter with -EAGAIN.
func (s *Sem_t) Reset() {
	key := s.k.Lock()
	s.count = 0
	s.k.Unpend_all(&s.wq, defs.TimedOut)
	s.k.Reschedule(key)
}

/// Count returns the current count.
func (s *Sem_t) Count() uint {
	key := s.k.Lock()
	n := s.count
	s.k.Unlock(key)
	return n
}

/// Waiters returns the number of blocked takers.
func (s *Sem_t) Waiters() int {
	key := s.k.Lock()
	n := s.wq.Len()
	s.k.Unlock(key)
	return n
}
