package actors

import "github.com/orizon-lang/actorsched/internal/runtime/concurrency"

// mpmcActorQueue backs both the per-worker local queue and the process-wide
// inject queue: the teacher's lock-free MPMC ring buffer, reused verbatim
// and instantiated at Actor rather than reimplemented here.
type mpmcActorQueue = concurrency.MPMCQueue[Actor]

// mpmcMsgQueue backs a worker's control mailbox, reusing the same queue
// primitive for a single-producer-many / single-consumer workload.
type mpmcMsgQueue = concurrency.MPMCQueue[schedMsg]

// pushLocal pushes a to sched's own local queue. This is the single-producer
// fast path: only sched's own worker goroutine calls it outside of schedule()
// on a non-worker thread, which instead targets the inject queue.
func (s *Scheduler) pushLocal(a Actor) bool {
	return s.local.Enqueue(a)
}

// popLocal pops from sched's local queue.
func popLocal(s *Scheduler) (Actor, bool) {
	var a Actor

	ok := s.local.Dequeue(&a)

	return a, ok
}

// popInject pops from the process-wide inject queue only.
func popInject(rt *Runtime) (Actor, bool) {
	var a Actor

	ok := rt.inject.Dequeue(&a)

	return a, ok
}

// popAny tries the inject queue first, then s's local queue. This ordering
// bounds inject-queue latency when external threads are producing, and is
// used both for a scheduler popping its own work and for a thief popping
// from a victim.
func popAny(rt *Runtime, s *Scheduler) (Actor, bool) {
	if a, ok := popInject(rt); ok {
		return a, true
	}

	return popLocal(s)
}
