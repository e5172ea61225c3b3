package actors

import "sync/atomic"

// batch is the maximum number of messages an actor processes per
// scheduling slot before the worker checks in again.
const batch = 100

// Scheduler is one worker: one goroutine pinned (unless disabled) to one
// OS thread, running actors from its own local queue with work stealing
// from its peers.
type Scheduler struct {
	id  int
	rt  *Runtime
	ctx *Context
	cpu int

	local   *mpmcActorQueue
	mailbox *mpmcMsgQueue

	// blockCount is maintained on every worker for fidelity with the source
	// protocol, but only worker 0's value is ever consulted (see
	// mailbox.go's msgBlock handling and spec design note on the
	// quiescence arbiter).
	blockCount uint32
	ackToken   uint64
	ackCount   uint32

	terminate   atomic.Bool
	asioStopped atomic.Bool
	asioNoisy   atomic.Bool

	lastVictim int

	muteMapping map[Actor]*muteEntry
}

// run is the worker loop. It returns once quiescent(sched) has decided the
// program can terminate.
func (sched *Scheduler) run() {
	rt := sched.rt

	a, haveA := popAny(rt, sched)

	for {
		if drainMailbox(rt, sched) && !haveA {
			a, haveA = popAny(rt, sched)
		}

		if !haveA {
			stolen, ok := steal(sched)
			if !ok {
				if _, nonEmpty := popLocal(sched); nonEmpty {
					panic(errContractViolation("worker termination", "local queue not empty at termination"))
				}

				return
			}

			a, haveA = stolen, true
		}

		reschedule := rt.cfg.Engine.RunActor(sched.ctx, a, batch)
		next, hasNext := popAny(rt, sched)

		switch {
		case reschedule && hasNext:
			// Go to the back of the queue; run the follow-on for fairness.
			sched.pushLocal(a)

			a, haveA = next, true
		case reschedule && !hasNext:
			// No follow-on: keep running the same actor (hot path).
		default:
			a, haveA = next, hasNext
		}
	}
}
