package actors

import "time"

// stealBlockThreshold approximates the teacher's ~1,000,000-cycle gate
// (roughly 1ms at typical clock speeds) as wall-clock elapsed time, since Go
// has no portable cycle counter.
const stealBlockThreshold = time.Millisecond

// chooseVictim advances sched's rotating reverse linear scan by one slot and
// returns the next victim. Each call moves exactly one step backward through
// the scheduler array, wrapping at zero; landing back on sched itself means
// every peer has been tried since the last full lap, so that call returns
// nil and resets last_victim to sched, ready to start a fresh lap on the
// next call.
func chooseVictim(sched *Scheduler) *Scheduler {
	n := sched.rt.schedulerCount

	v := sched.lastVictim - 1
	if v < 0 {
		v = n - 1
	}

	if v == sched.id {
		sched.lastVictim = sched.id

		return nil
	}

	sched.lastVictim = v

	return sched.rt.schedulers[v]
}

// steal is called when sched has no work. It returns the stolen actor, or
// (nil, false) once quiescent(sched) reports termination.
func steal(sched *Scheduler) (Actor, bool) {
	rt := sched.rt
	blockSent := false
	stealAttempts := 0
	start := time.Now()

	for {
		victim := chooseVictim(sched)

		var (
			a  Actor
			ok bool
		)

		if victim == nil {
			a, ok = popInject(rt)
		} else {
			a, ok = popAny(rt, victim)
		}

		if ok {
			if blockSent {
				rt.sendMsg(0, schedMsg{kind: msgUnblock})
			}

			return a, true
		}

		if drainMailbox(rt, sched) {
			// An actor was unmuted onto our own queue; effectively we are
			// stealing from ourselves. Verify the pop still succeeds since
			// another thief may have taken it first.
			if a, ok = popAny(rt, sched); ok {
				if blockSent {
					rt.sendMsg(0, schedMsg{kind: msgUnblock})
				}

				return a, true
			}
		}

		if quiescent(sched) {
			return nil, false
		}

		// Determine whether we have genuinely been idle long enough, through
		// a full rotation, with no noisy I/O pending and no muted senders
		// (which represent pending work), to justify the cost of a BLOCK
		// message.
		if !blockSent {
			if stealAttempts < rt.schedulerCount {
				stealAttempts++
			} else if !sched.asioNoisy.Load() &&
				time.Since(start) > stealBlockThreshold &&
				len(sched.muteMapping) == 0 {
				rt.sendMsg(0, schedMsg{kind: msgBlock})
				blockSent = true
			}
		}
	}
}
