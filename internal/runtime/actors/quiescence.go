package actors

import "runtime"

// quiescent is called while sched is idle with no work in hand. It returns
// true iff sched should terminate.
//
// This is a two-phase commit on quiescence: the first CNF/ACK round (driven
// from msgBlock handling in mailbox.go) establishes that every worker believed
// itself blocked. Only once that round completes here does this function
// attempt to stop the ASIO backend; a second CNF/ACK round then confirms
// that no worker unblocked (and thereby restarted ASIO) in the meantime.
// Only after that second round completes with ASIO still stopped is
// TERMINATE broadcast.
func quiescent(sched *Scheduler) bool {
	if sched.terminate.Load() {
		return true
	}

	rt := sched.rt

	if int(sched.ackCount) == rt.schedulerCount {
		switch {
		case sched.asioStopped.Load():
			rt.sendAll(schedMsg{kind: msgTerminate})
			sched.ackToken++
			sched.ackCount = 0
		case rt.asio.Stop():
			sched.asioStopped.Store(true)
			sched.ackToken++
			sched.ackCount = 0
			rt.sendAll(schedMsg{kind: msgCNF, token: sched.ackToken})
		}
	}

	if rt.useYield {
		runtime.Gosched()
	} else {
		cpuPause()
	}

	return false
}

// cpuPause is a portable stand-in for the teacher's absent cycle-level
// cpu_core_pause: a short busy spin with no syscall, used when the runtime
// is configured not to yield to the OS scheduler while idle.
func cpuPause() {
	x := 0
	for i := 0; i < 32; i++ {
		x += i
	}

	_ = x
}
