package actors

import "runtime"

// msgKind enumerates the inter-scheduler control-message protocol.
type msgKind uint8

const (
	msgBlock msgKind = iota
	msgUnblock
	msgCNF
	msgACK
	msgTerminate
	msgUnmuteActor
	msgNoisyASIO
	msgUnnoisyASIO
)

// schedMsg is the payload carried through a scheduler's mailbox.
type schedMsg struct {
	kind  msgKind
	token uint64
	actor Actor
}

// sendMsg delivers m to scheduler index `to`. The mailbox is a bounded MPMC
// queue, so delivery retries with a scheduler yield rather than blocking or
// dropping the message; mailboxes are sized generously enough in practice
// that this loop is not expected to spin more than a few times.
func (rt *Runtime) sendMsg(to int, m schedMsg) {
	dst := rt.schedulers[to].mailbox
	for !dst.Enqueue(m) {
		runtime.Gosched()
	}
}

func (rt *Runtime) sendAll(m schedMsg) {
	for i := range rt.schedulers {
		rt.sendMsg(i, m)
	}
}

// drainMailbox processes every pending control message on sched's mailbox.
// It returns true iff unmute processing placed a new actor on sched's local
// queue.
func drainMailbox(rt *Runtime, sched *Scheduler) bool {
	runQueueChanged := false

	var m schedMsg

	for sched.mailbox.Dequeue(&m) {
		switch m.kind {
		case msgBlock:
			sched.blockCount++

			if rt.detectQuiescence.Load() && sched.blockCount == uint32(rt.schedulerCount) {
				rt.sendAll(schedMsg{kind: msgCNF, token: sched.ackToken})
			}
		case msgUnblock:
			if sched.asioStopped.Load() {
				if err := rt.asio.Start(); err != nil {
					panic(errStartupFailure("asio restart on UNBLOCK", err))
				}

				sched.asioStopped.Store(false)
			}

			sched.blockCount--
			sched.ackToken++
			sched.ackCount = 0
		case msgCNF:
			rt.sendMsg(0, schedMsg{kind: msgACK, token: m.token})
		case msgACK:
			if m.token == sched.ackToken {
				sched.ackCount++
			}
		case msgTerminate:
			sched.terminate.Store(true)
		case msgUnmuteActor:
			if rt.unmuteSendersOn(sched, m.actor) {
				runQueueChanged = true
			}
		case msgNoisyASIO:
			sched.asioNoisy.Store(true)
		case msgUnnoisyASIO:
			sched.asioNoisy.Store(false)
		}
	}

	return runQueueChanged
}
