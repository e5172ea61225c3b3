package actors

// A scheduler's mute map tracks back-pressure: when an actor attempts to
// send to an overloaded receiver, the sender is added to this scheduler's
// mute map under the receiver as key.
//
//	overloaded receiving actor => [sending actors]
//
// A given actor exists as a sending actor in at most one scheduler's mute
// map across the whole system, because muting only happens while the
// sender is running on its owning worker, and a muted actor is never
// enqueued anywhere else in the meantime. Receiving actors may be a mute
// map key in more than one scheduler's map. Because a muted sender's
// bookkeeping is therefore single-writer, manipulating its state (the
// muted counter) needs no lock even though the counter is declared atomic
// for visibility to readers on other goroutines.
type muteEntry struct {
	senders map[Actor]struct{}
}

// mute registers sender as muted on behalf of receiver against ctx's
// owning scheduler's mute map. ctx must belong to a worker.
func (rt *Runtime) mute(ctx *Context, sender, receiver Actor) error {
	if ctx == nil || ctx.sched == nil {
		return errContractViolation("mute", "must be called from a worker context")
	}

	if sender == receiver {
		return errContractViolation("mute", "sender and receiver must differ")
	}

	sched := ctx.sched

	entry, ok := sched.muteMapping[receiver]
	if !ok {
		entry = &muteEntry{senders: make(map[Actor]struct{})}
		sched.muteMapping[receiver] = entry
	}

	if _, already := entry.senders[sender]; !already {
		entry.senders[sender] = struct{}{}
		sender.AddMuted(1)
	}

	return nil
}

// unmuteSendersOn drains receiver's entry from sched's mute map, decrements
// every former sender's muted counter, and reschedules any sender whose
// counter reached zero. It returns true iff an actor was rescheduled onto
// sched's local queue.
func (rt *Runtime) unmuteSendersOn(sched *Scheduler, receiver Actor) bool {
	entry, ok := sched.muteMapping[receiver]
	if !ok {
		return false
	}

	delete(sched.muteMapping, receiver)

	var toUnmute []Actor

	for sender := range entry.senders {
		if sender.AddMuted(-1) == 0 {
			toUnmute = append(toUnmute, sender)
		}
	}

	rescheduled := false

	for _, a := range toUnmute {
		if !a.Unscheduled() {
			rt.cfg.Engine.UnmuteActor(a)
			sched.pushLocal(a)
			rescheduled = true
		}

		// Broadcast unconditionally: the same actor may also be a receiver
		// key in some other scheduler's mute map, and it is not worth
		// distinguishing the sender-only case from that one.
		rt.StartGlobalUnmute(a)
	}

	return rescheduled
}

// UnmuteSenders is the public entry point for the execution engine to call
// once it has determined that receiver is no longer overloaded. ctx must
// belong to a worker; its scheduler's mute map is the one consulted.
func (rt *Runtime) UnmuteSenders(ctx *Context, receiver Actor) bool {
	if ctx == nil || ctx.sched == nil {
		panic(errContractViolation("UnmuteSenders", "must be called from a worker context"))
	}

	return rt.unmuteSendersOn(ctx.sched, receiver)
}

// StartGlobalUnmute tells every scheduler to run its own unmute-senders
// pass for actor, in case actor is also a receiver key elsewhere.
func (rt *Runtime) StartGlobalUnmute(actor Actor) {
	rt.sendAll(schedMsg{kind: msgUnmuteActor, actor: actor})
}
