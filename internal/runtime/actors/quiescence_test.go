package actors

import "testing"

// fakeAsio lets tests control whether Stop succeeds, simulating noisy
// registrants that abort an attempt at quiescence.
type fakeAsio struct {
	startCalls int
	stopOK     bool
}

func (f *fakeAsio) Start() error { f.startCalls++; return nil }
func (f *fakeAsio) Stop() bool   { return f.stopOK }

func TestQuiescent_TerminateFlagShortCircuits(t *testing.T) {
	rt := newTestRuntime(1)
	s := rt.schedulers[0]
	s.terminate.Store(true)

	if !quiescent(s) {
		t.Fatal("expected quiescent to report true once terminate is set")
	}
}

// Once every worker has ACKed a CNF round and the ASIO backend stops
// cleanly, a second CNF/ACK round runs; once that also completes with ASIO
// still stopped, TERMINATE is broadcast to every worker including the
// arbiter itself.
func TestQuiescent_TwoPhaseCommitTerminates(t *testing.T) {
	asio := &fakeAsio{stopOK: true}
	rt := newTestRuntime(2)
	rt.asio = asio
	s := rt.schedulers[0]

	s.ackCount = uint32(rt.schedulerCount)

	if quiescent(s) {
		t.Fatal("first phase should only stop ASIO and start a second CNF round, not terminate yet")
	}

	if !s.asioStopped.Load() {
		t.Fatal("expected ASIO to be marked stopped after the first successful Stop")
	}

	var m schedMsg
	if !rt.schedulers[1].mailbox.Dequeue(&m) || m.kind != msgCNF {
		t.Fatal("expected a second-round CNF broadcast to every worker")
	}

	s.ackCount = uint32(rt.schedulerCount)

	if quiescent(s) {
		t.Fatal("TERMINATE is broadcast on this call, but it takes effect only once this worker drains its own mailbox")
	}

	if !rt.schedulers[1].mailbox.Dequeue(&m) || m.kind != msgTerminate {
		t.Fatal("expected a TERMINATE broadcast after the second phase completed")
	}

	drainMailbox(rt, s) // worker 0 receives its own TERMINATE broadcast too.

	if !quiescent(s) {
		t.Fatal("expected quiescent to report true once this worker's terminate flag is set")
	}
}

// If ASIO refuses to stop (a noisy registrant is still outstanding), the
// quiescence attempt aborts rather than entering the second phase.
func TestQuiescent_NoisyAsioAbortsFirstPhase(t *testing.T) {
	asio := &fakeAsio{stopOK: false}
	rt := newTestRuntime(1)
	rt.asio = asio
	s := rt.schedulers[0]

	s.ackCount = uint32(rt.schedulerCount)

	if quiescent(s) {
		t.Fatal("should not terminate while ASIO refuses to stop")
	}

	if s.asioStopped.Load() {
		t.Fatal("asioStopped must remain false when Stop reports failure")
	}
}

// A worker that sends UNBLOCK after sending BLOCK, but before the CNF/ACK
// round completes, must make the arbiter restart ASIO and abandon the
// in-flight quiescence attempt.
func TestDrainMailbox_LateUnblockRestartsAsio(t *testing.T) {
	asio := &fakeAsio{stopOK: true}
	rt := newTestRuntime(2)
	rt.asio = asio
	s0 := rt.schedulers[0]

	s0.asioStopped.Store(true)

	if !s0.mailbox.Enqueue(schedMsg{kind: msgUnblock}) {
		t.Fatal("setup: could not enqueue UNBLOCK")
	}

	drainMailbox(rt, s0)

	if asio.startCalls != 1 {
		t.Fatalf("expected UNBLOCK to restart ASIO, startCalls = %d", asio.startCalls)
	}

	if s0.asioStopped.Load() {
		t.Fatal("asioStopped should be cleared after UNBLOCK restarts ASIO")
	}
}

// A BLOCK from every worker drives worker 0 to broadcast the first CNF
// round once its own blockCount also reaches schedulerCount.
func TestDrainMailbox_AllBlockedTriggersCNF(t *testing.T) {
	rt := newTestRuntime(2)
	rt.detectQuiescence.Store(true)
	s0 := rt.schedulers[0]

	if !s0.mailbox.Enqueue(schedMsg{kind: msgBlock}) {
		t.Fatal("setup: could not enqueue BLOCK")
	}

	drainMailbox(rt, s0)

	if s0.blockCount != 1 {
		t.Fatalf("blockCount = %d, want 1", s0.blockCount)
	}

	var m schedMsg
	if rt.schedulers[1].mailbox.Dequeue(&m) {
		t.Fatal("should not broadcast CNF until blockCount reaches schedulerCount")
	}

	if !s0.mailbox.Enqueue(schedMsg{kind: msgBlock}) {
		t.Fatal("setup: could not enqueue second BLOCK")
	}

	drainMailbox(rt, s0)

	if s0.blockCount != 2 {
		t.Fatalf("blockCount = %d, want 2", s0.blockCount)
	}

	if !rt.schedulers[1].mailbox.Dequeue(&m) || m.kind != msgCNF {
		t.Fatal("expected a CNF broadcast once every worker reported BLOCK")
	}
}
