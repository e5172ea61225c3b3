package actors

import (
	"testing"

	"github.com/orizon-lang/actorsched/internal/runtime/concurrency"
)

func newTestRuntime(n int) *Runtime {
	rt := &Runtime{cfg: Config{Engine: &FuncEngine{}}, schedulerCount: n}
	rt.inject = concurrency.NewMPMCQueue[Actor](64)
	rt.schedulers = make([]*Scheduler, n)

	for i := 0; i < n; i++ {
		rt.schedulers[i] = newTestScheduler(rt, i)
	}

	return rt
}

func TestChooseVictim_SkipsSelfAndRotates(t *testing.T) {
	rt := newTestRuntime(4)
	s := rt.schedulers[0]

	seen := map[int]bool{}

	for i := 0; i < 3; i++ {
		v := chooseVictim(s)
		if v == nil {
			t.Fatalf("round %d: expected a victim, got nil", i)
		}

		if v.id == s.id {
			t.Fatalf("chooseVictim returned self")
		}

		seen[v.id] = true
	}

	if len(seen) != 3 {
		t.Fatalf("expected a full rotation to visit 3 distinct peers, saw %d", len(seen))
	}

	if v := chooseVictim(s); v != nil {
		t.Fatal("expected nil after a full rotation with no reset")
	}

	if s.lastVictim != s.id {
		t.Fatalf("lastVictim after exhausted rotation = %d, want reset to self (%d)", s.lastVictim, s.id)
	}
}

func TestSteal_FindsWorkOnVictim(t *testing.T) {
	rt := newTestRuntime(2)
	thief := rt.schedulers[0]
	victim := rt.schedulers[1]

	a := &BaseActor{}
	if !victim.pushLocal(a) {
		t.Fatal("setup: could not push onto victim's local queue")
	}

	stolen, ok := steal(thief)
	if !ok {
		t.Fatal("expected steal to find the victim's actor")
	}

	if stolen != Actor(a) {
		t.Fatal("stole the wrong actor")
	}
}

func TestSteal_FindsWorkOnInjectQueue(t *testing.T) {
	rt := newTestRuntime(2)
	thief := rt.schedulers[0]

	a := &BaseActor{}
	if !rt.inject.Enqueue(a) {
		t.Fatal("setup: could not push onto inject queue")
	}

	stolen, ok := steal(thief)
	if !ok || stolen != Actor(a) {
		t.Fatal("expected steal to drain the inject queue ahead of any victim's local queue")
	}
}

func TestSteal_ReturnsFalseOnceQuiescentAndTerminated(t *testing.T) {
	rt := newTestRuntime(1)
	s := rt.schedulers[0]
	s.terminate.Store(true)

	if _, ok := steal(s); ok {
		t.Fatal("expected steal to report no work once terminate is set")
	}
}
