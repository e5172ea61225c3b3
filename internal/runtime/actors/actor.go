package actors

import "sync/atomic"

// Actor is the minimal contract the scheduler core needs from whatever the
// external actor execution engine treats as a unit of work. Implementations
// must be safe to use as map keys (in practice a pointer type) since the
// mute map indexes by Actor identity.
type Actor interface {
	// AddMuted atomically adjusts the actor's muting counter by delta and
	// returns the resulting value. The counter is the number of distinct
	// (sender, receiver) muting relations referencing this actor as sender.
	AddMuted(delta int64) uint64
	// Unscheduled reports whether the actor has since been removed from the
	// live set; a true result means it must not be rescheduled.
	Unscheduled() bool
}

// Engine is the external actor execution engine this scheduler core drives.
// Running an actor and clearing its muted state are the engine's job; the
// scheduler only decides when and where.
type Engine interface {
	// RunActor executes up to batch messages of a and reports whether the
	// engine wants the actor run again immediately.
	RunActor(ctx *Context, a Actor, batch int) (reschedule bool)
	// UnmuteActor clears the engine-side muted state of a. Called once a's
	// muted counter has reached zero.
	UnmuteActor(a Actor)
}

// BaseActor is a minimal Actor implementation for tests and the CLI demo,
// standing in for a real execution engine's actor bookkeeping.
type BaseActor struct {
	muted       atomic.Int64
	unscheduled atomic.Bool
}

func (b *BaseActor) AddMuted(delta int64) uint64 {
	v := b.muted.Add(delta)
	if v < 0 {
		v = 0
	}

	return uint64(v)
}

func (b *BaseActor) Unscheduled() bool { return b.unscheduled.Load() }

// SetUnscheduled marks the actor as removed from the live set.
func (b *BaseActor) SetUnscheduled(v bool) { b.unscheduled.Store(v) }

// MutedCount reports the current muted counter without mutating it.
func (b *BaseActor) MutedCount() uint64 { return uint64(b.muted.Load()) }

// FuncEngine is a reference Engine built from plain functions. Fields left
// nil behave as no-ops, which is enough for tests that only exercise the
// scheduler's own bookkeeping rather than real actor semantics.
type FuncEngine struct {
	Run    func(ctx *Context, a Actor, batch int) bool
	Unmute func(a Actor)
}

func (f *FuncEngine) RunActor(ctx *Context, a Actor, batch int) bool {
	if f.Run == nil {
		return false
	}

	return f.Run(ctx, a, batch)
}

func (f *FuncEngine) UnmuteActor(a Actor) {
	if f.Unmute != nil {
		f.Unmute(a)
	}
}
