// Command orizon-actor-demo exercises the actor scheduler end to end: it
// starts a worker pool, schedules a handful of actors that pass a message
// around a ring before unscheduling themselves, and waits for the runtime
// to detect quiescence and terminate on its own.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/orizon-lang/actorsched/internal/runtime/actors"
)

type ringActor struct {
	actors.BaseActor

	id       int
	runtime  *actors.Runtime
	next     *ringActor
	remain   int64
	received int64
}

func (r *ringActor) onMessage(ctx *actors.Context) bool {
	atomic.AddInt64(&r.received, 1)

	if atomic.AddInt64(&r.remain, -1) <= 0 {
		r.SetUnscheduled(true)

		return false
	}

	r.runtime.Schedule(ctx, r.next)

	return false
}

func main() {
	var (
		threads = flag.Int("threads", 0, "worker pool size (0 = NumCPU)")
		ring    = flag.Int("ring", 8, "number of actors in the ring")
		laps    = flag.Int("laps", 1000, "number of hops to run before stopping")
		noYield = flag.Bool("no-yield", false, "busy-pause instead of yielding while idle")
		noPin   = flag.Bool("no-pin", false, "disable CPU affinity pinning")
	)
	flag.Parse()

	if *ring < 1 {
		log.Fatal("-ring must be >= 1")
	}

	actorsList := make([]*ringActor, *ring)
	for i := range actorsList {
		actorsList[i] = &ringActor{id: i}
	}

	for i, a := range actorsList {
		a.next = actorsList[(i+1)%len(actorsList)]
	}

	engine := &actors.FuncEngine{
		Run: func(ctx *actors.Context, a actors.Actor, batch int) bool {
			r := a.(*ringActor)

			for i := 0; i < batch && !r.Unscheduled(); i++ {
				r.onMessage(ctx)
			}

			return false
		},
	}

	rt, ctx, err := actors.Init(actors.Config{
		Threads: *threads,
		NoYield: *noYield,
		NoPin:   *noPin,
		Engine:  engine,
	})
	if err != nil {
		log.Fatalf("init: %v", err)
	}

	for _, a := range actorsList {
		a.runtime = rt
		a.remain = int64(*laps)
	}

	fmt.Fprintf(os.Stderr, "starting %d workers, ring of %d actors, %d laps\n", rt.Cores(), *ring, *laps)

	start := time.Now()
	rt.Schedule(ctx, actorsList[0])
	rt.UnregisterThread(ctx)

	if err := rt.Start(false); err != nil {
		log.Fatalf("start: %v", err)
	}

	var total int64
	for _, a := range actorsList {
		total += atomic.LoadInt64(&a.received)
	}

	fmt.Fprintf(os.Stderr, "quiescent after %s, %d messages delivered\n", time.Since(start), total)
}
