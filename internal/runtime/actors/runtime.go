// Package actors implements a multi-threaded actor scheduler: a fixed pool
// of worker goroutines, each pinned to an OS thread unless disabled, each
// running actors from its own lock-free local queue, with work stealing
// between workers, cooperative quiescence detection for whole-program
// termination, and a mute/unmute back-pressure mechanism that temporarily
// parks senders overwhelming a receiver.
//
// The actor execution engine, the ASIO asynchronous I/O subsystem, and the
// cycle detector are external collaborators; see Engine, AsioBackend, and
// CycleDetector.
package actors

import (
	"context"
	stdrt "runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orizon-lang/actorsched/internal/runtime/asyncio"
	"github.com/orizon-lang/actorsched/internal/runtime/concurrency"
)

// Config configures a Runtime at Init time.
type Config struct {
	// Threads is the worker pool size; 0 means use the host's CPU count.
	Threads int
	// NoYield, if true, busy-pauses instead of yielding to the OS scheduler
	// while idle.
	NoYield bool
	// NoPin disables CPU affinity pinning for worker threads.
	NoPin bool
	// PinAsio is stored in the Config but not acted on: no goroutine of the
	// ASIO backend is pinned to a CPU, whatever its value.
	PinAsio bool

	// LocalQueueCapacity bounds each worker's local run queue (rounded up
	// to a power of two). Defaults to 1024.
	LocalQueueCapacity uint64
	// InjectQueueCapacity bounds the process-wide inject queue. Defaults
	// to 4096.
	InjectQueueCapacity uint64
	// MailboxCapacity bounds each worker's control mailbox. Defaults to
	// 256.
	MailboxCapacity uint64

	// Engine is the actor execution engine; required.
	Engine Engine
	// Asio is the ASIO backend; if nil, a default backend built on
	// internal/runtime/asyncio's OS poller is used.
	Asio AsioBackend

	// WatchPaths are filesystem paths to watch for the runtime's whole
	// lifetime. Each outstanding watch is treated as a noisy external event
	// source (spec.md §4.4/§8 scenario 6): as long as any of them is open,
	// the scheduler is told the backend is noisy, which inhibits BLOCK
	// emission the same way a pending timer or socket would. Start fails if
	// any path cannot be watched.
	WatchPaths []string

	// CycleDetector, if set, is terminated once during shutdown via worker
	// 0's context (spec.md §4.7/§6). The cycle detector itself is an
	// external collaborator; the runtime only owns the single upcall.
	CycleDetector CycleDetector
}

// Runtime is the top-level runtime object constructed by Init and threaded
// through a *Context parameter to every operation, rather than relying on
// process-wide mutable globals (per spec.md §9's design note on global
// singletons).
type Runtime struct {
	cfg            Config
	schedulerCount int
	schedulers     []*Scheduler
	inject         *mpmcActorQueue

	detectQuiescence atomic.Bool
	useYield         bool

	asio    AsioBackend
	ioAsio  *IOAsio
	watches []*FileWatch

	registered atomic.Int64

	mu sync.Mutex
	eg *errgroup.Group
}

// Init allocates the scheduler array and the shared inject queue, and
// registers the calling thread, returning its *Context the way the
// original's ponyint_sched_init returns the calling thread's pony_ctx_t.
// Workers are not started until Start is called.
func Init(cfg Config) (*Runtime, *Context, error) {
	if cfg.Engine == nil {
		return nil, nil, errContractViolation("Init", "Config.Engine must not be nil")
	}

	if cfg.Threads == 0 {
		cfg.Threads = stdrt.NumCPU()
	}

	if cfg.LocalQueueCapacity == 0 {
		cfg.LocalQueueCapacity = 1024
	}

	if cfg.InjectQueueCapacity == 0 {
		cfg.InjectQueueCapacity = 4096
	}

	if cfg.MailboxCapacity == 0 {
		cfg.MailboxCapacity = 256
	}

	rt := &Runtime{
		cfg:            cfg,
		schedulerCount: cfg.Threads,
		useYield:       !cfg.NoYield,
	}
	rt.inject = concurrency.NewMPMCQueue[Actor](cfg.InjectQueueCapacity)

	if cfg.Asio != nil {
		rt.asio = cfg.Asio
	} else {
		io := newPollerAsio(asyncio.NewOSPoller(), noisyHooks{noisy: rt.NoisyAsio, unnoisy: rt.UnnoisyAsio})
		rt.ioAsio = io
		rt.asio = io
	}

	numCPU := stdrt.NumCPU()
	rt.schedulers = make([]*Scheduler, cfg.Threads)

	for i := 0; i < cfg.Threads; i++ {
		sched := &Scheduler{
			id:          i,
			rt:          rt,
			cpu:         i % numCPU,
			local:       concurrency.NewMPMCQueue[Actor](cfg.LocalQueueCapacity),
			mailbox:     concurrency.NewMPMCQueue[schedMsg](cfg.MailboxCapacity),
			muteMapping: make(map[Actor]*muteEntry),
			lastVictim:  i,
		}
		sched.ctx = &Context{rt: rt, sched: sched}
		rt.schedulers[i] = sched
	}

	callerCtx := rt.RegisterThread()

	return rt, callerCtx, nil
}

// Start starts the ASIO backend and spawns one worker goroutine per
// scheduler. If library is false, detect_quiescence is enabled (the
// runtime will terminate itself once it decides the whole program is
// quiescent) and Start blocks until every worker exits, then shuts down.
// If library is true, the caller owns the runtime's lifetime and must
// eventually call Stop.
func (rt *Runtime) Start(library bool) error {
	if err := rt.asio.Start(); err != nil {
		return errStartupFailure("asio", err)
	}

	for _, path := range rt.cfg.WatchPaths {
		fw, err := rt.WatchNoisy(path)
		if err != nil {
			for _, w := range rt.watches {
				_ = w.Close()
			}

			rt.watches = nil

			return err
		}

		rt.watches = append(rt.watches, fw)
	}

	rt.detectQuiescence.Store(!library)

	eg, _ := errgroup.WithContext(context.Background())
	rt.mu.Lock()
	rt.eg = eg
	rt.mu.Unlock()

	for _, sched := range rt.schedulers {
		s := sched

		eg.Go(func() error {
			if !rt.cfg.NoPin {
				if err := pinToCPU(s.cpu); err == nil {
					defer unpinCPU()
				}
			}

			s.run()

			return nil
		})
	}

	if !library {
		rt.shutdown()
	}

	return nil
}

// Stop requests quiescence detection, closes every filesystem watch opened
// by Start (so they no longer keep the backend noisy), and blocks until
// every worker has exited and the runtime has shut down. Intended for
// library mode, where Start returned immediately after spawning workers.
func (rt *Runtime) Stop() {
	rt.detectQuiescence.Store(true)

	for _, w := range rt.watches {
		_ = w.Close()
	}

	rt.watches = nil

	rt.shutdown()
}

func (rt *Runtime) shutdown() {
	rt.mu.Lock()
	eg := rt.eg
	rt.eg = nil
	rt.mu.Unlock()

	if eg != nil {
		_ = eg.Wait()
	}

	for _, w := range rt.watches {
		_ = w.Close()
	}

	rt.watches = nil

	rt.cycleTerminate()
}

// Schedule pushes a onto ctx's owning worker's local queue if ctx belongs
// to a worker, or onto the process-wide inject queue otherwise.
func (rt *Runtime) Schedule(ctx *Context, a Actor) {
	if ctx != nil && ctx.sched != nil {
		for !ctx.sched.pushLocal(a) {
			stdrt.Gosched()
		}

		return
	}

	for !rt.inject.Enqueue(a) {
		stdrt.Gosched()
	}
}

// Cores reports the worker pool size.
func (rt *Runtime) Cores() int { return rt.schedulerCount }

// RegisterThread hands out a *Context for a non-worker thread that needs
// to schedule actors or call Mute/UnmuteSenders. Must be paired with
// UnregisterThread.
func (rt *Runtime) RegisterThread() *Context {
	rt.registered.Add(1)

	return &Context{rt: rt}
}

// UnregisterThread releases a *Context obtained from RegisterThread.
func (rt *Runtime) UnregisterThread(ctx *Context) {
	if ctx == nil || ctx.sched != nil {
		panic(errContractViolation("UnregisterThread", "not a registered non-worker context"))
	}

	if rt.registered.Add(-1) < 0 {
		panic(errContractViolation("UnregisterThread", "register/unregister imbalance"))
	}
}

// Mute records that sender is muted on behalf of receiver, against ctx's
// owning worker's mute map. ctx must belong to a worker, and sender must
// differ from receiver.
func (rt *Runtime) Mute(ctx *Context, sender, receiver Actor) error {
	return rt.mute(ctx, sender, receiver)
}

// NoisyAsio broadcasts to every worker that the ASIO backend currently has
// outstanding external event sources, inhibiting BLOCK emission.
func (rt *Runtime) NoisyAsio() { rt.sendAll(schedMsg{kind: msgNoisyASIO}) }

// UnnoisyAsio reverses NoisyAsio.
func (rt *Runtime) UnnoisyAsio() { rt.sendAll(schedMsg{kind: msgUnnoisyASIO}) }
