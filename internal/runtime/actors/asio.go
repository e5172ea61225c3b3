package actors

import (
	"context"
	"net"
	"sync/atomic"

	"github.com/orizon-lang/actorsched/internal/runtime/asyncio"
)

// AsioBackend is the external asynchronous I/O subsystem's surface as seen
// by the quiescence protocol: Start it back up on UNBLOCK, and try to stop
// it once every worker has ACKed — Stop reports false if noisy registrants
// remain, which aborts that attempt at quiescence.
type AsioBackend interface {
	Start() error
	Stop() bool
}

// IOAsio is the default AsioBackend, built on the teacher's existing
// asyncio.Poller abstraction (epoll on Linux, a goroutine-based poller
// elsewhere) rather than a bespoke implementation.
type IOAsio struct {
	poller asyncio.Poller
	cancel context.CancelFunc
	noisy  atomic.Int64
	hooks  noisyHooks
}

// noisyHooks lets IOAsio tell the runtime's schedulers about changes in
// outstanding noisy registrants without IOAsio holding a *Runtime
// itself (it is constructed before the Runtime it will be attached to is
// fully built).
type noisyHooks struct {
	noisy   func()
	unnoisy func()
}

func newPollerAsio(p asyncio.Poller, hooks noisyHooks) *IOAsio {
	return &IOAsio{poller: p, hooks: hooks}
}

func (p *IOAsio) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	return p.poller.Start(ctx)
}

func (p *IOAsio) Stop() bool {
	if p.noisy.Load() > 0 {
		return false
	}

	if p.cancel != nil {
		p.cancel()
	}

	_ = p.poller.Stop()

	return true
}

// RegisterIO registers conn with the underlying poller and marks the ASIO
// backend noisy for as long as the registration is live — an outstanding
// socket is exactly the kind of external event source spec.md §1 says
// should inhibit termination.
func (p *IOAsio) RegisterIO(conn net.Conn, kinds []asyncio.EventType, h asyncio.Handler) error {
	if err := p.poller.Register(conn, kinds, h); err != nil {
		return err
	}

	if p.noisy.Add(1) == 1 && p.hooks.noisy != nil {
		p.hooks.noisy()
	}

	return nil
}

// DeregisterIO reverses RegisterIO.
func (p *IOAsio) DeregisterIO(conn net.Conn) error {
	err := p.poller.Deregister(conn)

	if p.noisy.Add(-1) == 0 && p.hooks.unnoisy != nil {
		p.hooks.unnoisy()
	}

	return err
}

// IO exposes the default backend's I/O registration surface, or nil if the
// runtime was configured with a custom AsioBackend that does not provide
// one.
func (rt *Runtime) IO() *IOAsio { return rt.ioAsio }
