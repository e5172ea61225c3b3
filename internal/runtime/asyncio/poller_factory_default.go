//go:build !linux
// +build !linux

package asyncio

// NewOSPoller returns an OS-optimized Poller when available.
// This default implementation is used on platforms without a specialized poller.
func NewOSPoller() Poller { return NewDefaultPoller() }
