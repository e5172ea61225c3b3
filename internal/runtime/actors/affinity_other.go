//go:build !linux
// +build !linux

package actors

// pinToCPU is a no-op on platforms without a portable affinity syscall,
// matching the teacher's own fallback pattern in
// internal/runtime/asyncio/poller_factory_default.go.
func pinToCPU(cpu int) error { return nil }

func unpinCPU() {}
