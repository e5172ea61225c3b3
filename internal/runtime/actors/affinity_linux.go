//go:build linux
// +build linux

package actors

import (
	stdrt "runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU locks the calling goroutine to its OS thread and binds that
// thread to cpu, matching the teacher's per-worker affinity pin in the
// original ponyint_cpu_affinity call from run_thread.
func pinToCPU(cpu int) error {
	stdrt.LockOSThread()

	var set unix.CPUSet

	set.Zero()
	set.Set(cpu)

	return unix.SchedSetaffinity(0, &set)
}

func unpinCPU() {
	stdrt.UnlockOSThread()
}
