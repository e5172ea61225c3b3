package actors

import (
	"testing"
	"time"
)

// A filesystem watch registered through Config.WatchPaths must mark the
// backend noisy for as long as it is open, and every worker must pick that
// up through the NOISY_ASIO/UNNOISY_ASIO broadcast (spec.md §4.4/§8
// scenario 6: a noisy ASIO backend inhibits BLOCK emission).
func TestRuntime_WatchPathKeepsAsioNoisyUntilStopped(t *testing.T) {
	dir := t.TempDir()

	rt, ctx, err := Init(Config{
		Threads:    1,
		Engine:     &FuncEngine{},
		WatchPaths: []string{dir},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	rt.UnregisterThread(ctx)

	if err := rt.Start(true); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)

	for !rt.schedulers[0].asioNoisy.Load() {
		if time.Now().After(deadline) {
			t.Fatal("worker never observed the filesystem watch as a noisy registrant")
		}

		time.Sleep(time.Millisecond)
	}

	if len(rt.watches) != 1 {
		t.Fatalf("len(rt.watches) = %d, want 1", len(rt.watches))
	}

	stopped := make(chan struct{})

	go func() {
		rt.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not terminate after Stop closed the watch")
	}

	if len(rt.watches) != 0 {
		t.Fatal("expected shutdown to close every outstanding watch")
	}
}

func TestRuntime_StartFailsIfWatchPathMissing(t *testing.T) {
	missing := t.TempDir() + "/does-not-exist"

	rt, ctx, err := Init(Config{
		Threads:    1,
		Engine:     &FuncEngine{},
		WatchPaths: []string{missing},
	})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}

	rt.UnregisterThread(ctx)

	if err := rt.Start(true); err == nil {
		t.Fatal("expected Start to fail when a watch path does not exist")
	}

	if len(rt.watches) != 0 {
		t.Fatal("a failed watch setup must not leave partial watches registered")
	}
}
