package actors

import "github.com/fsnotify/fsnotify"

// FileWatch is a second, independent noisy-registrant source: as long as a
// filesystem watch is outstanding, the scheduler is told the backend is
// noisy, which inhibits BLOCK emission (spec.md §4.4/§8 scenario 6) the
// same way a pending timer or socket would. Grounded on the teacher's own
// fsnotify wiring in internal/runtime/vfs/watch_fsnotify.go, but kept
// independent of the vfs package so this module does not need to depend on
// it.
type FileWatch struct {
	w    *fsnotify.Watcher
	rt   *Runtime
	done chan struct{}
}

// WatchNoisy starts watching path and marks the runtime's ASIO backend
// noisy until the returned FileWatch is closed.
func (rt *Runtime) WatchNoisy(path string) (*FileWatch, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errStartupFailure("fsnotify watcher", err)
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, err
	}

	fw := &FileWatch{w: w, rt: rt, done: make(chan struct{})}
	rt.NoisyAsio()

	go fw.loop()

	return fw, nil
}

func (fw *FileWatch) loop() {
	for {
		select {
		case _, ok := <-fw.w.Events:
			if !ok {
				return
			}
		case _, ok := <-fw.w.Errors:
			if !ok {
				return
			}
		case <-fw.done:
			return
		}
	}
}

// Close stops the watch and marks the runtime's ASIO backend unnoisy.
func (fw *FileWatch) Close() error {
	close(fw.done)
	err := fw.w.Close()
	fw.rt.UnnoisyAsio()

	return err
}
