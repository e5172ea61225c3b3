package actors

// CycleDetector is the external collaborator that finds and collects
// actor cycles unreachable from any live root. The scheduler core does
// not implement cycle detection itself (spec.md's Non-goals); it only
// calls Terminate once, via worker 0's context, while shutting down.
type CycleDetector interface {
	Terminate(ctx *Context)
}

// cycleTerminate invokes cfg.CycleDetector.Terminate, if one was
// configured, using worker 0's context the way ponyint_sched_shutdown
// calls cycle_terminate using the first scheduler's context.
func (rt *Runtime) cycleTerminate() {
	if rt.cfg.CycleDetector == nil || len(rt.schedulers) == 0 {
		return
	}

	rt.cfg.CycleDetector.Terminate(rt.schedulers[0].ctx)
}
