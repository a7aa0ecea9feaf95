package runtime

import (
	"github.com/flowkit/actorflow/flow"
	"github.com/flowkit/actorflow/scheduler"
)

// NewFlowBuffer constructs an AsyncBuffer sized from rt's Config
// (flow.buffer_size / flow.min_demand), per SPEC_FULL.md §A.3's flow-tuning
// options. Go's methods can't introduce new type parameters, so this is a
// package-level function rather than a method on Runtime.
func NewFlowBuffer[T any](rt *Runtime) *flow.AsyncBuffer[T] {
	return flow.NewAsyncBuffer[T](rt.cfg.FlowBufferSize, rt.cfg.FlowMinDemand)
}

// NewCoordinator builds a flow.Coordinator driven by rt's Scheduler: it is
// registered as a Resumable so the same worker pool (or TestScheduler)
// that resumes actors also drains queued flow actions, paced by
// Config.FlowBatchSize per Resume call — a Coordinator used this way never
// needs its own goroutine, unlike flow.ScopedCoordinator.
func NewCoordinator(rt *Runtime) *flow.Coordinator {
	coord := flow.NewCoordinator(rt.sched.Clock())
	cr := &coordinatorResumable{coord: coord, batch: rt.cfg.FlowBatchSize, sched: rt.sched}
	coord.SetWakeCallback(cr.wake)
	rt.sched.RegisterResumable(cr)
	return coord
}

// coordinatorResumable adapts a flow.Coordinator to scheduler.Resumable,
// mirroring actor.Actor's own ready/blocked handling: Resume drains a
// bounded batch of queued actions, and wake (invoked every time an action
// is scheduled on the Coordinator) hands it to the Scheduler's run queue
// again.
type coordinatorResumable struct {
	coord *flow.Coordinator
	batch int
	sched scheduler.Scheduler
}

func (c *coordinatorResumable) Resume(budget int) scheduler.ResumeResult {
	n := c.batch
	if budget > 0 && budget < n {
		n = budget
	}
	c.coord.RunSome(n)
	if c.coord.Pending() > 0 {
		return scheduler.Ready
	}
	return scheduler.AwaitingMessage
}

func (c *coordinatorResumable) wake() {
	c.sched.Schedule(c)
}
