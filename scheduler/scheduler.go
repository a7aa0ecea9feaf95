// Package scheduler implements the cooperative multiplexing layer that
// resumes actors over a bounded worker pool (spec §4.4). It provides two
// interchangeable implementations behind the Scheduler interface: a
// production work-sharing pool and a single-threaded deterministic test
// variant used both by library consumers and by this module's own property
// tests.
package scheduler

import (
	"time"

	"github.com/flowkit/actorflow/clock"
)

// ResumeResult is the outcome of one bounded resume step, reported back to
// the scheduler so it knows whether to re-queue, let the mailbox suspension
// protocol take over, or release the last strong reference.
type ResumeResult int

const (
	// Ready indicates the resumable has more work queued but exhausted its
	// resume-step budget; the scheduler should re-queue it.
	Ready ResumeResult = iota

	// AwaitingMessage indicates the resumable's mailbox went empty during
	// the resume step; it has entered the §4.1 suspension protocol and will
	// be re-scheduled by the next enqueue.
	AwaitingMessage

	// Done indicates the resumable has reached its terminal state and will
	// never be scheduled again.
	Done
)

func (r ResumeResult) String() string {
	switch r {
	case Ready:
		return "ready"
	case AwaitingMessage:
		return "awaiting_message"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Resumable is anything a Scheduler can drive: an actor's bounded
// message-processing step. Budget is the maximum number of messages to
// process before yielding back to the scheduler (spec §4.4: "processes some
// bounded (implementation-chosen) number of messages then yields").
type Resumable interface {
	// Resume processes up to budget units of work and reports how the
	// resumable wants to be treated next.
	Resume(budget int) ResumeResult
}

// Action is a unit of scheduler- or coordinator-driven work with no return
// value, matching CAF's fire-and-forget action type used for both
// immediate (schedule_action) and delayed (delay_action) execution.
type Action func()

// Scheduler is the contract shared by the production work-sharing pool and
// the deterministic test scheduler (spec §4.4).
type Scheduler interface {
	// RegisterResumable adds r to the scheduler; used when a Resumable is
	// constructed but its mailbox is still empty. The production scheduler
	// schedules r right away (its first Resume may find nothing to do); the
	// test scheduler does not run r until Schedule is called on it.
	RegisterResumable(r Resumable)

	// Schedule marks r as ready to run and, for the production scheduler,
	// hands it to a worker. This is the call made by the mailbox
	// suspension protocol (spec §4.1) when an enqueue wakes a blocked
	// actor.
	Schedule(r Resumable)

	// ScheduleAction appends action to the FIFO action queue, run inline
	// with actor resumption.
	ScheduleAction(action Action)

	// DelayAction inserts action into the sorted delayed-action map, keyed
	// by the scheduler's clock, to run no earlier than d from now.
	DelayAction(action Action, d time.Duration) DelayedAction

	// Now returns the scheduler's current notion of time, via its Clock.
	Now() time.Time

	// Clock exposes the underlying Clock so that hosted Coordinators can
	// share the same steady-time abstraction (spec §5).
	Clock() clock.Clock

	// Start begins processing. For the production scheduler this starts
	// the worker pool; for the test scheduler this is a no-op (driving is
	// always explicit).
	Start()

	// Stop halts processing and releases worker resources. Safe to call
	// once; a second call is a no-op.
	Stop()
}

// DelayedAction is a handle to a scheduled-but-not-yet-fired delayed
// action. Cancel prevents it from firing if it hasn't already.
type DelayedAction interface {
	// Cancel prevents the action from firing. Returns false if the action
	// already fired or was already cancelled.
	Cancel() bool
}
