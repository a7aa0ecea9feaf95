package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit/actorflow/clock"
)

// TestScheduler is a single-threaded, deterministic Scheduler (spec §4.4)
// driven entirely by explicit calls instead of background goroutines: no
// actor resumes, no timer fires, and the clock does not move unless a test
// asks it to. It exists so spec §8's ordering and determinism properties
// can be checked bit-for-bit, and so library consumers can unit test actors
// and flows without real concurrency.
type TestScheduler struct {
	id  string
	mu  sync.Mutex
	clk *clock.Logical

	fifo []job

	delays *delayedQueue

	resumeBudget int

	inlineNext bool
	inlineAll  bool
}

// NewTestScheduler constructs a TestScheduler with its logical clock
// pinned at the Unix epoch.
func NewTestScheduler() *TestScheduler {
	return &TestScheduler{
		id:           uuid.NewString(),
		clk:          clock.NewLogical(),
		delays:       newDelayedQueue(),
		resumeBudget: defaultResumeBudget,
	}
}

// RegisterResumable implements Scheduler. Unlike the production scheduler,
// registering never implicitly schedules: a registered-but-not-scheduled
// Resumable simply never runs until something calls Schedule on it.
func (s *TestScheduler) RegisterResumable(r Resumable) {}

// Schedule implements Scheduler. If inline mode is active (via
// InlineNextEnqueue or InlineAllEnqueues) the resumable runs synchronously
// on the calling goroutine instead of being queued.
func (s *TestScheduler) Schedule(r Resumable) {
	s.enqueue(job{resumable: r})
}

// ScheduleAction implements Scheduler, subject to the same inline rules as
// Schedule.
func (s *TestScheduler) ScheduleAction(action Action) {
	s.enqueue(job{action: action})
}

func (s *TestScheduler) enqueue(j job) {
	s.mu.Lock()
	inline := s.inlineAll || s.inlineNext
	s.inlineNext = false
	if !inline {
		s.fifo = append(s.fifo, j)
	}
	s.mu.Unlock()

	if inline {
		s.run(j)
	}
}

// DelayAction implements Scheduler, inserting into the shared sorted
// delayed-action queue keyed by the logical clock.
func (s *TestScheduler) DelayAction(action Action, d time.Duration) DelayedAction {
	at := s.clk.Now().Add(d)
	return s.delays.insert(at, action)
}

// Now implements Scheduler.
func (s *TestScheduler) Now() time.Time { return s.clk.Now() }

// Clock implements Scheduler, exposing the concrete *clock.Logical so
// tests can also call Advance/Set directly if they want finer control than
// AdvanceTime gives.
func (s *TestScheduler) Clock() clock.Clock { return s.clk }

// Start is a no-op: the test scheduler only ever does work in response to
// an explicit Run/RunOnce/AdvanceTime/TriggerTimeout call.
func (s *TestScheduler) Start() {
	log.DebugS(context.Background(), "Test scheduler started (no-op)",
		"scheduler_id", s.id)
}

// Stop is a no-op for the same reason Start is.
func (s *TestScheduler) Stop() {}

func (s *TestScheduler) run(j job) {
	if j.action != nil {
		j.action()
		return
	}
	if j.resumable.Resume(s.resumeBudget) == Ready {
		s.enqueue(job{resumable: j.resumable})
	}
}

// RunOnce pops and runs the oldest queued job (FIFO) and reports whether
// anything was run.
func (s *TestScheduler) RunOnce() bool {
	s.mu.Lock()
	if len(s.fifo) == 0 {
		s.mu.Unlock()
		return false
	}
	j := s.fifo[0]
	s.fifo = s.fifo[1:]
	s.mu.Unlock()

	s.run(j)
	return true
}

// RunOnceLifo pops and runs the most recently queued job (LIFO) and
// reports whether anything was run. Useful for tests that want to check
// that ordering, not insertion order, is what actually drives correctness.
func (s *TestScheduler) RunOnceLifo() bool {
	s.mu.Lock()
	n := len(s.fifo)
	if n == 0 {
		s.mu.Unlock()
		return false
	}
	j := s.fifo[n-1]
	s.fifo = s.fifo[:n-1]
	s.mu.Unlock()

	s.run(j)
	return true
}

// Run runs up to n queued jobs in FIFO order and returns how many actually
// ran (fewer than n if the queue emptied first).
func (s *TestScheduler) Run(n int) int {
	ran := 0
	for i := 0; i < n; i++ {
		if !s.RunOnce() {
			break
		}
		ran++
	}
	return ran
}

// RunAll drains the ready queue entirely, including any jobs newly enqueued
// by jobs that ran earlier in the same call, and returns how many ran.
func (s *TestScheduler) RunAll() int {
	ran := 0
	for s.RunOnce() {
		ran++
	}
	return ran
}

// AdvanceTime moves the logical clock forward by d and immediately fires
// every delayed action now due, in fire order. Fired actions run
// synchronously on the calling goroutine, matching CAF's test coordinator
// "advance_time" semantics: delayed actions are not merely unblocked, they
// run as part of the advance_time call itself.
func (s *TestScheduler) AdvanceTime(d time.Duration) int {
	now := s.clk.Advance(d)
	due := s.delays.popDue(now)
	for _, action := range due {
		action()
	}
	return len(due)
}

// TriggerTimeout fires the single earliest pending delayed action
// regardless of whether it is actually due yet, and reports whether
// anything fired. Used by tests that want to force a timeout out of
// time-order, e.g. to check an actor's behavior under test is robust to a
// response timeout racing a late reply.
func (s *TestScheduler) TriggerTimeout() bool {
	action, ok := s.delays.popNextDue()
	if !ok {
		return false
	}
	action()
	return true
}

// TriggerTimeouts fires every pending delayed action regardless of due
// time, in fire order, and returns how many fired.
func (s *TestScheduler) TriggerTimeouts() int {
	pending := s.delays.popAllPending()
	for _, action := range pending {
		action()
	}
	return len(pending)
}

// InlineNextEnqueue arranges for the very next Schedule or ScheduleAction
// call to run synchronously instead of being queued, then reverts to
// queueing. Useful for asserting that one specific enqueue runs
// re-entrantly without changing every other call site's behavior.
func (s *TestScheduler) InlineNextEnqueue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inlineNext = true
}

// InlineAllEnqueues toggles whether every future Schedule/ScheduleAction
// call runs synchronously rather than being queued.
func (s *TestScheduler) InlineAllEnqueues(enable bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inlineAll = enable
}

// Pending reports how many jobs are currently queued, for test assertions
// that want to check the scheduler drained exactly as expected.
func (s *TestScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fifo)
}
