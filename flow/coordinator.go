package flow

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit/actorflow/clock"
)

// DelayedAction is a handle to a Coordinator-scheduled delayed action.
type DelayedAction interface {
	// Cancel prevents the action from firing. Returns false if it
	// already fired or was already cancelled.
	Cancel() bool
}

// Coordinator is a single-threaded execution context that runs a FIFO
// queue of scheduled actions plus a sorted queue of delayed actions (spec
// §5): operators never touch each other's state directly, they only ever
// communicate by scheduling actions on a shared Coordinator. A Coordinator
// built by runtime.NewCoordinator is registered with the Runtime's
// Scheduler as its own Resumable and driven a bounded batch per Resume call
// (an Actor does not own a Coordinator); a ScopedCoordinator drives itself on a background
// goroutine for use outside any actor (tests, blocking top-level
// consumption).
type Coordinator struct {
	id  string
	clk clock.Clock

	mu      sync.Mutex
	fifo    []func()
	delays  *delayedQueue
	watched []Disposable
	wake    func()
}

// SetWakeCallback registers cb to be invoked (outside the Coordinator's own
// lock) every time ScheduleAction hands it a new action. A Runtime uses
// this to re-register an otherwise-idle Coordinator with the Scheduler as
// a Resumable, the same way Actor.wake re-registers a blocked actor —
// without it, a production-hosted Coordinator with nothing left to run
// would never be driven again once its last scheduled action completed.
func (c *Coordinator) SetWakeCallback(cb func()) {
	c.mu.Lock()
	c.wake = cb
	c.mu.Unlock()
}

// NewCoordinator constructs a Coordinator backed by clk. Most callers want
// NewScopedCoordinator (wall-clock, self-driving) or runtime.NewCoordinator
// (driven by a Runtime's Scheduler, on that Scheduler's clock).
func NewCoordinator(clk clock.Clock) *Coordinator {
	return &Coordinator{
		id:     uuid.NewString(),
		clk:    clk,
		delays: newDelayedQueue(),
	}
}

// ID returns the Coordinator's process-unique instance tag, used in log
// lines (SPEC_FULL.md §B).
func (c *Coordinator) ID() string { return c.id }

// Now returns the Coordinator's current notion of time.
func (c *Coordinator) Now() time.Time { return c.clk.Now() }

// Clock exposes the underlying clock.Clock.
func (c *Coordinator) Clock() clock.Clock { return c.clk }

// ScheduleAction appends action to the FIFO queue, run the next time
// something drains this Coordinator (spec §5).
func (c *Coordinator) ScheduleAction(action func()) {
	c.mu.Lock()
	c.fifo = append(c.fifo, action)
	wake := c.wake
	c.mu.Unlock()

	if wake != nil {
		wake()
	}
}

// DelayAction schedules action to run no earlier than d from now.
func (c *Coordinator) DelayAction(action func(), d time.Duration) DelayedAction {
	at := c.clk.Now().Add(d)
	return c.delays.insert(at, action)
}

// WatchDisposable registers d so DisposeWatched can dispose it later, e.g.
// when the Coordinator itself is torn down. Matches CAF's coordinator
// "watching" a subscription's disposable so an abandoned Coordinator still
// cleans up any subscriptions it hosted.
func (c *Coordinator) WatchDisposable(d Disposable) {
	c.mu.Lock()
	c.watched = append(c.watched, d)
	c.mu.Unlock()
}

// DisposeWatched disposes every Disposable registered via
// WatchDisposable, in registration order.
func (c *Coordinator) DisposeWatched() {
	c.mu.Lock()
	watched := c.watched
	c.watched = nil
	c.mu.Unlock()

	for _, d := range watched {
		d.Dispose()
	}
}

func (c *Coordinator) popFIFO() (func(), bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.fifo) == 0 {
		return nil, false
	}
	job := c.fifo[0]
	c.fifo = c.fifo[1:]
	return job, true
}

func (c *Coordinator) promoteDueDelays() {
	due := c.delays.popDue(c.clk.Now())
	if len(due) == 0 {
		return
	}
	c.mu.Lock()
	c.fifo = append(c.fifo, due...)
	c.mu.Unlock()
}

// RunSome runs up to max queued actions (promoting any now-due delayed
// actions into the queue first) and returns how many actually ran.
func (c *Coordinator) RunSome(max int) int {
	c.promoteDueDelays()

	ran := 0
	for ran < max {
		job, ok := c.popFIFO()
		if !ok {
			break
		}
		job()
		ran++
	}
	return ran
}

// Run drains every currently-queued action (including ones newly
// scheduled by actions that ran earlier in this same call) and returns how
// many ran.
func (c *Coordinator) Run() int {
	return c.RunSome(math.MaxInt)
}

// RunUntil runs queued actions until deadline passes or the queue empties,
// whichever comes first, and returns how many ran.
func (c *Coordinator) RunUntil(deadline time.Time) int {
	ran := 0
	for c.clk.Now().Before(deadline) {
		c.promoteDueDelays()
		job, ok := c.popFIFO()
		if !ok {
			break
		}
		job()
		ran++
	}
	return ran
}

// Pending reports how many actions are currently queued (not counting
// not-yet-due delayed actions).
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fifo)
}

// ScopedCoordinator is a Coordinator that drives itself on a background
// goroutine using the real wall clock, for use outside any actor (spec
// SPEC_FULL.md §C.3, grounded on
// `original_source/libcaf_core/caf/flow/scoped_coordinator.*`): tests and
// top-level blocking consumption (ForEach) use this instead of hand-rolling
// a driver loop.
type ScopedCoordinator struct {
	*Coordinator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScopedCoordinator constructs and starts a self-driving Coordinator.
// Call Stop when done with it to release its background goroutine.
func NewScopedCoordinator() *ScopedCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	sc := &ScopedCoordinator{
		Coordinator: NewCoordinator(clock.Real{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	sc.wg.Add(1)
	go sc.loop()
	return sc
}

func (sc *ScopedCoordinator) loop() {
	defer sc.wg.Done()

	const idlePoll = time.Millisecond
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()

	for {
		select {
		case <-sc.ctx.Done():
			return
		case <-ticker.C:
			sc.RunSome(4096)
		}
	}
}

// Stop halts the background driver and disposes every watched Disposable.
func (sc *ScopedCoordinator) Stop() {
	sc.cancel()
	sc.wg.Wait()
	sc.DisposeWatched()
}
