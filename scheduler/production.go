package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/flowkit/actorflow/clock"
)

// defaultResumeBudget is the bounded number of messages a Resumable
// processes per Resume call before yielding back to the pool (spec §4.4).
const defaultResumeBudget = 50

// job is one unit of work handed to a worker: either a Resumable to resume
// or a bare action to run inline. Exactly one of the two fields is set.
type job struct {
	resumable Resumable
	action    Action
}

// workQueue is an unbounded FIFO of jobs guarded by a mutex and condition
// variable. It plays the role of the per-scheduler ready queue CAF
// implements with an intrusive work-sharing deque; this module trades the
// lock-free deque for a straightforward mutex queue since work-sharing
// (not work-stealing) is all spec §4.4 asks for.
type workQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	jobs     []job
	draining bool
}

func newWorkQueue() *workQueue {
	q := &workQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *workQueue) push(j job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.draining {
		return
	}
	q.jobs = append(q.jobs, j)
	q.cond.Signal()
}

// pop blocks until a job is available or the queue is draining, returning
// ok=false in the latter case once every queued job has been drained.
func (q *workQueue) pop() (job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.jobs) == 0 {
		if q.draining {
			return job{}, false
		}
		q.cond.Wait()
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, true
}

func (q *workQueue) drain() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.draining = true
	q.cond.Broadcast()
}

// ProductionScheduler is a cooperative, bounded work-sharing pool: a fixed
// number of worker goroutines pull Resumables and actions off a shared
// queue and run each for at most its resume budget before either
// re-queueing it (Ready) or letting it go quiet (AwaitingMessage) until the
// next enqueue calls Schedule again (spec §4.1, §4.4).
type ProductionScheduler struct {
	id     string
	queue  *workQueue
	delays *delayedQueue
	clk    clock.Clock

	numWorkers   int
	resumeBudget int

	wg       sync.WaitGroup
	timerCtx context.Context
	timerCan context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
}

// ProductionOption configures a ProductionScheduler at construction time.
type ProductionOption func(*ProductionScheduler)

// WithWorkers sets the fixed worker-pool size (spec §6
// "scheduler.max_threads"). Defaults to 1 if unset or non-positive.
func WithWorkers(n int) ProductionOption {
	return func(s *ProductionScheduler) {
		if n > 0 {
			s.numWorkers = n
		}
	}
}

// WithResumeBudget overrides the per-Resume message budget.
func WithResumeBudget(n int) ProductionOption {
	return func(s *ProductionScheduler) {
		if n > 0 {
			s.resumeBudget = n
		}
	}
}

// NewProductionScheduler constructs a ProductionScheduler. Call Start to
// begin running its worker pool.
func NewProductionScheduler(opts ...ProductionOption) *ProductionScheduler {
	s := &ProductionScheduler{
		id:           uuid.NewString(),
		queue:        newWorkQueue(),
		delays:       newDelayedQueue(),
		clk:          clock.Real{},
		numWorkers:   1,
		resumeBudget: defaultResumeBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timerCtx, s.timerCan = context.WithCancel(context.Background())

	log.DebugS(context.Background(), "Constructed production scheduler",
		"scheduler_id", s.id, "workers", s.numWorkers)

	return s
}

// RegisterResumable implements Scheduler. The production scheduler treats
// registration and scheduling identically: the new Resumable's mailbox
// suspension state decides whether its first Resume call does any work.
func (s *ProductionScheduler) RegisterResumable(r Resumable) {
	s.Schedule(r)
}

// Schedule implements Scheduler.
func (s *ProductionScheduler) Schedule(r Resumable) {
	s.queue.push(job{resumable: r})
}

// ScheduleAction implements Scheduler.
func (s *ProductionScheduler) ScheduleAction(action Action) {
	s.queue.push(job{action: action})
}

// DelayAction implements Scheduler.
func (s *ProductionScheduler) DelayAction(action Action, d time.Duration) DelayedAction {
	at := s.clk.Now().Add(d)
	return s.delays.insert(at, action)
}

// Now implements Scheduler.
func (s *ProductionScheduler) Now() time.Time { return s.clk.Now() }

// Clock implements Scheduler.
func (s *ProductionScheduler) Clock() clock.Clock { return s.clk }

// Start launches the worker pool and the delayed-action timer loop. Safe to
// call once; subsequent calls are no-ops.
func (s *ProductionScheduler) Start() {
	s.startOnce.Do(func() {
		for i := 0; i < s.numWorkers; i++ {
			s.wg.Add(1)
			workerID := i
			go s.runWorker(workerID)
		}
		s.wg.Add(1)
		go s.runTimerLoop()

		log.InfoS(context.Background(), "Production scheduler started",
			"scheduler_id", s.id, "workers", s.numWorkers)
	})
}

// Stop drains the work queue, cancels the timer loop, and waits for every
// worker goroutine to exit. Safe to call once.
func (s *ProductionScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.timerCan()
		s.queue.drain()
		s.wg.Wait()

		log.InfoS(context.Background(), "Production scheduler stopped",
			"scheduler_id", s.id)
	})
}

func (s *ProductionScheduler) runWorker(workerID int) {
	defer s.wg.Done()

	for {
		j, ok := s.queue.pop()
		if !ok {
			return
		}

		if j.action != nil {
			j.action()
			continue
		}

		result := j.resumable.Resume(s.resumeBudget)
		switch result {
		case Ready:
			s.queue.push(j)
		case AwaitingMessage, Done:
			// The resumable re-enters the queue only via its own
			// Schedule call (mailbox suspension protocol, §4.1) or
			// never again (Done).
		}
	}
}

// runTimerLoop polls the delayed-action queue every idlePoll interval and
// converts every action due by then into a queue job.
func (s *ProductionScheduler) runTimerLoop() {
	defer s.wg.Done()

	const idlePoll = 10 * time.Millisecond
	timer := time.NewTimer(idlePoll)
	defer timer.Stop()

	for {
		select {
		case <-s.timerCtx.Done():
			return
		case <-timer.C:
			due := s.delays.popDue(s.clk.Now())
			for _, action := range due {
				s.queue.push(job{action: action})
			}
			timer.Reset(idlePoll)
		}
	}
}
