package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// delayedEntry is one pending delayed action, ordered by its fire time and,
// on ties, by insertion sequence so that two actions scheduled for the same
// TimePoint run in the order they were delayed (spec §4.4: "delay_action
// inserts into a sorted map keyed by that clock").
type delayedEntry struct {
	at        time.Time
	seq       uint64
	action    Action
	cancelled bool
	fired     bool
	index     int
}

func (e *delayedEntry) Cancel() bool {
	if e.cancelled || e.fired {
		return false
	}
	e.cancelled = true
	return true
}

// delayedHeap is a min-heap of *delayedEntry ordered by (at, seq).
type delayedHeap []*delayedEntry

func (h delayedHeap) Len() int { return len(h) }
func (h delayedHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h delayedHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *delayedHeap) Push(x any) {
	e := x.(*delayedEntry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *delayedHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

// delayedQueue is a thread-safe sorted queue of delayed actions, shared by
// both scheduler implementations.
type delayedQueue struct {
	mu   sync.Mutex
	h    delayedHeap
	next uint64
}

func newDelayedQueue() *delayedQueue {
	return &delayedQueue{h: make(delayedHeap, 0)}
}

// insert schedules action to fire at 'at' and returns a cancellable handle.
func (q *delayedQueue) insert(at time.Time, action Action) *delayedEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := &delayedEntry{at: at, seq: q.next, action: action}
	q.next++
	heap.Push(&q.h, e)
	return e
}

// popDue pops and returns every non-cancelled entry due at or before now,
// in fire order. Cancelled entries are discarded silently.
func (q *delayedQueue) popDue(now time.Time) []Action {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []Action
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.at.After(now) {
			break
		}
		heap.Pop(&q.h)
		if !top.cancelled {
			top.fired = true
			due = append(due, top.action)
		}
	}
	return due
}

// popNextDue pops the single earliest non-cancelled entry, regardless of
// whether it is due yet. Used by "trigger_timeout" style test-scheduler
// helpers that force the next timer to fire out of time-order.
func (q *delayedQueue) popNextDue() (Action, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.h.Len() > 0 {
		top := heap.Pop(&q.h).(*delayedEntry)
		if !top.cancelled {
			top.fired = true
			return top.action, true
		}
	}
	return nil, false
}

// popAllPending pops every non-cancelled entry regardless of due time.
func (q *delayedQueue) popAllPending() []Action {
	q.mu.Lock()
	defer q.mu.Unlock()

	var all []Action
	for q.h.Len() > 0 {
		top := heap.Pop(&q.h).(*delayedEntry)
		if !top.cancelled {
			top.fired = true
			all = append(all, top.action)
		}
	}
	return all
}

// len returns the number of still-pending (non-cancelled) entries.
func (q *delayedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, e := range q.h {
		if !e.cancelled {
			n++
		}
	}
	return n
}
