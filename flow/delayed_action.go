package flow

import (
	"container/heap"
	"sync"
	"time"
)

// delayedEntry is one pending delayed action on a Coordinator, ordered by
// fire time and, on ties, insertion order. Parallels
// `scheduler.delayedEntry`; duplicated rather than imported so that flow
// has no package dependency on scheduler, only on the shared clock
// abstraction (spec §5).
type delayedEntry struct {
	at        time.Time
	seq       uint64
	action    func()
	cancelled bool
	fired     bool
	index     int
}

// Cancel prevents the action from firing. Returns false if it already
// fired or was already cancelled.
func (e *delayedEntry) Cancel() bool {
	if e.cancelled || e.fired {
		return false
	}
	e.cancelled = true
	return true
}

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

type delayedQueue struct {
	mu   sync.Mutex
	h    delayedHeap
	next uint64
}

func newDelayedQueue() *delayedQueue {
	return &delayedQueue{h: make(delayedHeap, 0)}
}

func (q *delayedQueue) insert(at time.Time, action func()) *delayedEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := &delayedEntry{at: at, seq: q.next, action: action}
	q.next++
	heap.Push(&q.h, e)
	return e
}

func (q *delayedQueue) popDue(now time.Time) []func() {
	q.mu.Lock()
	defer q.mu.Unlock()

	var due []func()
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
