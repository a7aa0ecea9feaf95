package flow

import "sync"

// mergeState coordinates N concurrently-subscribed sources feeding a
// single downstream Observer: completion only fires once every source
// (including any added later, e.g. by FlatMap) has completed, and the
// first error from any source wins and disposes the rest. Shared by
// Merge and FlatMap since both reduce to "fan many sources into one
// observer," matching CAF's `op::merge` design of a single shared
// subscription-count + error-latch pair guarding every upstream.
type mergeState[T any] struct {
	mu       sync.Mutex
	obs      Observer[T]
	pending  int
	done     bool
	subs     []Disposable
}

func (m *mergeState[T]) addPending() {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()
}

func (m *mergeState[T]) track(d Disposable) {
	m.mu.Lock()
	m.subs = append(m.subs, d)
	m.mu.Unlock()
}

func (m *mergeState[T]) innerObserver() Observer[T] {
	return ObserverFunc[T]{
		Subscribe: func(sub Subscription) { sub.Request(unbounded) },
		Next: func(v T) {
			m.mu.Lock()
			done := m.done
			m.mu.Unlock()
			if !done {
				m.obs.OnNext(v)
			}
		},
		Error: m.fail,
		Complete: func() {
			m.mu.Lock()
			m.pending--
			finished := m.pending <= 0 && !m.done
			if finished {
				m.done = true
			}
			m.mu.Unlock()
			if finished {
				m.obs.OnComplete()
			}
		},
	}
}

func (m *mergeState[T]) fail(err error) {
	m.mu.Lock()
	if m.done {
		m.mu.Unlock()
		return
	}
	m.done = true
	m.mu.Unlock()
	m.obs.OnError(err)
	m.disposeAll()
}

// outerDone marks the driving (outer) source as finished contributing new
// pending subscriptions, releasing the pending slot it held; if nothing is
// left pending, completion fires immediately.
func (m *mergeState[T]) outerDone() {
	m.mu.Lock()
	m.pending--
	finished := m.pending <= 0 && !m.done
	if finished {
		m.done = true
	}
	m.mu.Unlock()
	if finished {
		m.obs.OnComplete()
	}
}

func (m *mergeState[T]) disposeAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = nil
	m.mu.Unlock()
	for _, d := range subs {
		d.Dispose()
	}
}

// Merge subscribes to every Observable in sources at once and forwards
// their items as they arrive, completing once all of them have completed
// (spec §4.7, grounded on `original_source/libcaf_core/caf/flow/merge.hpp`
// and `test/flow/merge.cpp`).
func Merge[T any](coord *Coordinator, sources ...Observable[T]) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		state := &mergeState[T]{obs: obs, pending: len(sources)}
		if len(sources) == 0 {
			obs.OnComplete()
			return NewDisposable(nil)
		}
		for _, src := range sources {
			state.track(src.Subscribe(state.innerObserver()))
		}
		return NewDisposable(state.disposeAll)
	})
}
