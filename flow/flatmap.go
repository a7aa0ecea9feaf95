package flow

// FlatMap applies fn to every item of src and merges the resulting inner
// Observables as they produce items, interleaving output from whichever
// inner sequence is ready — grounded on
// `original_source/libcaf_core/caf/flow/merge.hpp`'s eager-subscribe
// merging, applied here to dynamically generated sources instead of a
// fixed input list. Completion only fires once src and every inner
// Observable it produced have completed.
func FlatMap[T, U any](src Observable[T], fn func(T) Observable[U]) Observable[U] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[U]) Disposable {
		state := &mergeState[U]{obs: obs, pending: 1}

		outer := src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) { sub.Request(unbounded) },
			Next: func(v T) {
				inner := fn(v)
				state.addPending()
				state.track(inner.Subscribe(state.innerObserver()))
			},
			Error: state.fail,
			Complete: func() {
				state.outerDone()
			},
		})

		return NewDisposable(func() {
			outer.Dispose()
			state.disposeAll()
		})
	})
}

// ConcatMap applies fn to every item of src and subscribes to the
// resulting inner Observables one at a time, in the order src produced
// them, only moving to the next once the current one completes. Grounded
// on `original_source/libcaf_core/test/flow/concat_map.cpp`'s sequential
// contract.
func ConcatMap[T, U any](src Observable[T], fn func(T) Observable[U]) Observable[U] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[U]) Disposable {
		var pending []Observable[U]
		var active Disposable
		outerDone := false
		failed := false

		var startNext func()
		startNext = func() {
			if failed || active != nil || len(pending) == 0 {
				if outerDone && len(pending) == 0 && active == nil && !failed {
					obs.OnComplete()
				}
				return
			}
			next := pending[0]
			pending = pending[1:]
			active = next.Subscribe(ObserverFunc[U]{
				Subscribe: func(sub Subscription) { sub.Request(unbounded) },
				Next:      obs.OnNext,
				Error: func(err error) {
					failed = true
					obs.OnError(err)
				},
				Complete: func() {
					active = nil
					startNext()
				},
			})
		}

		outer := src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) { sub.Request(unbounded) },
			Next: func(v T) {
				pending = append(pending, fn(v))
				startNext()
			},
			Error: func(err error) {
				failed = true
				obs.OnError(err)
			},
			Complete: func() {
				outerDone = true
				startNext()
			},
		})

		return NewDisposable(func() {
			outer.Dispose()
			if active != nil {
				active.Dispose()
			}
		})
	})
}
