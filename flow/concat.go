package flow

// Concat subscribes to each Observable in sources in order, forwarding one
// source's entire output before moving to the next, and completes once the
// last one completes. Grounded on
// `original_source/libcaf_core/test/flow/concat.cpp`.
func Concat[T any](coord *Coordinator, sources ...Observable[T]) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		remaining := sources
		var active Disposable

		var startNext func()
		startNext = func() {
			if len(remaining) == 0 {
				obs.OnComplete()
				return
			}
			next := remaining[0]
			remaining = remaining[1:]
			active = next.Subscribe(ObserverFunc[T]{
				Subscribe: func(sub Subscription) { sub.Request(unbounded) },
				Next:      obs.OnNext,
				Error:     obs.OnError,
				Complete: func() {
					active = nil
					startNext()
				},
			})
		}
		startNext()

		return NewDisposable(func() {
			if active != nil {
				active.Dispose()
			}
			remaining = nil
		})
	})
}
