package flow

// ObserveOn returns an Observable that subscribes to src on src's own
// Coordinator but delivers every OnNext/OnError/OnComplete to the
// downstream Observer as an action scheduled on target instead — the
// mechanism an actor uses to consume a flow hosted on another actor's (or
// a ScopedCoordinator's) Coordinator without ever touching that
// Coordinator's state from the wrong execution context. Grounded on
// `original_source/libcaf_core/test/flow/observe_on.cpp`.
func ObserveOn[T any](src Observable[T], target *Coordinator) Observable[T] {
	return NewObservable(target, func(obs Observer[T]) Disposable {
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				target.ScheduleAction(func() { obs.OnSubscribe(sub) })
			},
			Next: func(v T) {
				target.ScheduleAction(func() { obs.OnNext(v) })
			},
			Error: func(err error) {
				target.ScheduleAction(func() { obs.OnError(err) })
			},
			Complete: func() {
				target.ScheduleAction(func() { obs.OnComplete() })
			},
		})
	})
}
