package flow

import "time"

// generate is the shared engine behind every source operator in this file:
// next is called at most once per unit of outstanding demand and returns
// the next item plus whether the sequence continues; a non-nil err
// terminates the sequence with OnError instead of OnComplete. Grounded on
// `original_source/libcaf_core/caf/flow/observable_builder.hpp`'s
// generation operators, which all reduce to "pull one value per unit of
// demand from a step function."
func generate[T any](coord *Coordinator, obs Observer[T], next func() (T, bool, error)) Disposable {
	var demand int
	var done bool
	var emit func()

	sub := NewSubscription(coord, func(n int) {
		if done {
			return
		}
		demand += n
		emit()
	}, func() {
		done = true
	})

	emit = func() {
		for demand > 0 && !done {
			v, ok, err := next()
			if err != nil {
				done = true
				obs.OnError(err)
				return
			}
			if !ok {
				done = true
				obs.OnComplete()
				return
			}
			demand--
			obs.OnNext(v)
		}
	}

	obs.OnSubscribe(sub)
	return sub
}

// Just returns an Observable that emits value once and then completes.
func Just[T any](coord *Coordinator, value T) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		emitted := false
		return generate(coord, obs, func() (T, bool, error) {
			if emitted {
				var zero T
				return zero, false, nil
			}
			emitted = true
			return value, true, nil
		})
	})
}

// Empty returns an Observable that completes immediately without emitting
// any item.
func Empty[T any](coord *Coordinator) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return generate(coord, obs, func() (T, bool, error) {
			var zero T
			return zero, false, nil
		})
	})
}

// Never returns an Observable that neither emits nor completes until its
// subscription is disposed.
func Never[T any](coord *Coordinator) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		sub := NewSubscription(coord, func(int) {}, func() {})
		obs.OnSubscribe(sub)
		return sub
	})
}

// Fail returns an Observable that immediately terminates with err.
func Fail[T any](coord *Coordinator, err error) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return generate(coord, obs, func() (T, bool, error) {
			var zero T
			return zero, false, err
		})
	})
}

// Range returns an Observable emitting the integers [from, to).
func Range(coord *Coordinator, from, to int) Observable[int] {
	return NewObservable(coord, func(obs Observer[int]) Disposable {
		i := from
		return generate(coord, obs, func() (int, bool, error) {
			if i >= to {
				return 0, false, nil
			}
			v := i
			i++
			return v, true, nil
		})
	})
}

// Iota returns an unbounded Observable emitting start, start+1, start+2, ...
func Iota(coord *Coordinator, start int) Observable[int] {
	return NewObservable(coord, func(obs Observer[int]) Disposable {
		i := start
		return generate(coord, obs, func() (int, bool, error) {
			v := i
			i++
			return v, true, nil
		})
	})
}

// Repeat returns an unbounded Observable that emits value forever.
func Repeat[T any](coord *Coordinator, value T) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return generate(coord, obs, func() (T, bool, error) {
			return value, true, nil
		})
	})
}

// FromContainer returns an Observable emitting every element of items in
// order, then completing.
func FromContainer[T any](coord *Coordinator, items []T) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		i := 0
		return generate(coord, obs, func() (T, bool, error) {
			if i >= len(items) {
				var zero T
				return zero, false, nil
			}
			v := items[i]
			i++
			return v, true, nil
		})
	})
}

// FromCallable returns an Observable that invokes fn exactly once and
// emits its result, or its error, and then terminates.
func FromCallable[T any](coord *Coordinator, fn func() (T, error)) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		called := false
		return generate(coord, obs, func() (T, bool, error) {
			if called {
				var zero T
				return zero, false, nil
			}
			called = true
			v, err := fn()
			if err != nil {
				var zero T
				return zero, false, err
			}
			return v, true, nil
		})
	})
}

// FromGenerator returns an Observable that repeatedly calls next, forwarding
// each produced item, until next reports ok=false (normal completion) or an
// error (abnormal termination). Unlike FromCallable, next carries its own
// state forward across calls, so it can produce an unbounded sequence.
func FromGenerator[T any](coord *Coordinator, next func() (T, bool, error)) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return generate(coord, obs, next)
	})
}

// Defer returns an Observable that calls factory fresh for every
// subscriber, so each subscription gets its own independent sequence
// rather than sharing state with earlier subscribers.
func Defer[T any](coord *Coordinator, factory func() Observable[T]) Observable[T] {
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return factory().Subscribe(obs)
	})
}

// Timer returns an Observable that waits d and then emits a single tick —
// the integer 0 — before completing, matching
// `original_source/.../test/flow/interval.cpp`'s `.timer(10ms)` yielding
// `{0}` (spec §4.8, property 15).
func Timer(coord *Coordinator, d time.Duration) Observable[int64] {
	return NewObservable(coord, func(obs Observer[int64]) Disposable {
		var fired bool
		var cancelled bool
		var pending DelayedAction

		sub := NewSubscription(coord, func(n int) {
			if fired || cancelled || pending != nil {
				return
			}
			pending = coord.DelayAction(func() {
				if cancelled {
					return
				}
				fired = true
				obs.OnNext(0)
				obs.OnComplete()
			}, d)
		}, func() {
			cancelled = true
			if pending != nil {
				pending.Cancel()
			}
		})

		obs.OnSubscribe(sub)
		return sub
	})
}

// Interval returns an unbounded Observable that waits initialDelay, emits
// 0, then emits a monotonically-increasing tick every period thereafter
// until disposed, matching
// `original_source/.../test/flow/interval.cpp`'s
// `.interval(50ms,25ms).take(3)` yielding `{0,1,2}` (spec §4.8, property
// 15).
func Interval(coord *Coordinator, initialDelay, period time.Duration) Observable[int64] {
	return NewObservable(coord, func(obs Observer[int64]) Disposable {
		var cancelled bool
		var demand int
		var tick int64
		var started bool

		var scheduleNext func(d time.Duration)
		scheduleNext = func(d time.Duration) {
			if cancelled {
				return
			}
			coord.DelayAction(func() {
				if cancelled || demand <= 0 {
					return
				}
				demand--
				v := tick
				tick++
				obs.OnNext(v)
				scheduleNext(period)
			}, d)
		}

		sub := NewSubscription(coord, func(n int) {
			wasIdle := demand <= 0
			demand += n
			if wasIdle {
				if !started {
					started = true
					scheduleNext(initialDelay)
				} else {
					scheduleNext(period)
				}
			}
		}, func() {
			cancelled = true
		})

		obs.OnSubscribe(sub)
		return sub
	})
}
