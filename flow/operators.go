package flow

// liftObserver builds an Observer[T] that forwards OnSubscribe/OnError/
// OnComplete unchanged to down and routes OnNext through onNext, which
// decides what (if anything) to push downstream. Every stateless
// transform operator in this file is a thin onNext around this, grounded
// on `original_source/libcaf_core/caf/flow/step.hpp`'s "step" abstraction
// (a chain of single-input/single-output transforms sitting between a
// source and its eventual observer).
func liftObserver[T any](down Observer[T], onNext func(T)) Observer[T] {
	return ObserverFunc[T]{
		Subscribe: down.OnSubscribe,
		Next:      onNext,
		Error:     down.OnError,
		Complete:  down.OnComplete,
	}
}

// Map returns an Observable that applies fn to every item of src.
func Map[T, U any](src Observable[T], fn func(T) U) Observable[U] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[U]) Disposable {
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: obs.OnSubscribe,
			Next:      func(v T) { obs.OnNext(fn(v)) },
			Error:     obs.OnError,
			Complete:  obs.OnComplete,
		})
	})
}

// Filter returns an Observable emitting only the items of src for which
// pred returns true. Filtered-out items still consume demand requested
// from src's own subscriber — a faithful relay, not a free pass-through —
// matching CAF's filter step, which asks upstream again whenever it drops
// an item so the downstream demand contract still holds.
func Filter[T any](src Observable[T], pred func(T) bool) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		var upstream Subscription
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if pred(v) {
					obs.OnNext(v)
				} else if upstream != nil {
					upstream.Request(1)
				}
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}

// Take returns an Observable that forwards at most n items from src and
// then completes, cancelling the upstream subscription.
func Take[T any](src Observable[T], n int) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		if n <= 0 {
			return generate(coord, obs, func() (T, bool, error) {
				var zero T
				return zero, false, nil
			})
		}

		remaining := n
		var upstream Subscription
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if remaining <= 0 {
					return
				}
				remaining--
				obs.OnNext(v)
				if remaining == 0 {
					obs.OnComplete()
					if upstream != nil {
						upstream.Dispose()
					}
				}
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}

// TakeWhile returns an Observable that forwards items of src as long as
// pred holds, completing (and cancelling upstream) at the first item for
// which pred returns false.
func TakeWhile[T any](src Observable[T], pred func(T) bool) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		var upstream Subscription
		done := false
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if done {
					return
				}
				if !pred(v) {
					done = true
					obs.OnComplete()
					if upstream != nil {
						upstream.Dispose()
					}
					return
				}
				obs.OnNext(v)
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}

// Skip returns an Observable that drops the first n items of src and
// forwards the rest.
func Skip[T any](src Observable[T], n int) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		skipped := 0
		var upstream Subscription
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if skipped < n {
					skipped++
					if upstream != nil {
						upstream.Request(1)
					}
					return
				}
				obs.OnNext(v)
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}

// Distinct returns an Observable suppressing consecutive duplicate items
// of src, per Go's comparable constraint (CAF's distinct step compares
// against the immediately preceding item only, not the full history).
func Distinct[T comparable](src Observable[T]) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		var last T
		hasLast := false
		var upstream Subscription
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if hasLast && v == last {
					if upstream != nil {
						upstream.Request(1)
					}
					return
				}
				last = v
				hasLast = true
				obs.OnNext(v)
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}

// IgnoreElements returns an Observable that drops every item of src,
// forwarding only its eventual OnError/OnComplete. Grounded on
// `original_source/libcaf_core/caf/flow/step/ignore_elements.hpp`.
func IgnoreElements[T any](src Observable[T]) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		return src.Subscribe(liftObserver[T](obs, func(T) {}))
	})
}

// Sum returns an Observable that emits the single running sum of every
// item src produces, once src completes.
func Sum[T Numeric](src Observable[T]) Observable[T] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[T]) Disposable {
		var total T
		sub := NewSubscription(coord, func(int) {}, func() {})
		obs.OnSubscribe(sub)
		src.Subscribe(ObserverFunc[T]{
			Subscribe: func(srcSub Subscription) { srcSub.Request(unbounded) },
			Next:      func(v T) { total += v },
			Error:     obs.OnError,
			Complete: func() {
				obs.OnNext(total)
				obs.OnComplete()
			},
		})
		return sub
	})
}

// Numeric constrains the element types Sum accepts.
type Numeric interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// FlatMapOptional returns an Observable that applies fn to every item of
// src and forwards the result only when fn reports a value, dropping
// items for which fn returns (_, false). Grounded on CAF's
// `flat_map_optional` step, which is its idiomatic "map-and-filter-in-one"
// combinator.
func FlatMapOptional[T, U any](src Observable[T], fn func(T) (U, bool)) Observable[U] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[U]) Disposable {
		var upstream Subscription
		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				obs.OnSubscribe(sub)
			},
			Next: func(v T) {
				if mapped, ok := fn(v); ok {
					obs.OnNext(mapped)
				} else if upstream != nil {
					upstream.Request(1)
				}
			},
			Error:    obs.OnError,
			Complete: obs.OnComplete,
		})
	})
}
