package flow

import "math"

// unbounded is the demand an Observer requests when it does not want to
// manage backpressure itself — effectively "send me everything you have."
const unbounded = math.MaxInt

// Observer consumes the items an Observable produces (spec §4.6). OnNext is
// never called again after OnError or OnComplete. OnSubscribe always fires
// first, handing the Observer the Subscription it must call Request on to
// receive any items at all — an Observer that never calls Request receives
// nothing, by design (pull-based backpressure, grounded on
// `original_source/libcaf_core/caf/flow/observable.hpp`'s
// subscribe/on_request/on_cancel contract).
type Observer[T any] interface {
	OnSubscribe(sub Subscription)
	OnNext(item T)
	OnError(err error)
	OnComplete()
}

// ObserverFunc adapts up to four plain functions into an Observer. A nil
// Subscribe callback defaults to requesting unbounded demand immediately,
// which is what most leaf consumers (ForEach, test collectors) want; a nil
// Next/Error/Complete is simply skipped.
type ObserverFunc[T any] struct {
	Subscribe func(Subscription)
	Next      func(T)
	Error     func(error)
	Complete  func()
}

func (o ObserverFunc[T]) OnSubscribe(sub Subscription) {
	if o.Subscribe != nil {
		o.Subscribe(sub)
		return
	}
	sub.Request(unbounded)
}

func (o ObserverFunc[T]) OnNext(item T) {
	if o.Next != nil {
		o.Next(item)
	}
}

func (o ObserverFunc[T]) OnError(err error) {
	if o.Error != nil {
		o.Error(err)
	}
}

func (o ObserverFunc[T]) OnComplete() {
	if o.Complete != nil {
		o.Complete()
	}
}

// Observable is a potentially-unbounded, backpressured sequence of T values
// hosted on a single Coordinator (spec §4.6). All of its operators run as
// actions on that Coordinator, so an Observable and everything derived from
// it are safe to use without any additional locking as long as every
// subscriber belongs to the same Coordinator.
type Observable[T any] interface {
	// Subscribe attaches obs to the stream and returns a Disposable that
	// cancels the subscription early. OnSubscribe fires obs synchronously
	// from inside this call in most operators, but always no later than
	// the next time the Coordinator is driven.
	Subscribe(obs Observer[T]) Disposable

	// Coordinator returns the Coordinator this Observable (and any
	// Observer that subscribes to it) is serialized through.
	Coordinator() *Coordinator
}

type observableImpl[T any] struct {
	coord     *Coordinator
	subscribe func(Observer[T]) Disposable
}

// NewObservable constructs an Observable from a raw subscribe function.
// Operator and generation constructors in this package all funnel through
// this; it is exported so application code can define custom sources the
// same way generation.go does.
func NewObservable[T any](coord *Coordinator, subscribe func(Observer[T]) Disposable) Observable[T] {
	return &observableImpl[T]{coord: coord, subscribe: subscribe}
}

func (o *observableImpl[T]) Subscribe(obs Observer[T]) Disposable {
	return o.subscribe(obs)
}

func (o *observableImpl[T]) Coordinator() *Coordinator {
	return o.coord
}

// SubscribeFunc is a convenience wrapper that builds an ObserverFunc from
// plain callbacks and subscribes it to src, auto-requesting unbounded
// demand.
func SubscribeFunc[T any](src Observable[T], next func(T), onError func(error), onComplete func()) Disposable {
	return src.Subscribe(ObserverFunc[T]{Next: next, Error: onError, Complete: onComplete})
}

// ForEach blocking-consumes every item from src and returns the terminal
// error, if any (nil on normal completion). It subscribes on src's own
// Coordinator and does not drive it, so that Coordinator must be driven
// from another goroutine (e.g. a ScopedCoordinator); otherwise ForEach
// blocks forever. Intended for top-level, non-actor code;
// code running on a scheduler worker should subscribe directly on a
// Coordinator from runtime.NewCoordinator instead of blocking the worker.
func ForEach[T any](src Observable[T], next func(T)) error {
	done := make(chan error, 1)
	src.Subscribe(ObserverFunc[T]{
		Next: next,
		Error: func(err error) {
			select {
			case done <- err:
			default:
			}
		},
		Complete: func() {
			select {
			case done <- nil:
			default:
			}
		},
	})
	return <-done
}
