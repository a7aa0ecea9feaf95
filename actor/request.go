package actor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// RequestID correlates a request message with its eventual reply (spec
// §4.3: "request/response correlation"). Zero means "not a request".
type RequestID uint64

var nextRequestID atomic.Uint64

// NewRequestID returns a process-wide unique, non-zero RequestID.
func NewRequestID() RequestID {
	return RequestID(nextRequestID.Add(1))
}

// Future is the read side of a pending or completed asynchronous result.
type Future[T any] interface {
	// Await blocks until the result is available or ctx is done,
	// whichever comes first.
	Await(ctx context.Context) fn.Result[T]

	// OnComplete registers a callback to run once the result is
	// available. If the result is already available, cb runs inline.
	OnComplete(ctx context.Context, cb func(fn.Result[T]))

	// ThenApply returns a new Future that resolves to fn(v) once this
	// Future resolves to an Ok value v, or propagates this Future's
	// error unchanged.
	ThenApply(ctx context.Context, apply func(T) T) Future[T]
}

// Promise is the write side of a Future.
type Promise[T any] interface {
	// Future returns the read side bound to this Promise.
	Future() Future[T]

	// Complete resolves the Promise. Returns false if already resolved.
	Complete(r fn.Result[T]) bool
}

// future is the shared state behind both the Future and Promise views of
// one pending result.
type future[T any] struct {
	mu        sync.Mutex
	completed bool
	result    fn.Result[T]
	done      chan struct{}
	callbacks []func(fn.Result[T])
}

// NewPromise creates a fresh, unresolved Promise/Future pair.
func NewPromise[T any]() (Promise[T], Future[T]) {
	f := &future[T]{done: make(chan struct{})}
	return (*promiseHandle[T])(f), f
}

func (f *future[T]) Complete(r fn.Result[T]) bool {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return false
	}
	f.completed = true
	f.result = r
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(r)
	}
	return true
}

func (f *future[T]) Await(ctx context.Context) fn.Result[T] {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result
	case <-ctx.Done():
		return fn.Err[T](ctx.Err())
	}
}

func (f *future[T]) OnComplete(ctx context.Context, cb func(fn.Result[T])) {
	f.mu.Lock()
	if f.completed {
		r := f.result
		f.mu.Unlock()
		cb(r)
		return
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

func (f *future[T]) ThenApply(ctx context.Context, apply func(T) T) Future[T] {
	promise, next := NewPromise[T]()
	f.OnComplete(ctx, func(r fn.Result[T]) {
		v, err := r.Unpack()
		if err != nil {
			promise.Complete(fn.Err[T](err))
			return
		}
		promise.Complete(fn.Ok(apply(v)))
	})
	return next
}

// promiseHandle is *future[T] under a distinct named type so that Promise
// and Future expose different method sets on the same shared state without
// an extra allocation.
type promiseHandle[T any] future[T]

func (p *promiseHandle[T]) Future() Future[T] {
	return (*future[T])(p)
}

func (p *promiseHandle[T]) Complete(r fn.Result[T]) bool {
	return (*future[T])(p).Complete(r)
}

// SelectAny returns a Future that resolves with the first of futures to
// complete, successful or not (spec SPEC_FULL.md §C.1, grounded in CAF's
// select_any policy). Every future still completes independently; SelectAny
// only changes which result the caller waits on first.
func SelectAny[T any](ctx context.Context, futures []Future[T]) Future[T] {
	promise, result := NewPromise[T]()
	var once sync.Once

	for _, f := range futures {
		f.OnComplete(ctx, func(r fn.Result[T]) {
			once.Do(func() {
				promise.Complete(r)
			})
		})
	}

	return result
}

// SelectAll returns a Future that resolves once every future in futures
// has completed, with either the ordered slice of values or the first
// error encountered (spec SPEC_FULL.md §C.1, grounded in CAF's select_all
// policy).
func SelectAll[T any](ctx context.Context, futures []Future[T]) Future[[]T] {
	promise, result := NewPromise[[]T]()

	n := len(futures)
	if n == 0 {
		promise.Complete(fn.Ok([]T{}))
		return result
	}

	var mu sync.Mutex
	results := make([]fn.Result[T], n)
	remaining := n
	resolved := false

	for i, f := range futures {
		i := i
		f.OnComplete(ctx, func(r fn.Result[T]) {
			mu.Lock()
			defer mu.Unlock()
			if resolved {
				return
			}
			results[i] = r
			remaining--
			if remaining > 0 {
				return
			}

			out := make([]T, n)
			for idx, res := range results {
				v, err := res.Unpack()
				if err != nil {
					resolved = true
					promise.Complete(fn.Err[[]T](err))
					return
				}
				out[idx] = v
			}
			resolved = true
			promise.Complete(fn.Ok(out))
		})
	}

	return result
}
