// Package actorutil provides convenience wrappers over the actor package's
// Ask/Tell primitives: blocking request/response, typed response
// unwrapping, fan-out broadcast, and combinators over the resulting
// fn.Result slices. The actor package addresses actors by ActorID and
// replies with Future[any], so every helper here threads a sending
// *actor.Actor through instead of relying on a typed ref.
package actorutil

import (
	"context"
	"fmt"
	"time"

	"github.com/flowkit/actorflow/actor"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// AskAwait sends payload from sender to target and blocks until the reply
// arrives, ctx is done, or timeout elapses (timeout <= 0 means no timeout).
// It unpacks the Future's Result and returns the response or error
// directly.
func AskAwait(
	ctx context.Context, sender *actor.Actor, target actor.ActorID,
	payload any, timeout time.Duration,
) (any, error) {

	future := sender.Ask(target, payload, timeout)
	result := future.Await(ctx)
	return result.Unpack()
}

// AskAwaitTyped is like AskAwait but with an additional type assertion on
// the response. Useful when the actor's reply is a union type and the
// caller needs one specific concrete type out of it.
func AskAwaitTyped[T any](
	ctx context.Context, sender *actor.Actor, target actor.ActorID,
	payload any, timeout time.Duration,
) (T, error) {

	resp, err := AskAwait(ctx, sender, target, payload, timeout)
	if err != nil {
		var zero T
		return zero, err
	}

	typed, ok := resp.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf(
			"unexpected response type: got %T, want %T", resp, zero,
		)
	}

	return typed, nil
}

// TellAll sends payload to every target using fire-and-forget semantics,
// attributed to sender.
func TellAll(sender *actor.Actor, targets []actor.ActorID, payload any) {
	for _, target := range targets {
		sender.Tell(target, payload)
	}
}

// ParallelAsk sends payloads[i] to targets[i] for every index concurrently
// and collects all results in the same order. targets and payloads must
// have the same length.
func ParallelAsk(
	ctx context.Context, sender *actor.Actor, targets []actor.ActorID,
	payloads []any, timeout time.Duration,
) []fn.Result[any] {

	if len(targets) != len(payloads) {
		panic("targets and payloads must have same length")
	}

	futures := make([]actor.Future[any], len(targets))
	for i, target := range targets {
		futures[i] = sender.Ask(target, payloads[i], timeout)
	}

	results := make([]fn.Result[any], len(futures))
	for i, f := range futures {
		results[i] = f.Await(ctx)
	}

	return results
}

// ParallelAskSame sends the same payload to every target concurrently and
// collects all results in the same order as targets.
func ParallelAskSame(
	ctx context.Context, sender *actor.Actor, targets []actor.ActorID,
	payload any, timeout time.Duration,
) []fn.Result[any] {

	futures := make([]actor.Future[any], len(targets))
	for i, target := range targets {
		futures[i] = sender.Ask(target, payload, timeout)
	}

	results := make([]fn.Result[any], len(futures))
	for i, f := range futures {
		results[i] = f.Await(ctx)
	}

	return results
}

// FirstSuccess sends the same payload to every target concurrently and
// returns the first successful response. If every target errors out, the
// last error observed is returned.
func FirstSuccess(
	ctx context.Context, sender *actor.Actor, targets []actor.ActorID,
	payload any, timeout time.Duration,
) (any, error) {

	if len(targets) == 0 {
		return nil, fmt.Errorf("no actors provided")
	}

	type resultWithIndex struct {
		result fn.Result[any]
		idx    int
	}
	resultCh := make(chan resultWithIndex, len(targets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for i, target := range targets {
		go func(idx int, tgt actor.ActorID) {
			future := sender.Ask(tgt, payload, timeout)
			result := future.Await(ctx)
			select {
			case resultCh <- resultWithIndex{result: result, idx: idx}:
			case <-ctx.Done():
			}
		}(i, target)
	}

	var lastErr error
	received := 0
	for received < len(targets) {
		select {
		case res := <-resultCh:
			received++
			val, err := res.result.Unpack()
			if err == nil {
				cancel()
				return val, nil
			}
			lastErr = err

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// MapResponses transforms a slice of results using the provided function.
// Error results pass through unchanged.
func MapResponses[R any, T any](
	results []fn.Result[R], mapFn func(R) T,
) []fn.Result[T] {

	mapped := make([]fn.Result[T], len(results))
	for i, r := range results {
		val, err := r.Unpack()
		if err != nil {
			mapped[i] = fn.Err[T](err)
		} else {
			mapped[i] = fn.Ok(mapFn(val))
		}
	}
	return mapped
}

// CollectSuccesses filters a slice of results and returns only the
// successful values, discarding any errors.
func CollectSuccesses[R any](results []fn.Result[R]) []R {
	var successes []R
	for _, r := range results {
		val, err := r.Unpack()
		if err == nil {
			successes = append(successes, val)
		}
	}
	return successes
}

// AllSucceeded returns true if every result in results is successful.
func AllSucceeded[R any](results []fn.Result[R]) bool {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return false
		}
	}
	return true
}

// FirstError returns the first error found in results, or nil if every
// result succeeded.
func FirstError[R any](results []fn.Result[R]) error {
	for _, r := range results {
		if _, err := r.Unpack(); err != nil {
			return err
		}
	}
	return nil
}
