package actorutil

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"

	"github.com/flowkit/actorflow/actor"
	"github.com/flowkit/actorflow/runtime"
)

// testMessage is the payload every helper test asks or tells with.
type testMessage struct {
	value int
}

// testWorker is a small harness around a doubling Behavior: it replies
// with value*2, optionally after a delay, optionally with a forced error.
type testWorker struct {
	delay    time.Duration
	err      error
	received atomic.Int64
}

func (w *testWorker) behavior() *actor.Behavior {
	return actor.NewBehavior(actor.Case(func(ctx *actor.Context, msg testMessage) {
		w.received.Add(1)
		if w.delay > 0 {
			time.Sleep(w.delay)
		}
		if w.err != nil {
			ctx.Reply(w.err)
			return
		}
		ctx.Reply(msg.value * 2)
	}))
}

func newTestRuntime(t *testing.T) *runtime.Runtime {
	rt := runtime.New(runtime.WithSchedulerPolicy(runtime.PolicyProduction))
	rt.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})
	return rt
}

func TestAskAwait(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	w := &testWorker{}
	target := rt.Spawn(w.behavior(), actor.SpawnOptions{})
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	result, err := AskAwait(
		context.Background(), sender, target.ID(), testMessage{value: 21}, time.Second,
	)
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.EqualValues(t, 1, w.received.Load())
}

func TestAskAwaitError(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	testErr := errors.New("test error")
	w := &testWorker{err: testErr}
	target := rt.Spawn(w.behavior(), actor.SpawnOptions{})
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	_, err := AskAwait(
		context.Background(), sender, target.ID(), testMessage{value: 10}, time.Second,
	)
	require.ErrorIs(t, err, testErr)
}

func TestAskAwaitContextCancelled(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	w := &testWorker{delay: 100 * time.Millisecond}
	target := rt.Spawn(w.behavior(), actor.SpawnOptions{})
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := AskAwait(ctx, sender, target.ID(), testMessage{value: 10}, 0)
	require.Error(t, err)
}

func TestAskAwaitTyped(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	w := &testWorker{}
	target := rt.Spawn(w.behavior(), actor.SpawnOptions{})
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	result, err := AskAwaitTyped[int](
		context.Background(), sender, target.ID(), testMessage{value: 5}, time.Second,
	)
	require.NoError(t, err)
	require.Equal(t, 10, result)
}

func TestAskAwaitTypedWrongType(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	w := &testWorker{}
	target := rt.Spawn(w.behavior(), actor.SpawnOptions{})
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	_, err := AskAwaitTyped[string](
		context.Background(), sender, target.ID(), testMessage{value: 5}, time.Second,
	)
	require.Error(t, err)
}

func TestTellAll(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	const numWorkers = 3
	workers := make([]*testWorker, numWorkers)
	targets := make([]actor.ActorID, numWorkers)
	for i := range workers {
		workers[i] = &testWorker{}
		targets[i] = rt.Spawn(workers[i].behavior(), actor.SpawnOptions{}).ID()
	}
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	TellAll(sender, targets, testMessage{value: 100})

	require.Eventually(t, func() bool {
		for _, w := range workers {
			if w.received.Load() != 1 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)
}

func TestParallelAsk(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	const numWorkers = 3
	targets := make([]actor.ActorID, numWorkers)
	payloads := make([]any, numWorkers)
	for i := 0; i < numWorkers; i++ {
		targets[i] = rt.Spawn((&testWorker{}).behavior(), actor.SpawnOptions{}).ID()
		payloads[i] = testMessage{value: (i + 1) * 10}
	}
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	results := ParallelAsk(context.Background(), sender, targets, payloads, time.Second)
	require.Len(t, results, numWorkers)

	for i, r := range results {
		val, err := r.Unpack()
		require.NoError(t, err)
		require.Equal(t, (i+1)*10*2, val)
	}
}

func TestParallelAskPanicsOnLengthMismatch(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})
	target := rt.Spawn((&testWorker{}).behavior(), actor.SpawnOptions{})

	require.Panics(t, func() {
		ParallelAsk(
			context.Background(), sender,
			[]actor.ActorID{target.ID()},
			[]any{testMessage{value: 1}, testMessage{value: 2}},
			time.Second,
		)
	})
}

func TestParallelAskSame(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	const numWorkers = 3
	targets := make([]actor.ActorID, numWorkers)
	for i := range targets {
		targets[i] = rt.Spawn((&testWorker{}).behavior(), actor.SpawnOptions{}).ID()
	}
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	results := ParallelAskSame(
		context.Background(), sender, targets, testMessage{value: 50}, time.Second,
	)
	require.Len(t, results, numWorkers)

	for _, r := range results {
		val, err := r.Unpack()
		require.NoError(t, err)
		require.Equal(t, 100, val)
	}
}

func TestFirstSuccess(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	failErr := errors.New("intentional failure")

	w1 := &testWorker{err: failErr, delay: 20 * time.Millisecond}
	w2 := &testWorker{err: failErr, delay: 20 * time.Millisecond}
	w3 := &testWorker{delay: 5 * time.Millisecond}

	targets := []actor.ActorID{
		rt.Spawn(w1.behavior(), actor.SpawnOptions{}).ID(),
		rt.Spawn(w2.behavior(), actor.SpawnOptions{}).ID(),
		rt.Spawn(w3.behavior(), actor.SpawnOptions{}).ID(),
	}
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	result, err := FirstSuccess(
		context.Background(), sender, targets, testMessage{value: 25}, time.Second,
	)
	require.NoError(t, err)
	require.Equal(t, 50, result)
}

func TestFirstSuccessAllFail(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	failErr := errors.New("intentional failure")

	targets := []actor.ActorID{
		rt.Spawn((&testWorker{err: failErr}).behavior(), actor.SpawnOptions{}).ID(),
		rt.Spawn((&testWorker{err: failErr}).behavior(), actor.SpawnOptions{}).ID(),
	}
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	_, err := FirstSuccess(
		context.Background(), sender, targets, testMessage{value: 10}, time.Second,
	)
	require.Error(t, err)
}

func TestFirstSuccessNoActors(t *testing.T) {
	t.Parallel()

	rt := newTestRuntime(t)
	sender := rt.Spawn(actor.NewBehavior(), actor.SpawnOptions{})

	_, err := FirstSuccess(
		context.Background(), sender, nil, testMessage{value: 10}, time.Second,
	)
	require.Error(t, err)
}

func TestMapResponses(t *testing.T) {
	t.Parallel()

	testErr := errors.New("test error")
	results := []fn.Result[int]{fn.Ok(10), fn.Err[int](testErr), fn.Ok(20)}

	mapped := MapResponses(results, func(v int) int { return v * 2 })
	require.Len(t, mapped, 3)

	v0, err := mapped[0].Unpack()
	require.NoError(t, err)
	require.Equal(t, 20, v0)

	_, err = mapped[1].Unpack()
	require.ErrorIs(t, err, testErr)

	v2, err := mapped[2].Unpack()
	require.NoError(t, err)
	require.Equal(t, 40, v2)
}

func TestCollectSuccesses(t *testing.T) {
	t.Parallel()

	testErr := errors.New("test error")
	results := []fn.Result[int]{
		fn.Ok(10), fn.Err[int](testErr), fn.Ok(20), fn.Err[int](testErr), fn.Ok(30),
	}

	require.Equal(t, []int{10, 20, 30}, CollectSuccesses(results))
}

func TestAllSucceeded(t *testing.T) {
	t.Parallel()

	testErr := errors.New("test error")

	require.True(t, AllSucceeded([]fn.Result[int]{fn.Ok(1), fn.Ok(2)}))
	require.False(t, AllSucceeded([]fn.Result[int]{fn.Ok(1), fn.Err[int](testErr)}))
	require.True(t, AllSucceeded([]fn.Result[int]{}))
}

func TestFirstError(t *testing.T) {
	t.Parallel()

	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	require.NoError(t, FirstError([]fn.Result[int]{fn.Ok(1), fn.Ok(2)}))
	require.ErrorIs(t, FirstError([]fn.Result[int]{fn.Err[int](err1), fn.Ok(2)}), err1)
	require.ErrorIs(t, FirstError([]fn.Result[int]{fn.Ok(1), fn.Err[int](err2)}), err2)
	require.NoError(t, FirstError([]fn.Result[int]{}))
}
