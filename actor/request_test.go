package actor

import (
	"context"
	"errors"
	"testing"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/require"
)

func TestSelectAnyResolvesWithFirstCompletion(t *testing.T) {
	ctx := context.Background()

	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()
	p3, f3 := NewPromise[int]()

	combined := SelectAny[int](ctx, []Future[int]{f1, f2, f3})

	p2.Complete(fn.Ok(2))
	p1.Complete(fn.Ok(1))
	p3.Complete(fn.Ok(3))

	v, err := combined.Await(ctx).Unpack()
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestSelectAllWaitsForEveryFuture(t *testing.T) {
	ctx := context.Background()

	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()

	combined := SelectAll[int](ctx, []Future[int]{f1, f2})

	p1.Complete(fn.Ok(1))
	select {
	case <-combined.(*future[[]int]).done:
		t.Fatal("SelectAll resolved before every future completed")
	default:
	}
	p2.Complete(fn.Ok(2))

	v, err := combined.Await(ctx).Unpack()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, v)
}

func TestSelectAllPropagatesFirstError(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	p1, f1 := NewPromise[int]()
	p2, f2 := NewPromise[int]()

	combined := SelectAll[int](ctx, []Future[int]{f1, f2})
	p1.Complete(fn.Err[int](boom))
	p2.Complete(fn.Ok(2))

	_, err := combined.Await(ctx).Unpack()
	require.ErrorIs(t, err, boom)
}

func TestPromiseCompleteIsOneShot(t *testing.T) {
	p, f := NewPromise[string]()
	require.True(t, p.Complete(fn.Ok("first")))
	require.False(t, p.Complete(fn.Ok("second")))

	v, err := f.Await(context.Background()).Unpack()
	require.NoError(t, err)
	require.Equal(t, "first", v)
}
