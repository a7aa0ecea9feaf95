package flow

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/flowkit/actorflow/clock"
)

// TestFlagDisposableMonotoneUnderArbitraryDisposeSequence checks spec §8's
// "disposable monotonicity" property: for any number of Dispose calls on a
// flagDisposable, Disposed() never reports true-then-false, and the
// onDispose callback fires exactly once no matter how many times Dispose is
// called.
func TestFlagDisposableMonotoneUnderArbitraryDisposeSequence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		calls := rapid.IntRange(1, 20).Draw(rt, "calls")

		fired := 0
		d := NewDisposable(func() { fired++ })

		require.False(t, d.Disposed())
		for i := 0; i < calls; i++ {
			d.Dispose()
			require.True(t, d.Disposed(),
				"Disposed() must stay true once Dispose has been called")
		}
		require.Equal(t, 1, fired)
	})
}

// TestCompositeDisposableMonotoneAndDisposesEveryChild checks that a
// compositeDisposable built from an arbitrary number of children is
// monotone the same way, and that every child ends up disposed exactly
// once regardless of how many times the composite itself is disposed.
func TestCompositeDisposableMonotoneAndDisposesEveryChild(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 16).Draw(rt, "n")
		extraDisposes := rapid.IntRange(1, 5).Draw(rt, "extra_disposes")

		childFires := make([]int, n)
		children := make([]Disposable, n)
		for i := range children {
			i := i
			children[i] = NewDisposable(func() { childFires[i]++ })
		}

		c := NewComposite(children...)
		require.False(t, c.Disposed())

		for i := 0; i < extraDisposes; i++ {
			c.Dispose()
			require.True(t, c.Disposed())
		}

		for i, child := range children {
			require.Truef(t, child.Disposed(), "child %d", i)
			require.Equalf(t, 1, childFires[i], "child %d fired more than once", i)
		}
	})
}

// TestCountedDisposableFiresOnlyAfterEveryChildReleased checks spec §8's
// monotonicity property for the reference-counted case, matching scenario
// S6: for an arbitrary number of Acquire calls, the underlying resource
// fires if and only if every one of the returned child Disposables has
// itself been disposed (in arbitrary order), and Disposed() never
// regresses to false once it fires.
func TestCountedDisposableFiresOnlyAfterEveryChildReleased(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		acquires := rapid.IntRange(1, 10).Draw(rt, "acquires")

		fired := false
		underlying := NewDisposable(func() { fired = true })
		cd := NewCountedDisposable(underlying)

		children := make([]Disposable, acquires)
		for i := range children {
			children[i] = cd.Acquire()
		}

		order := shuffledIndices(rt, acquires)
		for i, idx := range order {
			require.False(t, fired, "underlying must not fire before every child releases")
			require.False(t, cd.Disposed())
			children[idx].Dispose()

			wantFired := i == len(order)-1
			require.Equal(t, wantFired, fired)
			require.Equal(t, wantFired, cd.Disposed())
		}

		// Extra Dispose calls past full release are no-ops and never
		// un-fire or re-fire the underlying resource.
		extra := rapid.IntRange(0, 5).Draw(rt, "extra_disposes")
		for i := 0; i < extra; i++ {
			children[order[len(order)-1]].Dispose()
		}
		require.True(t, cd.Disposed())
	})
}

// TestCountedDisposableDisposeNowIsMonotoneRegardlessOfOutstandingCount
// checks that DisposeNow force-fires the underlying resource immediately
// no matter how many references are outstanding, and that the disposed
// state never regresses afterward.
func TestCountedDisposableDisposeNowIsMonotoneRegardlessOfOutstandingCount(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		acquires := rapid.IntRange(0, 10).Draw(rt, "acquires")

		fired := false
		underlying := NewDisposable(func() { fired = true })
		cd := NewCountedDisposable(underlying)
		children := make([]Disposable, acquires)
		for i := range children {
			children[i] = cd.Acquire()
		}

		cd.DisposeNow()
		require.True(t, fired)
		require.True(t, cd.Disposed())

		extra := rapid.IntRange(0, 5).Draw(rt, "extra_ops")
		for i := 0; i < extra; i++ {
			if i%2 == 0 && len(children) > 0 {
				children[i%len(children)].Dispose()
			} else {
				cd.Acquire()
			}
			require.True(t, cd.Disposed())
		}
	})
}

// shuffledIndices draws a Fisher-Yates shuffle of [0, n) from rt so
// property tests can exercise release order independent of acquire order.
func shuffledIndices(rt *rapid.T, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rapid.IntRange(0, i).Draw(rt, "swap_idx")
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// TestGenerateNeverDeliversMoreThanOutstandingDemand checks spec §8's
// "demand-never-exceeded" property against the generate pull engine that
// backs every source operator: for an arbitrary, unbounded source fed an
// arbitrary sequence of Request(n) calls, the number of OnNext deliveries
// after each Request call never exceeds the cumulative demand granted so
// far.
func TestGenerateNeverDeliversMoreThanOutstandingDemand(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		coord := NewCoordinator(clock.NewLogical())

		var sub Subscription
		delivered := 0
		cumulativeDemand := 0

		Iota(coord, 0).Subscribe(ObserverFunc[int]{
			Subscribe: func(s Subscription) { sub = s },
			Next:      func(int) { delivered++ },
		})
		coord.Run()

		rounds := rapid.IntRange(0, 20).Draw(rt, "rounds")
		for i := 0; i < rounds; i++ {
			n := rapid.IntRange(1, 10).Draw(rt, "request_n")
			cumulativeDemand += n
			sub.Request(n)
			coord.Run()

			require.LessOrEqualf(t, delivered, cumulativeDemand,
				"delivered=%d must never exceed cumulative demand=%d", delivered, cumulativeDemand)
		}
	})
}

// TestGenerateStopsExactlyAtDemandOnFiniteSource checks the same property
// against a finite source (Range), where demand can outstrip what the
// source is able to produce: delivered count must still never exceed
// cumulative demand, and must never exceed the source's own size.
func TestGenerateStopsExactlyAtDemandOnFiniteSource(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.IntRange(0, 30).Draw(rt, "size")
		coord := NewCoordinator(clock.NewLogical())

		var sub Subscription
		delivered := 0
		cumulativeDemand := 0

		Range(coord, 0, size).Subscribe(ObserverFunc[int]{
			Subscribe: func(s Subscription) { sub = s },
			Next:      func(int) { delivered++ },
		})
		coord.Run()

		rounds := rapid.IntRange(0, 10).Draw(rt, "rounds")
		for i := 0; i < rounds; i++ {
			n := rapid.IntRange(1, 10).Draw(rt, "request_n")
			cumulativeDemand += n
			sub.Request(n)
			coord.Run()

			require.LessOrEqualf(t, delivered, cumulativeDemand,
				"delivered=%d must never exceed cumulative demand=%d", delivered, cumulativeDemand)
			require.LessOrEqual(t, delivered, size)
		}
	})
}
