package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/actorflow/clock"
)

func TestBufferGroupsItemsOfSize(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	var got [][]int

	Buffer(FromContainer(coord, []int{1, 2, 4, 8, 16, 32, 64, 128}), 3).
		Subscribe(ObserverFunc[[]int]{Next: func(v []int) { got = append(got, v) }})
	coord.Run()

	require.Equal(t, [][]int{{1, 2, 4}, {8, 16, 32}, {64, 128}}, got)
}

func TestBufferFlushesPartialGroupOnError(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	wantErr := errors.New("boom")
	var got [][]int
	var gotErr error

	Buffer(Concat(coord,
		FromContainer(coord, []int{1, 2, 3}),
		Fail[int](coord, wantErr),
	), 7).Subscribe(ObserverFunc[[]int]{
		Next:  func(v []int) { got = append(got, v) },
		Error: func(err error) { gotErr = err },
	})
	coord.Run()

	require.Equal(t, [][]int{{1, 2, 3}}, got)
	require.Equal(t, wantErr, gotErr)
}

func TestBufferWithPeriodNoSkipEmitsEmptyBatchOnTimeout(t *testing.T) {
	clk := clock.NewLogical()
	coord := NewCoordinator(clk)
	var got [][]int

	pub := NewItemPublisher[int](coord)
	BufferWithPeriod[int](pub, 3, time.Second, false).
		Subscribe(ObserverFunc[[]int]{Next: func(v []int) { got = append(got, v) }})
	coord.Run()

	pub.Push(1)
	pub.Push(2)
	pub.Push(4)
	pub.Push(8)
	pub.Push(16)
	pub.Push(32)
	coord.Run()
	require.Equal(t, [][]int{{1, 2, 4}, {8, 16, 32}}, got)

	clk.Advance(time.Second)
	coord.Run()
	require.Equal(t, [][]int{{1, 2, 4}, {8, 16, 32}, {}}, got)

	pub.Push(64)
	coord.Run()
	clk.Advance(time.Second)
	coord.Run()
	require.Equal(t, [][]int{{1, 2, 4}, {8, 16, 32}, {}, {64}}, got)

	clk.Advance(time.Second)
	coord.Run()
	require.Equal(t, [][]int{{1, 2, 4}, {8, 16, 32}, {}, {64}, {}}, got)

	pub.Push(128)
	pub.Push(256)
	pub.Push(512)
	pub.Close()
	coord.Run()
	require.Equal(t, [][]int{
		{1, 2, 4}, {8, 16, 32}, {}, {64}, {}, {128, 256, 512},
	}, got)
}

func TestBufferWithPeriodSkipEmptySuppressesEmptyBatchOnTimeout(t *testing.T) {
	clk := clock.NewLogical()
	coord := NewCoordinator(clk)
	var got [][]int

	pub := NewItemPublisher[int](coord)
	BufferWithPeriod[int](pub, 3, time.Second, true).
		Subscribe(ObserverFunc[[]int]{Next: func(v []int) { got = append(got, v) }})
	coord.Run()

	clk.Advance(time.Second)
	coord.Run()
	require.Empty(t, got)

	pub.Push(1)
	coord.Run()
	clk.Advance(time.Second)
	coord.Run()
	require.Equal(t, [][]int{{1}}, got)
}

func TestBufferWithPeriodFlushesPartialGroupOnError(t *testing.T) {
	clk := clock.NewLogical()
	coord := NewCoordinator(clk)
	wantErr := errors.New("boom")
	var got [][]int
	var gotErr error

	BufferWithPeriod(Concat(coord,
		FromContainer(coord, []int{1, 2, 3}),
		Fail[int](coord, wantErr),
	), 7, time.Second, true).Subscribe(ObserverFunc[[]int]{
		Next:  func(v []int) { got = append(got, v) },
		Error: func(err error) { gotErr = err },
	})
	coord.Run()

	require.Equal(t, [][]int{{1, 2, 3}}, got)
	require.Equal(t, wantErr, gotErr)
}

func TestBufferPanicsOnNonPositiveSize(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	require.Panics(t, func() { Buffer(Empty[int](coord), 0) })
	require.Panics(t, func() { BufferWithPeriod(Empty[int](coord), 0, time.Second, false) })
}
