package flow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/actorflow/clock"
)

func TestAsyncBufferTryOpenProducerIsSingleUse(t *testing.T) {
	buf := NewAsyncBuffer[int](4, 1)
	_, ok := buf.TryOpenProducer()
	require.True(t, ok)

	_, ok = buf.TryOpenProducer()
	require.False(t, ok)
}

func TestAsyncBufferTryOpenConsumerIsSingleUse(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	buf := NewAsyncBuffer[int](4, 1)

	_, ok := buf.TryOpenConsumer(coord)
	require.True(t, ok)

	_, ok = buf.TryOpenConsumer(coord)
	require.False(t, ok)
}

func TestAsyncBufferDeliversPushedItemsToConsumer(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	buf := NewAsyncBuffer[int](4, 1)

	producer, _ := buf.TryOpenProducer()
	consumer, _ := buf.TryOpenConsumer(coord)

	var got []int
	consumer.Subscribe(ObserverFunc[int]{Next: func(v int) { got = append(got, v) }})

	require.True(t, producer.TryPush(1))
	require.True(t, producer.TryPush(2))
	coord.Run()

	require.Equal(t, []int{1, 2}, got)
}

func TestAsyncBufferTryPushFailsWhenFull(t *testing.T) {
	buf := NewAsyncBuffer[int](2, 1)
	producer, _ := buf.TryOpenProducer()

	require.True(t, producer.TryPush(1))
	require.True(t, producer.TryPush(2))
	require.False(t, producer.TryPush(3))
}

func TestAsyncBufferCloseCompletesConsumerAfterDraining(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	buf := NewAsyncBuffer[int](4, 1)

	producer, _ := buf.TryOpenProducer()
	consumer, _ := buf.TryOpenConsumer(coord)

	var got []int
	completed := false
	consumer.Subscribe(ObserverFunc[int]{
		Next:     func(v int) { got = append(got, v) },
		Complete: func() { completed = true },
	})

	producer.TryPush(1)
	producer.Close()
	coord.Run()

	require.Equal(t, []int{1}, got)
	require.True(t, completed)
}

func TestFromResourceFailsIfConsumerAlreadyOpened(t *testing.T) {
	coord := NewCoordinator(clock.NewLogical())
	buf := NewAsyncBuffer[int](4, 1)
	buf.TryOpenConsumer(coord)

	gotErr := false
	FromResource[int](coord, buf).Subscribe(ObserverFunc[int]{
		Error: func(err error) { gotErr = true },
	})
	coord.Run()

	require.True(t, gotErr)
}
