package actorutil

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/flowkit/actorflow/actor"
)

// poolWorker tracks which pool member handled each message.
type poolWorker struct {
	handled  atomic.Int64
	mu       sync.Mutex
	received []int
}

func (w *poolWorker) behavior() *actor.Behavior {
	return actor.NewBehavior(actor.Case(func(ctx *actor.Context, msg testMessage) {
		w.mu.Lock()
		w.received = append(w.received, msg.value)
		w.mu.Unlock()
		w.handled.Add(1)
		ctx.Reply(msg.value * 2)
	}))
}

func (w *poolWorker) receivedValues() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, len(w.received))
	copy(out, w.received)
	return out
}

func newPool(t *testing.T, id string, size int) (*Pool, []*poolWorker) {
	rt := newTestRuntime(t)
	workers := make([]*poolWorker, size)
	idx := 0
	pool := NewPool(rt, PoolConfig{
		ID:         id,
		Size:       size,
		AskTimeout: time.Second,
		Factory: func(int) *actor.Behavior {
			w := &poolWorker{}
			workers[idx] = w
			idx++
			return w.behavior()
		},
	})
	return pool, workers
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	pool, _ := newPool(t, "test-pool", 3)

	require.Equal(t, 3, pool.Size())
	require.Equal(t, "test-pool", pool.ID())
	require.Len(t, pool.Workers(), 3)
}

func TestPoolAsk(t *testing.T) {
	t.Parallel()

	const size = 3
	const numMessages = 9

	pool, workers := newPool(t, "test-pool-ask", size)

	for i := 0; i < numMessages; i++ {
		result := pool.Ask(testMessage{value: i + 1}).Await(t.Context())
		val, err := result.Unpack()
		require.NoError(t, err)
		require.Equal(t, (i+1)*2, val)
	}

	for i, w := range workers {
		require.EqualValuesf(t, 3, w.handled.Load(), "worker %d", i)
	}
}

func TestPoolTell(t *testing.T) {
	t.Parallel()

	const size = 3
	const numMessages = 6

	pool, workers := newPool(t, "test-pool-tell", size)

	for i := 0; i < numMessages; i++ {
		pool.Tell(testMessage{value: i + 1})
	}

	require.Eventually(t, func() bool {
		var total int64
		for _, w := range workers {
			total += w.handled.Load()
		}
		return total == numMessages
	}, time.Second, 5*time.Millisecond)

	for i, w := range workers {
		require.EqualValuesf(t, 2, w.handled.Load(), "worker %d", i)
	}
}

func TestPoolBroadcast(t *testing.T) {
	t.Parallel()

	const size = 4
	pool, workers := newPool(t, "test-pool-broadcast", size)

	pool.Broadcast(testMessage{value: 42})

	require.Eventually(t, func() bool {
		for _, w := range workers {
			if w.handled.Load() != 1 {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond)

	for i, w := range workers {
		require.Equalf(t, []int{42}, w.receivedValues(), "worker %d", i)
	}
}

func TestPoolBroadcastAsk(t *testing.T) {
	t.Parallel()

	const size = 3
	pool, _ := newPool(t, "test-pool-broadcast-ask", size)

	futures := pool.BroadcastAsk(testMessage{value: 5})
	require.Len(t, futures, size)

	for _, f := range futures {
		result := f.Await(t.Context())
		val, err := result.Unpack()
		require.NoError(t, err)
		require.Equal(t, 10, val)
	}
}

func TestPoolDefaultSize(t *testing.T) {
	t.Parallel()

	pool, _ := newPool(t, "test-pool-default", 0)
	require.Equal(t, 1, pool.Size())
}

func TestPoolStop(t *testing.T) {
	t.Parallel()

	pool, _ := newPool(t, "test-pool-stop", 3)

	for i := 0; i < 5; i++ {
		pool.Tell(testMessage{value: i})
	}

	done := make(chan struct{})
	go func() {
		pool.Stop(actor.ExitUserShutdown)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool.Stop() took too long to return")
	}
}

func TestPoolConcurrentAccess(t *testing.T) {
	t.Parallel()

	const size = 4
	const numGoroutines = 10
	const messagesPerGoroutine = 50

	pool, _ := newPool(t, "test-pool-concurrent", size)

	var wg sync.WaitGroup
	for g := 0; g < numGoroutines; g++ {
		wg.Add(1)
		go func(goroutineID int) {
			defer wg.Done()
			for i := 0; i < messagesPerGoroutine; i++ {
				msg := testMessage{value: goroutineID*1000 + i}
				if i%2 == 0 {
					pool.Tell(msg)
				} else {
					result := pool.Ask(msg).Await(t.Context())
					_, err := result.Unpack()
					require.NoError(t, err)
				}
			}
		}(g)
	}
	wg.Wait()
}
