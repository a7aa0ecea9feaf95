package flow

import (
	"sync"
)

// AsyncBuffer is a bounded single-producer/single-consumer queue bridging
// two Coordinators (grounded on CAF's `async::spsc_buffer`): a producer on one actor/Coordinator pushes items
// and a consumer on another pulls them through an Observable, with
// capacity bounding how far the producer can run ahead of the consumer.
// minRequestSize batches the "space freed up" notification back to the
// producer so a slow consumer draining one item at a time doesn't wake the
// producer's Coordinator on every single pop.
type AsyncBuffer[T any] struct {
	mu             sync.Mutex
	capacity       int
	minRequestSize int

	queue  []T
	closed bool
	err    error

	producerOpened bool
	consumerOpened bool

	freedSinceNotify int
	onSpaceAvailable func()

	demand        int
	consumerObs   Observer[T]
	consumerCoord *Coordinator
}

// NewAsyncBuffer constructs an AsyncBuffer with the given capacity
// (maximum buffered-but-not-yet-delivered items) and minRequestSize (how
// many freed slots accumulate before the producer is woken again). Both
// must be positive.
func NewAsyncBuffer[T any](capacity, minRequestSize int) *AsyncBuffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	if minRequestSize <= 0 {
		minRequestSize = 1
	}
	return &AsyncBuffer[T]{capacity: capacity, minRequestSize: minRequestSize}
}

// BufferProducer is the producer-side handle to an AsyncBuffer, obtained
// exactly once via TryOpenProducer.
type BufferProducer[T any] struct {
	buf *AsyncBuffer[T]
}

// TryPush enqueues v if the buffer has room, returning false (without
// error) if it is currently full — the caller should retry after
// SetSpaceAvailable's callback fires, or simply on its own next Resume.
func (p BufferProducer[T]) TryPush(v T) bool {
	b := p.buf
	b.mu.Lock()
	if b.closed || len(b.queue) >= b.capacity {
		b.mu.Unlock()
		return false
	}
	b.queue = append(b.queue, v)
	coord := b.consumerCoord
	b.mu.Unlock()

	// Delivery always runs as an action on the consumer's own Coordinator,
	// never inline here — TryPush may be called from an entirely different
	// actor/goroutine than the one the consumer Observer belongs to.
	if coord != nil {
		coord.ScheduleAction(b.drain)
	}
	return true
}

// Close marks the buffer as producer-complete: the consumer observes
// OnComplete once every already-queued item has been delivered.
func (p BufferProducer[T]) Close() {
	p.buf.terminate(nil)
}

// Fail marks the buffer as failed: the consumer still receives every
// already-queued item (as its demand allows) and observes OnError(err) once
// the queue is empty.
func (p BufferProducer[T]) Fail(err error) {
	p.buf.terminate(err)
}

// SetSpaceAvailable registers cb to run once at least minRequestSize slots
// have freed up since the last notification (or immediately, if the
// buffer is already below that threshold when this is called).
func (p BufferProducer[T]) SetSpaceAvailable(cb func()) {
	b := p.buf
	b.mu.Lock()
	b.onSpaceAvailable = cb
	belowThreshold := b.capacity-len(b.queue) >= b.minRequestSize
	b.mu.Unlock()
	if belowThreshold && cb != nil {
		cb()
	}
}

// TryOpenProducer returns the producer handle the first time it is
// called, and (zero value, false) on every call after that — an
// AsyncBuffer has exactly one producer.
func (b *AsyncBuffer[T]) TryOpenProducer() (BufferProducer[T], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.producerOpened {
		return BufferProducer[T]{}, false
	}
	b.producerOpened = true
	return BufferProducer[T]{buf: b}, true
}

// TryOpenConsumer returns an Observable hosted on coord that pulls items
// out of the buffer the first time it is called, and (nil, false) on
// every call after that — an AsyncBuffer has exactly one consumer.
func (b *AsyncBuffer[T]) TryOpenConsumer(coord *Coordinator) (Observable[T], bool) {
	b.mu.Lock()
	if b.consumerOpened {
		b.mu.Unlock()
		return nil, false
	}
	b.consumerOpened = true
	b.consumerCoord = coord
	b.mu.Unlock()

	return NewObservable(coord, func(obs Observer[T]) Disposable {
		b.mu.Lock()
		b.consumerObs = obs
		b.mu.Unlock()

		sub := NewSubscription(coord, func(n int) {
			b.mu.Lock()
			b.demand += n
			b.mu.Unlock()
			b.drain()
		}, func() {
			b.mu.Lock()
			b.consumerObs = nil
			b.mu.Unlock()
		})
		obs.OnSubscribe(sub)
		return sub
	}), true
}

func (b *AsyncBuffer[T]) drain() {
	for {
		b.mu.Lock()
		if b.demand <= 0 || len(b.queue) == 0 || b.consumerObs == nil {
			done := b.closed && len(b.queue) == 0 && b.consumerObs != nil
			err := b.err
			obs := b.consumerObs
			if done {
				b.consumerObs = nil
			}
			b.mu.Unlock()
			if done {
				if err != nil {
					obs.OnError(err)
				} else {
					obs.OnComplete()
				}
			}
			return
		}
		v := b.queue[0]
		b.queue = b.queue[1:]
		b.demand--
		obs := b.consumerObs
		b.freedSinceNotify++
		var wake func()
		if b.freedSinceNotify >= b.minRequestSize && b.onSpaceAvailable != nil {
			wake = b.onSpaceAvailable
			b.freedSinceNotify = 0
		}
		b.mu.Unlock()

		obs.OnNext(v)
		if wake != nil {
			wake()
		}
	}
}

func (b *AsyncBuffer[T]) terminate(err error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.err = err
	b.mu.Unlock()
	b.drain()
}

// FromResource adapts an AsyncBuffer's consumer side into an Observable,
// failing closed (returning a Fail observable) if the buffer's consumer
// side was already opened elsewhere. Grounded on
// `original_source/libcaf_core/caf/flow/observable_builder.hpp`'s
// `from_resource`, which bridges an `async::consumer_resource` the same
// way.
func FromResource[T any](coord *Coordinator, buf *AsyncBuffer[T]) Observable[T] {
	obs, ok := buf.TryOpenConsumer(coord)
	if !ok {
		return Fail[T](coord, ErrResourceAlreadyOpened)
	}
	return obs
}
