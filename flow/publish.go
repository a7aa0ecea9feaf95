package flow

import "sync"

// Connectable is an Observable that buffers subscribers until Connect is
// called, at which point it subscribes to its upstream exactly once and
// fans out every item to every Observer registered so far (and any
// registered afterwards), regardless of each one's own demand — downstream
// Observers on a Connectable are expected to request unbounded demand,
// matching CAF's `publish` operator (`original_source/libcaf_core/test/flow/publish.cpp`),
// which multicasts without per-subscriber backpressure.
type Connectable[T any] interface {
	Observable[T]
	// Connect subscribes to the underlying source, starting the shared
	// broadcast. Calling Connect more than once is a no-op; it always
	// returns the same Disposable.
	Connect() Disposable
}

type connectable[T any] struct {
	coord       *Coordinator
	upstream    Observable[T]
	mu          sync.Mutex
	observers   []Observer[T]
	connected   bool
	connectDisp Disposable
	terminal    func(Observer[T])
}

// Publish wraps src so that every Subscribe call merely registers an
// Observer; nothing is pulled from src until Connect is called.
func Publish[T any](src Observable[T]) Connectable[T] {
	return &connectable[T]{coord: src.Coordinator(), upstream: src}
}

func (c *connectable[T]) Coordinator() *Coordinator { return c.coord }

func (c *connectable[T]) Subscribe(obs Observer[T]) Disposable {
	c.mu.Lock()
	if c.terminal != nil {
		term := c.terminal
		c.mu.Unlock()
		sub := NewSubscription(c.coord, func(int) {}, func() {})
		obs.OnSubscribe(sub)
		term(obs)
		return sub
	}
	c.observers = append(c.observers, obs)
	idx := len(c.observers) - 1
	c.mu.Unlock()

	sub := NewSubscription(c.coord, func(int) {}, func() {
		c.mu.Lock()
		if idx < len(c.observers) {
			c.observers[idx] = nil
		}
		c.mu.Unlock()
	})
	obs.OnSubscribe(sub)
	return sub
}

func (c *connectable[T]) Connect() Disposable {
	c.mu.Lock()
	if c.connected {
		d := c.connectDisp
		c.mu.Unlock()
		return d
	}
	c.connected = true
	c.mu.Unlock()

	d := c.upstream.Subscribe(ObserverFunc[T]{
		Subscribe: func(sub Subscription) { sub.Request(unbounded) },
		Next: func(v T) {
			c.mu.Lock()
			observers := append([]Observer[T](nil), c.observers...)
			c.mu.Unlock()
			for _, o := range observers {
				if o != nil {
					o.OnNext(v)
				}
			}
		},
		Error: func(err error) {
			c.broadcastTerminal(func(o Observer[T]) { o.OnError(err) })
		},
		Complete: func() {
			c.broadcastTerminal(func(o Observer[T]) { o.OnComplete() })
		},
	})

	c.mu.Lock()
	c.connectDisp = d
	c.mu.Unlock()
	return d
}

func (c *connectable[T]) broadcastTerminal(fire func(Observer[T])) {
	c.mu.Lock()
	observers := append([]Observer[T](nil), c.observers...)
	c.observers = nil
	c.terminal = fire
	c.mu.Unlock()
	for _, o := range observers {
		if o != nil {
			fire(o)
		}
	}
}

// AutoConnect returns an Observable that transparently subscribes new
// Observers to conn and automatically calls Connect once threshold
// Observers have subscribed (threshold <= 0 connects on the very first
// subscriber). Grounded on CAF's `auto_connect`, which exists precisely so
// callers don't have to manage Connect timing by hand.
func AutoConnect[T any](conn Connectable[T], threshold int) Observable[T] {
	var mu sync.Mutex
	count := 0
	return NewObservable(conn.Coordinator(), func(obs Observer[T]) Disposable {
		d := conn.Subscribe(obs)
		mu.Lock()
		count++
		shouldConnect := count == threshold || threshold <= 0
		mu.Unlock()
		if shouldConnect {
			conn.Connect()
		}
		return d
	})
}

// Share multicasts src to every subscriber, connecting automatically on
// the first subscription and staying connected for the life of the
// Connectable — the common "hot observable" combinator, equivalent to
// AutoConnect(Publish(src), 1).
func Share[T any](src Observable[T]) Observable[T] {
	return AutoConnect(Publish(src), 1)
}

// ItemPublisher is a manually-driven multicast source (CAF's
// `item_publisher`, `original_source/libcaf_core/caf/flow/item_publisher.hpp`):
// call Push to hand items to every current subscriber, and Close/Fail to
// terminate the stream. Useful for bridging push-based producers (e.g. a
// callback API) into the flow world without writing a custom Observable.
type ItemPublisher[T any] struct {
	coord     *Coordinator
	mu        sync.Mutex
	observers []Observer[T]
	done      bool
	err       error
}

// NewItemPublisher constructs an ItemPublisher hosted on coord.
func NewItemPublisher[T any](coord *Coordinator) *ItemPublisher[T] {
	return &ItemPublisher[T]{coord: coord}
}

func (p *ItemPublisher[T]) Coordinator() *Coordinator { return p.coord }

func (p *ItemPublisher[T]) Subscribe(obs Observer[T]) Disposable {
	p.mu.Lock()
	if p.done {
		err := p.err
		p.mu.Unlock()
		sub := NewSubscription(p.coord, func(int) {}, func() {})
		obs.OnSubscribe(sub)
		if err != nil {
			obs.OnError(err)
		} else {
			obs.OnComplete()
		}
		return sub
	}
	p.observers = append(p.observers, obs)
	idx := len(p.observers) - 1
	p.mu.Unlock()

	sub := NewSubscription(p.coord, func(int) {}, func() {
		p.mu.Lock()
		if idx < len(p.observers) {
			p.observers[idx] = nil
		}
		p.mu.Unlock()
	})
	obs.OnSubscribe(sub)
	return sub
}

// Push hands v to every currently-subscribed Observer. A no-op after
// Close or Fail.
func (p *ItemPublisher[T]) Push(v T) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	observers := append([]Observer[T](nil), p.observers...)
	p.mu.Unlock()
	for _, o := range observers {
		if o != nil {
			o.OnNext(v)
		}
	}
}

// Close terminates the stream normally for every current and future
// subscriber.
func (p *ItemPublisher[T]) Close() {
	p.terminate(nil)
}

// Fail terminates the stream with err for every current and future
// subscriber.
func (p *ItemPublisher[T]) Fail(err error) {
	p.terminate(err)
}

func (p *ItemPublisher[T]) terminate(err error) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.err = err
	observers := p.observers
	p.observers = nil
	p.mu.Unlock()

	for _, o := range observers {
		if o == nil {
			continue
		}
		if err != nil {
			o.OnError(err)
		} else {
			o.OnComplete()
		}
	}
}
