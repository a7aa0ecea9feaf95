package flow

import "sync"

// Disposable is a handle to a cancellable resource: a subscription, a
// timer, a Coordinator-hosted action (spec §4.5). Dispose is idempotent
// and Disposed is monotone — once true it never reports false again —
// mirroring `original_source/libcaf_core/caf/disposable.hpp`'s
// `impl`/`dispose()`/`disposed() const` contract.
type Disposable interface {
	// Dispose releases the underlying resource. Safe to call more than
	// once; only the first call has any effect.
	Dispose()

	// Disposed reports whether Dispose has been called.
	Disposed() bool
}

// flagDisposable is the simplest Disposable: a boolean flag plus an
// optional on-dispose callback, guarded by a mutex so Dispose is safe to
// call concurrently with Disposed.
type flagDisposable struct {
	mu       sync.Mutex
	disposed bool
	onDispose func()
}

// NewDisposable returns a Disposable whose Dispose call runs onDispose
// exactly once. onDispose may be nil.
func NewDisposable(onDispose func()) Disposable {
	return &flagDisposable{onDispose: onDispose}
}

func (d *flagDisposable) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	cb := d.onDispose
	d.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (d *flagDisposable) Disposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

// compositeDisposable disposes every child when disposed itself, matching
// `disposable::make_composite`.
type compositeDisposable struct {
	mu       sync.Mutex
	disposed bool
	children []Disposable
}

// NewComposite returns a Disposable that, when disposed, disposes every
// element of children in order. Disposing the composite after a child was
// already independently disposed is harmless (Dispose is idempotent per
// child too).
func NewComposite(children ...Disposable) Disposable {
	return &compositeDisposable{children: children}
}

func (c *compositeDisposable) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	children := c.children
	c.children = nil
	c.mu.Unlock()

	for _, child := range children {
		child.Dispose()
	}
}

func (c *compositeDisposable) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// countedDisposable disposes its underlying resource once every reference
// acquired via Acquire has itself been disposed, or immediately if
// DisposeNow forces it regardless of outstanding references — grounded on
// `original_source/libcaf_core/caf/detail/counted_disposable.cpp`'s
// acquire()-returns-a-nested-disposable contract (spec §4.5, property 9,
// scenario S6: acquire three children, dispose two -> not yet disposed;
// dispose the third -> disposed).
type countedDisposable struct {
	mu         sync.Mutex
	count      int
	disposed   bool
	underlying Disposable
}

// NewCountedDisposable wraps underlying with zero outstanding references.
// underlying only fires once every Acquire call has been matched by a
// Dispose on the Disposable it returns, or when DisposeNow forces it.
func NewCountedDisposable(underlying Disposable) *countedDisposable {
	return &countedDisposable{underlying: underlying}
}

// Acquire adds one outstanding reference and returns a child Disposable
// tied to it: disposing the child releases that reference, and once every
// acquired child has been released, underlying fires. Acquiring after
// underlying has already fired returns an already-disposed no-op child.
func (c *countedDisposable) Acquire() Disposable {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		child := NewDisposable(nil)
		child.Dispose()
		return child
	}
	c.count++
	c.mu.Unlock()

	return NewDisposable(c.release)
}

func (c *countedDisposable) release() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.count--
	fire := c.count <= 0
	if fire {
		c.disposed = true
	}
	c.mu.Unlock()

	if fire {
		c.underlying.Dispose()
	}
}

// Dispose force-disposes the underlying resource immediately, the same as
// DisposeNow, regardless of how many references are still outstanding.
func (c *countedDisposable) Dispose() {
	c.DisposeNow()
}

// DisposeNow force-disposes the underlying resource immediately,
// regardless of how many references are still outstanding. Later
// Acquire/release calls become no-ops.
func (c *countedDisposable) DisposeNow() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()
	c.underlying.Dispose()
}

func (c *countedDisposable) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}
