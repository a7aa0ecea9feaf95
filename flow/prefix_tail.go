package flow

// PrefixAndTail splits src into its first n items (the prefix) and an
// Observable of everything after them (the tail): it emits exactly one
// item — the prefix plus the tail Observable — and then completes.
// Subscribing the tail replays any items that arrived before the tail had
// a subscriber, since the source keeps running the moment PrefixAndTail
// itself subscribes to it. Grounded on
// `original_source/libcaf_core/test/flow/prefix_and_tail.cpp`.
type PrefixAndTailItem[T any] struct {
	Prefix []T
	Tail   Observable[T]
}

func PrefixAndTail[T any](src Observable[T], n int) Observable[PrefixAndTailItem[T]] {
	coord := src.Coordinator()
	return NewObservable(coord, func(obs Observer[PrefixAndTailItem[T]]) Disposable {
		prefix := make([]T, 0, n)
		tail := newTailBridge[T](coord)
		delivered := false
		var upstream Subscription

		return src.Subscribe(ObserverFunc[T]{
			Subscribe: func(sub Subscription) {
				upstream = sub
				if n > 0 {
					sub.Request(n)
				} else {
					sub.Request(unbounded)
				}
			},
			Next: func(v T) {
				if !delivered {
					if len(prefix) < n {
						prefix = append(prefix, v)
						if len(prefix) == n {
							delivered = true
							upstream.Request(unbounded)
							obs.OnNext(PrefixAndTailItem[T]{Prefix: prefix, Tail: tail})
							obs.OnComplete()
						}
						return
					}
				}
				tail.push(v)
			},
			Error: func(err error) {
				if !delivered {
					obs.OnError(err)
					return
				}
				tail.fail(err)
			},
			Complete: func() {
				if !delivered {
					// Fewer than n items arrived before src completed: the
					// outer observable completes without emitting, per
					// spec §4.8 (prefix_and_tail.cpp: empty/just(1) with
					// prefix_and_tail(2) only deliver on_complete).
					delivered = true
					obs.OnComplete()
					return
				}
				tail.complete()
			},
		})
	})
}

// HeadAndTailItem is PrefixAndTailItem specialized to a single-item head.
type HeadAndTailItem[T any] struct {
	Head T
	Tail Observable[T]
}

// HeadAndTail splits src into its first item and an Observable of the
// rest, completing src entirely if it never produces even one item.
func HeadAndTail[T any](src Observable[T]) Observable[HeadAndTailItem[T]] {
	return Map(PrefixAndTail(src, 1), func(item PrefixAndTailItem[T]) HeadAndTailItem[T] {
		var head T
		if len(item.Prefix) > 0 {
			head = item.Prefix[0]
		}
		return HeadAndTailItem[T]{Head: head, Tail: item.Tail}
	})
}

// tailBridge buffers items pushed before it has a subscriber and forwards
// them, then relays live thereafter; a single-subscriber bridge used
// internally by PrefixAndTail.
type tailBridge[T any] struct {
	coord      *Coordinator
	buf        []T
	err        error
	completed  bool
	subscribed bool
	obs        Observer[T]
}

func newTailBridge[T any](coord *Coordinator) *tailBridge[T] {
	return &tailBridge[T]{coord: coord}
}

func (t *tailBridge[T]) Coordinator() *Coordinator { return t.coord }

func (t *tailBridge[T]) Subscribe(obs Observer[T]) Disposable {
	t.obs = obs
	t.subscribed = true
	sub := NewSubscription(t.coord, func(int) {}, func() {})
	obs.OnSubscribe(sub)
	for _, v := range t.buf {
		obs.OnNext(v)
	}
	t.buf = nil
	if t.err != nil {
		obs.OnError(t.err)
	} else if t.completed {
		obs.OnComplete()
	}
	return sub
}

func (t *tailBridge[T]) push(v T) {
	if t.subscribed {
		t.obs.OnNext(v)
		return
	}
	t.buf = append(t.buf, v)
}

func (t *tailBridge[T]) fail(err error) {
	if t.subscribed {
		t.obs.OnError(err)
		return
	}
	t.err = err
}

func (t *tailBridge[T]) complete() {
	if t.subscribed {
		t.obs.OnComplete()
		return
	}
	t.completed = true
}
