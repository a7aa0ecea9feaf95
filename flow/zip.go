package flow

// zipSource holds the buffered arrivals and subscription handle for one
// input of a zip operator.
type zipSource[T any] struct {
	sub    Subscription
	buf    []T
	done   bool
}

// ZipWith2 combines the nth item of a and the nth item of b via fn,
// emitting one combined item per matched pair; it completes as soon as
// either input completes and its buffer is drained (CAF's "shortest
// input wins" zip_with semantics, grounded on
// `original_source/libcaf_core/test/flow/zip_with.cpp`).
func ZipWith2[A, B, R any](coord *Coordinator, a Observable[A], b Observable[B], fn func(A, B) R) Observable[R] {
	return NewObservable(coord, func(obs Observer[R]) Disposable {
		sa := &zipSource[A]{}
		sb := &zipSource[B]{}
		failed := false
		completed := false

		drain := func() {
			if failed || completed {
				return
			}
			for len(sa.buf) > 0 && len(sb.buf) > 0 {
				av := sa.buf[0]
				sa.buf = sa.buf[1:]
				bv := sb.buf[0]
				sb.buf = sb.buf[1:]
				obs.OnNext(fn(av, bv))
			}
			if !failed && ((sa.done && len(sa.buf) == 0) || (sb.done && len(sb.buf) == 0)) {
				completed = true
				obs.OnComplete()
			}
		}

		fail := func(err error) {
			if failed || completed {
				return
			}
			failed = true
			obs.OnError(err)
		}

		da := a.Subscribe(ObserverFunc[A]{
			Subscribe: func(sub Subscription) { sa.sub = sub; sub.Request(1) },
			Next: func(v A) {
				sa.buf = append(sa.buf, v)
				drain()
				if !sa.done {
					sa.sub.Request(1)
				}
			},
			Error:    fail,
			Complete: func() { sa.done = true; drain() },
		})
		db := b.Subscribe(ObserverFunc[B]{
			Subscribe: func(sub Subscription) { sb.sub = sub; sub.Request(1) },
			Next: func(v B) {
				sb.buf = append(sb.buf, v)
				drain()
				if !sb.done {
					sb.sub.Request(1)
				}
			},
			Error:    fail,
			Complete: func() { sb.done = true; drain() },
		})

		return NewComposite(da, db)
	})
}

// ZipWith3 is ZipWith2 extended to three inputs.
func ZipWith3[A, B, C, R any](coord *Coordinator, a Observable[A], b Observable[B], c Observable[C], fn func(A, B, C) R) Observable[R] {
	type pair struct {
		a A
		b B
	}
	ab := ZipWith2(coord, a, b, func(av A, bv B) pair { return pair{av, bv} })
	return ZipWith2(coord, ab, c, func(p pair, cv C) R { return fn(p.a, p.b, cv) })
}
