package stream

import (
	"context"

	"github.com/kbukum/streamkit/errors"
)

// Filter keeps only values that satisfy the predicate.
func (p *Pipeline[T]) Filter(fn func(T) bool) *Pipeline[T] {
	return stateless(p, "filter", func(x *run, up Iterator[T]) Iterator[T] {
		return &filterIter[T]{source: up, fn: fn, x: x}
	})
}

// Peek calls fn for each value as it passes, without altering it.
// In parallel mode fn is called from several goroutines.
func (p *Pipeline[T]) Peek(fn func(T)) *Pipeline[T] {
	return stateless(p, "peek", func(_ *run, up Iterator[T]) Iterator[T] {
		return &peekIter[T]{source: up, fn: fn}
	})
}

// Map transforms each value using fn. An error from fn aborts the run.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return stateless(p, "map", func(x *run, up Iterator[I]) Iterator[O] {
		return &mapIter[I, O]{source: up, fn: fn, x: x}
	})
}

// FlatMap transforms each value into zero or more values and flattens them
// in order.
func FlatMap[I, O any](p *Pipeline[I], fn func(context.Context, I) ([]O, error)) *Pipeline[O] {
	return stateless(p, "flatmap", func(x *run, up Iterator[I]) Iterator[O] {
		return &flatMapIter[I, O]{source: up, fn: fn, x: x}
	})
}

// failed is a pipeline whose run fails with err before pulling anything.
func failed[T any](p *Pipeline[T], stage string, err error) *Pipeline[T] {
	return derive(p, stage,
		func(_ *run, _ chunk) Iterator[T] { return &errIter[T]{err: err} },
		func(_ context.Context, _ *run, _ chunk) ([]Iterator[T], error) { return nil, err },
	)
}

// Limit truncates the pipeline to at most n values. It is what makes an
// infinite source finite, and in parallel mode it buffers the first n
// values before the following stages are split again.
func (p *Pipeline[T]) Limit(n int64) *Pipeline[T] {
	if n < 0 {
		return failed(p, "limit", errors.InvalidArgument("limit", "must not be negative"))
	}
	ordered := p.ordered
	q := derive(p, "limit",
		func(x *run, c chunk) Iterator[T] {
			return &limitIter[T]{source: p.build(x, c), n: n, x: x}
		},
		func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
			ups, err := p.leaves(ctx, x, c)
			if err != nil {
				return nil, err
			}
			var items []T
			if ordered || len(ups) == 1 {
				items, err = limitOrdered(ctx, x, ups, n)
			} else {
				items, err = limitUnordered(ctx, x, ups, n)
			}
			if err != nil {
				return nil, err
			}
			return splitItems(x, items), nil
		},
	)
	q.infinite = false
	return q
}

// Skip discards the first n values.
func (p *Pipeline[T]) Skip(n int64) *Pipeline[T] {
	if n < 0 {
		return failed(p, "skip", errors.InvalidArgument("skip", "must not be negative"))
	}
	return derive(p, "skip",
		func(x *run, c chunk) Iterator[T] {
			return &skipIter[T]{source: p.build(x, c), n: n}
		},
		func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
			ups, err := p.leaves(ctx, x, c)
			if err != nil {
				return nil, err
			}
			if len(ups) == 1 {
				return []Iterator[T]{&skipIter[T]{source: ups[0], n: n}}, nil
			}
			parts, err := collectLeaves(ctx, x, ups, StateBuffering)
			if err != nil {
				return nil, err
			}
			items := concat(parts)
			if int64(len(items)) <= n {
				items = nil
			} else {
				items = items[n:]
			}
			return splitItems(x, items), nil
		},
	)
}

// Sorted orders the pipeline by cmp with a stable sort, so values comparing
// equal keep their encounter order. It emits nothing until the whole
// upstream has been consumed, so the upstream must be finite.
func (p *Pipeline[T]) Sorted(cmp func(a, b T) int) *Pipeline[T] {
	if cmp == nil {
		return failed(p, "sorted", errors.InvalidArgument("sorted", "comparator is required"))
	}
	if p.infinite {
		return failed(p, "sorted", errors.InvalidArgument("sorted", "upstream is infinite; add Limit first"))
	}
	q := derive(p, "sorted",
		func(x *run, c chunk) Iterator[T] {
			return &sortIter[T]{source: p.build(x, c), cmp: cmp, x: x}
		},
		func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
			ups, err := p.leaves(ctx, x, c)
			if err != nil {
				return nil, err
			}
			items, err := sortLeaves(ctx, x, ups, cmp)
			if err != nil {
				return nil, err
			}
			return splitItems(x, items), nil
		},
	)
	q.ordered = true
	q.sorted = true
	return q
}

// Distinct drops values equal to one already emitted; the first occurrence
// in encounter order is kept.
func Distinct[T comparable](p *Pipeline[T]) *Pipeline[T] {
	return DistinctBy(p, func(v T) T { return v })
}

// DistinctBy drops values whose key equals the key of a value already emitted.
func DistinctBy[T any, K comparable](p *Pipeline[T], key func(T) K) *Pipeline[T] {
	return derive(p, "distinct",
		func(x *run, c chunk) Iterator[T] {
			return &distinctIter[T, K]{source: p.build(x, c), key: key, seen: make(map[K]struct{})}
		},
		func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
			ups, err := p.leaves(ctx, x, c)
			if err != nil {
				return nil, err
			}
			if len(ups) == 1 {
				return []Iterator[T]{&distinctIter[T, K]{source: ups[0], key: key, seen: make(map[K]struct{})}}, nil
			}
			items, err := distinctLeaves(ctx, x, ups, key)
			if err != nil {
				return nil, err
			}
			return splitItems(x, items), nil
		},
	)
}

// --- Iterator implementations ---

type filterIter[T any] struct {
	source Iterator[T]
	fn     func(T) bool
	x      *run
}

func (it *filterIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		it.x.enter(StateFiltering)
		if it.fn(val) {
			return val, true, nil
		}
	}
}

func (it *filterIter[T]) Close() error { return it.source.Close() }

func (it *filterIter[T]) Position() int64 { return positionOf(it.source) }

type peekIter[T any] struct {
	source Iterator[T]
	fn     func(T)
}

func (it *peekIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, ok, err
	}
	it.fn(val)
	return val, true, nil
}

func (it *peekIter[T]) Close() error { return it.source.Close() }

func (it *peekIter[T]) Position() int64 { return positionOf(it.source) }

type mapIter[I, O any] struct {
	source Iterator[I]
	fn     func(context.Context, I) (O, error)
	x      *run
}

func (it *mapIter[I, O]) Next(ctx context.Context) (result O, ok bool, err error) {
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		var zero O
		return zero, false, err
	}
	it.x.enter(StateMapping)
	out, err := it.fn(ctx, val)
	if err != nil {
		var zero O
		return zero, false, errors.ElementProcessing("map", positionOf(it.source), err)
	}
	return out, true, nil
}

func (it *mapIter[I, O]) Close() error { return it.source.Close() }

func (it *mapIter[I, O]) Position() int64 { return positionOf(it.source) }

type flatMapIter[I, O any] struct {
	source  Iterator[I]
	fn      func(context.Context, I) ([]O, error)
	x       *run
	pending []O
}

func (it *flatMapIter[I, O]) Next(ctx context.Context) (result O, ok bool, err error) {
	for len(it.pending) == 0 {
		in, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			var zero O
			return zero, false, err
		}
		it.x.enter(StateMapping)
		out, err := it.fn(ctx, in)
		if err != nil {
			var zero O
			return zero, false, errors.ElementProcessing("flatmap", positionOf(it.source), err)
		}
		it.pending = out
	}
	val := it.pending[0]
	it.pending = it.pending[1:]
	return val, true, nil
}

func (it *flatMapIter[I, O]) Close() error { return it.source.Close() }

type limitIter[T any] struct {
	source Iterator[T]
	n      int64
	count  int64
	x      *run
}

func (it *limitIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	if it.count >= it.n {
		// stop pulling upstream; the limit is what ended the run
		it.x.short.Store(true)
		var zero T
		return zero, false, nil
	}
	val, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return val, false, err
	}
	it.count++
	return val, true, nil
}

func (it *limitIter[T]) Close() error { return it.source.Close() }

func (it *limitIter[T]) Position() int64 { return positionOf(it.source) }

type skipIter[T any] struct {
	source  Iterator[T]
	n       int64
	skipped bool
}

func (it *skipIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	if !it.skipped {
		it.skipped = true
		for range it.n {
			if _, ok, err := it.source.Next(ctx); err != nil || !ok {
				var zero T
				return zero, false, err
			}
		}
	}
	return it.source.Next(ctx)
}

func (it *skipIter[T]) Close() error { return it.source.Close() }

func (it *skipIter[T]) Position() int64 { return positionOf(it.source) }

type sortIter[T any] struct {
	source Iterator[T]
	cmp    func(a, b T) int
	x      *run
	buf    []T
	pos    int
	loaded bool
}

func (it *sortIter[T]) Next(ctx context.Context) (result T, ok bool, err error) {
	if !it.loaded {
		it.loaded = true
		err := drain(ctx, it.x, it.source, StateBuffering, nil, func(v T) (bool, error) {
			it.buf = append(it.buf, v)
			return true, nil
		})
		if err != nil {
			var zero T
			return zero, false, err
		}
		stableSort(it.buf, it.cmp)
	}
	if it.pos >= len(it.buf) {
		var zero T
		return zero, false, nil
	}
	v := it.buf[it.pos]
	it.pos++
	return v, true, nil
}

func (it *sortIter[T]) Close() error { return it.source.Close() }

func (it *sortIter[T]) Position() int64 { return int64(it.pos) - 1 }

type distinctIter[T any, K comparable] struct {
	source Iterator[T]
	key    func(T) K
	seen   map[K]struct{}
}

func (it *distinctIter[T, K]) Next(ctx context.Context) (result T, ok bool, err error) {
	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			return val, false, err
		}
		k := it.key(val)
		if _, dup := it.seen[k]; dup {
			continue
		}
		it.seen[k] = struct{}{}
		return val, true, nil
	}
}

func (it *distinctIter[T, K]) Close() error { return it.source.Close() }

func (it *distinctIter[T, K]) Position() int64 { return positionOf(it.source) }
