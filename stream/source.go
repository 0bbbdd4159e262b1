package stream

import (
	"context"
	"math"

	"github.com/kbukum/streamkit/errors"
)

// FromSlice creates an ordered, sized pipeline over items. The slice is
// read during the run, not copied.
func FromSlice[T any](items []T, opts ...Option) *Pipeline[T] {
	return newSource("slice", Traits{Ordered: true, Size: int64(len(items)), SizeKind: SizeExact},
		func(context.Context) (Source[T], error) { return newSliceSource(items), nil },
		opts...)
}

// Of creates a pipeline over the given values.
func Of[T any](values ...T) *Pipeline[T] {
	return FromSlice(values)
}

// Empty creates a pipeline with no values.
func Empty[T any](opts ...Option) *Pipeline[T] {
	return FromSlice[T](nil, opts...)
}

// Range yields start, start+1, ..., end-1.
func Range(start, end int64, opts ...Option) *Pipeline[int64] {
	if end < start {
		end = start
	}
	return newSource("range", Traits{Ordered: true, Size: end - start, SizeKind: SizeExact},
		func(context.Context) (Source[int64], error) {
			return &rangeSource{start: start, next: start, end: end, pos: -1}, nil
		},
		opts...)
}

// RangeClosed yields start, start+1, ..., end.
func RangeClosed(start, end int64, opts ...Option) *Pipeline[int64] {
	if end == math.MaxInt64 {
		p := Range(start, start, opts...)
		return failed(p, "range", errors.InvalidArgument("end", "must be below math.MaxInt64"))
	}
	return Range(start, end+1, opts...)
}

// Generate creates an infinite, unordered pipeline of fn's results. It needs
// Limit before any terminal that visits every value.
func Generate[T any](fn func() T, opts ...Option) *Pipeline[T] {
	return newSource("generate", Traits{Infinite: true},
		func(context.Context) (Source[T], error) {
			return &funcSource[T]{
				pull:   func(context.Context) (T, bool, error) { return fn(), true, nil },
				traits: Traits{Infinite: true},
				pos:    -1,
			}, nil
		},
		opts...)
}

// Iterate creates the infinite ordered pipeline seed, next(seed),
// next(next(seed)), ...
func Iterate[T any](seed T, next func(T) T, opts ...Option) *Pipeline[T] {
	p := IterateWhile(seed, func(T) bool { return true }, next, opts...)
	p.infinite = true
	p.plan = "iterate"
	p.origin.name = "iterate"
	return p
}

// IterateWhile is like Iterate but stops before the first value for which
// hasNext reports false.
func IterateWhile[T any](seed T, hasNext func(T) bool, next func(T) T, opts ...Option) *Pipeline[T] {
	return newSource("iterate", Traits{Ordered: true},
		func(context.Context) (Source[T], error) {
			cur, started := seed, false
			return &funcSource[T]{
				pull: func(context.Context) (T, bool, error) {
					if started {
						cur = next(cur)
					}
					started = true
					if !hasNext(cur) {
						var zero T
						return zero, false, nil
					}
					return cur, true, nil
				},
				traits: Traits{Ordered: true},
				pos:    -1,
			}, nil
		},
		opts...)
}

// FromIterator creates an ordered pipeline that pulls from it. The pipeline
// takes ownership and closes it when the run ends.
func FromIterator[T any](it Iterator[T], opts ...Option) *Pipeline[T] {
	return newSource("iterator", Traits{Ordered: true},
		func(context.Context) (Source[T], error) { return &iterSource[T]{Iterator: it, ordered: true, pos: -1}, nil },
		opts...)
}

// FromSource creates a pipeline over a custom Source. Sources that also
// implement Splitter are split in parallel mode.
func FromSource[T any](name string, src Source[T], opts ...Option) *Pipeline[T] {
	return newSource(name, src.Traits(),
		func(context.Context) (Source[T], error) { return src, nil },
		opts...)
}

// Concat yields every value of a followed by every value of b. It consumes
// both pipelines; the execution mode and options of a apply.
func Concat[T any](a, b *Pipeline[T]) *Pipeline[T] {
	o := &origin{
		name: "concat",
		open: func(ctx context.Context, x *run) (chunk, error) {
			if !a.origin.claim() || !b.origin.claim() {
				return nil, errors.SourceConsumed()
			}
			ca, err := a.origin.open(ctx, x)
			if err != nil {
				return nil, err
			}
			cb, err := b.origin.open(ctx, x)
			if err != nil {
				_ = ca.close()
				return nil, err
			}
			return &concatChunk{a: ca, b: cb}, nil
		},
	}
	return &Pipeline[T]{
		origin:   o,
		opts:     a.opts,
		parallel: a.parallel,
		workers:  a.workers,
		ordered:  a.ordered && b.ordered,
		infinite: a.infinite || b.infinite,
		plan:     "concat(" + a.plan + "," + b.plan + ")",
		build: func(x *run, c chunk) Iterator[T] {
			cc := c.(*concatChunk)
			return &concatIter[T]{first: a.build(x, cc.a), second: b.build(x, cc.b)}
		},
		leaves: func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
			cc := c.(*concatChunk)
			first, err := a.leaves(ctx, x, cc.a)
			if err != nil {
				return nil, err
			}
			second, err := b.leaves(ctx, x, cc.b)
			if err != nil {
				_ = closeAll(first)
				return nil, err
			}
			return append(first, second...), nil
		},
	}
}

// concatChunk pairs the roots of two origins. It is split through the
// leaves of each side, never as a whole.
type concatChunk struct{ a, b chunk }

func (c *concatChunk) split() (chunk, bool) { return nil, false }

func (c *concatChunk) size() (int64, SizeKind) { return 0, SizeUnknown }

func (c *concatChunk) close() error {
	err := c.a.close()
	if berr := c.b.close(); err == nil {
		err = berr
	}
	return err
}

type concatIter[T any] struct {
	first, second Iterator[T]
	onSecond      bool
	offset        int64
}

func (it *concatIter[T]) Next(ctx context.Context) (T, bool, error) {
	if !it.onSecond {
		v, ok, err := it.first.Next(ctx)
		if err != nil || ok {
			if ok {
				it.offset++
			}
			return v, ok, err
		}
		it.onSecond = true
	}
	return it.second.Next(ctx)
}

func (it *concatIter[T]) Close() error {
	err := it.first.Close()
	if serr := it.second.Close(); err == nil {
		err = serr
	}
	return err
}

func (it *concatIter[T]) Position() int64 {
	if !it.onSecond {
		return positionOf(it.first)
	}
	pos := positionOf(it.second)
	if pos < 0 {
		return -1
	}
	return it.offset + pos
}
