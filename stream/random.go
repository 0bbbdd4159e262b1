package stream

import (
	"context"
	"math"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/splitrand"
)

// randomSource draws the value at index i from gen.At(i), so a value depends
// only on its index. Splitting moves index ranges and both modes see the same
// values. gen is never drawn from directly and is shared by split halves.
type randomSource[T any] struct {
	gen      *splitrand.Generator
	draw     func(*splitrand.Generator) T
	scratch  splitrand.Generator
	next     int64
	end      int64
	pos      int64
	infinite bool
}

func (s *randomSource[T]) Next(_ context.Context) (T, bool, error) {
	if s.next >= s.end {
		var zero T
		return zero, false, nil
	}
	s.pos = s.next
	s.next++
	s.scratch = s.gen.At(uint64(s.pos))
	return s.draw(&s.scratch), true, nil
}

func (s *randomSource[T]) Close() error { return nil }

func (s *randomSource[T]) Position() int64 { return s.pos }

func (s *randomSource[T]) Traits() Traits {
	t := Traits{Ordered: true, Infinite: s.infinite, Size: s.end - s.next, SizeKind: SizeExact}
	if s.infinite {
		t.SizeKind = SizeEstimated
	}
	return t
}

func (s *randomSource[T]) TrySplit() (Source[T], bool) {
	mid := s.next + (s.end-s.next)/2
	if mid <= s.next {
		return nil, false
	}
	prefix := &randomSource[T]{
		gen: s.gen, draw: s.draw,
		next: s.next, end: mid, pos: -1,
		infinite: s.infinite,
	}
	s.next = mid
	return prefix, true
}

// newRandom builds a random pipeline of n values. The generator is split
// once here, so calling a constructor twice with the same generator yields
// different values, and gen stays usable by the caller.
func newRandom[T any](name string, gen *splitrand.Generator, n int64, infinite bool, draw func(*splitrand.Generator) T, opts []Option) *Pipeline[T] {
	_, own := gen.Split()
	traits := Traits{Ordered: true, Infinite: infinite, Size: n, SizeKind: SizeExact}
	if infinite {
		traits.SizeKind = SizeEstimated
	}
	return newSource(name, traits,
		func(context.Context) (Source[T], error) {
			return &randomSource[T]{gen: own, draw: draw, end: n, pos: -1, infinite: infinite}, nil
		},
		opts...)
}

func invalidRandom[T any](name string, err error, opts []Option) *Pipeline[T] {
	return failed(Empty[T](opts...), name, err)
}

// Longs yields n uniformly distributed int64 values.
func Longs(gen *splitrand.Generator, n int64, opts ...Option) *Pipeline[int64] {
	if n < 0 {
		return invalidRandom[int64]("longs", errors.InvalidArgument("n", "must not be negative"), opts)
	}
	return newRandom("longs", gen, n, false, (*splitrand.Generator).Int64, opts)
}

// Ints yields n values uniformly distributed in [lo, hi).
func Ints(gen *splitrand.Generator, n int64, lo, hi int, opts ...Option) *Pipeline[int] {
	if n < 0 {
		return invalidRandom[int]("ints", errors.InvalidArgument("n", "must not be negative"), opts)
	}
	if lo >= hi {
		return invalidRandom[int]("ints", errors.InvalidArgument("bounds", "lo must be less than hi"), opts)
	}
	return newRandom("ints", gen, n, false, func(g *splitrand.Generator) int { return g.IntRange(lo, hi) }, opts)
}

// Doubles yields n values uniformly distributed in [0, 1).
func Doubles(gen *splitrand.Generator, n int64, opts ...Option) *Pipeline[float64] {
	if n < 0 {
		return invalidRandom[float64]("doubles", errors.InvalidArgument("n", "must not be negative"), opts)
	}
	return newRandom("doubles", gen, n, false, (*splitrand.Generator).Float64, opts)
}

// DoublesBetween yields n values uniformly distributed in [lo, hi).
func DoublesBetween(gen *splitrand.Generator, n int64, lo, hi float64, opts ...Option) *Pipeline[float64] {
	if n < 0 {
		return invalidRandom[float64]("doubles", errors.InvalidArgument("n", "must not be negative"), opts)
	}
	if !(lo < hi) || math.IsInf(hi-lo, 0) {
		return invalidRandom[float64]("doubles", errors.InvalidArgument("bounds", "need finite lo < hi"), opts)
	}
	return newRandom("doubles", gen, n, false, func(g *splitrand.Generator) float64 { return g.Float64Range(lo, hi) }, opts)
}

// RandomDoubles yields values in [0, 1) without end. It splits like a sized
// source, so a parallel Limit over it still spreads across workers. Each
// branch may draw up to the limit before the finished prefix cancels it, so
// a parallel Limit(n) can draw more than n values; only the first n in index
// order are kept, and they equal the values of a sequential run.
func RandomDoubles(gen *splitrand.Generator, opts ...Option) *Pipeline[float64] {
	return newRandom("random_doubles", gen, math.MaxInt64, true, (*splitrand.Generator).Float64, opts)
}
