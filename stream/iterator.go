package stream

import (
	"context"
)

// Iterator provides pull-based sequential access to a stream of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// SizeKind describes how much is known about a source's size.
type SizeKind int

const (
	SizeUnknown SizeKind = iota
	SizeEstimated
	SizeExact
)

func (k SizeKind) String() string {
	switch k {
	case SizeExact:
		return "exact"
	case SizeEstimated:
		return "estimated"
	default:
		return "unknown"
	}
}

// Traits describes a source.
type Traits struct {
	// Ordered is true when the encounter order is meaningful.
	Ordered bool
	// Infinite is true when the source never reports exhaustion on its own.
	Infinite bool
	// Size is the remaining element count, interpreted according to SizeKind.
	Size     int64
	SizeKind SizeKind
}

// Source is a single-traversal producer of elements.
type Source[T any] interface {
	Iterator[T]
	Traits() Traits
}

// Splitter is implemented by sources that can divide their remaining range.
// TrySplit returns a source covering a prefix of the remaining elements in
// encounter order; the receiver keeps the rest. It returns false when the
// source is too small or cannot be split.
type Splitter[T any] interface {
	TrySplit() (Source[T], bool)
}

// positioner reports the encounter index of the last element produced,
// or -1 when unknown.
type positioner interface {
	Position() int64
}

func positionOf(v any) int64 {
	if p, ok := v.(positioner); ok {
		return p.Position()
	}
	return -1
}

// --- Internal sources ---

// sliceSource walks items[lo:hi]. Positions are indexes into items.
type sliceSource[T any] struct {
	items []T
	lo    int
	hi    int
	pos   int64
}

func newSliceSource[T any](items []T) *sliceSource[T] {
	return &sliceSource[T]{items: items, hi: len(items), pos: -1}
}

func (s *sliceSource[T]) Next(_ context.Context) (T, bool, error) {
	if s.lo >= s.hi {
		var zero T
		return zero, false, nil
	}
	v := s.items[s.lo]
	s.pos = int64(s.lo)
	s.lo++
	return v, true, nil
}

func (s *sliceSource[T]) Close() error { return nil }

func (s *sliceSource[T]) Position() int64 { return s.pos }

func (s *sliceSource[T]) Traits() Traits {
	return Traits{Ordered: true, Size: int64(s.hi - s.lo), SizeKind: SizeExact}
}

func (s *sliceSource[T]) TrySplit() (Source[T], bool) {
	mid := s.lo + (s.hi-s.lo)/2
	if mid <= s.lo {
		return nil, false
	}
	prefix := &sliceSource[T]{items: s.items, lo: s.lo, hi: mid, pos: -1}
	s.lo = mid
	return prefix, true
}

// rangeSource yields the integers in [next, end).
type rangeSource struct {
	start int64
	next  int64
	end   int64
	pos   int64
}

func (s *rangeSource) Next(_ context.Context) (int64, bool, error) {
	if s.next >= s.end {
		return 0, false, nil
	}
	v := s.next
	s.pos = v - s.start
	s.next++
	return v, true, nil
}

func (s *rangeSource) Close() error { return nil }

func (s *rangeSource) Position() int64 { return s.pos }

func (s *rangeSource) Traits() Traits {
	return Traits{Ordered: true, Size: s.end - s.next, SizeKind: SizeExact}
}

func (s *rangeSource) TrySplit() (Source[int64], bool) {
	mid := s.next + (s.end-s.next)/2
	if mid <= s.next {
		return nil, false
	}
	prefix := &rangeSource{start: s.start, next: s.next, end: mid, pos: -1}
	s.next = mid
	return prefix, true
}

// funcSource adapts a pull function. It is never splittable.
type funcSource[T any] struct {
	pull   func(ctx context.Context) (T, bool, error)
	closer func() error
	traits Traits
	pos    int64
	done   bool
}

func (s *funcSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}
	v, ok, err := s.pull(ctx)
	if err != nil || !ok {
		s.done = true
		return zero, false, err
	}
	s.pos++
	return v, true, nil
}

func (s *funcSource[T]) Close() error {
	if s.closer != nil {
		c := s.closer
		s.closer = nil
		return c()
	}
	return nil
}

func (s *funcSource[T]) Position() int64 { return s.pos }

func (s *funcSource[T]) Traits() Traits { return s.traits }

// iterSource wraps a caller-supplied Iterator.
type iterSource[T any] struct {
	Iterator[T]
	ordered bool
	closed  bool
	pos     int64
}

func (s *iterSource[T]) Next(ctx context.Context) (T, bool, error) {
	v, ok, err := s.Iterator.Next(ctx)
	if ok {
		s.pos++
	}
	return v, ok, err
}

func (s *iterSource[T]) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.Iterator.Close()
}

func (s *iterSource[T]) Position() int64 { return s.pos }

func (s *iterSource[T]) Traits() Traits {
	return Traits{Ordered: s.ordered, SizeKind: SizeUnknown}
}

// errIter fails on first pull. Used to defer a build-time error to the run.
type errIter[T any] struct{ err error }

func (it *errIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	return zero, false, it.err
}

func (it *errIter[T]) Close() error { return nil }
