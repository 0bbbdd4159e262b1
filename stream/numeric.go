package stream

import (
	"context"
)

// Number is the set of element types the numeric terminals accept.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Sum adds up every value. Floating-point sums of a parallel run may differ
// from a sequential run in the last bits, since the additions are grouped
// differently.
func Sum[T Number](ctx context.Context, p *Pipeline[T]) (T, error) {
	return fold(ctx, p, "sum", T(0),
		func(acc, v T) T { return acc + v },
		func(a, b T) T { return a + b },
	)
}

// Average returns the arithmetic mean. ok is false for an empty pipeline.
func Average[T Number](ctx context.Context, p *Pipeline[T]) (avg float64, ok bool, err error) {
	s, err := summarize(ctx, p, "average")
	if err != nil || s.Count == 0 {
		return 0, false, err
	}
	return s.Average(), true, nil
}

// Summary holds count, sum, min and max of a numeric pipeline.
type Summary[T Number] struct {
	Count int64 `json:"count" yaml:"count"`
	Sum   T     `json:"sum" yaml:"sum"`
	Min   T     `json:"min" yaml:"min"`
	Max   T     `json:"max" yaml:"max"`
}

// Average returns Sum/Count, or 0 when Count is 0.
func (s Summary[T]) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

func (s Summary[T]) add(v T) Summary[T] {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
	return s
}

func (s Summary[T]) merge(o Summary[T]) Summary[T] {
	switch {
	case o.Count == 0:
		return s
	case s.Count == 0:
		return o
	}
	s.Count += o.Count
	s.Sum += o.Sum
	s.Min = min(s.Min, o.Min)
	s.Max = max(s.Max, o.Max)
	return s
}

// Summarize computes count, sum, min and max in a single pass.
func Summarize[T Number](ctx context.Context, p *Pipeline[T]) (Summary[T], error) {
	return summarize(ctx, p, "summarize")
}

func summarize[T Number](ctx context.Context, p *Pipeline[T], op string) (Summary[T], error) {
	return fold(ctx, p, op, Summary[T]{}, Summary[T].add, Summary[T].merge)
}
