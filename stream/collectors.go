package stream

import (
	"context"
	"fmt"
	"strings"
)

// Collector describes a mutable reduction. Each parallel branch gets its own
// container from Supplier; containers are merged in encounter order with
// Combiner and Finisher turns the merged container into the result.
type Collector[T, A, R any] struct {
	Supplier    func() A
	Accumulator func(A, T) A
	Combiner    func(A, A) A
	Finisher    func(A) R
}

// CollectWith runs p and reduces it with c.
func CollectWith[T, A, R any](ctx context.Context, p *Pipeline[T], c Collector[T, A, R]) (R, error) {
	collectOne := func(ctx context.Context, x *run, it Iterator[T]) (A, error) {
		acc := c.Supplier()
		err := drain(ctx, x, it, StateEmitting, nil, func(v T) (bool, error) {
			acc = c.Accumulator(acc, v)
			return true, nil
		})
		return acc, err
	}
	return execute(ctx, p, "collect", true,
		func(ctx context.Context, x *run, it Iterator[T]) (R, error) {
			acc, err := collectOne(ctx, x, it)
			if err != nil {
				var zero R
				return zero, err
			}
			return c.Finisher(acc), nil
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) (R, error) {
			partials := make([]A, len(leaves))
			err := runLeaves(ctx, x, leaves, func(ctx context.Context, i int, it Iterator[T]) error {
				var err error
				partials[i], err = collectOne(ctx, x, it)
				return err
			})
			if err != nil {
				var zero R
				return zero, err
			}
			acc := partials[0]
			for _, a := range partials[1:] {
				acc = c.Combiner(acc, a)
			}
			return c.Finisher(acc), nil
		},
	)
}

func identity[A any](a A) A { return a }

// ToSlice collects values into a slice in encounter order.
func ToSlice[T any]() Collector[T, []T, []T] {
	return Collector[T, []T, []T]{
		Supplier:    func() []T { return nil },
		Accumulator: func(acc []T, v T) []T { return append(acc, v) },
		Combiner:    func(a, b []T) []T { return append(a, b...) },
		Finisher:    identity[[]T],
	}
}

// ToSet collects the distinct values.
func ToSet[T comparable]() Collector[T, map[T]struct{}, map[T]struct{}] {
	return Collector[T, map[T]struct{}, map[T]struct{}]{
		Supplier: func() map[T]struct{} { return make(map[T]struct{}) },
		Accumulator: func(acc map[T]struct{}, v T) map[T]struct{} {
			acc[v] = struct{}{}
			return acc
		},
		Combiner: func(a, b map[T]struct{}) map[T]struct{} {
			for k := range b {
				a[k] = struct{}{}
			}
			return a
		},
		Finisher: identity[map[T]struct{}],
	}
}

// ToMap collects values into a map. When two values share a key, merge
// decides the stored value; a nil merge keeps the later one.
func ToMap[T any, K comparable, V any](key func(T) K, value func(T) V, merge func(V, V) V) Collector[T, map[K]V, map[K]V] {
	put := func(m map[K]V, k K, v V) {
		if old, ok := m[k]; ok && merge != nil {
			v = merge(old, v)
		}
		m[k] = v
	}
	return Collector[T, map[K]V, map[K]V]{
		Supplier: func() map[K]V { return make(map[K]V) },
		Accumulator: func(acc map[K]V, v T) map[K]V {
			put(acc, key(v), value(v))
			return acc
		},
		Combiner: func(a, b map[K]V) map[K]V {
			for k, v := range b {
				put(a, k, v)
			}
			return a
		},
		Finisher: identity[map[K]V],
	}
}

// GroupingBy groups values by key. Each group keeps encounter order.
func GroupingBy[T any, K comparable](key func(T) K) Collector[T, map[K][]T, map[K][]T] {
	return Collector[T, map[K][]T, map[K][]T]{
		Supplier: func() map[K][]T { return make(map[K][]T) },
		Accumulator: func(acc map[K][]T, v T) map[K][]T {
			k := key(v)
			acc[k] = append(acc[k], v)
			return acc
		},
		Combiner: func(a, b map[K][]T) map[K][]T {
			for k, vs := range b {
				a[k] = append(a[k], vs...)
			}
			return a
		},
		Finisher: identity[map[K][]T],
	}
}

// Partitioning splits values into those that match pred (true) and those
// that don't (false).
func Partitioning[T any](pred func(T) bool) Collector[T, map[bool][]T, map[bool][]T] {
	c := GroupingBy(pred)
	c.Finisher = func(m map[bool][]T) map[bool][]T {
		if _, ok := m[true]; !ok {
			m[true] = nil
		}
		if _, ok := m[false]; !ok {
			m[false] = nil
		}
		return m
	}
	return c
}

// Counting counts values.
func Counting[T any]() Collector[T, int64, int64] {
	return Collector[T, int64, int64]{
		Supplier:    func() int64 { return 0 },
		Accumulator: func(n int64, _ T) int64 { return n + 1 },
		Combiner:    func(a, b int64) int64 { return a + b },
		Finisher:    identity[int64],
	}
}

// Joining formats every value with %v and joins them with sep.
func Joining[T any](sep string) Collector[T, []string, string] {
	return Collector[T, []string, string]{
		Supplier: func() []string { return nil },
		Accumulator: func(acc []string, v T) []string {
			return append(acc, fmt.Sprint(v))
		},
		Combiner: func(a, b []string) []string { return append(a, b...) },
		Finisher: func(parts []string) string { return strings.Join(parts, sep) },
	}
}
