package stream

import (
	"context"
	"math"
	"slices"
	"sync"
	"sync/atomic"
)

// limitOrdered keeps the first n values in encounter order. With several
// leaves, each leaf stops at n on its own, and once the finished prefix of
// leaves already holds n values every later leaf is cancelled.
func limitOrdered[T any](ctx context.Context, x *run, ups []Iterator[T], n int64) ([]T, error) {
	if n == 0 {
		x.short.Store(true)
		return nil, closeAll(ups)
	}
	if len(ups) == 1 {
		var items []T
		lim := &limitIter[T]{source: ups[0], n: n, x: x}
		err := runLeaves(ctx, x, []Iterator[T]{lim}, func(ctx context.Context, _ int, it Iterator[T]) error {
			return drain(ctx, x, it, StateBuffering, nil, func(v T) (bool, error) {
				items = append(items, v)
				return true, nil
			})
		})
		return items, err
	}

	parts := make([][]T, len(ups))
	done := make([]bool, len(ups))
	var mu sync.Mutex
	var cut atomic.Int64
	cut.Store(math.MaxInt64)

	err := runLeaves(ctx, x, ups, func(ctx context.Context, i int, it Iterator[T]) error {
		err := drain(ctx, x, it, StateBuffering,
			func() bool { return int64(i) > cut.Load() },
			func(v T) (bool, error) {
				parts[i] = append(parts[i], v)
				return int64(len(parts[i])) < n, nil
			})
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		done[i] = true
		var total int64
		for k := 0; k < len(done) && done[k]; k++ {
			total += int64(len(parts[k]))
			if total >= n {
				if int64(k) < cut.Load() {
					cut.Store(int64(k))
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return truncate(concat(parts), n), nil
}

// limitUnordered keeps whichever n values the leaves produce first.
func limitUnordered[T any](ctx context.Context, x *run, ups []Iterator[T], n int64) ([]T, error) {
	if n == 0 {
		x.short.Store(true)
		return nil, closeAll(ups)
	}
	parts := make([][]T, len(ups))
	var taken atomic.Int64
	err := runLeaves(ctx, x, ups, func(ctx context.Context, i int, it Iterator[T]) error {
		return drain(ctx, x, it, StateBuffering,
			func() bool { return taken.Load() >= n },
			func(v T) (bool, error) {
				if taken.Add(1) > n {
					return false, nil
				}
				parts[i] = append(parts[i], v)
				return true, nil
			})
	})
	if err != nil {
		return nil, err
	}
	return truncate(concat(parts), n), nil
}

func truncate[T any](items []T, n int64) []T {
	if int64(len(items)) > n {
		return items[:n]
	}
	return items
}

// sortLeaves sorts every leaf inside its branch, then merges the sorted
// runs pairwise. Ties always take the earlier run, which keeps the result
// stable with respect to encounter order.
func sortLeaves[T any](ctx context.Context, x *run, ups []Iterator[T], cmp func(a, b T) int) ([]T, error) {
	parts := make([][]T, len(ups))
	err := runLeaves(ctx, x, ups, func(ctx context.Context, i int, it Iterator[T]) error {
		err := drain(ctx, x, it, StateBuffering, nil, func(v T) (bool, error) {
			parts[i] = append(parts[i], v)
			return true, nil
		})
		if err != nil {
			return err
		}
		stableSort(parts[i], cmp)
		return nil
	})
	if err != nil {
		return nil, err
	}
	for len(parts) > 1 {
		next := make([][]T, 0, (len(parts)+1)/2)
		for i := 0; i < len(parts); i += 2 {
			if i+1 == len(parts) {
				next = append(next, parts[i])
				continue
			}
			next = append(next, mergeStable(parts[i], parts[i+1], cmp))
		}
		parts = next
	}
	if len(parts) == 0 {
		return nil, nil
	}
	return parts[0], nil
}

func stableSort[T any](items []T, cmp func(a, b T) int) {
	slices.SortStableFunc(items, cmp)
}

func mergeStable[T any](a, b []T, cmp func(a, b T) int) []T {
	out := make([]T, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if cmp(a[i], b[j]) <= 0 {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// distinctLeaves dedups inside each branch, then across branches in leaf
// order so the first occurrence wins.
func distinctLeaves[T any, K comparable](ctx context.Context, x *run, ups []Iterator[T], key func(T) K) ([]T, error) {
	parts := make([][]T, len(ups))
	err := runLeaves(ctx, x, ups, func(ctx context.Context, i int, it Iterator[T]) error {
		seen := make(map[K]struct{})
		return drain(ctx, x, it, StateBuffering, nil, func(v T) (bool, error) {
			k := key(v)
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				parts[i] = append(parts[i], v)
			}
			return true, nil
		})
	})
	if err != nil {
		return nil, err
	}
	seen := make(map[K]struct{})
	var out []T
	for _, part := range parts {
		for _, v := range part {
			k := key(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
	}
	return out, nil
}
