package stream

import (
	"context"
	"math"
	"sync"
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
)

// ForEach calls fn for every value. Sequential runs call fn in encounter
// order. Parallel runs call fn concurrently with no ordering guarantee,
// except after Sorted, where values are handed to fn in sorted order.
func (p *Pipeline[T]) ForEach(ctx context.Context, fn func(context.Context, T) error) error {
	if p.parallel && p.sorted {
		return p.ForEachOrdered(ctx, fn)
	}
	_, err := execute(ctx, p, "foreach", true,
		func(ctx context.Context, x *run, it Iterator[T]) (struct{}, error) {
			return struct{}{}, consume(ctx, x, it, fn)
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) (struct{}, error) {
			return struct{}{}, runLeaves(ctx, x, leaves, func(ctx context.Context, _ int, it Iterator[T]) error {
				return consume(ctx, x, it, fn)
			})
		},
	)
	return err
}

func consume[T any](ctx context.Context, x *run, it Iterator[T], fn func(context.Context, T) error) error {
	return drain(ctx, x, it, StateEmitting, nil, func(v T) (bool, error) {
		if err := fn(ctx, v); err != nil {
			return false, errors.ElementProcessing("foreach", positionOf(it), err)
		}
		return true, nil
	})
}

// ForEachOrdered calls fn for every value in encounter order, from a single
// goroutine, in both modes. In parallel mode the stages still run in
// parallel; only the hand-off to fn is serialised.
func (p *Pipeline[T]) ForEachOrdered(ctx context.Context, fn func(context.Context, T) error) error {
	_, err := execute(ctx, p, "foreach_ordered", true,
		func(ctx context.Context, x *run, it Iterator[T]) (struct{}, error) {
			return struct{}{}, consume(ctx, x, it, fn)
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) (struct{}, error) {
			parts, err := collectLeaves(ctx, x, leaves, StateEmitting)
			if err != nil {
				return struct{}{}, err
			}
			var pos int64
			for _, part := range parts {
				for _, v := range part {
					if err := fn(ctx, v); err != nil {
						return struct{}{}, errors.ElementProcessing("foreach", pos, err)
					}
					pos++
				}
			}
			return struct{}{}, nil
		},
	)
	return err
}

// Collect runs the pipeline and returns all values as a slice. Parallel
// runs return the same order a sequential run would.
func (p *Pipeline[T]) Collect(ctx context.Context) ([]T, error) {
	return execute(ctx, p, "collect", true,
		func(ctx context.Context, x *run, it Iterator[T]) ([]T, error) {
			var out []T
			err := drain(ctx, x, it, StateEmitting, nil, func(v T) (bool, error) {
				out = append(out, v)
				return true, nil
			})
			return out, err
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) ([]T, error) {
			parts, err := collectLeaves(ctx, x, leaves, StateEmitting)
			if err != nil {
				return nil, err
			}
			return concat(parts), nil
		},
	)
}

// Count returns the number of values.
func (p *Pipeline[T]) Count(ctx context.Context) (int64, error) {
	return fold(ctx, p, "count", 0,
		func(n int64, _ T) int64 { return n + 1 },
		func(a, b int64) int64 { return a + b },
	)
}

// Reduce folds all values into one, starting from identity. fn must be
// associative and identity must be its neutral element for a parallel run
// to agree with a sequential one.
func (p *Pipeline[T]) Reduce(ctx context.Context, identity T, fn func(T, T) T) (T, error) {
	return fold(ctx, p, "reduce", identity, fn, fn)
}

// ReduceOptional folds all values with fn and no identity. ok is false when
// the pipeline was empty.
func (p *Pipeline[T]) ReduceOptional(ctx context.Context, fn func(T, T) T) (result T, ok bool, err error) {
	type acc struct {
		v   T
		set bool
	}
	a, err := fold(ctx, p, "reduce", acc{},
		func(a acc, v T) acc {
			if !a.set {
				return acc{v: v, set: true}
			}
			return acc{v: fn(a.v, v), set: true}
		},
		func(a, b acc) acc {
			switch {
			case !a.set:
				return b
			case !b.set:
				return a
			}
			return acc{v: fn(a.v, b.v), set: true}
		},
	)
	return a.v, a.set, err
}

// Fold accumulates values into a result of a different type. Each parallel
// branch starts from identity and branch results are merged in encounter
// order with combine, which must be associative.
func Fold[T, R any](ctx context.Context, p *Pipeline[T], identity R, accumulate func(R, T) R, combine func(R, R) R) (R, error) {
	return fold(ctx, p, "fold", identity, accumulate, combine)
}

func fold[T, R any](ctx context.Context, p *Pipeline[T], op string, identity R, accumulate func(R, T) R, combine func(R, R) R) (R, error) {
	foldOne := func(ctx context.Context, x *run, it Iterator[T]) (R, error) {
		acc := identity
		err := drain(ctx, x, it, StateEmitting, nil, func(v T) (bool, error) {
			acc = accumulate(acc, v)
			return true, nil
		})
		return acc, err
	}
	return execute(ctx, p, op, true, foldOne,
		func(ctx context.Context, x *run, leaves []Iterator[T]) (R, error) {
			partials := make([]R, len(leaves))
			err := runLeaves(ctx, x, leaves, func(ctx context.Context, i int, it Iterator[T]) error {
				var err error
				partials[i], err = foldOne(ctx, x, it)
				return err
			})
			if err != nil {
				var zero R
				return zero, err
			}
			result := partials[0]
			for _, r := range partials[1:] {
				result = combine(result, r)
			}
			return result, nil
		},
	)
}

// FindFirst returns the first value in encounter order. ok is false when
// the pipeline is empty.
func (p *Pipeline[T]) FindFirst(ctx context.Context) (result T, ok bool, err error) {
	type found struct {
		v  T
		ok bool
	}
	f, err := execute(ctx, p, "find_first", false,
		func(ctx context.Context, x *run, it Iterator[T]) (found, error) {
			var f found
			err := drain(ctx, x, it, StateEmitting, nil, func(v T) (bool, error) {
				f = found{v: v, ok: true}
				return false, nil
			})
			return f, err
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) (found, error) {
			hits := make([]found, len(leaves))
			var first atomic.Int64
			first.Store(math.MaxInt64)
			err := runLeaves(ctx, x, leaves, func(ctx context.Context, i int, it Iterator[T]) error {
				return drain(ctx, x, it, StateEmitting,
					func() bool { return int64(i) > first.Load() },
					func(v T) (bool, error) {
						hits[i] = found{v: v, ok: true}
						for {
							cur := first.Load()
							if int64(i) >= cur || first.CompareAndSwap(cur, int64(i)) {
								break
							}
						}
						return false, nil
					})
			})
			if err != nil {
				return found{}, err
			}
			for _, h := range hits {
				if h.ok {
					return h, nil
				}
			}
			return found{}, nil
		},
	)
	return f.v, f.ok, err
}

// FindAny returns some value of the pipeline, whichever branch finds one
// first in parallel mode.
func (p *Pipeline[T]) FindAny(ctx context.Context) (result T, ok bool, err error) {
	if !p.parallel {
		return p.FindFirst(ctx)
	}
	var (
		mu  sync.Mutex
		hit T
		got atomic.Bool
	)
	_, err = execute(ctx, p, "find_any", false, nil,
		func(ctx context.Context, x *run, leaves []Iterator[T]) (struct{}, error) {
			return struct{}{}, runLeaves(ctx, x, leaves, func(ctx context.Context, _ int, it Iterator[T]) error {
				return drain(ctx, x, it, StateEmitting, got.Load, func(v T) (bool, error) {
					mu.Lock()
					if !got.Load() {
						hit = v
						got.Store(true)
					}
					mu.Unlock()
					return false, nil
				})
			})
		},
	)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return hit, got.Load(), nil
}

// AnyMatch reports whether any value satisfies pred. It stops pulling as
// soon as one does, in every branch.
func (p *Pipeline[T]) AnyMatch(ctx context.Context, pred func(T) bool) (bool, error) {
	var hit atomic.Bool
	match := func(ctx context.Context, x *run, it Iterator[T]) error {
		return drain(ctx, x, it, StateEmitting, hit.Load, func(v T) (bool, error) {
			if pred(v) {
				hit.Store(true)
				return false, nil
			}
			return true, nil
		})
	}
	_, err := execute(ctx, p, "any_match", false,
		func(ctx context.Context, x *run, it Iterator[T]) (struct{}, error) {
			return struct{}{}, match(ctx, x, it)
		},
		func(ctx context.Context, x *run, leaves []Iterator[T]) (struct{}, error) {
			return struct{}{}, runLeaves(ctx, x, leaves, func(ctx context.Context, _ int, it Iterator[T]) error {
				return match(ctx, x, it)
			})
		},
	)
	if err != nil {
		return false, err
	}
	return hit.Load(), nil
}

// AllMatch reports whether every value satisfies pred. An empty pipeline
// matches.
func (p *Pipeline[T]) AllMatch(ctx context.Context, pred func(T) bool) (bool, error) {
	miss, err := p.AnyMatch(ctx, func(v T) bool { return !pred(v) })
	return !miss, err
}

// NoneMatch reports whether no value satisfies pred.
func (p *Pipeline[T]) NoneMatch(ctx context.Context, pred func(T) bool) (bool, error) {
	hit, err := p.AnyMatch(ctx, pred)
	return !hit, err
}

// Min returns the smallest value by cmp; the earliest wins on ties.
func (p *Pipeline[T]) Min(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return p.ReduceOptional(ctx, func(a, b T) T {
		if cmp(b, a) < 0 {
			return b
		}
		return a
	})
}

// Max returns the largest value by cmp; the earliest wins on ties.
func (p *Pipeline[T]) Max(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return p.ReduceOptional(ctx, func(a, b T) T {
		if cmp(b, a) > 0 {
			return b
		}
		return a
	})
}

// Iter claims the source and returns the raw sequential iterator. The
// caller must Close it. Execution options other than logging are ignored.
func (p *Pipeline[T]) Iter(ctx context.Context) (Iterator[T], error) {
	if !p.origin.claim() {
		return nil, errors.SourceConsumed()
	}
	x := &run{op: "iter", plan: p.plan, opts: p.opts, workers: 1, log: p.opts.log}
	root, err := p.origin.open(ctx, x)
	if err != nil {
		return nil, err
	}
	x.root = root
	return &rootIter[T]{Iterator: p.build(x, root), root: root}, nil
}

type rootIter[T any] struct {
	Iterator[T]
	root chunk
}

func (it *rootIter[T]) Close() error {
	err := it.Iterator.Close()
	if cerr := it.root.close(); err == nil {
		err = cerr
	}
	return err
}
