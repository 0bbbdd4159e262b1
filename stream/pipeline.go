package stream

import (
	"context"
	"sync/atomic"

	"github.com/kbukum/streamkit/errors"
)

// origin is the single-traversal root shared by every pipeline derived from
// one source constructor.
type origin struct {
	name    string
	claimed atomic.Bool
	open    func(ctx context.Context, x *run) (chunk, error)
}

func (o *origin) claim() bool { return o.claimed.CompareAndSwap(false, true) }

// chunk is a type-erased, splittable piece of an origin.
type chunk interface {
	split() (chunk, bool)
	size() (int64, SizeKind)
	close() error
}

type sourceChunk[T any] struct{ src Source[T] }

func (c *sourceChunk[T]) split() (chunk, bool) {
	sp, ok := c.src.(Splitter[T])
	if !ok {
		return nil, false
	}
	prefix, ok := sp.TrySplit()
	if !ok {
		return nil, false
	}
	return &sourceChunk[T]{src: prefix}, true
}

func (c *sourceChunk[T]) size() (int64, SizeKind) {
	t := c.src.Traits()
	return t.Size, t.SizeKind
}

func (c *sourceChunk[T]) close() error { return c.src.Close() }

// Pipeline is a lazy, immutable chain of stages over one source.
// Every stage method returns a new Pipeline; the receiver is never changed.
type Pipeline[T any] struct {
	origin   *origin
	opts     *options
	parallel bool
	workers  int
	ordered  bool
	infinite bool
	// sorted is set once a Sorted stage is in the chain; parallel ForEach
	// then emits in sorted order.
	sorted bool
	plan   string

	// build chains the sequential iterator over a chunk of the origin.
	build func(x *run, c chunk) Iterator[T]
	// leaves returns independent branch iterators in encounter order.
	leaves func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error)
}

func newSource[T any](name string, traits Traits, open func(ctx context.Context) (Source[T], error), opts ...Option) *Pipeline[T] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	p := &Pipeline[T]{
		origin: &origin{
			name: name,
			open: func(ctx context.Context, _ *run) (chunk, error) {
				src, err := open(ctx)
				if err != nil {
					return nil, err
				}
				return &sourceChunk[T]{src: src}, nil
			},
		},
		opts:     o,
		ordered:  traits.Ordered,
		infinite: traits.Infinite,
		plan:     name,
	}
	p.build = sourceBuild[T]
	p.leaves = func(ctx context.Context, x *run, c chunk) ([]Iterator[T], error) {
		chunks := x.split(c)
		out := make([]Iterator[T], len(chunks))
		for i, c := range chunks {
			out[i] = sourceBuild[T](x, c)
		}
		return out, nil
	}
	return p
}

func sourceBuild[T any](x *run, c chunk) Iterator[T] {
	sc, ok := c.(*sourceChunk[T])
	if !ok {
		return &errIter[T]{err: errors.Internal(nil).WithDetail("reason", "chunk type mismatch")}
	}
	return &pullIter[T]{src: sc.src, x: x}
}

// derive copies p's settings onto a pipeline with a new element type.
func derive[I, O any](p *Pipeline[I], stage string,
	build func(x *run, c chunk) Iterator[O],
	leaves func(ctx context.Context, x *run, c chunk) ([]Iterator[O], error),
) *Pipeline[O] {
	return &Pipeline[O]{
		origin:   p.origin,
		opts:     p.opts,
		parallel: p.parallel,
		workers:  p.workers,
		ordered:  p.ordered,
		infinite: p.infinite,
		sorted:   p.sorted,
		plan:     p.plan + ">" + stage,
		build:    build,
		leaves:   leaves,
	}
}

// stateless adds a stage that runs independently inside every branch.
func stateless[I, O any](p *Pipeline[I], stage string, wrap func(x *run, up Iterator[I]) Iterator[O]) *Pipeline[O] {
	return derive(p, stage,
		func(x *run, c chunk) Iterator[O] {
			return wrap(x, p.build(x, c))
		},
		func(ctx context.Context, x *run, c chunk) ([]Iterator[O], error) {
			ups, err := p.leaves(ctx, x, c)
			if err != nil {
				return nil, err
			}
			out := make([]Iterator[O], len(ups))
			for i, up := range ups {
				out[i] = wrap(x, up)
			}
			return out, nil
		},
	)
}

func (p *Pipeline[T]) copy() *Pipeline[T] {
	c := *p
	return &c
}

// Parallel switches the whole pipeline to parallel execution. An optional
// worker count overrides the pool size for this pipeline.
func (p *Pipeline[T]) Parallel(workers ...int) *Pipeline[T] {
	c := p.copy()
	c.parallel = true
	if len(workers) > 0 && workers[0] > 0 {
		c.workers = workers[0]
	}
	return c
}

// Sequential switches the whole pipeline to sequential execution.
func (p *Pipeline[T]) Sequential() *Pipeline[T] {
	c := p.copy()
	c.parallel = false
	return c
}

// IsParallel reports whether a terminal would run in parallel.
func (p *Pipeline[T]) IsParallel() bool { return p.parallel }

// Unordered drops the encounter-order constraint, which lets parallel Limit
// keep whichever elements arrive first.
func (p *Pipeline[T]) Unordered() *Pipeline[T] {
	c := p.copy()
	c.ordered = false
	c.sorted = false
	return c
}

// With returns a pipeline that executes with the given options.
func (p *Pipeline[T]) With(opts ...Option) *Pipeline[T] {
	c := p.copy()
	c.opts = p.opts.clone()
	for _, opt := range opts {
		opt(c.opts)
	}
	return c
}

// Plan describes the stage chain, e.g. "slice>filter>map>sorted".
func (p *Pipeline[T]) Plan() string { return p.plan }

// pullIter is the bottom of every chain. It records the Pulling state and
// tags source read failures with the position reached.
type pullIter[T any] struct {
	src Source[T]
	x   *run
}

func (it *pullIter[T]) Next(ctx context.Context) (T, bool, error) {
	it.x.enter(StatePulling)
	v, ok, err := it.src.Next(ctx)
	if err != nil {
		if !errors.IsAppError(err) {
			pos := positionOf(it.src)
			if pos >= 0 {
				pos++
			}
			err = errors.ElementProcessing("source", pos, err)
		}
		return v, false, err
	}
	return v, ok, nil
}

func (it *pullIter[T]) Close() error { return it.src.Close() }

func (it *pullIter[T]) Position() int64 { return positionOf(it.src) }
