package stream

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
)

// run is the state of one terminal execution.
type run struct {
	id       string
	op       string
	plan     string
	opts     *options
	parallel bool
	workers  int
	root     chunk
	log      *logger.Logger

	state   atomic.Int32
	short   atomic.Bool
	emitted atomic.Int64
	leaves  atomic.Int64
}

func (x *run) mode() string {
	if x.parallel {
		return "parallel"
	}
	return "sequential"
}

// enter moves the run to s unless it has already finished.
func (x *run) enter(s State) {
	cur := State(x.state.Load())
	if cur == s || cur.Terminal() {
		return
	}
	if x.state.CompareAndSwap(int32(cur), int32(s)) && x.opts.observer != nil {
		x.opts.observer(s)
	}
}

// State returns the current state of the run.
func (x *run) State() State { return State(x.state.Load()) }

// split forks c recursively until pieces fall to the minimum chunk size or
// the leaf budget runs out. Pieces are returned in encounter order.
func (x *run) split(c chunk) []chunk {
	if !x.parallel {
		return []chunk{c}
	}
	var out []chunk
	var walk func(c chunk, budget int)
	walk = func(c chunk, budget int) {
		if budget > 1 {
			if n, kind := c.size(); kind != SizeUnknown && n > int64(x.opts.minChunk) {
				if prefix, ok := c.split(); ok {
					walk(prefix, budget/2)
					walk(c, budget-budget/2)
					return
				}
			}
		}
		out = append(out, c)
	}
	walk(c, x.workers*x.opts.leafFactor)
	if int64(len(out)) > x.leaves.Load() {
		x.leaves.Store(int64(len(out)))
	}
	return out
}

// guard turns a panic inside stage or terminal code into an element failure.
func (x *run) guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.ElementProcessing("panic", -1, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

// splitItems re-splits a materialised buffer for the stages that follow a barrier.
func splitItems[T any](x *run, items []T) []Iterator[T] {
	chunks := x.split(&sourceChunk[T]{src: newSliceSource(items)})
	out := make([]Iterator[T], len(chunks))
	for i, c := range chunks {
		out[i] = sourceBuild[T](x, c)
	}
	return out
}

// drain pulls it until exhaustion, until stop reports true, or until each
// returns false. Elements handed to each are counted as emitted when the
// drain feeds a terminal.
func drain[T any](ctx context.Context, x *run, it Iterator[T], state State, stop func() bool, each func(T) (bool, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop != nil && stop() {
			x.short.Store(true)
			return nil
		}
		v, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		x.enter(state)
		if state == StateEmitting {
			x.emitted.Add(1)
		}
		more, err := each(v)
		if err != nil {
			return err
		}
		if !more {
			x.short.Store(true)
			return nil
		}
	}
}

// runLeaves runs body once per leaf on a pool of x.workers goroutines. The
// first failure cancels the remaining leaves and is the error returned.
// Every leaf is closed before runLeaves returns.
func runLeaves[T any](ctx context.Context, x *run, leaves []Iterator[T], body func(ctx context.Context, i int, it Iterator[T]) error) error {
	var err error
	if len(leaves) == 1 {
		err = x.guard(func() error { return body(ctx, 0, leaves[0]) })
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(x.workers)
		for i, it := range leaves {
			g.Go(func() error {
				return x.guard(func() error { return body(gctx, i, it) })
			})
		}
		err = g.Wait()
	}
	if cerr := closeAll(leaves); err == nil {
		err = cerr
	}
	return err
}

func closeAll[T any](its []Iterator[T]) error {
	var first error
	for _, it := range its {
		if err := it.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// collectLeaves drains every leaf into its own slice, in leaf order.
func collectLeaves[T any](ctx context.Context, x *run, leaves []Iterator[T], state State) ([][]T, error) {
	parts := make([][]T, len(leaves))
	err := runLeaves(ctx, x, leaves, func(ctx context.Context, i int, it Iterator[T]) error {
		return drain(ctx, x, it, state, nil, func(v T) (bool, error) {
			parts[i] = append(parts[i], v)
			return true, nil
		})
	})
	return parts, err
}

func concat[T any](parts [][]T) []T {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]T, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// execute claims p's source and runs one terminal operation over it.
// seq receives the single chained iterator; par receives the branch leaves.
// full marks terminals that must see every element and so cannot finish on
// an infinite source.
func execute[T, R any](ctx context.Context, p *Pipeline[T], op string, full bool,
	seq func(ctx context.Context, x *run, it Iterator[T]) (R, error),
	par func(ctx context.Context, x *run, leaves []Iterator[T]) (R, error),
) (R, error) {
	var zero R
	if full && p.infinite {
		return zero, errors.InvalidArgument("pipeline", op+" needs a finite source; add Limit first")
	}
	if !p.origin.claim() {
		return zero, errors.SourceConsumed()
	}

	x := &run{
		id:       uuid.NewString(),
		op:       op,
		plan:     p.plan,
		opts:     p.opts,
		parallel: p.parallel,
		workers:  p.opts.workers,
	}
	if p.workers > 0 {
		x.workers = p.workers
	}
	ctx = logger.ContextWithRunID(ctx, x.id)
	x.log = p.opts.log.WithContext(ctx)

	ctx, span := p.opts.tracer.Start(ctx, "stream."+op, trace.WithAttributes(
		attribute.String("stream.plan", x.plan),
		attribute.String("stream.mode", x.mode()),
		attribute.Int("stream.workers", x.workers),
	))
	defer span.End()

	start := time.Now()
	x.log.Debug("stream run started", logger.Fields(
		logger.FieldOperation, op,
		logger.FieldMode, x.mode(),
		logger.FieldWorkers, x.workers,
		"plan", x.plan,
	))

	var res R
	err := x.guard(func() error {
		root, err := p.origin.open(ctx, x)
		if err != nil {
			return err
		}
		x.root = root
		defer root.close()

		if x.parallel {
			leaves, err := p.leaves(ctx, x, root)
			if err != nil {
				return err
			}
			res, err = par(ctx, x, leaves)
			return err
		}
		x.leaves.Store(1)
		it := p.build(x, root)
		defer it.Close()
		res, err = seq(ctx, x, it)
		return err
	})

	if err = x.finish(ctx, span, start, err); err != nil {
		return zero, err
	}
	return res, nil
}

// finish settles the final state and reports the run.
func (x *run) finish(ctx context.Context, span trace.Span, start time.Time, err error) error {
	if err != nil {
		switch {
		case errors.IsAppError(err):
		case ctx.Err() != nil && (stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)):
			err = errors.Cancelled(err)
		default:
			err = errors.Internal(err)
		}
	}

	final := StateDone
	if err != nil || x.short.Load() {
		final = StateCancelled
	}
	x.state.Store(int32(final))
	if x.opts.observer != nil {
		x.opts.observer(final)
	}

	d := time.Since(start)
	emitted := x.emitted.Load()
	span.SetAttributes(
		attribute.Int64("stream.leaves", x.leaves.Load()),
		attribute.Int64("stream.emitted", emitted),
		attribute.String("stream.state", final.String()),
	)

	status := final.String()
	if err != nil {
		status = "failed"
	}
	if m := x.opts.metrics; m != nil {
		m.RecordRun(ctx, x.op, x.mode(), status, d, emitted)
	}

	fields := logger.Fields(
		logger.FieldOperation, x.op,
		logger.FieldMode, x.mode(),
		logger.FieldLeaves, x.leaves.Load(),
		logger.FieldCount, emitted,
		logger.FieldState, final.String(),
		logger.FieldDuration, d.Milliseconds(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if m := x.opts.metrics; m != nil {
			m.RecordFailure(ctx, x.op, string(errors.CodeOf(err)))
		}
		if appErr, ok := errors.AsAppError(err); ok {
			if pos, ok := appErr.Position(); ok {
				fields[logger.FieldPosition] = pos
			}
		}
		x.log.WithError(err).Warn("stream run failed", fields)
		return err
	}
	x.log.Debug("stream run finished", fields)
	return nil
}
