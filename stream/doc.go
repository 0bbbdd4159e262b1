// Package stream provides lazy, composable, pull-based sequence pipelines
// that run either sequentially or in parallel over the same definition.
//
// Building a pipeline never touches its source. Work starts when a terminal
// operation (Collect, ForEach, Reduce, Count, FindFirst, AnyMatch, ...) runs,
// and each source can be traversed by exactly one terminal.
//
// # Stages
//
// Stateless: Filter, Map, FlatMap, Peek. They run inside each parallel branch.
//
// Stateful: Limit, Skip, Sorted, Distinct, DistinctBy. In parallel mode they act
// as barriers: branches are drained into an ordered buffer, the operation is
// applied, and the buffer is split again for the stages that follow. Sorted is
// always a full barrier and requires a finite upstream.
//
// # Execution
//
// Sequential mode pulls one element at a time in encounter order. Parallel
// mode splits the source (see Splitter) into leaves, runs each leaf on a
// bounded errgroup, and combines partial results in encounter order where the
// terminal is order-sensitive. The first failing branch cancels its siblings
// and is the only failure reported.
//
// Reduce and Fold need an associative combiner when run in parallel. A
// non-associative combiner, including floating-point addition, may give a
// different result than a sequential run; that is expected and not corrected.
//
// # Usage
//
//	out, err := stream.FromSlice([]int{5, 3, 8, 1, 9, 2}).
//	    Filter(func(n int) bool { return n > 2 }).
//	    Parallel().
//	    Collect(ctx)
//
//	tens := stream.Map(stream.Of(1, 2, 3), func(_ context.Context, n int) (int, error) {
//	    return n * 10, nil
//	})
package stream
