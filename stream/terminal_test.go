package stream

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"testing"

	"github.com/kbukum/streamkit/splitrand"
)

func TestReduce_SequentialParallelAgree(t *testing.T) {
	gen := splitrand.New(2024)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		minChunk := gen.IntRange(1, 600)
		workers := gen.IntRange(1, 17)
		n := gen.Int64Range(0, 5000)
		t.Run(fmt.Sprintf("n%d_chunk%d_workers%d", n, minChunk, workers), func(t *testing.T) {
			seq, err := Range(0, n).Reduce(ctx, 0, func(a, b int64) int64 { return a + b })
			if err != nil {
				t.Fatal(err)
			}
			par, err := Range(0, n, WithMinChunk(minChunk), WithWorkers(workers)).
				Parallel().
				Reduce(ctx, 0, func(a, b int64) int64 { return a + b })
			if err != nil {
				t.Fatal(err)
			}
			if seq != par || seq != n*(n-1)/2 {
				t.Errorf("sequential %d, parallel %d, want %d", seq, par, n*(n-1)/2)
			}
		})
	}
}

func TestFold_CombinesInEncounterOrder(t *testing.T) {
	ctx := context.Background()
	concat := func(acc string, n int64) string { return acc + strconv.FormatInt(n, 10) + "," }
	join := func(a, b string) string { return a + b }

	want, err := Fold(ctx, Range(0, 300), "", concat, join)
	if err != nil {
		t.Fatal(err)
	}
	for _, minChunk := range []int{1, 3, 50} {
		got, err := Fold(ctx, Range(0, 300, WithMinChunk(minChunk)).Parallel(6), "", concat, join)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("min_chunk %d: parallel fold differs from sequential", minChunk)
		}
	}
}

func TestReduceOptional(t *testing.T) {
	ctx := context.Background()
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			v, ok, err := inMode(Of(4, 9, 2), m.parallel).ReduceOptional(ctx, func(a, b int) int { return max(a, b) })
			if err != nil || !ok || v != 9 {
				t.Errorf("got %d %v %v, want 9", v, ok, err)
			}
			_, ok, err = inMode(Empty[int](), m.parallel).ReduceOptional(ctx, func(a, b int) int { return a + b })
			if err != nil || ok {
				t.Errorf("empty: expected no value, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestCount(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			n, err := inMode(Range(0, 12345).Filter(func(v int64) bool { return v%5 == 0 }), m.parallel).
				Count(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if n != 2469 {
				t.Errorf("expected 2469, got %d", n)
			}
		})
	}
}

func TestForEach(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			var mu sync.Mutex
			var got []int64
			err := inMode(Range(0, 100), m.parallel).ForEach(context.Background(), func(_ context.Context, v int64) error {
				mu.Lock()
				got = append(got, v)
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			slices.Sort(got)
			if len(got) != 100 || got[0] != 0 || got[99] != 99 {
				t.Errorf("expected every value once, got %d values", len(got))
			}
		})
	}
}

func TestForEachOrdered(t *testing.T) {
	var got []int64
	err := Range(0, 500, WithMinChunk(10)).Parallel(8).ForEachOrdered(context.Background(), func(_ context.Context, v int64) error {
		got = append(got, v)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range got {
		if int64(i) != v {
			t.Fatalf("out of order at %d: %d", i, v)
		}
	}
}

func TestForEach_SortedIsOrdered(t *testing.T) {
	var got []int
	err := Of(5, 2, 8, 1, 9, 3, 7).
		Sorted(func(a, b int) int { return a - b }).
		Parallel(4).
		ForEach(context.Background(), func(_ context.Context, v int) error {
			got = append(got, v)
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 3, 5, 7, 8, 9}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFindFirst(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			ctx := context.Background()
			v, ok, err := inMode(Range(0, 1000).Filter(func(n int64) bool { return n > 500 && n%7 == 0 }), m.parallel).
				FindFirst(ctx)
			if err != nil || !ok || v != 504 {
				t.Errorf("got %d %v %v, want 504", v, ok, err)
			}
			_, ok, err = inMode(Range(0, 10).Filter(func(n int64) bool { return n > 10 }), m.parallel).FindFirst(ctx)
			if err != nil || ok {
				t.Errorf("expected nothing found, got ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestFindAny(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			v, ok, err := inMode(Range(0, 1000).Filter(func(n int64) bool { return n%100 == 42 }), m.parallel).
				FindAny(context.Background())
			if err != nil || !ok || v%100 != 42 {
				t.Errorf("got %d %v %v", v, ok, err)
			}
		})
	}
}

func TestMatch(t *testing.T) {
	even := func(n int64) bool { return n%2 == 0 }
	negative := func(n int64) bool { return n < 0 }
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			ctx := context.Background()
			if ok, err := inMode(Range(0, 100), m.parallel).AnyMatch(ctx, even); err != nil || !ok {
				t.Errorf("AnyMatch even: %v %v", ok, err)
			}
			if ok, err := inMode(Range(0, 100), m.parallel).AllMatch(ctx, even); err != nil || ok {
				t.Errorf("AllMatch even: %v %v", ok, err)
			}
			if ok, err := inMode(Range(0, 100), m.parallel).NoneMatch(ctx, negative); err != nil || !ok {
				t.Errorf("NoneMatch negative: %v %v", ok, err)
			}
			if ok, err := inMode(Empty[int64](), m.parallel).AllMatch(ctx, negative); err != nil || !ok {
				t.Errorf("AllMatch on empty should be true: %v %v", ok, err)
			}
		})
	}
}

func TestAnyMatch_ShortCircuitsInfinite(t *testing.T) {
	ok, err := Iterate(int64(1), func(n int64) int64 { return n + 1 }).
		AnyMatch(context.Background(), func(n int64) bool { return n == 1000 })
	if err != nil || !ok {
		t.Errorf("expected match, got %v %v", ok, err)
	}
}

type scored struct {
	name  string
	score int
}

func TestMinMax_EarliestOnTies(t *testing.T) {
	items := []scored{{"a", 3}, {"b", 1}, {"c", 7}, {"d", 1}, {"e", 7}}
	byScore := func(x, y scored) int { return x.score - y.score }
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			ctx := context.Background()
			lo, ok, err := inMode(FromSlice(items), m.parallel).Min(ctx, byScore)
			if err != nil || !ok || lo.name != "b" {
				t.Errorf("Min: got %v %v %v, want b", lo, ok, err)
			}
			hi, ok, err := inMode(FromSlice(items), m.parallel).Max(ctx, byScore)
			if err != nil || !ok || hi.name != "c" {
				t.Errorf("Max: got %v %v %v, want c", hi, ok, err)
			}
		})
	}
}

func TestNumeric(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			ctx := context.Background()
			sum, err := Sum(ctx, inMode(Of(5, 3, 8, 1, 9, 2), m.parallel))
			if err != nil || sum != 28 {
				t.Errorf("Sum: got %d %v", sum, err)
			}
			avg, ok, err := Average(ctx, inMode(Of(1.0, 2.0, 6.0), m.parallel))
			if err != nil || !ok || avg != 3 {
				t.Errorf("Average: got %v %v %v", avg, ok, err)
			}
			_, ok, err = Average(ctx, inMode(Empty[float64](), m.parallel))
			if err != nil || ok {
				t.Errorf("Average on empty: got ok=%v err=%v", ok, err)
			}
			s, err := Summarize(ctx, inMode(Range(-5, 6), m.parallel))
			if err != nil {
				t.Fatal(err)
			}
			if s.Count != 11 || s.Sum != 0 || s.Min != -5 || s.Max != 5 || s.Average() != 0 {
				t.Errorf("Summarize: got %+v", s)
			}
		})
	}
}

func TestSum_FloatWithinTolerance(t *testing.T) {
	ctx := context.Background()
	seq, err := Sum(ctx, Doubles(splitrand.New(9), 100000))
	if err != nil {
		t.Fatal(err)
	}
	par, err := Sum(ctx, Doubles(splitrand.New(9), 100000).Parallel(8))
	if err != nil {
		t.Fatal(err)
	}
	// same values, different addition order
	if math.Abs(seq-par) > 1e-9*100000 {
		t.Errorf("sequential %v and parallel %v differ by more than rounding", seq, par)
	}
	if math.Abs(seq/100000-0.5) > 0.01 {
		t.Errorf("mean out of range: %v", seq/100000)
	}
}
