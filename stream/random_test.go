package stream

import (
	"context"
	"slices"
	"testing"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/splitrand"
)

func TestDoubles(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			s, err := Summarize(context.Background(), inMode(Doubles(splitrand.New(42), 5000), m.parallel))
			if err != nil {
				t.Fatal(err)
			}
			if s.Count != 5000 || s.Min < 0 || s.Max >= 1 {
				t.Errorf("unexpected summary %+v", s)
			}
		})
	}
}

func TestDoublesBetween(t *testing.T) {
	s, err := Summarize(context.Background(), DoublesBetween(splitrand.New(1), 2000, -3, 3).Parallel(4))
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 2000 || s.Min < -3 || s.Max >= 3 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestInts(t *testing.T) {
	got, err := Ints(splitrand.New(5), 1000, 10, 20).Parallel(3).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	for _, v := range got {
		if v < 10 || v >= 20 {
			t.Fatalf("value %d out of [10, 20)", v)
		}
		seen[v] = true
	}
	if len(seen) != 10 {
		t.Errorf("expected all 10 values to appear, saw %d", len(seen))
	}
}

func TestLongs_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, err := Longs(splitrand.New(77), 50).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Longs(splitrand.New(77), 50).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a, b) {
		t.Error("same seed produced different sequences")
	}

	gen := splitrand.New(77)
	c, _ := Longs(gen, 50).Collect(ctx)
	d, _ := Longs(gen, 50).Collect(ctx)
	if slices.Equal(c, d) {
		t.Error("reusing one generator should give a fresh sequence")
	}
}

func TestRandomSources_InvalidArguments(t *testing.T) {
	ctx := context.Background()
	gen := splitrand.New(1)
	tests := []struct {
		name string
		run  func() error
	}{
		{"negative longs", func() error { _, err := Longs(gen, -1).Count(ctx); return err }},
		{"ints bounds", func() error { _, err := Ints(gen, 5, 3, 3).Count(ctx); return err }},
		{"doubles bounds", func() error { _, err := DoublesBetween(gen, 5, 2, 1).Count(ctx); return err }},
		{"negative doubles", func() error { _, err := Doubles(gen, -5).Count(ctx); return err }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.run(); errors.CodeOf(err) != errors.ErrCodeInvalidArgument {
				t.Errorf("expected INVALID_ARGUMENT, got %v", err)
			}
		})
	}
}

func TestRandomDoubles_LimitBothModes(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			p := RandomDoubles(splitrand.New(3)).Limit(1000)
			got, err := inMode(p, m.parallel).Collect(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 1000 {
				t.Errorf("expected 1000 values, got %d", len(got))
			}
		})
	}
	if _, err := RandomDoubles(splitrand.New(3)).Count(context.Background()); errors.CodeOf(err) != errors.ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT without Limit, got %v", err)
	}
}

func TestRandomSource_SplitMovesIndexRange(t *testing.T) {
	src := &randomSource[uint64]{gen: splitrand.New(8), draw: (*splitrand.Generator).Uint64, end: 10, pos: -1}
	prefix, ok := src.TrySplit()
	if !ok {
		t.Fatal("expected split")
	}
	ps := prefix.(*randomSource[uint64])
	if ps.Traits().Size != 5 || src.Traits().Size != 5 {
		t.Errorf("unexpected sizes %d and %d", ps.Traits().Size, src.Traits().Size)
	}
	if ps.Position() != -1 {
		t.Errorf("fresh split should have no position, got %d", ps.Position())
	}

	whole := &randomSource[uint64]{gen: splitrand.New(8), draw: (*splitrand.Generator).Uint64, end: 10, pos: -1}
	var want []uint64
	for {
		v, ok, _ := whole.Next(context.Background())
		if !ok {
			break
		}
		want = append(want, v)
	}
	var got []uint64
	for _, s := range []*randomSource[uint64]{ps, src} {
		for {
			v, ok, _ := s.Next(context.Background())
			if !ok {
				break
			}
			got = append(got, v)
		}
	}
	if !slices.Equal(got, want) {
		t.Errorf("split halves drew %v, unsplit source drew %v", got, want)
	}
}

func TestRandomSources_SameValuesInBothModes(t *testing.T) {
	ctx := context.Background()
	seqVals, err := Longs(splitrand.New(7), 1000).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	parVals, err := Longs(splitrand.New(7), 1000).Parallel(4).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seqVals, parVals) {
		t.Error("parallel Collect differs from sequential Collect")
	}

	add := func(a, b int64) int64 { return a + b }
	seqSum, err := Longs(splitrand.New(7), 1000).Reduce(ctx, 0, add)
	if err != nil {
		t.Fatal(err)
	}
	parSum, err := Longs(splitrand.New(7), 1000).Parallel(8).Reduce(ctx, 0, add)
	if err != nil {
		t.Fatal(err)
	}
	if seqSum != parSum {
		t.Errorf("sequential sum %d, parallel sum %d", seqSum, parSum)
	}

	seqInts, _ := Ints(splitrand.New(3), 500, 0, 97).Collect(ctx)
	parInts, _ := Ints(splitrand.New(3), 500, 0, 97).Parallel(3).Collect(ctx)
	if !slices.Equal(seqInts, parInts) {
		t.Error("bounded ints differ between modes")
	}
}

func TestRandomDoubles_ParallelLimitMatchesSequential(t *testing.T) {
	ctx := context.Background()
	seq, err := RandomDoubles(splitrand.New(12)).Limit(300).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	par, err := RandomDoubles(splitrand.New(12)).Limit(300).Parallel(4).Collect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(seq, par) {
		t.Error("parallel Limit over an unbounded source kept different values")
	}
}
