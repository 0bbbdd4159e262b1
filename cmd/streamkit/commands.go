package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/streamkit/splitrand"
	"github.com/kbukum/streamkit/stream"
	"github.com/kbukum/streamkit/validation"
	"github.com/kbukum/streamkit/version"
)

func newLinesCmd(a *app) *cobra.Command {
	var (
		contains string
		limit    int64
		count    bool
		parallel bool
	)
	cmd := &cobra.Command{
		Use:   "lines FILE",
		Short: "Print or count the lines of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := stream.Lines(args[0], a.options()...)
			if err != nil {
				return err
			}
			if contains != "" {
				p = p.Filter(func(s string) bool { return strings.Contains(s, contains) })
			}
			if limit > 0 {
				p = p.Limit(limit)
			}
			if parallel {
				p = p.Parallel()
			}
			if count {
				n, err := p.Count(cmd.Context())
				if err != nil {
					return err
				}
				return a.writeYAML(map[string]any{"file": args[0], "lines": n})
			}
			return p.ForEachOrdered(cmd.Context(), func(_ context.Context, line string) error {
				_, err := fmt.Fprintln(a.out, line)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&contains, "contains", "", "keep only lines containing this text")
	cmd.Flags().Int64Var(&limit, "limit", 0, "stop after this many lines (0 means no limit)")
	cmd.Flags().BoolVar(&count, "count", false, "print the number of lines instead of the lines")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "run in parallel mode")
	return cmd
}

func newTokensCmd(a *app) *cobra.Command {
	var (
		distinct bool
		sorted   bool
	)
	cmd := &cobra.Command{
		Use:   "tokens PATTERN TEXT",
		Short: "Split TEXT around matches of the regular expression PATTERN",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.New().Regexp("pattern", args[0]).Validate(); err != nil {
				return err
			}
			p, err := stream.Tokens(args[0], args[1], a.options()...)
			if err != nil {
				return err
			}
			if distinct {
				p = stream.Distinct(p)
			}
			if sorted {
				p = p.Sorted(strings.Compare)
			}
			tokens, err := p.Collect(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tokens {
				if _, err := fmt.Fprintln(a.out, t); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&distinct, "distinct", false, "drop repeated tokens")
	cmd.Flags().BoolVar(&sorted, "sorted", false, "sort tokens lexically")
	return cmd
}

// randomSummary is the YAML report of the random command.
type randomSummary struct {
	Kind    string  `yaml:"kind"`
	Seed    int64   `yaml:"seed"`
	Count   int64   `yaml:"count"`
	Sum     float64 `yaml:"sum"`
	Min     float64 `yaml:"min"`
	Max     float64 `yaml:"max"`
	Average float64 `yaml:"average"`
}

func newRandomCmd(a *app) *cobra.Command {
	var (
		kind     string
		seed     int64
		n        int64
		lo, hi   float64
		parallel bool
	)
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Summarize a seeded run of random numbers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := validation.New().
				OneOf("kind", kind, []string{"doubles", "ints"}).
				Min("n", n, 0).
				Less("lo", lo, hi).
				Validate()
			if err != nil {
				return err
			}
			gen := splitrand.New(seed)
			var p *stream.Pipeline[float64]
			switch kind {
			case "ints":
				ints := stream.Ints(gen, n, int(lo), int(hi), a.options()...)
				p = stream.Map(ints, func(_ context.Context, v int) (float64, error) { return float64(v), nil })
			default:
				p = stream.DoublesBetween(gen, n, lo, hi, a.options()...)
			}
			if parallel {
				p = p.Parallel()
			}
			s, err := stream.Summarize(cmd.Context(), p)
			if err != nil {
				return err
			}
			avg := s.Average()
			return a.writeYAML(randomSummary{
				Kind: kind, Seed: seed, Count: s.Count,
				Sum: s.Sum, Min: s.Min, Max: s.Max, Average: avg,
			})
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "doubles", "value kind: doubles or ints")
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	cmd.Flags().Int64VarP(&n, "count", "n", 1000, "number of values")
	cmd.Flags().Float64Var(&lo, "lo", 0, "inclusive lower bound")
	cmd.Flags().Float64Var(&hi, "hi", 1, "exclusive upper bound")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "run in parallel mode")
	return cmd
}

type timedSum struct {
	Sum      float64       `yaml:"sum"`
	Duration time.Duration `yaml:"duration"`
}

// sumReport compares a sequential and a parallel sum over the same values.
type sumReport struct {
	Count      int64    `yaml:"count"`
	Seed       int64    `yaml:"seed"`
	Sequential timedSum `yaml:"sequential"`
	Parallel   timedSum `yaml:"parallel"`
	Difference float64  `yaml:"difference"`
}

func newSumCmd(a *app) *cobra.Command {
	var (
		seed int64
		n    int64
	)
	cmd := &cobra.Command{
		Use:   "sum",
		Short: "Sum one set of random doubles sequentially and in parallel and compare",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validation.New().Min("n", n, 0).Validate(); err != nil {
				return err
			}
			values, err := stream.Doubles(splitrand.New(seed), n, a.options()...).Collect(cmd.Context())
			if err != nil {
				return err
			}
			run := func(parallel bool) (timedSum, error) {
				p := stream.FromSlice(values, a.options()...)
				if parallel {
					p = p.Parallel()
				}
				start := time.Now()
				sum, err := stream.Sum(cmd.Context(), p)
				return timedSum{Sum: sum, Duration: time.Since(start)}, err
			}
			seq, err := run(false)
			if err != nil {
				return err
			}
			par, err := run(true)
			if err != nil {
				return err
			}
			return a.writeYAML(sumReport{
				Count: n, Seed: seed,
				Sequential: seq, Parallel: par,
				Difference: seq.Sum - par.Sum,
			})
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 42, "generator seed")
	cmd.Flags().Int64VarP(&n, "count", "n", 1_000_000, "number of values")
	return cmd
}

func newVersionCmd(a *app) *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := version.Get()
			if short {
				_, err := fmt.Fprintln(a.out, info.Short())
				return err
			}
			return a.writeYAML(info)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "print only the version string")
	return cmd
}
