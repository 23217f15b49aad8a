package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/newton"
	"github.com/matzehuels/newton/pkg/observability"
)

// BenchOptions configures Runner.Benchmark.
type BenchOptions struct {
	// Strategies to time, in order. Empty means reference then accelerated.
	Strategies []executor.Kind

	// Passes per strategy. Zero means DefaultPasses.
	Passes int

	// Progress, if set, is called after every pass.
	Progress func(PassResult)
}

// PassResult is the timing of one pass.
type PassResult struct {
	Strategy executor.Kind
	Pass     int
	Duration time.Duration
	MPixels  float64 // millions of cells per second

	// WarmUp marks the first accelerated pass, which pays for starting the
	// worker pool and is left out of the averages.
	WarmUp bool
}

// StrategySummary aggregates the timed passes of one strategy.
type StrategySummary struct {
	Strategy    executor.Kind
	Passes      int
	Mean        time.Duration
	Best        time.Duration
	MeanMPixels float64
	BestMPixels float64
	ResultHash  string
}

// BenchResult is the outcome of a benchmark.
type BenchResult struct {
	N         int
	Passes    []PassResult
	Summaries []StrategySummary

	// Identical reports whether every strategy produced the same buffer as
	// the first. FirstMismatch is the first differing cell index when not.
	Identical     bool
	FirstMismatch int
	Mismatched    executor.Kind
}

// Benchmark times repeated full-grid passes of each strategy and checks that
// their buffers agree index for index. The cache is not consulted. The
// context is checked between passes; a started pass runs to completion.
func (r *Runner) Benchmark(ctx context.Context, opts Options, bopts BenchOptions) (*BenchResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForCompute(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	strategies := bopts.Strategies
	if len(strategies) == 0 {
		strategies = []executor.Kind{executor.KindReference, executor.KindAccelerated}
	}
	passes := bopts.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}

	pool := opts.Pool
	if pool == nil {
		pool = executor.NewWorkerPool(opts.Workers)
		defer pool.Close()
	}

	n := opts.Grid.N
	result := &BenchResult{N: n, Identical: true, FirstMismatch: -1}
	var first *newton.Buffer

	for _, kind := range strategies {
		cfg := opts.ExecutorConfig()
		cfg.Pool = pool
		strategy, err := executor.New(kind, cfg)
		if err != nil {
			return nil, err
		}
		opts.Logger.Info("benchmarking", "strategy", executor.Describe(strategy), "passes", passes)

		buf, err := newton.NewBuffer(n)
		if err != nil {
			return nil, err
		}
		summary := StrategySummary{Strategy: kind}
		var total time.Duration

		for pass := 0; pass < passes; pass++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			observability.Pipeline().OnComputeStart(ctx, strategy.Name(), n)
			start := time.Now()
			err := strategy.Execute(ctx, buf, 0, n)
			elapsed := time.Since(start)
			observability.Pipeline().OnComputeComplete(ctx, strategy.Name(), n, elapsed, err)
			if err != nil {
				return nil, fmt.Errorf("%s pass %d: %w", kind, pass, err)
			}

			pr := PassResult{
				Strategy: kind,
				Pass:     pass,
				Duration: elapsed,
				MPixels:  mpixels(n, elapsed),
				WarmUp:   kind == executor.KindAccelerated && pass == 0 && passes > 1,
			}
			result.Passes = append(result.Passes, pr)
			if bopts.Progress != nil {
				bopts.Progress(pr)
			}
			opts.Logger.Debug("pass complete", "strategy", kind, "pass", pass, "duration", elapsed, "warmup", pr.WarmUp)

			if pr.WarmUp {
				continue
			}
			summary.Passes++
			total += elapsed
			if summary.Best == 0 || elapsed < summary.Best {
				summary.Best = elapsed
			}
		}

		summary.Mean = total / time.Duration(summary.Passes)
		summary.MeanMPixels = mpixels(n, summary.Mean)
		summary.BestMPixels = mpixels(n, summary.Best)
		summary.ResultHash = HashBuffer(buf)
		result.Summaries = append(result.Summaries, summary)

		if first == nil {
			first = buf
			continue
		}
		if ok, idx := buf.Equal(first); !ok && result.Identical {
			result.Identical = false
			result.FirstMismatch = idx
			result.Mismatched = kind
			opts.Logger.Warn("strategies disagree", "strategy", kind, "cell", idx)
		}
	}

	return result, nil
}
