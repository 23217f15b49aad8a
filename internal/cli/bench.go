package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/pipeline"
)

type benchOpts struct {
	computeFlags
	strategies string
	passes     int
	tui        bool
}

// benchCommand creates the bench command.
func (c *CLI) benchCommand() *cobra.Command {
	opts := benchOpts{passes: pipeline.DefaultPasses}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Compare the throughput of the execution strategies",
		Long: `Bench runs full-grid passes of each strategy and reports millions of
cells per second. The first accelerated pass starts the worker pool and is
reported separately as warm-up.

After timing, the buffers of all strategies are compared cell by cell; bench
fails if any strategy disagrees with the first.`,
		Example: `  newton bench
  newton bench -n 4096 --passes 5 --strategies reference,accelerated,sequential
  newton bench --tui`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBench(cmd, &opts)
		},
	}

	opts.register(cmd, false)
	cmd.Flags().StringVar(&opts.strategies, "strategies", "reference,accelerated", "strategies to compare (comma-separated)")
	cmd.Flags().IntVar(&opts.passes, "passes", opts.passes, "timed passes per strategy")
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "show live progress in an interactive view")

	return cmd
}

func (c *CLI) runBench(cmd *cobra.Command, opts *benchOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	popts := cfg.Options()
	popts.Logger = c.Logger
	if err := opts.apply(cmd, &popts); err != nil {
		return err
	}
	if err := errors.ValidatePositive("--passes", opts.passes); err != nil {
		return err
	}
	kinds, err := parseKinds(opts.strategies)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	bopts := pipeline.BenchOptions{Strategies: kinds, Passes: opts.passes}

	var result *pipeline.BenchResult
	if opts.tui {
		result, err = runBenchTUI(cmd.Context(), runner, popts, bopts)
	} else {
		result, err = c.runBenchPlain(cmd.Context(), runner, popts, bopts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, benchTable(result))
	if !result.Identical {
		printError("%s disagrees with %s at cell %d", result.Mismatched, kinds[0], result.FirstMismatch)
		return errors.New(errors.ErrCodeInternal, "strategies produced different buffers")
	}
	printSuccess("All %d strategies produced identical buffers", len(kinds))
	if len(result.Summaries) > 1 {
		base := result.Summaries[0]
		for _, s := range result.Summaries[1:] {
			if base.MeanMPixels > 0 {
				printDetail("%s is %.2f× %s", s.Strategy, s.MeanMPixels/base.MeanMPixels, base.Strategy)
			}
		}
	}
	return nil
}

func (c *CLI) runBenchPlain(ctx context.Context, runner *pipeline.Runner, popts pipeline.Options, bopts pipeline.BenchOptions) (*pipeline.BenchResult, error) {
	spinner := newSpinnerWithContext(ctx, "Starting benchmark...")
	spinner.Start()
	defer spinner.Stop()

	bopts.Progress = func(p pipeline.PassResult) {
		spinner.SetMessage(fmt.Sprintf("%s pass %d/%d: %.1f MPix/s", p.Strategy, p.Pass+1, bopts.Passes, p.MPixels))
	}
	return runner.Benchmark(ctx, popts, bopts)
}

// parseKinds parses a comma-separated strategy list, rejecting duplicates.
func parseKinds(s string) ([]executor.Kind, error) {
	var kinds []executor.Kind
	seen := map[executor.Kind]bool{}
	for _, part := range strings.Split(s, ",") {
		kind, err := executor.ParseKind(part)
		if err != nil {
			return nil, err
		}
		if seen[kind] {
			return nil, errors.New(errors.ErrCodeInvalidStrategy, "strategy %s listed twice", kind)
		}
		seen[kind] = true
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

// benchTable renders per-strategy summaries.
func benchTable(r *pipeline.BenchResult) string {
	t := newTable("Strategy", "Passes", "Mean", "Best", "Mean MPix/s", "Best MPix/s")
	for _, s := range r.Summaries {
		t.Row(
			string(s.Strategy),
			fmt.Sprintf("%d", s.Passes),
			s.Mean.Round(time.Microsecond).String(),
			s.Best.Round(time.Microsecond).String(),
			fmt.Sprintf("%.1f", s.MeanMPixels),
			fmt.Sprintf("%.1f", s.BestMPixels),
		)
	}
	return t.Render()
}
