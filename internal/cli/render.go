package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/newton/pkg/config"
	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/executor"
	nio "github.com/matzehuels/newton/pkg/io"
	"github.com/matzehuels/newton/pkg/pipeline"
	"github.com/matzehuels/newton/pkg/render"
)

// computeFlags are the grid, kernel and strategy flags shared by render and
// bench. Unset flags keep the configured value.
type computeFlags struct {
	n         int
	maxIter   int
	strategy  string
	workers   int
	chunkRows int
}

func (f *computeFlags) register(cmd *cobra.Command, withStrategy bool) {
	cmd.Flags().IntVarP(&f.n, "n", "n", 0, "grid side in cells (default from config, 2048)")
	cmd.Flags().IntVar(&f.maxIter, "max-iter", 0, "iteration budget per cell (default from config, 1024)")
	if withStrategy {
		cmd.Flags().StringVarP(&f.strategy, "strategy", "s", "", "execution strategy: reference, accelerated, sequential")
	}
	cmd.Flags().IntVar(&f.workers, "workers", 0, "worker goroutines (0 = GOMAXPROCS)")
	cmd.Flags().IntVar(&f.chunkRows, "chunk-rows", 0, "rows per reference task")
}

// apply overlays the flags the user set on the configured options.
func (f *computeFlags) apply(cmd *cobra.Command, opts *pipeline.Options) error {
	flags := cmd.Flags()
	if flags.Changed("n") {
		if err := errors.ValidatePositive("--n", f.n); err != nil {
			return err
		}
		opts.Grid.N = f.n
	}
	if flags.Changed("max-iter") {
		if f.maxIter < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "--max-iter must be >= 0, got %d", f.maxIter)
		}
		opts.Kernel.MaxIter = f.maxIter
	}
	if flags.Changed("strategy") {
		kind, err := executor.ParseKind(f.strategy)
		if err != nil {
			return err
		}
		opts.Strategy = kind
	}
	if flags.Changed("workers") {
		opts.Workers = f.workers
	}
	if flags.Changed("chunk-rows") {
		opts.ChunkRows = f.chunkRows
	}
	return nil
}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	computeFlags
	output  string // output file, or base path for several formats
	formats string // comma-separated formats
	size    int    // output side in pixels, 0 = one pixel per cell
	refresh bool   // recompute even if the buffer is cached
	noCache bool   // disable the cache entirely
	open    bool   // open the first artifact in the default viewer
	export  string // write the raw result buffer here
	summary string // write a JSON summary here
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the fractal to png, bmp or tiff",
		Long: `Render computes the Newton fractal of z³−1 and writes it as an image.

Every pixel is colored by the cube root of unity its starting point converges
to (red, blue or green), brighter the faster it converges. Points that never
settle within the iteration budget are black.

The computed buffer is cached by grid and kernel, so rendering the same grid
again, in another format or with another strategy, skips the computation.`,
		Example: `  newton render -o fractal.png
  newton render -n 4096 -s accelerated -f png,tiff -o out/fractal
  newton render --size 512 --open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return c.runRender(cmd, cfg, &opts)
		},
	}

	opts.register(cmd, true)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path (default from config, newton.png)")
	cmd.Flags().StringVarP(&opts.formats, "format", "f", "", "output format(s): png, bmp, tiff (comma-separated)")
	cmd.Flags().IntVar(&opts.size, "size", 0, "scale the image to this side in pixels")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if the buffer is cached")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the image in the default viewer")
	cmd.Flags().StringVar(&opts.export, "export", "", "also write the raw result buffer to this file")
	cmd.Flags().StringVar(&opts.summary, "summary", "", "also write a JSON summary to this file")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, cfg *config.Config, opts *renderOpts) error {
	ctx := cmd.Context()

	popts := cfg.Options()
	popts.Logger = c.Logger
	popts.Refresh = opts.refresh
	if err := opts.apply(cmd, &popts); err != nil {
		return err
	}
	if cmd.Flags().Changed("size") {
		popts.Size = opts.size
	}

	output := opts.output
	if output == "" {
		output = cfg.Output.Path
	}
	if err := errors.ValidateOutputPath(output); err != nil {
		return err
	}
	formats, err := resolveFormats(opts.formats, output, popts.Formats)
	if err != nil {
		return err
	}
	popts.Formats = formats

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %d×%d grid...", popts.Grid.N, popts.Grid.N))
	spinner.Start()
	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d×%d grid", popts.Grid.N, popts.Grid.N))

	paths := outputPaths(output, formats)
	for i, f := range formats {
		if err := writeArtifact(paths[i], result.Artifacts[f]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", StyleHighlight.Render(fmt.Sprintf("%d×%d", popts.Grid.N, popts.Grid.N)))
	printRunStats(result.Stats.Strategy, result.Stats.N, result.Stats.MPixelsPerSec(), result.CacheInfo.ComputeHit)
	printHistogram(result.Stats.Histogram)
	for _, p := range paths {
		printFile(p)
	}

	if err := exportResult(result, popts.Kernel.MaxIter, opts.export, opts.summary); err != nil {
		return err
	}

	if opts.open {
		if err := openFile(paths[0]); err != nil {
			printWarning("Could not open %s: %v", paths[0], err)
		}
	}
	return nil
}

// resolveFormats picks the output formats: the --format flag, else the
// output file's extension, else the configured formats.
func resolveFormats(flag, output string, configured []render.Format) ([]render.Format, error) {
	if flag != "" {
		var formats []render.Format
		for _, s := range strings.Split(flag, ",") {
			f, err := render.ParseFormat(s)
			if err != nil {
				return nil, err
			}
			formats = append(formats, f)
		}
		return formats, nil
	}
	if f, err := render.ParseFormat(filepath.Ext(output)); err == nil {
		return []render.Format{f}, nil
	}
	if len(configured) > 0 {
		return configured, nil
	}
	return []render.Format{pipeline.DefaultFormat}, nil
}

// outputPaths derives one file per format from output. A known image
// extension on output is replaced by each format's extension.
func outputPaths(output string, formats []render.Format) []string {
	base := output
	if _, err := render.ParseFormat(filepath.Ext(output)); err == nil {
		base = strings.TrimSuffix(output, filepath.Ext(output))
	}
	paths := make([]string, len(formats))
	for i, f := range formats {
		paths[i] = base + f.Extension()
	}
	return paths
}

func writeArtifact(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func exportResult(result *pipeline.Result, maxIter int, bufferPath, summaryPath string) error {
	if bufferPath != "" {
		if err := nio.ExportBuffer(result.Buffer, maxIter, bufferPath); err != nil {
			return err
		}
		printFile(bufferPath)
	}
	if summaryPath != "" {
		if err := nio.ExportSummary(result.Buffer, maxIter, summaryPath); err != nil {
			return err
		}
		printFile(summaryPath)
	}
	return nil
}

// importCommand re-renders an exported buffer without computing it.
func (c *CLI) importCommand() *cobra.Command {
	var output, formats string
	var size int

	cmd := &cobra.Command{
		Use:   "import <buffer>",
		Short: "Render an exported result buffer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], output, formats, size)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: buffer path with the image extension)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): png, bmp, tiff (comma-separated)")
	cmd.Flags().IntVar(&size, "size", 0, "scale the image to this side in pixels")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, input, output, formatFlag string, size int) error {
	buf, maxIter, err := nio.ImportBuffer(input)
	if err != nil {
		return err
	}
	c.Logger.Info("Loaded buffer", "n", buf.N, "max_iter", maxIter)

	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input))
	}
	formats, err := resolveFormats(formatFlag, output, nil)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(nil, nil, c.Logger)
	artifacts, err := runner.Render(ctx, buf, pipeline.Options{Formats: formats, Size: size, Logger: c.Logger})
	if err != nil {
		return err
	}

	paths := outputPaths(output, formats)
	for i, f := range formats {
		if err := writeArtifact(paths[i], artifacts[f]); err != nil {
			return err
		}
	}
	printSuccess("Rendered %s", StyleHighlight.Render(input))
	printHistogram(buf.Histogram())
	for _, p := range paths {
		printFile(p)
	}
	return nil
}
