// Package pkg provides the libraries behind the newton fractal renderer.
//
// # Overview
//
// Newton's method for f(z) = z³−1 is iterated from every point of a square
// grid. Each point converges to one of the three cube roots of unity, or to
// none within the iteration budget; the root and the iteration count are
// stored per cell and rendered as a colored image.
//
//  1. [newton] - the kernel, the grid mapping and the result buffer
//  2. [executor] - strategies that populate the buffer in parallel
//  3. [render] - colors, images and encoders
//  4. [pipeline] - compute → render with caching, plus benchmarking
//  5. [cache], [store], [io] - persistence of buffers, images and runs
//
// # Data Flow
//
//	Grid + Kernel
//	     ↓
//	[executor] Reference (row tasks) or Accelerated (grid-stride blocks)
//	     ↓
//	[newton] Buffer (root, iterations per cell)
//	     ↓
//	[render] Image → PNG/BMP/TIFF
//
// Both strategies write every cell exactly once and produce identical
// buffers for the same grid and kernel.
//
// # Quick Start
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/matzehuels/newton/pkg/executor"
//	    "github.com/matzehuels/newton/pkg/newton"
//	    "github.com/matzehuels/newton/pkg/render"
//	)
//
//	grid := newton.DefaultGrid()
//	buf, _ := newton.NewBuffer(grid.N)
//	s, _ := executor.New(executor.KindReference, executor.Config{
//	    Grid:   grid,
//	    Kernel: newton.DefaultKernel(),
//	})
//	_ = s.Execute(context.Background(), buf, 0, grid.N)
//
//	img, _ := render.Image(buf)
//	f, _ := os.Create("newton.png")
//	defer f.Close()
//	_ = render.Encode(f, img, render.FormatPNG)
//
// With caching and run records, use [pipeline.Runner] instead.
//
// [newton]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/newton
// [executor]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/executor
// [render]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/pipeline#Runner
// [cache]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/store
// [io]: https://pkg.go.dev/github.com/matzehuels/newton/pkg/io
package pkg
