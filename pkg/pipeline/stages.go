package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/newton/pkg/executor"
	"github.com/matzehuels/newton/pkg/newton"
	"github.com/matzehuels/newton/pkg/observability"
	"github.com/matzehuels/newton/pkg/render"
)

// Compute populates a fresh buffer for opts with the selected strategy,
// bypassing the cache.
func Compute(ctx context.Context, opts Options) (*newton.Buffer, error) {
	if err := opts.ValidateForCompute(); err != nil {
		return nil, err
	}

	strategy, err := executor.New(opts.Strategy, opts.ExecutorConfig())
	if err != nil {
		return nil, err
	}
	buf, err := newton.NewBuffer(opts.Grid.N)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("dispatching", "strategy", executor.Describe(strategy), "cells", opts.Grid.Cells())
	observability.Pipeline().OnComputeStart(ctx, strategy.Name(), opts.Grid.N)
	start := time.Now()
	err = strategy.Execute(ctx, buf, 0, opts.Grid.N)
	observability.Pipeline().OnComputeComplete(ctx, strategy.Name(), opts.Grid.N, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// RenderArtifacts draws buf and encodes it in every format of opts,
// bypassing the cache.
func RenderArtifacts(ctx context.Context, buf *newton.Buffer, opts Options) (map[render.Format][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	img, err := render.Image(buf)
	if err != nil {
		return nil, err
	}
	if opts.Size > 0 {
		if img, err = render.Scale(img, opts.Size); err != nil {
			return nil, err
		}
	}

	artifacts := make(map[render.Format][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		observability.Pipeline().OnRenderStart(ctx, string(format))
		start := time.Now()

		var b bytes.Buffer
		err := render.Encode(&b, img, format)
		observability.Pipeline().OnRenderComplete(ctx, string(format), b.Len(), time.Since(start), err)
		if err != nil {
			return nil, err
		}
		artifacts[format] = b.Bytes()
	}
	return artifacts, nil
}
