package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

// Summary is the JSON digest of a buffer.
type Summary struct {
	N              int            `json:"n"`
	MaxIter        int            `json:"max_iter"`
	Histogram      map[string]int `json:"histogram"`
	MeanIterations float64        `json:"mean_iterations"`
	MaxIterations  int32          `json:"max_iterations"`
}

// Summarize computes the digest of buf.
func Summarize(buf *newton.Buffer, maxIter int) (Summary, error) {
	if buf == nil || len(buf.Cells) == 0 {
		return Summary{}, errors.New(errors.ErrCodeInvalidBuffer, "cannot summarize an empty buffer")
	}

	s := Summary{N: buf.N, MaxIter: maxIter, Histogram: make(map[string]int, 4)}
	for root, count := range buf.Histogram() {
		s.Histogram[newton.Root(root).String()] = count
	}

	var total int64
	for _, c := range buf.Cells {
		total += int64(c.Iterations)
		s.MaxIterations = max(s.MaxIterations, c.Iterations)
	}
	s.MeanIterations = float64(total) / float64(len(buf.Cells))
	return s, nil
}

// WriteSummary writes the digest of buf to w as indented JSON.
func WriteSummary(w io.Writer, buf *newton.Buffer, maxIter int) error {
	s, err := Summarize(buf, maxIter)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSummary writes the digest of buf to a JSON file at path.
func ExportSummary(buf *newton.Buffer, maxIter int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSummary(f, buf, maxIter)
}
