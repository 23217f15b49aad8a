// Package io reads and writes result buffers.
//
// # Binary Format
//
// A buffer file starts with a fixed 16-byte header followed by a zstd frame:
//
//	offset  size  field
//	0       4     magic "NWTN"
//	4       2     format version (little endian, currently 1)
//	6       2     reserved, zero
//	8       4     grid side N
//	12      4     iteration budget the buffer was computed with
//	16      ...   zstd(N*N pairs of little-endian int32 root, int32 iterations)
//
// Cells are stored in buffer order (row*N+col). Neighbouring cells mostly
// share a root and differ by a few iterations, so the payload compresses
// well. [ReadBuffer] validates every decoded cell, so a file that decodes is
// safe to render.
//
//	if err := io.WriteBuffer(w, buf, kernel.MaxIter); err != nil {
//	    return err
//	}
//	buf, maxIter, err := io.ReadBuffer(r)
//
// [EncodeBuffer] and [DecodeBuffer] are the in-memory equivalents used by the
// result cache.
//
// # Summary Export
//
// [WriteSummary] writes a JSON digest of a buffer (root histogram and
// iteration statistics) for tooling that does not need the cells:
//
//	{
//	  "n": 2048,
//	  "max_iter": 1024,
//	  "histogram": {"none": 12, "one": 1398101, "two": 1398101, "three": 1398090},
//	  "mean_iterations": 6.8,
//	  "max_iterations": 1024
//	}
package io
