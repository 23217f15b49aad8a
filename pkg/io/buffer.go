package io

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

const (
	// Magic identifies a buffer file.
	Magic = "NWTN"

	// Version is the current format version.
	Version uint16 = 1

	// MaxSide bounds N on read so a corrupt header cannot request an
	// arbitrarily large allocation.
	MaxSide = 1 << 14

	headerSize = 16
	cellSize   = 8
)

var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		return enc
	},
}

var decoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return dec
	},
}

// WriteBuffer encodes buf to w. maxIter is stored in the header so the
// reader can validate iteration counts.
func WriteBuffer(w io.Writer, buf *newton.Buffer, maxIter int) error {
	if buf == nil || buf.N <= 0 || len(buf.Cells) != buf.N*buf.N {
		return errors.New(errors.ErrCodeInvalidBuffer, "cannot encode an unpopulated buffer")
	}
	if maxIter < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max iterations must be non-negative, got %d", maxIter)
	}

	var hdr [headerSize]byte
	copy(hdr[0:4], Magic)
	binary.LittleEndian.PutUint16(hdr[4:6], Version)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(buf.N))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(maxIter))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	enc := encoderPool.Get().(*zstd.Encoder)
	defer encoderPool.Put(enc)
	enc.Reset(w)

	bw := bufio.NewWriterSize(enc, 64*1024)
	var cell [cellSize]byte
	for _, r := range buf.Cells {
		binary.LittleEndian.PutUint32(cell[0:4], uint32(r.Root))
		binary.LittleEndian.PutUint32(cell[4:8], uint32(r.Iterations))
		if _, err := bw.Write(cell[:]); err != nil {
			_ = enc.Close()
			return fmt.Errorf("write cells: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return fmt.Errorf("write cells: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("zstd encode: %w", err)
	}
	return nil
}

// ReadBuffer decodes a buffer written by [WriteBuffer] and returns it with
// the iteration budget from its header.
func ReadBuffer(r io.Reader) (*newton.Buffer, int, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read header")
	}
	if string(hdr[0:4]) != Magic {
		return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "bad magic %q", string(hdr[0:4]))
	}
	if v := binary.LittleEndian.Uint16(hdr[4:6]); v != Version {
		return nil, 0, errors.New(errors.ErrCodeUnsupported, "buffer format version %d (want %d)", v, Version)
	}
	n := binary.LittleEndian.Uint32(hdr[8:12])
	if n == 0 || n > MaxSide {
		return nil, 0, errors.New(errors.ErrCodeInvalidFormat, "grid side %d out of range [1, %d]", n, MaxSide)
	}
	maxIter := int(binary.LittleEndian.Uint32(hdr[12:16]))

	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)
	if err := dec.Reset(r); err != nil {
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "zstd decode")
	}

	buf, err := newton.NewBuffer(int(n))
	if err != nil {
		return nil, 0, err
	}
	br := bufio.NewReaderSize(dec, 64*1024)
	var cell [cellSize]byte
	for i := range buf.Cells {
		if _, err := io.ReadFull(br, cell[:]); err != nil {
			return nil, 0, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read cell %d of %d", i, len(buf.Cells))
		}
		buf.Cells[i] = newton.Result{
			Root:       newton.Root(int32(binary.LittleEndian.Uint32(cell[0:4]))),
			Iterations: int32(binary.LittleEndian.Uint32(cell[4:8])),
		}
	}

	if err := buf.Validate(maxIter); err != nil {
		return nil, 0, err
	}
	return buf, maxIter, nil
}

// EncodeBuffer returns the encoded bytes of buf.
func EncodeBuffer(buf *newton.Buffer, maxIter int) ([]byte, error) {
	var b bytes.Buffer
	if err := WriteBuffer(&b, buf, maxIter); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// DecodeBuffer decodes bytes produced by [EncodeBuffer].
func DecodeBuffer(data []byte) (*newton.Buffer, int, error) {
	return ReadBuffer(bytes.NewReader(data))
}

// ExportBuffer writes buf to a file at path.
func ExportBuffer(buf *newton.Buffer, maxIter int, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteBuffer(f, buf, maxIter); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportBuffer reads a buffer file at path.
func ImportBuffer(path string) (*newton.Buffer, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadBuffer(bufio.NewReader(f))
}
