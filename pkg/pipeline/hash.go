package pipeline

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/matzehuels/newton/pkg/newton"
)

// HashBuffer returns the SHA-256 of the buffer's side and cells in little
// endian order. Equal buffers hash equal regardless of the strategy that
// produced them.
func HashBuffer(buf *newton.Buffer) string {
	h := sha256.New()
	var word [8]byte
	binary.LittleEndian.PutUint64(word[:], uint64(buf.N))
	h.Write(word[:])

	chunk := make([]byte, 0, 64*1024)
	for _, c := range buf.Cells {
		chunk = binary.LittleEndian.AppendUint32(chunk, uint32(c.Root))
		chunk = binary.LittleEndian.AppendUint32(chunk, uint32(c.Iterations))
		if len(chunk) == cap(chunk) {
			h.Write(chunk)
			chunk = chunk[:0]
		}
	}
	h.Write(chunk)
	return hex.EncodeToString(h.Sum(nil))
}
