package render

import (
	"image"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

// Image renders buf as an N×N RGBA image. Pixel (x, y) is cell (x, y) of the
// buffer, so rows of the grid run along the horizontal axis.
func Image(buf *newton.Buffer) (*image.RGBA, error) {
	if buf == nil || buf.N <= 0 || len(buf.Cells) != buf.N*buf.N {
		return nil, errors.New(errors.ErrCodeInvalidBuffer, "cannot render an unpopulated buffer")
	}

	n := buf.N
	img := image.NewRGBA(image.Rect(0, 0, n, n))
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			r := buf.Cells[row*n+col]
			c, err := Color(r.Root, r.Iterations)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRoot, err, "cell (%d,%d)", row, col)
			}
			img.SetRGBA(row, col, c)
		}
	}
	return img, nil
}
