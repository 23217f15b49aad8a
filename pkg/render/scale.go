package render

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/matzehuels/newton/pkg/errors"
)

// Scale resamples img to size×size: Catmull-Rom when shrinking, nearest
// neighbour when enlarging. A size equal to the source is a no-op.
func Scale(img *image.RGBA, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale size must be positive, got %d", size)
	}
	b := img.Bounds()
	if b.Dx() == size && b.Dy() == size {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	var s draw.Scaler = draw.CatmullRom
	if size > b.Dx() {
		s = draw.NearestNeighbor
	}
	s.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, nil
}
