package render

import (
	"image/color"

	"github.com/matzehuels/newton/pkg/errors"
	"github.com/matzehuels/newton/pkg/newton"
)

// Background is the color of cells that did not converge.
var Background = color.RGBA{A: 0xff}

// Color maps a classification to its pixel color.
func Color(root newton.Root, iterations int32) (color.RGBA, error) {
	light := newton.Intensity(iterations)
	switch root {
	case newton.RootNone:
		return Background, nil
	case newton.RootOne:
		return color.RGBA{R: light, A: 0xff}, nil
	case newton.RootTwo:
		return color.RGBA{B: light, A: 0xff}, nil
	case newton.RootThree:
		return color.RGBA{G: light, A: 0xff}, nil
	default:
		return color.RGBA{}, errors.New(errors.ErrCodeInvalidRoot,
			"root %d is outside {0,1,2,3}", int32(root))
	}
}
