// Package render turns a populated [newton.Buffer] into an image.
//
// Each cell becomes one pixel. The root a cell converged to picks the color
// channel and the iteration count picks the brightness:
//
//	root 0  black (did not converge)
//	root 1  red
//	root 2  blue
//	root 3  green
//
// Brightness is [newton.Intensity] of the iteration count, so points that
// converge slowly render brighter. Pixel (x, y) holds cell (row=x, col=y).
//
// # Formats
//
// [Encode] writes PNG through the standard library and BMP and TIFF through
// golang.org/x/image. [Scale] resamples an image for thumbnails.
//
//	img, err := render.Image(buf)
//	if err != nil {
//	    return err
//	}
//	err = render.Encode(w, img, render.FormatPNG)
//
// A root outside {0,1,2,3} is a broken invariant upstream and is reported as
// [errors.ErrCodeInvalidRoot] rather than drawn.
package render
