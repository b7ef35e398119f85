package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

var (
	// ErrNoImage is returned when an input carries no image at all
	ErrNoImage = errors.New("no image provided")
	// ErrDecode is returned when an input cannot be turned into pixels
	ErrDecode = errors.New("decoding image")
	// ErrUnsupported is returned for input kinds Prepare does not understand
	ErrUnsupported = errors.New("unsupported image input")
)

// Surface is an RGBA pixel grid anchored at (0,0).
// A Surface is never modified after construction; Crop and Invert return new surfaces.
type Surface struct {
	img *image.NRGBA
}

// FromImage copies img into a new Surface
func FromImage(img image.Image) (*Surface, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: image has no pixels", ErrDecode)
	}
	return &Surface{img: imaging.Clone(img)}, nil
}

// Width returns the surface width in pixels
func (s *Surface) Width() int {
	return s.img.Rect.Dx()
}

// Height returns the surface height in pixels
func (s *Surface) Height() int {
	return s.img.Rect.Dy()
}

// Image exposes the pixels read-only. Callers must not modify the result.
func (s *Surface) Image() image.Image {
	return s.img
}

// Crop returns the rectangle (x, y, w, h) as a new surface.
// The rectangle is clamped to the surface and never smaller than 1x1.
func (s *Surface) Crop(x, y, w, h int) *Surface {
	x0 := clamp(x, 0, s.Width()-1)
	y0 := clamp(y, 0, s.Height()-1)
	x1 := clamp(x+w, x0+1, s.Width())
	y1 := clamp(y+h, y0+1, s.Height())
	return &Surface{img: imaging.Crop(s.img, image.Rect(x0, y0, x1, y1))}
}

// Invert returns a new surface with every color channel replaced by 255-c.
// Alpha is kept as is.
func (s *Surface) Invert() *Surface {
	return &Surface{img: imaging.Invert(s.img)}
}

// PNG encodes the surface as PNG
func (s *Surface) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, s.img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
