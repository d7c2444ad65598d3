// Package raster holds the pixel-level primitives shared by the digitizer and
// the band calibrator: decoding, cropping, luminance planes and HSV colour.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"slices"

	"github.com/couchcryptid/stripchart-etl/internal/domain"
	"github.com/disintegration/imaging"

	// Register formats imaging does not decode by itself.
	_ "golang.org/x/image/webp"
)

// Decode reads an encoded chart image into an NRGBA raster with its origin at
// (0,0). Any decode failure, or an empty image, wraps domain.ErrUnreadableImage.
func Decode(r io.Reader) (*image.NRGBA, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUnreadableImage, err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty image", domain.ErrUnreadableImage)
	}
	return imaging.Clone(img), nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no data", domain.ErrUnreadableImage)
	}
	return Decode(bytes.NewReader(data))
}

// Crop copies the given rectangle out of img. The result has its origin at (0,0).
func Crop(img image.Image, rect image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, rect)
}

// Plane is a single-channel 8-bit image stored row-major.
type Plane struct {
	W, H int
	Pix  []uint8
}

// At returns the value at (x, y).
func (p Plane) At(x, y int) uint8 { return p.Pix[y*p.W+x] }

// Luminance returns the Rec.601 luma plane of img.
func Luminance(img image.Image) Plane {
	return planeFromGray(imaging.Grayscale(img))
}

// SmoothedLuminance returns the luma plane after a Gaussian blur with the
// given sigma. A non-positive sigma skips the blur.
func SmoothedLuminance(img image.Image, sigma float64) Plane {
	gray := imaging.Grayscale(img)
	if sigma > 0 {
		gray = imaging.Blur(gray, sigma)
	}
	return planeFromGray(gray)
}

func planeFromGray(gray *image.NRGBA) Plane {
	b := gray.Bounds()
	p := Plane{W: b.Dx(), H: b.Dy(), Pix: make([]uint8, b.Dx()*b.Dy())}
	for y := 0; y < p.H; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+p.W*4]
		for x := 0; x < p.W; x++ {
			p.Pix[y*p.W+x] = row[x*4]
		}
	}
	return p
}

// RowMedians returns, for every row of img, the channel-wise median colour of
// the columns in [x0, x1). The column range is clamped to the image.
func RowMedians(img *image.NRGBA, x0, x1 int) []color.NRGBA {
	b := img.Bounds()
	x0 = max(x0, b.Min.X)
	x1 = min(x1, b.Max.X)
	out := make([]color.NRGBA, b.Dy())
	if x0 >= x1 {
		return out
	}
	n := x1 - x0
	rs, gs, bs := make([]uint8, n), make([]uint8, n), make([]uint8, n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for i := 0; i < n; i++ {
			c := img.NRGBAAt(x0+i, y)
			rs[i], gs[i], bs[i] = c.R, c.G, c.B
		}
		out[y-b.Min.Y] = color.NRGBA{R: median8(rs), G: median8(gs), B: median8(bs), A: 0xff}
	}
	return out
}

// median8 sorts s in place and returns the rounded median.
func median8(s []uint8) uint8 {
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return uint8((int(s[n/2-1]) + int(s[n/2]) + 1) / 2)
}
