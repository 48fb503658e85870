// Package adjust applies brightness, contrast, saturation and alpha
// multipliers to images.
//
// Each operation blends the image with a degenerate version of itself:
// black for brightness, a flat gray at the mean luma for contrast, and the
// per-pixel luma for saturation. A factor of 1 leaves the image unchanged,
// 0 yields the degenerate image, and values above 1 extrapolate. Blended
// channels are truncated toward zero and clamped to [0, 255]. The alpha
// channel passes through all three.
package adjust

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// epsilon below which a factor counts as exactly 1.
const epsilon = 1e-9

// Set bundles the four multipliers applied before resizing.
type Set struct {
	Brightness float64
	Contrast   float64
	Saturation float64
	Alpha      float64
}

// Identity returns the set that leaves images unchanged.
func Identity() Set {
	return Set{Brightness: 1, Contrast: 1, Saturation: 1, Alpha: 1}
}

// IsIdentity reports whether applying s would be a no-op.
func (s Set) IsIdentity() bool {
	return isOne(s.Brightness) && isOne(s.Contrast) && isOne(s.Saturation) && s.Alpha >= 1
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid adjustment")

// Validate rejects non-finite or negative factors and alpha above 1.
func (s Set) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"brightness", s.Brightness},
		{"contrast", s.Contrast},
		{"saturation", s.Saturation},
		{"alpha", s.Alpha},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number, got %v", ErrInvalid, f.name, f.v)
		}
	}
	if s.Alpha > 1 {
		return fmt.Errorf("%w: alpha must be at most 1, got %v", ErrInvalid, s.Alpha)
	}
	return nil
}

func (s Set) String() string {
	return fmt.Sprintf("brightness=%g contrast=%g saturation=%g alpha=%g",
		s.Brightness, s.Contrast, s.Saturation, s.Alpha)
}

// Apply runs brightness, contrast, saturation and then alpha, skipping any
// factor equal to 1 (and alpha at or above 1). The result never aliases a
// caller-owned image unless every step was skipped and img is already a
// zero-origin *image.NRGBA.
func (s Set) Apply(img image.Image) *image.NRGBA {
	return s.ApplyAlpha(s.ApplyColor(img))
}

// ApplyColor runs brightness, contrast and saturation. Callers that filter
// the image between the color steps and alpha use it with ApplyAlpha.
func (s Set) ApplyColor(img image.Image) *image.NRGBA {
	out := toNRGBA(img)
	if !isOne(s.Brightness) {
		out = Brightness(out, s.Brightness)
	}
	if !isOne(s.Contrast) {
		out = Contrast(out, s.Contrast)
	}
	if !isOne(s.Saturation) {
		out = Saturation(out, s.Saturation)
	}
	return out
}

// ApplyAlpha runs the alpha step when s.Alpha is below 1.
func (s Set) ApplyAlpha(img image.Image) *image.NRGBA {
	if s.Alpha < 1 {
		return Alpha(img, s.Alpha)
	}
	return toNRGBA(img)
}

// Brightness scales every color channel by f.
func Brightness(img image.Image, f float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R = blend(0, c.R, f)
		c.G = blend(0, c.G, f)
		c.B = blend(0, c.B, f)
		return c
	})
}

// Contrast moves every color channel away from (f > 1) or toward (f < 1)
// the rounded mean luma of the whole image.
func Contrast(img image.Image, f float64) *image.NRGBA {
	mean := meanLuma(img)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.R = blend(mean, c.R, f)
		c.G = blend(mean, c.G, f)
		c.B = blend(mean, c.B, f)
		return c
	})
}

// Saturation moves every pixel away from or toward its own gray value.
func Saturation(img image.Image, f float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		l := luma(c.R, c.G, c.B)
		c.R = blend(l, c.R, f)
		c.G = blend(l, c.G, f)
		c.B = blend(l, c.B, f)
		return c
	})
}

// Alpha treats the alpha channel as a grayscale image and applies a
// brightness enhancement of factor a to it. Color channels are untouched.
//
// TODO: confirm with product whether alpha should become a plain opacity
// multiply; existing icon sets were produced with this form.
func Alpha(img image.Image, a float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		c.A = blend(0, c.A, a)
		return c
	})
}

// blend returns deg + f*(v-deg) computed in float32, truncated and clamped.
func blend(deg, v uint8, f float64) uint8 {
	t := float32(deg) + float32(f)*(float32(v)-float32(deg))
	switch {
	case t <= 0:
		return 0
	case t >= 255:
		return 255
	default:
		return uint8(t)
	}
}

// luma converts RGB to 8-bit gray with ITU-R 601-2 weights, rounded.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}

// meanLuma returns the mean gray value of img rounded to the nearest
// integer. Alpha is ignored.
func meanLuma(img image.Image) uint8 {
	src := toNRGBA(img)
	b := src.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			sum += uint64(luma(row[i], row[i+1], row[i+2]))
		}
	}
	return uint8(float64(sum)/float64(n) + 0.5)
}

func isOne(f float64) bool {
	return math.Abs(f-1) <= epsilon
}

// toNRGBA returns img itself when it is already a zero-origin NRGBA,
// otherwise a converted copy.
func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}
