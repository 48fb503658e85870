// Package effect implements the whole-image filters that can be applied to
// a source before it is cut into icons.
package effect

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	bildeffect "github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Kind identifies a filter.
type Kind int

// Supported filters.
const (
	None Kind = iota
	Blur
	Contour
	Sharpen
	Emboss
	EdgeEnhance
	Smooth
	Detail
	Invert
	Grayscale
	Sepia
	OilPaint
	Pixelate
	GaussianBlur
	FindEdges
)

var names = []string{
	None:         "none",
	Blur:         "blur",
	Contour:      "contour",
	Sharpen:      "sharpen",
	Emboss:       "emboss",
	EdgeEnhance:  "edge-enhance",
	Smooth:       "smooth",
	Detail:       "detail",
	Invert:       "invert",
	Grayscale:    "grayscale",
	Sepia:        "sepia",
	OilPaint:     "oil-paint",
	Pixelate:     "pixelate",
	GaussianBlur: "gaussian-blur",
	FindEdges:    "find-edges",
}

var labels = map[string]Kind{
	"无":    None,
	"模糊":   Blur,
	"轮廓":   Contour,
	"锐化":   Sharpen,
	"浮雕":   Emboss,
	"边缘增强": EdgeEnhance,
	"平滑":   Smooth,
	"细节增强": Detail,
	"反色":   Invert,
	"黑白":   Grayscale,
	"棕褐色":  Sepia,
	"油画":   OilPaint,
	"像素化":  Pixelate,
	"高斯模糊": GaussianBlur,
	"查找边缘": FindEdges,
}

// Kinds lists every filter in declaration order.
func Kinds() []Kind {
	out := make([]Kind, len(names))
	for i := range names {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

// Parse resolves a filter name. Empty input is None. Unknown names return
// None and false.
func Parse(name string) (Kind, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return None, true
	}
	n = strings.ReplaceAll(n, "_", "-")
	for i, s := range names {
		if s == n {
			return Kind(i), true
		}
	}
	if k, ok := labels[n]; ok {
		return k, true
	}
	return None, false
}

// 3x3 and 5x5 kernels with their normalization and bias.
var (
	blurKernel = [25]float64{
		1, 1, 1, 1, 1,
		1, 0, 0, 0, 1,
		1, 0, 0, 0, 1,
		1, 0, 0, 0, 1,
		1, 1, 1, 1, 1,
	}
	contourKernel     = [9]float64{-1, -1, -1, -1, 8, -1, -1, -1, -1}
	detailKernel      = [9]float64{0, -1, 0, -1, 10, -1, 0, -1, 0}
	edgeEnhanceKernel = [9]float64{-1, -1, -1, -1, 10, -1, -1, -1, -1}
	embossKernel      = [9]float64{-1, 0, 0, 0, 1, 0, 0, 0, 0}
	findEdgesKernel   = [9]float64{-1, -1, -1, -1, 8, -1, -1, -1, -1}
	smoothKernel      = [9]float64{1, 1, 1, 1, 5, 1, 1, 1, 1}
	sharpenKernel     = [9]float64{-2, -2, -2, -2, 32, -2, -2, -2, -2}

	normalized = &imaging.ConvolveOptions{Normalize: true}
)

const (
	gaussianRadius = 2
	pixelBlock     = 8
	oilBrush       = 3
	oilRoughness   = 30
)

// Apply filters img with k and returns a new image. None and unknown kinds
// return a copy of img.
func Apply(img image.Image, k Kind) *image.NRGBA {
	switch k {
	case Blur:
		return imaging.Convolve5x5(img, blurKernel, normalized)
	case Contour:
		return imaging.Convolve3x3(img, contourKernel, &imaging.ConvolveOptions{Bias: 255})
	case Sharpen:
		return imaging.Convolve3x3(img, sharpenKernel, normalized)
	case Emboss:
		return imaging.Convolve3x3(img, embossKernel, &imaging.ConvolveOptions{Bias: 128})
	case EdgeEnhance:
		return imaging.Convolve3x3(img, edgeEnhanceKernel, normalized)
	case Smooth:
		return imaging.Convolve3x3(img, smoothKernel, normalized)
	case Detail:
		return imaging.Convolve3x3(img, detailKernel, normalized)
	case FindEdges:
		return imaging.Convolve3x3(img, findEdgesKernel, nil)
	case Invert:
		return imaging.Clone(bildeffect.Invert(img))
	case Grayscale:
		return imaging.Grayscale(img)
	case Sepia:
		return imaging.Clone(bildeffect.Sepia(img))
	case GaussianBlur:
		return imaging.Clone(blur.Gaussian(img, gaussianRadius))
	case Pixelate:
		return pixelate(img, pixelBlock)
	case OilPaint:
		return oilPaint(img, oilBrush, oilRoughness)
	default:
		return imaging.Clone(img)
	}
}

// pixelate shrinks by block with nearest-neighbor sampling and scales back.
func pixelate(img image.Image, block int) *image.NRGBA {
	b := img.Bounds()
	w, h := max(b.Dx()/block, 1), max(b.Dy()/block, 1)
	small := imaging.Resize(img, w, h, imaging.NearestNeighbor)
	return imaging.Resize(small, b.Dx(), b.Dy(), imaging.NearestNeighbor)
}
