package effect

import (
	"image"

	"github.com/disintegration/imaging"
)

type bucket struct {
	r, g, b uint8
	n       int
}

// oilPaint replaces each pixel with the most frequent quantized color in
// the (2*brush+1)² window around it. Pixels are rewritten in place in
// row-major order, so later windows see already painted neighbors. Ties go
// to the color seen first, scanning the window column by column. Alpha is
// kept.
func oilPaint(img image.Image, brush, roughness int) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	buckets := make([]bucket, 0, (2*brush+1)*(2*brush+1))

	for y := range h {
		for x := range w {
			x1, y1 := max(0, x-brush), max(0, y-brush)
			x2, y2 := min(w, x+brush+1), min(h, y+brush+1)

			buckets = buckets[:0]
			for i := x1; i < x2; i++ {
				for j := y1; j < y2; j++ {
					p := out.Pix[out.PixOffset(i, j):]
					c := bucket{
						r: quantize(p[0], roughness),
						g: quantize(p[1], roughness),
						b: quantize(p[2], roughness),
					}
					buckets = tally(buckets, c)
				}
			}

			best := buckets[0]
			for _, c := range buckets[1:] {
				if c.n > best.n {
					best = c
				}
			}
			p := out.Pix[out.PixOffset(x, y):]
			p[0], p[1], p[2] = best.r, best.g, best.b
		}
	}
	return out
}

func tally(buckets []bucket, c bucket) []bucket {
	for i := range buckets {
		if buckets[i].r == c.r && buckets[i].g == c.g && buckets[i].b == c.b {
			buckets[i].n++
			return buckets
		}
	}
	c.n = 1
	return append(buckets, c)
}

func quantize(v uint8, step int) uint8 {
	return uint8(int(v) / step * step)
}
