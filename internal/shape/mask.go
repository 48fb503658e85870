package shape

import (
	"image"
	"math"

	"golang.org/x/image/vector"
)

// Point is a vertex in pixel space.
type Point struct {
	X, Y float64
}

const (
	starSpikes   = 5
	heartSamples = 30
	edgeInset    = 5
)

// Mask returns the opacity mask for a size×size icon. Square has no mask
// and returns nil. Masks are hard-edged: every value is 0 or 255.
func Mask(size int, s Shape) *image.Alpha {
	if size <= 0 {
		return nil
	}
	switch s.Kind {
	case Circle:
		return circleMask(size)
	case RoundedRect:
		return roundedMask(size, s.RadiusFor(size))
	case Star:
		c := float64(size / 2)
		return polygonMask(size, StarPoints(starSpikes, c, c, float64(size/2-edgeInset), float64(size/4)))
	case Heart:
		c := float64(size / 2)
		return polygonMask(size, HeartPoints(c, c, float64(size/2-edgeInset)))
	case Triangle:
		return polygonMask(size, TrianglePoints(size))
	default:
		return nil
	}
}

// Apply crops img to the silhouette by replacing its alpha channel with the
// mask. Square returns img itself. Pixels outside the mask bounds become
// transparent.
func Apply(img *image.NRGBA, s Shape) *image.NRGBA {
	b := img.Bounds()
	mask := Mask(b.Dx(), s)
	if mask == nil {
		return img
	}

	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		dst := out.Pix[out.PixOffset(0, y):]
		for x := 0; x < b.Dx(); x++ {
			i := x * 4
			dst[i] = src[i]
			dst[i+1] = src[i+1]
			dst[i+2] = src[i+2]
			dst[i+3] = mask.AlphaAt(x, y).A
		}
	}
	return out
}

// StarPoints returns 2*spikes vertices alternating between the outer and
// inner radius, starting straight up from (cx, cy).
func StarPoints(spikes int, cx, cy, outer, inner float64) []Point {
	step := 2 * math.Pi / float64(spikes)
	rot := math.Pi / 2 * 3
	pts := make([]Point, 0, spikes*2)
	for i := range spikes * 2 {
		r := outer
		if i%2 != 0 {
			r = inner
		}
		a := float64(i)*step + rot
		pts = append(pts, Point{X: cx + math.Cos(a)*r, Y: cy + math.Sin(a)*r})
	}
	return pts
}

// HeartPoints samples the parametric heart curve at evenly spaced t in
// [0, 2π], both ends included, scaled so 16 curve units equal r pixels.
func HeartPoints(cx, cy, r float64) []Point {
	pts := make([]Point, 0, heartSamples)
	for i := range heartSamples {
		t := 2 * math.Pi * float64(i) / float64(heartSamples-1)
		x := 16 * math.Pow(math.Sin(t), 3)
		y := 13*math.Cos(t) - 5*math.Cos(2*t) - 2*math.Cos(3*t) - math.Cos(4*t)
		pts = append(pts, Point{X: cx + x*r/16, Y: cy - y*r/16})
	}
	return pts
}

// TrianglePoints returns an upward triangle inset from the icon edges.
func TrianglePoints(size int) []Point {
	s := float64(size)
	return []Point{
		{X: float64(size / 2), Y: edgeInset},
		{X: s - edgeInset, Y: s - edgeInset},
		{X: edgeInset, Y: s - edgeInset},
	}
}

func circleMask(size int) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	r2 := c * c
	for y := range size {
		dy := float64(y) + 0.5 - c
		for x := range size {
			dx := float64(x) + 0.5 - c
			if dx*dx+dy*dy <= r2 {
				m.Pix[m.PixOffset(x, y)] = 0xff
			}
		}
	}
	return m
}

func roundedMask(size int, radius float64) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	half := float64(size) / 2
	for y := range size {
		for x := range size {
			if roundedBoxSDF(float64(x)+0.5-half, float64(y)+0.5-half, half, half, radius) <= 0 {
				m.Pix[m.PixOffset(x, y)] = 0xff
			}
		}
	}
	return m
}

// roundedBoxSDF returns the signed distance from (px, py) to a rounded rect
// centered at the origin. Negative = inside, positive = outside.
func roundedBoxSDF(px, py, bx, by, r float64) float64 {
	qx := math.Abs(px) - bx + r
	qy := math.Abs(py) - by + r
	return math.Hypot(math.Max(qx, 0), math.Max(qy, 0)) +
		math.Min(math.Max(qx, qy), 0) - r
}

// polygonMask fills the straight-edged polygon through pts. The heart uses
// it too, so its samples are joined by chords rather than curves.
func polygonMask(size int, pts []Point) *image.Alpha {
	if len(pts) < 3 {
		return image.NewAlpha(image.Rect(0, 0, size, size))
	}
	var r vector.Rasterizer
	r.Reset(size, size)
	r.MoveTo(float32(pts[0].X), float32(pts[0].Y))
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
	return rasterize(&r, size)
}

// rasterize draws the accumulated path into an alpha mask and snaps the
// coverage to a hard edge at 50%.
func rasterize(r *vector.Rasterizer, size int) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, size, size))
	r.Draw(m, m.Bounds(), image.Opaque, image.Point{})
	for i, v := range m.Pix {
		if v >= 0x80 {
			m.Pix[i] = 0xff
		} else {
			m.Pix[i] = 0
		}
	}
	return m
}
