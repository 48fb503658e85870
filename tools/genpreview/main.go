// Command genpreview renders a contact sheet of every shape and effect so
// mask and filter changes can be checked by eye.
//
// Usage: go run ./tools/genpreview [-src image] [-size 96] [-out preview.png]
//
// Rows are effects, columns are shapes. Without -src a built-in test card
// is used.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"github.com/sydlexius/iconsmith/internal/adjust"
	"github.com/sydlexius/iconsmith/internal/effect"
	imgpkg "github.com/sydlexius/iconsmith/internal/image"
	"github.com/sydlexius/iconsmith/internal/render"
	"github.com/sydlexius/iconsmith/internal/shape"
)

const (
	cardSize = 256
	gap      = 8
)

var sheetBg = color.NRGBA{0xE5, 0xE7, 0xEB, 0xFF} // gray-200

func main() {
	srcPath := flag.String("src", "", "source image (default: built-in test card)")
	size := flag.Int("size", 96, "cell size in pixels")
	out := flag.String("out", "preview.png", "output PNG")
	flag.Parse()

	src, name, err := loadSource(*srcPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load source: %v\n", err)
		os.Exit(1)
	}

	sheet, err := renderSheet(context.Background(), src, name, *size)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		os.Exit(1)
	}

	if err := imaging.Save(sheet, *out); err != nil {
		fmt.Fprintf(os.Stderr, "save %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("generated %s (%dx%d, %d shapes x %d effects)\n",
		*out, sheet.Bounds().Dx(), sheet.Bounds().Dy(), len(shape.Kinds()), len(effect.Kinds()))
}

func loadSource(path string) (image.Image, string, error) {
	if path == "" {
		return testCard(cardSize), "test card", nil
	}
	f, err := os.Open(path) //nolint:gosec // G304: path is a command-line argument
	if err != nil {
		return nil, "", err
	}
	defer f.Close() //nolint:errcheck
	img, _, err := imgpkg.Decode(f)
	if err != nil {
		return nil, "", err
	}
	return img, path, nil
}

func renderSheet(ctx context.Context, src image.Image, name string, size int) (*image.NRGBA, error) {
	shapes := shape.Kinds()
	effects := effect.Kinds()
	w := len(shapes)*(size+gap) + gap
	h := len(effects)*(size+gap) + gap
	sheet := imaging.New(w, h, sheetBg)

	r := render.New(slog.New(slog.DiscardHandler))
	for row, eff := range effects {
		for col, k := range shapes {
			sh := shape.Shape{Kind: k, Radius: 20}
			job := render.NewJob(name, src, []int{size}, adjust.Identity(), nil, sh, eff)
			icons, err := r.Render(ctx, job)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", sh, eff, err)
			}
			pt := image.Pt(gap+col*(size+gap), gap+row*(size+gap))
			sheet = imaging.Overlay(sheet, icons[0].Image, pt, 1)
		}
	}
	return sheet, nil
}

// testCard draws a diagonal gradient with a white ring and cross, which
// makes clipping and filter artifacts easy to spot.
func testCard(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			t := float64(x+y) / float64(2*size)
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(37 + t*180),
				G: uint8(99 + t*60),
				B: uint8(235 - t*120),
				A: 255,
			})
		}
	}

	fs := float32(size)
	var r vector.Rasterizer
	r.Reset(size, size)
	ring(&r, fs/2, fs/2, fs*0.32, fs*0.24)
	bar := fs * 0.06
	rect(&r, fs/2-bar/2, fs*0.12, bar, fs*0.76)
	rect(&r, fs*0.12, fs/2-bar/2, fs*0.76, bar)
	r.Draw(img, img.Bounds(), image.White, image.Point{})
	return img
}

// ring adds an annulus as two opposite-winding polygons.
func ring(r *vector.Rasterizer, cx, cy, outer, inner float32) {
	const steps = 96
	circle := func(rad float32, dir float64) {
		for i := 0; i <= steps; i++ {
			a := dir * 2 * math.Pi * float64(i) / steps
			x := cx + rad*float32(math.Cos(a))
			y := cy + rad*float32(math.Sin(a))
			if i == 0 {
				r.MoveTo(x, y)
			} else {
				r.LineTo(x, y)
			}
		}
		r.ClosePath()
	}
	circle(outer, 1)
	circle(inner, -1)
}

func rect(r *vector.Rasterizer, x, y, w, h float32) {
	r.MoveTo(x, y)
	r.LineTo(x+w, y)
	r.LineTo(x+w, y+h)
	r.LineTo(x, y+h)
	r.ClosePath()
}
