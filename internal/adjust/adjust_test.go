package adjust

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestApply_IdentityReturnsInput(t *testing.T) {
	img := solid(4, 4, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	if got := Identity().Apply(img); got != img {
		t.Error("identity set should not allocate a new image")
	}
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
}

func TestApply_ConvertsNonNRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	src.Set(1, 1, color.RGBA{R: 200, A: 255})
	got := Identity().Apply(src)
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v", got.Bounds())
	}
	if c := got.NRGBAAt(1, 1); c.R != 200 || c.A != 255 {
		t.Errorf("pixel = %v", c)
	}
}

func TestBrightness(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 100, G: 200, B: 50, A: 128})
	got := Brightness(img, 1.5).NRGBAAt(0, 0)
	want := color.NRGBA{R: 150, G: 255, B: 75, A: 128}
	if got != want {
		t.Errorf("Brightness(1.5) = %v, want %v", got, want)
	}

	got = Brightness(img, 0.5).NRGBAAt(0, 0)
	want = color.NRGBA{R: 50, G: 100, B: 25, A: 128}
	if got != want {
		t.Errorf("Brightness(0.5) = %v, want %v", got, want)
	}
}

func TestContrast_UsesMeanLuma(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	// mean luma = 100; factor 0 collapses everything onto it.
	flat := Contrast(img, 0)
	for x := range 2 {
		if c := flat.NRGBAAt(x, 0); c.R != 100 || c.G != 100 || c.B != 100 {
			t.Errorf("Contrast(0) pixel %d = %v, want gray 100", x, c)
		}
	}

	// factor 2 doubles distance from the mean.
	high := Contrast(img, 2)
	if c := high.NRGBAAt(0, 0); c.R != 0 {
		t.Errorf("dark pixel = %v, want clamped 0", c)
	}
	if c := high.NRGBAAt(1, 0); c.R != 255 {
		t.Errorf("bright pixel = %v, want clamped 255", c)
	}
}

func TestSaturation_ZeroIsGrayscale(t *testing.T) {
	img := solid(1, 1, color.NRGBA{R: 255, G: 0, B: 0, A: 200})
	got := Saturation(img, 0).NRGBAAt(0, 0)
	l := luma(255, 0, 0)
	if got.R != l || got.G != l || got.B != l {
		t.Errorf("Saturation(0) = %v, want gray %d", got, l)
	}
	if got.A != 200 {
		t.Errorf("alpha changed to %d", got.A)
	}
}

func TestAlpha_ScalesAlphaChannelOnly(t *testing.T) {
	img := solid(1, 1, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	got := Alpha(img, 0.5).NRGBAAt(0, 0)
	// 255*0.5 = 127.5, truncated.
	want := color.NRGBA{R: 10, G: 20, B: 30, A: 127}
	if got != want {
		t.Errorf("Alpha(0.5) = %v, want %v", got, want)
	}
	if c := Alpha(img, 0).NRGBAAt(0, 0); c.A != 0 {
		t.Errorf("Alpha(0) alpha = %d, want 0", c.A)
	}
}

func TestApply_Order(t *testing.T) {
	img := solid(2, 2, color.NRGBA{R: 100, G: 100, B: 100, A: 255})
	s := Set{Brightness: 2, Contrast: 1, Saturation: 1, Alpha: 0.5}
	got := s.Apply(img).NRGBAAt(0, 0)
	want := color.NRGBA{R: 200, G: 200, B: 200, A: 127}
	if got != want {
		t.Errorf("Apply = %v, want %v", got, want)
	}
	if img.NRGBAAt(0, 0).R != 100 {
		t.Error("Apply modified its input")
	}
}

func TestApply_Deterministic(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := range 16 {
		for x := range 16 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 16), G: uint8(y * 16), B: 77, A: 255})
		}
	}
	s := Set{Brightness: 1.2, Contrast: 0.8, Saturation: 1.4, Alpha: 0.9}
	a := s.Apply(img)
	b := s.Apply(img)
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs between runs", i)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		set     Set
		wantErr bool
	}{
		{"identity", Identity(), false},
		{"nominal", Set{Brightness: 0.1, Contrast: 2, Saturation: 0, Alpha: 0}, false},
		{"negative", Set{Brightness: -1, Contrast: 1, Saturation: 1, Alpha: 1}, true},
		{"nan", Set{Brightness: 1, Contrast: math.NaN(), Saturation: 1, Alpha: 1}, true},
		{"inf", Set{Brightness: 1, Contrast: 1, Saturation: math.Inf(1), Alpha: 1}, true},
		{"alpha above one", Set{Brightness: 1, Contrast: 1, Saturation: 1, Alpha: 1.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.set.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestBlend(t *testing.T) {
	tests := []struct {
		deg, v uint8
		f      float64
		want   uint8
	}{
		{0, 100, 1, 100},
		{0, 100, 0, 0},
		{50, 100, 0.5, 75},
		{0, 200, 2, 255},
		{200, 0, 2, 0},
		{0, 3, 0.5, 1},
	}
	for _, tt := range tests {
		if got := blend(tt.deg, tt.v, tt.f); got != tt.want {
			t.Errorf("blend(%d, %d, %v) = %d, want %d", tt.deg, tt.v, tt.f, got, tt.want)
		}
	}
}
