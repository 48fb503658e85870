package image

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/sydlexius/iconsmith/internal/icon"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testSet builds a set of half-transparent red squares.
func testSet(sizes ...int) icon.Set {
	var set icon.Set
	for _, s := range sizes {
		img := imaging.New(s, s, color.NRGBA{R: 255, A: 128})
		set = append(set, icon.Icon{Size: s, Image: img})
	}
	return set
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, FormatJPEG},
		{"png", []byte("\x89PNG\r\n\x1a\n...."), FormatPNG},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), FormatWebP},
		{"gif", []byte("GIF89a"), FormatGIF},
		{"bmp", []byte("BM\x00\x00"), FormatBMP},
		{"tiff", []byte("II*\x00rest"), FormatTIFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, replay, err := DetectFormat(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("DetectFormat: %v", err)
			}
			if got != tt.want {
				t.Errorf("format = %q, want %q", got, tt.want)
			}
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(replay); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(buf.Bytes(), tt.data) {
				t.Error("replay reader lost bytes")
			}
		})
	}

	if _, _, err := DetectFormat(bytes.NewReader([]byte("hello"))); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

func TestDecode(t *testing.T) {
	src := imaging.New(20, 10, color.NRGBA{G: 255, A: 255})
	img, format, err := Decode(bytes.NewReader(encodePNG(t, src)))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != FormatPNG {
		t.Errorf("format = %q", format)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("bounds = %v", b)
	}

	if _, _, err := Decode(bytes.NewReader([]byte("not an image"))); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]string{
		"ico": FormatICO, ".PNG": FormatPNG, "jpg": FormatJPEG, "jpeg": FormatJPEG,
		"tif": FormatTIFF, "icns": FormatICNS, " gif ": FormatGIF, "bmp": FormatBMP,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("psd"); err == nil {
		t.Error("expected error for psd")
	}
	if _, err := FormatFromPath("icon"); err == nil {
		t.Error("expected error for a path without extension")
	}
}

func TestEncodeICO_Directory(t *testing.T) {
	var buf bytes.Buffer
	written, err := EncodeICO(&buf, testSet(16, 32, 256, 512))
	if err != nil {
		t.Fatalf("EncodeICO: %v", err)
	}
	if len(written) != 3 || written[2] != 256 {
		t.Errorf("written = %v, want [16 32 256]", written)
	}

	r := bytes.NewReader(buf.Bytes())
	var hdr icoHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		t.Fatal(err)
	}
	if hdr.Type != 1 || hdr.Count != 3 {
		t.Fatalf("header = %+v", hdr)
	}
	entries := make([]icoEntry, hdr.Count)
	if err := binary.Read(r, binary.LittleEndian, entries); err != nil {
		t.Fatal(err)
	}

	wantWidths := []uint8{16, 32, 0}
	for i, e := range entries {
		if e.Width != wantWidths[i] || e.Height != wantWidths[i] {
			t.Errorf("entry %d = %dx%d, want %d", i, e.Width, e.Height, wantWidths[i])
		}
		payload := buf.Bytes()[e.Offset : e.Offset+e.BytesInRes]
		img, err := png.Decode(bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("entry %d payload: %v", i, err)
		}
		if img.Bounds().Dx() != written[i] {
			t.Errorf("entry %d payload is %dpx, want %d", i, img.Bounds().Dx(), written[i])
		}
	}
}

func TestEncodeICO_NothingFits(t *testing.T) {
	if _, err := EncodeICO(&bytes.Buffer{}, testSet(300)); !errors.Is(err, ErrNoICOEntries) {
		t.Errorf("err = %v, want ErrNoICOEntries", err)
	}
}

func TestSave_ICO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.ico")
	saved, err := Save(testSet(16, 32), SaveOptions{Path: path}, testLogger())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(saved) != 1 || saved[0] != path {
		t.Errorf("saved = %v", saved)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if binary.LittleEndian.Uint16(data[4:6]) != 2 {
		t.Errorf("ico count = %d, want 2", binary.LittleEndian.Uint16(data[4:6]))
	}
}

func TestSave_SingleImageUsesLargest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.png")
	if _, err := Save(testSet(16, 64, 32), SaveOptions{Path: path}, testLogger()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	img, _, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("width = %d, want 64", img.Bounds().Dx())
	}
}

func TestSave_JPEGFlattensOntoWhite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.jpg")
	if _, err := Save(testSet(32), SaveOptions{Path: path, Quality: 100}, testLogger()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	img, format, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if format != FormatJPEG {
		t.Fatalf("format = %q", format)
	}
	// Half-transparent red over white is a light red.
	r, g, b, _ := img.At(16, 16).RGBA()
	if r>>8 < 240 || g>>8 < 110 || g>>8 > 145 || b>>8 < 110 || b>>8 > 145 {
		t.Errorf("pixel = (%d,%d,%d), want about (255,127,127)", r>>8, g>>8, b>>8)
	}
}

func TestSave_Split(t *testing.T) {
	dir := t.TempDir()
	saved, err := Save(testSet(16, 32), SaveOptions{
		Path:  filepath.Join(dir, "app.png"),
		Split: true,
	}, testLogger())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := []string{filepath.Join(dir, "app-16x16.png"), filepath.Join(dir, "app-32x32.png")}
	if len(saved) != 2 || saved[0] != want[0] || saved[1] != want[1] {
		t.Errorf("saved = %v, want %v", saved, want)
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestSave_SplitICOSkipsOversize(t *testing.T) {
	dir := t.TempDir()
	saved, err := Save(testSet(16, 32, 512), SaveOptions{
		Path:  filepath.Join(dir, "app.ico"),
		Split: true,
	}, testLogger())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := []string{filepath.Join(dir, "app-16x16.ico"), filepath.Join(dir, "app-32x32.ico")}
	if len(saved) != 2 || saved[0] != want[0] || saved[1] != want[1] {
		t.Errorf("saved = %v, want %v", saved, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "app-512x512.ico")); !os.IsNotExist(err) {
		t.Errorf("512px ico should not be written, stat err = %v", err)
	}
}

func TestSave_SplitICONothingFits(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(testSet(300, 512), SaveOptions{Path: filepath.Join(dir, "app.ico"), Split: true}, testLogger())
	if !errors.Is(err, ErrNoICOEntries) {
		t.Fatalf("err = %v, want ErrNoICOEntries", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("dir holds %d files, want none", len(entries))
	}
}

func TestSave_ReplacesConflictingFormat(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "app.jpg")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Save(testSet(16), SaveOptions{Path: filepath.Join(dir, "app.png"), ReplaceConflicting: true}, testLogger()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale jpg should be removed, stat err = %v", err)
	}
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		set  icon.Set
		opts SaveOptions
	}{
		{"empty set", nil, SaveOptions{Path: filepath.Join(dir, "a.png")}},
		{"webp", testSet(16), SaveOptions{Path: filepath.Join(dir, "a.webp")}},
		{"no extension", testSet(16), SaveOptions{Path: filepath.Join(dir, "a")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Save(tt.set, tt.opts, testLogger())
			var se *SaveError
			if !errors.As(err, &se) {
				t.Errorf("err = %v, want *SaveError", err)
			}
		})
	}
}

func TestSizedFileName(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", "app-48x48.png"},
		{"{name}_{size}", "app_48.png"},
		{"icons/{size}/{name}", "icons/48/app.png"},
	}
	for _, tt := range tests {
		if got := SizedFileName(tt.pattern, "app", 48, ".png"); got != tt.want {
			t.Errorf("SizedFileName(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestCleanupConflictingFormats_IgnoresContainers(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "app.png")
	if err := os.WriteFile(pngPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CleanupConflictingFormats(dir, "app.ico", testLogger()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(pngPath); err != nil {
		t.Errorf("png should survive an ico save: %v", err)
	}
}

func TestPNGLevel(t *testing.T) {
	tests := []struct {
		quality int
		want    png.CompressionLevel
	}{
		{100, png.NoCompression},
		{95, png.BestSpeed},
		{60, png.DefaultCompression},
		{10, png.BestCompression},
	}
	for _, tt := range tests {
		if got := pngLevel(tt.quality); got != tt.want {
			t.Errorf("pngLevel(%d) = %v, want %v", tt.quality, got, tt.want)
		}
	}
}
