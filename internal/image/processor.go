package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Supported image format names.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
	FormatGIF  = "gif"
	FormatBMP  = "bmp"
	FormatTIFF = "tiff"
	FormatICO  = "ico"
	FormatICNS = "icns"
)

// ErrUnknownFormat is returned when the source bytes match no known image
// signature.
var ErrUnknownFormat = errors.New("unrecognized image format")

// DetectFormat reads the first bytes from r to identify the image format.
// The returned reader replays the consumed bytes.
func DetectFormat(r io.Reader) (format string, replay io.Reader, err error) {
	// 12 bytes covers every signature below.
	buf := make([]byte, 12)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, fmt.Errorf("reading header: %w", err)
	}
	buf = buf[:n]

	replay = io.MultiReader(bytes.NewReader(buf), r)

	switch {
	case n >= 3 && buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF:
		return FormatJPEG, replay, nil
	case n >= 8 && string(buf[:8]) == "\x89PNG\r\n\x1a\n":
		return FormatPNG, replay, nil
	case n >= 12 && string(buf[:4]) == "RIFF" && string(buf[8:12]) == "WEBP":
		return FormatWebP, replay, nil
	case n >= 4 && string(buf[:4]) == "GIF8":
		return FormatGIF, replay, nil
	case n >= 2 && string(buf[:2]) == "BM":
		return FormatBMP, replay, nil
	case n >= 4 && (string(buf[:4]) == "II*\x00" || string(buf[:4]) == "MM\x00*"):
		return FormatTIFF, replay, nil
	}

	return "", replay, ErrUnknownFormat
}

// Decode sniffs and decodes a source image, honoring EXIF orientation.
func Decode(r io.Reader) (image.Image, string, error) {
	format, replay, err := DetectFormat(r)
	if err != nil {
		return nil, "", fmt.Errorf("detecting format: %w", err)
	}

	img, err := imaging.Decode(replay, imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("decoding %s image: %w", format, err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, "", fmt.Errorf("decoding %s image: empty image", format)
	}
	return img, format, nil
}

// Open reads and decodes the image file at path.
func Open(path string) (image.Image, string, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		return nil, "", fmt.Errorf("opening source: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return Decode(f)
}

// ParseFormat normalizes an output format name.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "ico":
		return FormatICO, nil
	case "icns":
		return FormatICNS, nil
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", name)
}

// FormatFromPath derives the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("no file extension in %q", path)
	}
	return ParseFormat(ext)
}
