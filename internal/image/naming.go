package image

import (
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSizedPattern names per-size files when a set is split, e.g.
// "app-32x32.png". {name} is the output base name, {size} the edge length.
const DefaultSizedPattern = "{name}-{size}x{size}"

// SizedFileName expands pattern for one icon size and appends ext.
// An empty pattern falls back to DefaultSizedPattern.
func SizedFileName(pattern, name string, size int, ext string) string {
	if pattern == "" {
		pattern = DefaultSizedPattern
	}
	r := strings.NewReplacer("{name}", name, "{size}", strconv.Itoa(size))
	return r.Replace(pattern) + ext
}

// SplitOutputPath separates an output path into directory and base name
// without extension.
func SplitOutputPath(path string) (dir, name string) {
	dir = filepath.Dir(path)
	base := filepath.Base(path)
	return dir, strings.TrimSuffix(base, filepath.Ext(base))
}

// formatToExt converts a format string to a file extension.
func formatToExt(format string) string {
	switch format {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatGIF:
		return ".gif"
	case FormatBMP:
		return ".bmp"
	case FormatTIFF:
		return ".tiff"
	case FormatICO:
		return ".ico"
	case FormatICNS:
		return ".icns"
	case FormatWebP:
		return ".webp"
	default:
		return ".png"
	}
}
