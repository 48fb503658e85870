package image

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/jackmordaunt/icns/v2"

	"github.com/sydlexius/iconsmith/internal/filesystem"
	"github.com/sydlexius/iconsmith/internal/icon"
)

// DefaultQuality is used when SaveOptions.Quality is unset.
const DefaultQuality = 95

// ErrNothingToSave is returned for an empty icon set.
var ErrNothingToSave = errors.New("no icons to save")

// SaveError reports a failure to encode or write an output file.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("saving %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error { return e.Err }

// SaveOptions controls how an icon set is written.
type SaveOptions struct {
	// Path is the output file. In split mode its directory and base name
	// seed the per-size file names.
	Path string
	// Format is one of the Format constants. Empty derives it from Path.
	Format string
	// Quality is the 1-100 encoder quality for JPEG and the basis for the
	// PNG compression level.
	Quality int
	// Split writes one file per icon instead of one file for the set.
	Split bool
	// Pattern overrides DefaultSizedPattern in split mode.
	Pattern string
	// ReplaceConflicting removes files with the same base name and another
	// raster extension before writing.
	ReplaceConflicting bool
}

// Save writes the icon set and returns the paths written. Container
// formats (ICO) hold every size; single-image formats (PNG, JPEG, ICNS and
// the rest) receive the largest icon unless Split is set.
func Save(set icon.Set, opts SaveOptions, logger *slog.Logger) ([]string, error) {
	if len(set) == 0 {
		return nil, &SaveError{Path: opts.Path, Err: ErrNothingToSave}
	}

	format := opts.Format
	if format == "" {
		f, err := FormatFromPath(opts.Path)
		if err != nil {
			return nil, &SaveError{Path: opts.Path, Err: err}
		}
		format = f
	}
	if format == FormatWebP {
		return nil, &SaveError{Path: opts.Path, Err: fmt.Errorf("webp output is not supported")}
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	if !opts.Split {
		data, err := encodeSet(set, format, quality, logger)
		if err != nil {
			return nil, &SaveError{Path: opts.Path, Err: err}
		}
		if err := write(opts.Path, data, opts.ReplaceConflicting, logger); err != nil {
			return nil, err
		}
		return []string{opts.Path}, nil
	}

	if format == FormatICO {
		fits := make(icon.Set, 0, len(set))
		for _, ic := range set {
			if ic.Size <= MaxICOSize {
				fits = append(fits, ic)
			}
		}
		if len(fits) == 0 {
			return nil, &SaveError{Path: opts.Path, Err: ErrNoICOEntries}
		}
		if len(fits) < len(set) {
			warnICOLimit(logger, fits.Sizes())
		}
		set = fits
	}

	dir, name := SplitOutputPath(opts.Path)
	ext := formatToExt(format)
	var saved []string
	for _, ic := range set {
		target := filepath.Join(dir, SizedFileName(opts.Pattern, name, ic.Size, ext))
		data, err := encodeSet(icon.Set{ic}, format, quality, logger)
		if err != nil {
			return saved, &SaveError{Path: target, Err: err}
		}
		if err := write(target, data, opts.ReplaceConflicting, logger); err != nil {
			return saved, err
		}
		saved = append(saved, target)
	}
	return saved, nil
}

func write(target string, data []byte, replace bool, logger *slog.Logger) error {
	if replace {
		if err := CleanupConflictingFormats(filepath.Dir(target), filepath.Base(target), logger); err != nil {
			logger.Warn("failed to clean up conflicting formats",
				slog.String("file", target),
				slog.String("error", err.Error()))
		}
	}
	if err := filesystem.WriteFileAtomic(target, data, 0o644); err != nil {
		return &SaveError{Path: target, Err: err}
	}
	logger.Debug("saved icon file",
		slog.String("path", target),
		slog.Int("bytes", len(data)))
	return nil
}

// encodeSet serializes a set in the given format.
func encodeSet(set icon.Set, format string, quality int, logger *slog.Logger) ([]byte, error) {
	var buf bytes.Buffer

	if format == FormatICO {
		written, err := EncodeICO(&buf, set)
		if err != nil {
			return nil, err
		}
		if len(written) < len(set) {
			warnICOLimit(logger, written)
		}
		return buf.Bytes(), nil
	}

	largest, _ := set.Largest()
	if format == FormatICNS {
		if err := icns.Encode(&buf, largest.Image); err != nil {
			return nil, fmt.Errorf("encoding icns: %w", err)
		}
		return buf.Bytes(), nil
	}

	return encode(largest.Image, format, quality)
}

func warnICOLimit(logger *slog.Logger, written []int) {
	logger.Warn("sizes above the ICO limit were left out",
		slog.Int("limit", MaxICOSize),
		slog.String("written", icon.FormatSizes(written)))
}

// encode writes an image in the specified raster format to a byte slice.
func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, flatten(img), imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(quality)))
	case FormatGIF:
		err = imaging.Encode(&buf, img, imaging.GIF)
	case FormatBMP:
		err = imaging.Encode(&buf, img, imaging.BMP)
	case FormatTIFF:
		err = imaging.Encode(&buf, img, imaging.TIFF)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", format, err)
	}

	return buf.Bytes(), nil
}

// flatten composites img over white, for formats without alpha.
func flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

// pngLevel maps quality 1-100 onto a zlib level 9-0 and then onto the
// levels image/png exposes.
func pngLevel(quality int) png.CompressionLevel {
	level := 9 - int(float64(quality)/11.1)
	switch {
	case level <= 0:
		return png.NoCompression
	case level <= 3:
		return png.BestSpeed
	case level <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}
