package image

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// rasterExtensions are the single-image outputs that replace one another
// when written under the same base name.
var rasterExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff", ".webp"}

// CleanupConflictingFormats deletes existing files that share the same base
// name but carry a different raster extension. Saving "app-32x32.png"
// removes a stale "app-32x32.jpg" left by an earlier run. Container formats
// (.ico, .icns) never conflict.
func CleanupConflictingFormats(dir string, fileName string, logger *slog.Logger) error {
	ext := strings.ToLower(filepath.Ext(fileName))
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	if !isRasterExt(ext) {
		return nil
	}

	for _, altExt := range rasterExtensions {
		if altExt == ext {
			continue
		}
		altPath := filepath.Join(dir, base+altExt)
		if _, err := os.Stat(altPath); err == nil {
			if err := os.Remove(altPath); err != nil {
				return err
			}
			logger.Info("deleted conflicting icon file",
				slog.String("deleted", altPath),
				slog.String("replaced_by", filepath.Join(dir, fileName)))
		}
	}

	return nil
}

func isRasterExt(ext string) bool {
	for _, e := range rasterExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
