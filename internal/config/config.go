// Package config loads iconsmith settings from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/iconsmith/internal/adjust"
	"github.com/sydlexius/iconsmith/internal/effect"
	"github.com/sydlexius/iconsmith/internal/icon"
	imgpkg "github.com/sydlexius/iconsmith/internal/image"
	"github.com/sydlexius/iconsmith/internal/logging"
	"github.com/sydlexius/iconsmith/internal/shape"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ICONSMITH_"

// Config holds all application configuration.
type Config struct {
	Source    string               `yaml:"source"`
	Output    OutputConfig         `yaml:"output"`
	Sizes     SizesConfig          `yaml:"sizes"`
	Shape     ShapeConfig          `yaml:"shape"`
	Adjust    AdjustConfig         `yaml:"adjust"`
	Overrides map[int]AdjustConfig `yaml:"overrides"`
	Effect    string               `yaml:"effect"`
	Logging   logging.Config       `yaml:"logging"`
	Database  DatabaseConfig       `yaml:"database"`
	Watch     WatchConfig          `yaml:"watch"`
}

// OutputConfig controls where and how icons are saved.
type OutputConfig struct {
	Path               string `yaml:"path"`
	Format             string `yaml:"format"`
	Quality            int    `yaml:"quality"`
	Split              bool   `yaml:"split"`
	Pattern            string `yaml:"pattern"`
	ReplaceConflicting bool   `yaml:"replace_conflicting"`
}

// SizesConfig selects target sizes as comma-separated lists.
type SizesConfig struct {
	Presets string `yaml:"presets"`
	Custom  string `yaml:"custom"`
}

// ShapeConfig selects the mask.
type ShapeConfig struct {
	Kind   string  `yaml:"kind"`
	Radius float64 `yaml:"radius"`
	// RadiusPercent reads Radius as a percentage of each icon size.
	RadiusPercent bool `yaml:"radius_percent"`
}

// AdjustConfig holds adjustment factors. Unset factors are neutral.
type AdjustConfig struct {
	Brightness *float64 `yaml:"brightness"`
	Contrast   *float64 `yaml:"contrast"`
	Saturation *float64 `yaml:"saturation"`
	Alpha      *float64 `yaml:"alpha"`
}

// DatabaseConfig holds the run history store settings.
type DatabaseConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
	// Retention is how long runs are kept; zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
	// MaintenanceInterval spaces pruning and optimizing in watch mode.
	MaintenanceInterval time.Duration `yaml:"maintenance_interval"`
}

// WatchConfig tunes the watch command.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Path:    "icon.ico",
			Format:  imgpkg.FormatICO,
			Quality: imgpkg.DefaultQuality,
			Pattern: imgpkg.DefaultSizedPattern,
		},
		Sizes: SizesConfig{
			Presets: icon.DefaultPresets,
		},
		Shape: ShapeConfig{
			Kind:   shape.Square.String(),
			Radius: 20,
		},
		Effect:  effect.None.String(),
		Logging: logging.DefaultConfig(),
		Database: DatabaseConfig{
			Path:                defaultDBPath(),
			Enabled:             true,
			Retention:           90 * 24 * time.Hour,
			MaintenanceInterval: 24 * time.Hour,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "iconsmith.db"
	}
	return filepath.Join(dir, "iconsmith", "history.db")
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is supplied by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() error {
	str := map[string]*string{
		"SOURCE":       &c.Source,
		"OUTPUT":       &c.Output.Path,
		"FORMAT":       &c.Output.Format,
		"PATTERN":      &c.Output.Pattern,
		"SIZES":        &c.Sizes.Presets,
		"CUSTOM_SIZES": &c.Sizes.Custom,
		"SHAPE":        &c.Shape.Kind,
		"EFFECT":       &c.Effect,
		"DB_PATH":      &c.Database.Path,
		"LOG_LEVEL":    &c.Logging.Level,
		"LOG_FORMAT":   &c.Logging.Format,
		"LOG_FILE":     &c.Logging.FilePath,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	var errs []error
	if v := os.Getenv(EnvPrefix + "QUALITY"); v != "" {
		q, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sQUALITY: %w", EnvPrefix, err))
		} else {
			c.Output.Quality = q
		}
	}
	if v := os.Getenv(EnvPrefix + "RADIUS"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRADIUS: %w", EnvPrefix, err))
		} else {
			c.Shape.Radius = r
		}
	}
	for key, dst := range map[string]*bool{
		"SPLIT":   &c.Output.Split,
		"HISTORY": &c.Database.Enabled,
		"REPLACE": &c.Output.ReplaceConflicting,
	} {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				continue
			}
			*dst = b
		}
	}
	for key, dst := range map[string]*time.Duration{
		"DEBOUNCE":  &c.Watch.Debounce,
		"RETENTION": &c.Database.Retention,
	} {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				continue
			}
			*dst = d
		}
	}
	return errors.Join(errs...)
}

// Validate normalizes names and checks every setting. Unknown shape and
// effect names are not errors; see MaskShape and EffectKind.
func (c *Config) Validate() error {
	var errs []error

	format, err := imgpkg.ParseFormat(c.Output.Format)
	if err != nil {
		errs = append(errs, err)
	} else if format == imgpkg.FormatWebP {
		errs = append(errs, errors.New("webp output is not supported"))
	} else {
		c.Output.Format = format
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output path is required"))
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d outside [1, 100]", c.Output.Quality))
	}
	if c.Output.Pattern == "" {
		c.Output.Pattern = imgpkg.DefaultSizedPattern
	}
	if len(c.SizeList()) == 0 {
		errs = append(errs, fmt.Errorf("no valid sizes in presets %q or custom %q", c.Sizes.Presets, c.Sizes.Custom))
	}
	if c.Shape.Radius < 0 || (c.Shape.RadiusPercent && c.Shape.Radius > 50) {
		errs = append(errs, fmt.Errorf("invalid corner radius %v", c.Shape.Radius))
	}
	if err := c.AdjustSet().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("adjust: %w", err))
	}
	for size, o := range c.Overrides {
		if !icon.ValidSize(size) {
			errs = append(errs, fmt.Errorf("override for size %d outside [%d, %d]", size, icon.MinSize, icon.MaxSize))
			continue
		}
		if err := o.Set().Validate(); err != nil {
			errs = append(errs, fmt.Errorf("override for %d: %w", size, err))
		}
	}
	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required when history is enabled"))
	}
	if c.Database.Retention < 0 || c.Database.MaintenanceInterval < 0 {
		errs = append(errs, fmt.Errorf("negative database retention %v or maintenance interval %v",
			c.Database.Retention, c.Database.MaintenanceInterval))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("negative watch debounce %v", c.Watch.Debounce))
	}
	c.Source = strings.TrimSpace(c.Source)
	return errors.Join(errs...)
}

// SizeList returns the sorted, deduplicated target sizes.
func (c *Config) SizeList() []int {
	return icon.ParseSizes(c.Sizes.Presets, c.Sizes.Custom)
}

// MaskShape returns the configured mask. The second result is false when
// the shape name was not recognized and Square is used instead.
func (c *Config) MaskShape() (shape.Shape, bool) {
	kind, ok := shape.ParseKind(c.Shape.Kind)
	return shape.Shape{Kind: kind, Radius: c.Shape.Radius, RadiusPercent: c.Shape.RadiusPercent}, ok
}

// EffectKind returns the configured effect. The second result is false
// when the name was not recognized and None is used instead.
func (c *Config) EffectKind() (effect.Kind, bool) {
	return effect.Parse(c.Effect)
}

// AdjustSet returns the global adjustments.
func (c *Config) AdjustSet() adjust.Set {
	return c.Adjust.Set()
}

// OverrideSets returns the per-size adjustments.
func (c *Config) OverrideSets() map[int]adjust.Set {
	if len(c.Overrides) == 0 {
		return nil
	}
	out := make(map[int]adjust.Set, len(c.Overrides))
	for size, o := range c.Overrides {
		out[size] = o.Set()
	}
	return out
}

// Set resolves unset factors to 1.
func (a AdjustConfig) Set() adjust.Set {
	s := adjust.Identity()
	if a.Brightness != nil {
		s.Brightness = *a.Brightness
	}
	if a.Contrast != nil {
		s.Contrast = *a.Contrast
	}
	if a.Saturation != nil {
		s.Saturation = *a.Saturation
	}
	if a.Alpha != nil {
		s.Alpha = *a.Alpha
	}
	return s
}
