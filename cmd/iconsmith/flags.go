package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sydlexius/iconsmith/internal/config"
	imgpkg "github.com/sydlexius/iconsmith/internal/image"
)

// options are the flags shared by generate and watch. Only flags the user
// set override the loaded config.
type options struct {
	configPath string
	source     string
	out        string
	format     string
	sizes      string
	custom     string
	shape      string
	radius     float64
	radiusPct  bool
	effect     string
	quality    int
	split      bool
	brightness float64
	contrast   float64
	saturation float64
	alpha      float64
	logLevel   string
	noHistory  bool

	set map[string]bool
}

func newFlagSet(name string, stderr io.Writer) (*flag.FlagSet, *options) {
	o := &options{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&o.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "YAML config file")
	fs.StringVar(&o.source, "source", "", "source image")
	fs.StringVar(&o.out, "out", "", "output file; its extension selects the format unless -format is set")
	fs.StringVar(&o.format, "format", "", "output format: ico, icns, png, jpeg, gif, bmp, tiff")
	fs.StringVar(&o.sizes, "sizes", "", "comma-separated preset sizes")
	fs.StringVar(&o.custom, "custom", "", "comma-separated extra sizes")
	fs.StringVar(&o.shape, "shape", "", "shape: square, circle, rounded, star, heart, triangle")
	fs.Float64Var(&o.radius, "radius", 0, "corner radius of the rounded shape")
	fs.BoolVar(&o.radiusPct, "radius-percent", false, "read -radius as a percentage of each size")
	fs.StringVar(&o.effect, "effect", "", "effect applied to the source before resizing")
	fs.IntVar(&o.quality, "quality", 0, "encoder quality 1-100")
	fs.BoolVar(&o.split, "split", false, "write one file per size")
	fs.Float64Var(&o.brightness, "brightness", 1, "brightness factor")
	fs.Float64Var(&o.contrast, "contrast", 1, "contrast factor")
	fs.Float64Var(&o.saturation, "saturation", 1, "saturation factor")
	fs.Float64Var(&o.alpha, "alpha", 1, "opacity factor 0-1")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&o.noHistory, "no-history", false, "do not record runs")
	return fs, o
}

func (o *options) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	o.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { o.set[f.Name] = true })
	return nil
}

// load reads the config file and environment, applies flags and
// validates the result.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating flags: %w", err)
	}
	return cfg, nil
}

func (o *options) apply(cfg *config.Config) {
	if o.set["source"] {
		cfg.Source = o.source
	}
	if o.set["out"] {
		cfg.Output.Path = o.out
		if !o.set["format"] {
			if f, err := imgpkg.FormatFromPath(o.out); err == nil {
				cfg.Output.Format = f
			}
		}
	}
	if o.set["format"] {
		cfg.Output.Format = o.format
	}
	if o.set["sizes"] {
		cfg.Sizes.Presets = o.sizes
	}
	if o.set["custom"] {
		cfg.Sizes.Custom = o.custom
	}
	if o.set["shape"] {
		cfg.Shape.Kind = o.shape
	}
	if o.set["radius"] {
		cfg.Shape.Radius = o.radius
	}
	if o.set["radius-percent"] {
		cfg.Shape.RadiusPercent = o.radiusPct
	}
	if o.set["effect"] {
		cfg.Effect = o.effect
	}
	if o.set["quality"] {
		cfg.Output.Quality = o.quality
	}
	if o.set["split"] {
		cfg.Output.Split = o.split
	}
	for _, f := range []struct {
		name string
		v    float64
		dst  **float64
	}{
		{"brightness", o.brightness, &cfg.Adjust.Brightness},
		{"contrast", o.contrast, &cfg.Adjust.Contrast},
		{"saturation", o.saturation, &cfg.Adjust.Saturation},
		{"alpha", o.alpha, &cfg.Adjust.Alpha},
	} {
		if o.set[f.name] {
			v := f.v
			*f.dst = &v
		}
	}
	if o.set["log-level"] {
		cfg.Logging.Level = o.logLevel
	}
	if o.noHistory {
		cfg.Database.Enabled = false
	}
}
