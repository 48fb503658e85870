package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/sydlexius/iconsmith/internal/effect"
	"github.com/sydlexius/iconsmith/internal/shape"
)

func runShapes(w io.Writer) error {
	shapes := make([]string, 0, len(shape.Kinds()))
	for _, k := range shape.Kinds() {
		shapes = append(shapes, k.String())
	}
	effects := make([]string, 0, len(effect.Kinds()))
	for _, k := range effect.Kinds() {
		effects = append(effects, k.String())
	}
	_, err := fmt.Fprintf(w, "shapes:  %s\neffects: %s\n",
		strings.Join(shapes, ", "), strings.Join(effects, ", "))
	return err
}
