// Package shape builds opacity masks for icon silhouettes and applies them
// to square images.
package shape

import (
	"fmt"
	"strings"
)

// Kind identifies a silhouette.
type Kind int

// Supported silhouettes. Square is the identity.
const (
	Square Kind = iota
	Circle
	RoundedRect
	Star
	Heart
	Triangle
)

var kindNames = map[Kind]string{
	Square:      "square",
	Circle:      "circle",
	RoundedRect: "rounded",
	Star:        "star",
	Heart:       "heart",
	Triangle:    "triangle",
}

// aliases maps accepted spellings, including the Chinese UI labels, onto
// kinds.
var aliases = map[string]Kind{
	"square":       Square,
	"none":         Square,
	"circle":       Circle,
	"round":        Circle,
	"rounded":      RoundedRect,
	"rounded-rect": RoundedRect,
	"rounded_rect": RoundedRect,
	"roundedrect":  RoundedRect,
	"star":         Star,
	"heart":        Heart,
	"triangle":     Triangle,

	// Chinese UI labels.
	"方形":   Square,
	"圆形":   Circle,
	"圆角矩形": RoundedRect,
	"星形":   Star,
	"心形":   Heart,
	"三角形":  Triangle,
}

// Kinds lists every silhouette in declaration order.
func Kinds() []Kind {
	return []Kind{Square, Circle, RoundedRect, Star, Heart, Triangle}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("shape(%d)", int(k))
}

// ParseKind resolves a silhouette name. Unknown names return Square and
// false so the caller can decide how loudly to fall back.
func ParseKind(name string) (Kind, bool) {
	k, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Square, false
	}
	return k, true
}

// Shape is a silhouette plus its parameters.
type Shape struct {
	Kind Kind
	// Radius is the corner radius of RoundedRect, in pixels or, when
	// RadiusPercent is set, in percent of the icon size.
	Radius        float64
	RadiusPercent bool
}

// RadiusFor resolves the corner radius for a given icon size, clamped to
// [0, size/2].
func (s Shape) RadiusFor(size int) float64 {
	r := s.Radius
	if s.RadiusPercent {
		r = float64(size) * s.Radius / 100
	}
	half := float64(size) / 2
	if r < 0 {
		return 0
	}
	if r > half {
		return half
	}
	return r
}

func (s Shape) String() string {
	if s.Kind != RoundedRect {
		return s.Kind.String()
	}
	if s.RadiusPercent {
		return fmt.Sprintf("rounded(%g%%)", s.Radius)
	}
	return fmt.Sprintf("rounded(%gpx)", s.Radius)
}
