// Package icon holds the value types shared by the rendering pipeline:
// target sizes and the square images produced for them.
package icon

import "image"

// Icon is one square rendition of the source at a single pixel size.
type Icon struct {
	Size  int
	Image *image.NRGBA
}

// Set is the ordered output of one batch run, ascending by size.
type Set []Icon

// Sizes returns the pixel size of every icon in order.
func (s Set) Sizes() []int {
	out := make([]int, len(s))
	for i, ic := range s {
		out[i] = ic.Size
	}
	return out
}

// Largest returns the icon with the greatest size. The second result is
// false for an empty set.
func (s Set) Largest() (Icon, bool) {
	if len(s) == 0 {
		return Icon{}, false
	}
	best := s[0]
	for _, ic := range s[1:] {
		if ic.Size > best.Size {
			best = ic
		}
	}
	return best, true
}

// Get returns the icon for size, if present.
func (s Set) Get(size int) (Icon, bool) {
	for _, ic := range s {
		if ic.Size == size {
			return ic, true
		}
	}
	return Icon{}, false
}
