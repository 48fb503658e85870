package icon

import (
	"slices"
	"strconv"
	"strings"
)

// Size bounds, inclusive. Every icon is square.
const (
	MinSize = 8
	MaxSize = 512
)

// DefaultPresets is the preset size list used when none is configured.
const DefaultPresets = "16,24,32,48,64,128,256"

// ValidSize reports whether s lies within [MinSize, MaxSize].
func ValidSize(s int) bool {
	return s >= MinSize && s <= MaxSize
}

// ParseSizes merges two comma-separated size lists into a sorted set.
// Entries that are not integers or fall outside [MinSize, MaxSize] are
// dropped silently. The result may be empty.
func ParseSizes(presets, custom string) []int {
	seen := make(map[int]struct{})
	var sizes []int
	for _, list := range []string{presets, custom} {
		for _, field := range strings.Split(list, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || !ValidSize(n) {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			sizes = append(sizes, n)
		}
	}
	slices.Sort(sizes)
	return sizes
}

// FormatSizes renders sizes as a comma-separated list.
func FormatSizes(sizes []int) string {
	parts := make([]string, len(sizes))
	for i, s := range sizes {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}
