// Package legend builds the depth legend shown next to the earthquake overlay.
package legend

import (
	"strconv"

	"github.com/woozymasta/quakemap/internal/style"
)

// Entry is one legend row: a color swatch and its depth range.
type Entry struct {
	Color style.Color `json:"color" yaml:"color"`
	Label string      `json:"label" yaml:"label"`
	Lower float64     `json:"lower" yaml:"lower"`
}

// Build returns one entry per depth bucket, shallowest first.
// Each color is sampled one kilometer above the boundary so it lands inside the bucket.
func Build() []Entry {
	bounds := style.Boundaries
	entries := make([]Entry, 0, len(bounds))

	for i, b := range bounds {
		label := formatDepth(b) + "+"
		if i+1 < len(bounds) {
			label = formatDepth(b) + "–" + formatDepth(bounds[i+1])
		}

		entries = append(entries, Entry{
			Color: style.ColorForDepth(b + 1),
			Label: label,
			Lower: b,
		})
	}

	return entries
}

// Descending returns a reversed copy, deepest bucket first, as the legend panel displays it.
func Descending(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

func formatDepth(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
