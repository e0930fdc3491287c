// Package style maps earthquake attributes to visual properties.
package style

// Color is a CSS color name understood by the map page.
type Color string

// Depth bucket colors, shallowest first.
const (
	ColorShallow  Color = "paleturquoise"
	ColorShallow2 Color = "greenyellow"
	ColorMid      Color = "gold"
	ColorMid2     Color = "orange"
	ColorDeep     Color = "orangered"
	ColorDeepest  Color = "firebrick"
)

// Boundaries are the lower edges of the depth buckets in kilometers.
// The first value is only a legend sentinel; classification never uses it.
var Boundaries = [...]float64{-10, 10, 30, 50, 70, 90}

var bucketColors = [...]Color{
	ColorShallow,
	ColorShallow2,
	ColorMid,
	ColorMid2,
	ColorDeep,
	ColorDeepest,
}

// Bucket classifies depth into 1..6. Values exactly on a boundary fall into the lower bucket.
func Bucket(depth float64) int {
	switch {
	case depth > 90:
		return 6
	case depth > 70:
		return 5
	case depth > 50:
		return 4
	case depth > 30:
		return 3
	case depth > 10:
		return 2
	default:
		return 1
	}
}

// ColorForDepth returns the fill color of the bucket depth belongs to.
func ColorForDepth(depth float64) Color {
	return bucketColors[Bucket(depth)-1]
}

// RadiusForMagnitude returns the marker radius for mag.
// Zero means "no magnitude reported" and maps to 1 so the marker stays visible.
// Negative magnitudes are passed through unclamped.
func RadiusForMagnitude(mag float64) float64 {
	if mag == 0 {
		return 1
	}
	return mag * 4
}
