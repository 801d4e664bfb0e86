package wcag

// Mask pixel encoding. A pixel whose nearest qualifying neighbor lies on ring
// r is painted opaque gray, brighter for closer edges. A pixel with no
// qualifying neighbor is half-transparent black, which the compositor
// interprets as "darken this pixel".
const (
	GrayRadius1 uint8 = 255
	GrayRadius2 uint8 = 170
	GrayRadius3 uint8 = 85

	MarkedAlpha   uint8 = 255
	UnmarkedAlpha uint8 = 128
)

// MaxRadius is the largest supported search radius.
const MaxRadius = 3

// GrayFor returns the mask gray level for a found radius, or 0 when radius
// is outside [1, MaxRadius].
func GrayFor(radius int) uint8 {
	switch radius {
	case 1:
		return GrayRadius1
	case 2:
		return GrayRadius2
	case 3:
		return GrayRadius3
	default:
		return 0
	}
}

// Encode writes the mask pixel for radius into dst[0:4].
// A radius of 0 (nothing found) writes the unmarked pixel.
func Encode(dst []uint8, radius int) {
	g := GrayFor(radius)
	if g == 0 {
		dst[0], dst[1], dst[2], dst[3] = 0, 0, 0, UnmarkedAlpha
		return
	}
	dst[0], dst[1], dst[2], dst[3] = g, g, g, MarkedAlpha
}

// Decode returns the found radius encoded in a mask pixel, or 0 when the
// pixel is unmarked or not a valid marked encoding.
func Decode(r, g, b, a uint8) int {
	if a != MarkedAlpha || r != g || g != b {
		return 0
	}
	switch r {
	case GrayRadius1:
		return 1
	case GrayRadius2:
		return 2
	case GrayRadius3:
		return 3
	default:
		return 0
	}
}
