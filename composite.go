package contrast

import (
	"fmt"

	"github.com/gogpu/contrast/internal/wcag"
)

// Composite overlays mask on original and returns a new bitmap.
//
// Where the mask is unmarked the original color is darkened to half
// (integer v/2 per channel) and its alpha kept. Where the mask is marked the
// mask gray is drawn at full opacity. Neither input is modified.
func Composite(original *Bitmap, mask *Mask) (*Bitmap, error) {
	if original == nil || mask == nil {
		return nil, fmt.Errorf("%w: nil bitmap or mask", ErrInvalidInput)
	}
	if original.width != mask.width || original.height != mask.height {
		return nil, fmt.Errorf("%w: bitmap %dx%d, mask %dx%d", ErrDimensionMismatch,
			original.width, original.height, mask.width, mask.height)
	}

	src, m := original.pix, mask.pix
	out := make([]uint8, len(src))
	for i := 0; i < len(out); i += 4 {
		if wcag.Decode(m[i], m[i+1], m[i+2], m[i+3]) == 0 {
			out[i+0] = src[i+0] / 2
			out[i+1] = src[i+1] / 2
			out[i+2] = src[i+2] / 2
			out[i+3] = src[i+3]
			continue
		}
		out[i+0], out[i+1], out[i+2], out[i+3] = m[i], m[i+1], m[i+2], wcag.MarkedAlpha
	}
	return newBitmap(original.width, original.height, out), nil
}
