package contrast

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/gogpu/contrast/internal/wcag"
)

// Mask is the result of a contrast analysis. It has the same size as the
// analyzed bitmap. Each pixel is either marked, (g, g, g, 255) with
// g = 255, 170 or 85 for a qualifying neighbor found at radius 1, 2 or 3,
// or unmarked, (0, 0, 0, 128).
type Mask struct {
	width  int
	height int
	pix    []uint8 // RGBA, 4 bytes per pixel
}

// Gray values of marked mask pixels, indexed by found radius.
const (
	GrayRadius1 = wcag.GrayRadius1
	GrayRadius2 = wcag.GrayRadius2
	GrayRadius3 = wcag.GrayRadius3
)

// newMask wraps pix without copying.
func newMask(width, height int, pix []uint8) *Mask {
	return &Mask{width: width, height: height, pix: pix}
}

// NewMaskFromImage reads a mask back from an image, for example one saved
// with SavePNG. Pixels that do not carry a marked encoding are unmarked.
func NewMaskFromImage(img image.Image) (*Mask, error) {
	bm, err := FromImage(img)
	if err != nil {
		return nil, err
	}
	pix := make([]uint8, len(bm.pix))
	for i := 0; i < len(pix); i += 4 {
		wcag.Encode(pix[i:i+4], wcag.Decode(bm.pix[i], bm.pix[i+1], bm.pix[i+2], bm.pix[i+3]))
	}
	return newMask(bm.width, bm.height, pix), nil
}

// Width returns the mask width.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height.
func (m *Mask) Height() int { return m.height }

// Pix returns the raw RGBA mask data. Callers must not modify it.
func (m *Mask) Pix() []uint8 { return m.pix }

// Bounds returns the mask dimensions as an image.Rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// FoundRadius returns the radius at which (x, y) found a qualifying
// neighbor, or 0 if it is unmarked or out of range.
func (m *Mask) FoundRadius(x, y int) int {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return 0
	}
	i := (y*m.width + x) * 4
	return wcag.Decode(m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3])
}

// Marked reports whether (x, y) found a qualifying neighbor.
func (m *Mask) Marked(x, y int) bool {
	return m.FoundRadius(x, y) > 0
}

// MarkedCount returns the number of marked pixels.
func (m *Mask) MarkedCount() int {
	n := 0
	for i := 0; i < len(m.pix); i += 4 {
		if wcag.Decode(m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3]) > 0 {
			n++
		}
	}
	return n
}

// Histogram returns the pixel count per found radius; index 0 counts
// unmarked pixels.
func (m *Mask) Histogram() [wcag.MaxRadius + 1]int {
	var h [wcag.MaxRadius + 1]int
	for i := 0; i < len(m.pix); i += 4 {
		h[wcag.Decode(m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3])]++
	}
	return h
}

// Agreement returns the fraction of pixels on which m and other agree about
// marked versus unmarked. Found radii are not compared.
func (m *Mask) Agreement(other *Mask) (float64, error) {
	if other == nil || m.width != other.width || m.height != other.height {
		return 0, ErrDimensionMismatch
	}
	total := m.width * m.height
	if total == 0 {
		return 1, nil
	}
	same := 0
	for i := 0; i < len(m.pix); i += 4 {
		a := wcag.Decode(m.pix[i], m.pix[i+1], m.pix[i+2], m.pix[i+3]) > 0
		b := wcag.Decode(other.pix[i], other.pix[i+1], other.pix[i+2], other.pix[i+3]) > 0
		if a == b {
			same++
		}
	}
	return float64(same) / float64(total), nil
}

// Equal reports whether both masks have the same size and bytes.
func (m *Mask) Equal(other *Mask) bool {
	return other != nil && m.width == other.width && m.height == other.height &&
		bytes.Equal(m.pix, other.pix)
}

// Bitmap returns a copy of the mask as a bitmap.
func (m *Mask) Bitmap() *Bitmap {
	pix := make([]uint8, len(m.pix))
	copy(pix, m.pix)
	return newBitmap(m.width, m.height, pix)
}

// ToImage converts the mask to an image.NRGBA.
func (m *Mask) ToImage() *image.NRGBA {
	img := image.NewNRGBA(m.Bounds())
	copy(img.Pix, m.pix)
	return img
}

// At implements the image.Image interface.
func (m *Mask) At(x, y int) color.Color {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return color.NRGBA{}
	}
	i := (y*m.width + x) * 4
	return color.NRGBA{R: m.pix[i], G: m.pix[i+1], B: m.pix[i+2], A: m.pix[i+3]}
}

// ColorModel implements the image.Image interface.
func (m *Mask) ColorModel() color.Model {
	return color.NRGBAModel
}

// EncodePNG writes the mask to w as PNG.
func (m *Mask) EncodePNG(w io.Writer) error {
	return png.Encode(w, m.ToImage())
}

// SavePNG saves the mask to a PNG file.
func (m *Mask) SavePNG(path string) error {
	return savePNG(path, m.EncodePNG)
}

// String returns a short summary such as "Mask(640x480, 1523 marked)".
func (m *Mask) String() string {
	return fmt.Sprintf("Mask(%dx%d, %d marked)", m.width, m.height, m.MarkedCount())
}
