package contrast

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/contrast/internal/wcag"
)

// maskFromRadii builds a mask from a row-major grid of found radii.
func maskFromRadii(w, h int, radii []int) *Mask {
	pix := make([]uint8, w*h*4)
	for i, r := range radii {
		wcag.Encode(pix[i*4:i*4+4], r)
	}
	return newMask(w, h, pix)
}

func TestMaskFoundRadius(t *testing.T) {
	m := maskFromRadii(4, 1, []int{0, 1, 2, 3})

	for x, want := range []int{0, 1, 2, 3} {
		if got := m.FoundRadius(x, 0); got != want {
			t.Errorf("FoundRadius(%d, 0) = %d, want %d", x, got, want)
		}
	}
	if m.FoundRadius(-1, 0) != 0 || m.FoundRadius(4, 0) != 0 {
		t.Error("FoundRadius out of range should be 0")
	}
	if m.Marked(0, 0) || !m.Marked(3, 0) {
		t.Error("Marked disagrees with FoundRadius")
	}
	if got := m.MarkedCount(); got != 3 {
		t.Errorf("MarkedCount() = %d, want 3", got)
	}
	if got := m.Histogram(); got != [4]int{1, 1, 1, 1} {
		t.Errorf("Histogram() = %v, want [1 1 1 1]", got)
	}
}

func TestMaskPixelEncoding(t *testing.T) {
	m := maskFromRadii(4, 1, []int{1, 2, 3, 0})
	want := []color.NRGBA{
		{R: GrayRadius1, G: GrayRadius1, B: GrayRadius1, A: 255},
		{R: GrayRadius2, G: GrayRadius2, B: GrayRadius2, A: 255},
		{R: GrayRadius3, G: GrayRadius3, B: GrayRadius3, A: 255},
		{A: 128},
	}
	for x, w := range want {
		if got := m.At(x, 0); got != w {
			t.Errorf("At(%d, 0) = %v, want %v", x, got, w)
		}
	}
}

func TestMaskAgreement(t *testing.T) {
	a := maskFromRadii(4, 1, []int{0, 1, 2, 3})
	b := maskFromRadii(4, 1, []int{0, 3, 0, 1})

	got, err := a.Agreement(b)
	if err != nil {
		t.Fatal(err)
	}
	// Radii differ but marked/unmarked agree on 3 of 4 pixels.
	if got != 0.75 {
		t.Errorf("Agreement() = %v, want 0.75", got)
	}

	if _, err := a.Agreement(maskFromRadii(2, 1, []int{0, 0})); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Agreement(size mismatch) = %v, want ErrDimensionMismatch", err)
	}
}

func TestMaskEqual(t *testing.T) {
	a := maskFromRadii(2, 1, []int{1, 0})
	if !a.Equal(maskFromRadii(2, 1, []int{1, 0})) {
		t.Error("identical masks should be Equal")
	}
	if a.Equal(maskFromRadii(2, 1, []int{2, 0})) {
		t.Error("masks with different radii should not be Equal")
	}
	if a.Equal(nil) {
		t.Error("Equal(nil) should be false")
	}
}

func TestMaskPNGRoundTrip(t *testing.T) {
	m := maskFromRadii(3, 2, []int{0, 1, 2, 3, 0, 1})

	var buf bytes.Buffer
	if err := m.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	bm, err := DecodeBitmap(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := NewMaskFromImage(bm)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(m) {
		t.Error("mask changed across a PNG round trip")
	}
}

func TestNewMaskFromImageNormalizes(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 170, G: 170, B: 170, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 12, G: 200, B: 3, A: 255}) // not an encoding

	m, err := NewMaskFromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if m.FoundRadius(0, 0) != 2 {
		t.Errorf("FoundRadius(0, 0) = %d, want 2", m.FoundRadius(0, 0))
	}
	if got := m.At(1, 0); got != (color.NRGBA{A: 128}) {
		t.Errorf("At(1, 0) = %v, want unmarked", got)
	}
}

func TestMaskBitmapIsCopy(t *testing.T) {
	m := maskFromRadii(1, 1, []int{1})
	bm := m.Bitmap()
	bm.pix[0] = 0
	if m.FoundRadius(0, 0) != 1 {
		t.Error("Bitmap() shares the mask buffer")
	}
}
