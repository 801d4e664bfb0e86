package contrast

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp" // register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/gogpu/contrast/internal/wcag"
)

// Bitmap is a captured image: row-major, non-premultiplied RGBA with row 0
// at the top. The analysis never mutates a Bitmap.
type Bitmap struct {
	width  int
	height int
	pix    []uint8 // RGBA, 4 bytes per pixel
}

// NewBitmap creates a bitmap from a copy of pix. It returns ErrInvalidInput
// when the dimensions are not positive or len(pix) != width*height*4.
func NewBitmap(width, height int, pix []uint8) (*Bitmap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: bitmap size %dx%d", ErrInvalidInput, width, height)
	}
	if len(pix) != width*height*4 {
		return nil, fmt.Errorf("%w: bitmap %dx%d needs %d bytes, got %d",
			ErrInvalidInput, width, height, width*height*4, len(pix))
	}
	data := make([]uint8, len(pix))
	copy(data, pix)
	return &Bitmap{width: width, height: height, pix: data}, nil
}

// newBitmap wraps pix without copying. Callers own the buffer.
func newBitmap(width, height int, pix []uint8) *Bitmap {
	return &Bitmap{width: width, height: height, pix: pix}
}

// FromImage converts any image into a bitmap.
func FromImage(img image.Image) (*Bitmap, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image size %dx%d", ErrInvalidInput, b.Dx(), b.Dy())
	}
	if n, ok := img.(*image.NRGBA); ok && n.Stride == b.Dx()*4 {
		off := n.PixOffset(b.Min.X, b.Min.Y)
		return NewBitmap(b.Dx(), b.Dy(), n.Pix[off:off+b.Dx()*b.Dy()*4])
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	return newBitmap(b.Dx(), b.Dy(), dst.Pix), nil
}

// DecodeBitmap decodes a PNG, JPEG, GIF, BMP, TIFF or WebP capture.
func DecodeBitmap(r io.Reader) (*Bitmap, error) {
	img, _, err := image.Decode(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrInvalidInput, err)
	}
	return FromImage(img)
}

// LoadBitmap reads and decodes the image file at path.
func LoadBitmap(path string) (*Bitmap, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	bm, err := DecodeBitmap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bm, nil
}

// Width returns the width of the bitmap.
func (b *Bitmap) Width() int { return b.width }

// Height returns the height of the bitmap.
func (b *Bitmap) Height() int { return b.height }

// Pix returns the raw pixel data. Callers must not modify it.
func (b *Bitmap) Pix() []uint8 { return b.pix }

// RGBA returns the channels of pixel (x, y). Out of range returns zeros.
func (b *Bitmap) RGBA(x, y int) (r, g, bl, a uint8) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return 0, 0, 0, 0
	}
	i := (y*b.width + x) * 4
	return b.pix[i], b.pix[i+1], b.pix[i+2], b.pix[i+3]
}

// view exposes the bitmap to the search code without copying.
func (b *Bitmap) view() wcag.Image {
	return wcag.Image{Width: b.width, Height: b.height, Pix: b.pix}
}

// ToImage converts the bitmap to an image.NRGBA.
func (b *Bitmap) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.pix)
	return img
}

// EncodePNG writes the bitmap to w as PNG.
func (b *Bitmap) EncodePNG(w io.Writer) error {
	return png.Encode(w, b.ToImage())
}

// SavePNG saves the bitmap to a PNG file.
func (b *Bitmap) SavePNG(path string) error {
	return savePNG(path, b.EncodePNG)
}

// At implements the image.Image interface.
func (b *Bitmap) At(x, y int) color.Color {
	r, g, bl, a := b.RGBA(x, y)
	return color.NRGBA{R: r, G: g, B: bl, A: a}
}

// Bounds implements the image.Image interface.
func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *Bitmap) ColorModel() color.Model {
	return color.NRGBAModel
}

func savePNG(path string, encode func(io.Writer) error) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := encode(w); err != nil {
		return err
	}
	return w.Flush()
}
