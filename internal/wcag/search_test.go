package wcag

import (
	"math/rand"
	"testing"
)

// newImage returns a w×h image filled with c.
func newImage(w, h int, c [3]uint8) Image {
	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = c[0], c[1], c[2], 255
	}
	return Image{Width: w, Height: h, Pix: pix}
}

func setPixel(im Image, x, y int, c [3]uint8) {
	i := (y*im.Width + x) * 4
	im.Pix[i], im.Pix[i+1], im.Pix[i+2] = c[0], c[1], c[2]
}

var (
	black = [3]uint8{0, 0, 0}
	white = [3]uint8{255, 255, 255}
)

// bruteForce is the exhaustive reference: the minimum Chebyshev distance of
// any qualifying neighbor, capped at radius.
func bruteForce(im Image, x, y int, p Params) int {
	i := (y*im.Width + x) * 4
	center := RelativeLuminance(im.Pix[i], im.Pix[i+1], im.Pix[i+2])
	best := 0
	for dy := -p.Radius; dy <= p.Radius; dy++ {
		for dx := -p.Radius; dx <= p.Radius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= im.Width || ny >= im.Height {
				continue
			}
			j := (ny*im.Width + nx) * 4
			l := RelativeLuminance(im.Pix[j], im.Pix[j+1], im.Pix[j+2])
			if ContrastRatio(center, l) < p.Threshold {
				continue
			}
			d := max(abs(dx), abs(dy))
			if best == 0 || d < best {
				best = d
			}
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func TestSearchUniformImage(t *testing.T) {
	im := newImage(9, 7, [3]uint8{90, 120, 200})
	for _, level := range Levels() {
		for r := 1; r <= MaxRadius; r++ {
			p := ParamsFor(level, r)
			c := NewCache()
			for y := 0; y < im.Height; y++ {
				for x := 0; x < im.Width; x++ {
					if got := Search(im, c, x, y, p); got != 0 {
						t.Fatalf("%v r=%d: Search(%d,%d) = %d, want 0", level, r, x, y, got)
					}
				}
			}
		}
	}
}

func TestSearchRingDistance(t *testing.T) {
	// A single white pixel at the center of a black 9x9 image.
	im := newImage(9, 9, black)
	setPixel(im, 4, 4, white)
	p := ParamsFor(AASmall, 3)

	tests := []struct {
		x, y int
		want int
	}{
		{4, 4, 1}, // the white pixel sees black at ring 1
		{3, 3, 1},
		{5, 4, 1},
		{2, 4, 2},
		{6, 6, 2},
		{1, 4, 3},
		{7, 1, 3},
		{0, 4, 0}, // distance 4, beyond radius
		{8, 8, 0},
	}
	c := NewCache()
	for _, tt := range tests {
		if got := Search(im, c, tt.x, tt.y, p); got != tt.want {
			t.Errorf("Search(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestSearchRespectsRadius(t *testing.T) {
	im := newImage(9, 9, black)
	setPixel(im, 4, 4, white)
	c := NewCache()
	if got := Search(im, c, 1, 4, ParamsFor(AASmall, 2)); got != 0 {
		t.Errorf("radius 2 found distance-3 neighbor: got %d", got)
	}
	if got := Search(im, c, 1, 4, ParamsFor(AASmall, 3)); got != 3 {
		t.Errorf("radius 3: got %d, want 3", got)
	}
}

func TestSearchEdgesDoNotWrap(t *testing.T) {
	// White column at x=0; pixel at the right edge must not see it.
	im := newImage(6, 3, black)
	for y := 0; y < 3; y++ {
		setPixel(im, 0, y, white)
	}
	c := NewCache()
	p := ParamsFor(AASmall, 3)
	if got := Search(im, c, 5, 1, p); got != 0 {
		t.Errorf("right edge pixel saw wrapped neighbor: got %d", got)
	}
	if got := Search(im, c, 3, 1, p); got != 3 {
		t.Errorf("Search(3,1) = %d, want 3", got)
	}
}

func TestSearchCheckerboard(t *testing.T) {
	im := newImage(8, 8, black)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if (x+y)%2 == 0 {
				setPixel(im, x, y, white)
			}
		}
	}
	c := NewCache()
	for _, r := range []int{1, 2, 3} {
		p := ParamsFor(AASmall, r)
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				if got := Search(im, c, x, y, p); got != 1 {
					t.Fatalf("r=%d Search(%d,%d) = %d, want 1", r, x, y, got)
				}
			}
		}
	}
}

func TestSearchMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const w, h = 23, 17
	im := newImage(w, h, black)
	// Sparse palette so that qualifying pairs exist at varied distances.
	palette := [][3]uint8{{0, 0, 0}, {40, 40, 40}, {90, 90, 90}, {160, 160, 160}, {255, 255, 255}, {200, 30, 30}}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			setPixel(im, x, y, palette[rng.Intn(len(palette))])
		}
	}
	for _, level := range Levels() {
		for r := 1; r <= MaxRadius; r++ {
			p := ParamsFor(level, r)
			c := NewCache()
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					got := Search(im, c, x, y, p)
					want := bruteForce(im, x, y, p)
					if got != want {
						t.Fatalf("%v r=%d (%d,%d): Search = %d, brute force = %d", level, r, x, y, got, want)
					}
				}
			}
		}
	}
}

func TestSearchRadiusMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	im := newImage(31, 19, black)
	for i := 0; i < len(im.Pix); i += 4 {
		v := uint8(rng.Intn(256)) //nolint:gosec // bounded
		im.Pix[i], im.Pix[i+1], im.Pix[i+2] = v, v, v
	}
	c := NewCache()
	for y := 0; y < im.Height; y++ {
		for x := 0; x < im.Width; x++ {
			r1 := Search(im, c, x, y, ParamsFor(AALarge, 1))
			r3 := Search(im, c, x, y, ParamsFor(AALarge, 3))
			if r1 != 0 && r3 != r1 {
				t.Fatalf("(%d,%d): radius 1 found %d but radius 3 found %d", x, y, r1, r3)
			}
		}
	}
}

func TestScanRow(t *testing.T) {
	im := newImage(5, 1, black)
	setPixel(im, 0, 0, white)
	dst := make([]uint8, 5*4)
	ScanRow(im, NewCache(), 0, ParamsFor(AASmall, 3), dst)

	want := []int{1, 1, 2, 3, 0}
	for x, w := range want {
		got := Decode(dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3])
		if got != w {
			t.Errorf("x=%d decoded radius %d, want %d", x, got, w)
		}
	}
}
