package wcag

// Image is a read-only view of a row-major RGBA buffer with row 0 at the top.
type Image struct {
	Width  int
	Height int
	Pix    []uint8
}

// Params configures a neighborhood search.
type Params struct {
	// Radius is the largest ring examined, in [1, MaxRadius].
	Radius int

	// Threshold is the minimum contrast ratio that qualifies a neighbor.
	Threshold float64
}

// ParamsFor returns search parameters for a level and radius.
func ParamsFor(level Level, radius int) Params {
	return Params{Radius: radius, Threshold: level.Threshold()}
}

// Search returns the smallest ring r in [1, p.Radius] that contains an
// in-bounds neighbor of (x, y) whose contrast ratio with (x, y) is at least
// p.Threshold. It returns 0 when no ring qualifies.
//
// Ring r holds the offsets with max(|dx|, |dy|) == r. Offsets outside the
// image are skipped. The search stops at the first qualifying ring.
func Search(im Image, c *Cache, x, y int, p Params) int {
	i := (y*im.Width + x) * 4
	center := c.Luminance(im.Pix[i], im.Pix[i+1], im.Pix[i+2])
	for r := 1; r <= p.Radius; r++ {
		if ringQualifies(im, c, x, y, r, center, p.Threshold) {
			return r
		}
	}
	return 0
}

// ringQualifies scans ring r around (x, y) in row-major order.
func ringQualifies(im Image, c *Cache, x, y, r int, center, threshold float64) bool {
	y0, y1 := max(y-r, 0), min(y+r, im.Height-1)
	x0, x1 := max(x-r, 0), min(x+r, im.Width-1)

	for ny := y0; ny <= y1; ny++ {
		row := ny * im.Width
		if ny == y-r || ny == y+r {
			// Top and bottom edges: the full clipped span.
			for nx := x0; nx <= x1; nx++ {
				if neighborQualifies(im, c, row+nx, center, threshold) {
					return true
				}
			}
			continue
		}
		// Side columns only; the interior was covered by smaller rings.
		if x-r >= 0 && neighborQualifies(im, c, row+x-r, center, threshold) {
			return true
		}
		if x+r < im.Width && neighborQualifies(im, c, row+x+r, center, threshold) {
			return true
		}
	}
	return false
}

func neighborQualifies(im Image, c *Cache, idx int, center, threshold float64) bool {
	j := idx * 4
	l := c.Luminance(im.Pix[j], im.Pix[j+1], im.Pix[j+2])
	return ContrastRatio(center, l) >= threshold
}

// ScanRow runs Search for every pixel of row y and encodes the results into
// dst, which must hold im.Width*4 bytes.
func ScanRow(im Image, c *Cache, y int, p Params, dst []uint8) {
	for x := 0; x < im.Width; x++ {
		Encode(dst[x*4:x*4+4], Search(im, c, x, y, p))
	}
}
