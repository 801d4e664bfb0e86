package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/contrast/internal/wcag"
)

// Layout constants of the contrast program.
const (
	// paramsSize is the size of the Params uniform in bytes.
	paramsSize = 32

	// workgroupSize is the edge of the 8x8 compute workgroup.
	workgroupSize = 8

	// unmarkedPixel is the packed (0, 0, 0, 128) framebuffer value.
	unmarkedPixel uint32 = uint32(wcag.UnmarkedAlpha) << 24

	// maxBufferSize bounds a single storage buffer binding.
	maxBufferSize = 128 << 20
)

// passParams mirrors the Params uniform of contrast.wgsl.
type passParams struct {
	Width     uint32
	Height    uint32
	DX        int32
	DY        int32
	Gray      uint32
	Threshold float32
}

// bytes serializes p with the uniform's std140 layout.
func (p passParams) bytes() []byte {
	b := make([]byte, paramsSize)
	binary.LittleEndian.PutUint32(b[0:], p.Width)
	binary.LittleEndian.PutUint32(b[4:], p.Height)
	binary.LittleEndian.PutUint32(b[8:], uint32(p.DX)) //nolint:gosec // two's complement bit pattern
	binary.LittleEndian.PutUint32(b[12:], uint32(p.DY)) //nolint:gosec // two's complement bit pattern
	binary.LittleEndian.PutUint32(b[16:], p.Gray)
	binary.LittleEndian.PutUint32(b[20:], math.Float32bits(p.Threshold))
	return b
}

// ringOffsets returns the offsets with max(|dx|, |dy|) == r in row-major
// order. Ring r has 8r offsets.
func ringOffsets(r int) [][2]int {
	out := make([][2]int, 0, 8*r)
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if max(abs(dx), abs(dy)) == r {
				out = append(out, [2]int{dx, dy})
			}
		}
	}
	return out
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// planPasses returns one pass per ring offset for radii 1..radius, smallest
// ring first. The shader has no loops; the pass sequence replaces them.
func planPasses(width, height, radius int, threshold float64) []passParams {
	var passes []passParams
	for r := 1; r <= radius; r++ {
		for _, off := range ringOffsets(r) {
			passes = append(passes, passParams{
				Width:     uint32(width),  //nolint:gosec // validated by checkRequest
				Height:    uint32(height), //nolint:gosec // validated by checkRequest
				DX:        int32(off[0]),  //nolint:gosec // |dx| <= MaxRadius
				DY:        int32(off[1]),  //nolint:gosec // |dy| <= MaxRadius
				Gray:      uint32(wcag.GrayFor(r)),
				Threshold: float32(threshold),
			})
		}
	}
	return passes
}

// packTexels packs RGBA rows into little-endian u32 texels, r in the low
// byte, preserving upload (top-down) row order.
func packTexels(pix []uint8) []byte {
	n := len(pix) / 4
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		s := i * 4
		packed := uint32(pix[s]) | uint32(pix[s+1])<<8 | uint32(pix[s+2])<<16 | uint32(pix[s+3])<<24
		binary.LittleEndian.PutUint32(out[s:], packed)
	}
	return out
}

// unmarkedFrame returns a framebuffer of n unmarked fragments.
func unmarkedFrame(n int) []byte {
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(out[i*4:], unmarkedPixel)
	}
	return out
}

// unpackFrame converts a bottom-up framebuffer readback into top-down RGBA
// mask rows in dst.
func unpackFrame(frame []byte, width, height int, dst []uint8) {
	stride := width * 4
	for fy := 0; fy < height; fy++ {
		src := frame[fy*stride : (fy+1)*stride]
		row := dst[(height-1-fy)*stride : (height-fy)*stride]
		for i := 0; i < stride; i += 4 {
			v := binary.LittleEndian.Uint32(src[i:])
			row[i+0] = uint8(v)       //nolint:gosec // masked to 8 bits
			row[i+1] = uint8(v >> 8)  //nolint:gosec // masked to 8 bits
			row[i+2] = uint8(v >> 16) //nolint:gosec // masked to 8 bits
			row[i+3] = uint8(v >> 24) //nolint:gosec // masked to 8 bits
		}
	}
}

// linearTableBytes serializes the shared sRGB linearization table.
func linearTableBytes() []byte {
	table := wcag.LinearTable()
	out := make([]byte, len(table)*4)
	for i, v := range table {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// workgroups returns the dispatch size for a width x height framebuffer.
func workgroups(width, height int) (x, y uint32) {
	return uint32((width + workgroupSize - 1) / workgroupSize), //nolint:gosec // validated by checkRequest
		uint32((height + workgroupSize - 1) / workgroupSize) //nolint:gosec // validated by checkRequest
}
