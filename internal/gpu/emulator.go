package gpu

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/gogpu/contrast"
)

// Emulator executes the contrast program on the CPU with the same buffers,
// pass sequence, float32 arithmetic and row flips as the GPU accelerator.
// It needs no device, so it serves as a reference for the GPU path and as a
// stand-in accelerator where no adapter exists.
type Emulator struct{}

var _ contrast.GPUAccelerator = (*Emulator)(nil)

// NewEmulator creates a shader emulator.
func NewEmulator() *Emulator { return &Emulator{} }

// Name returns "contrast-emulator".
func (*Emulator) Name() string { return "contrast-emulator" }

// Init is a no-op.
func (*Emulator) Init() error { return nil }

// Close is a no-op.
func (*Emulator) Close() {}

// SetLogger sets the logger for the GPU backend.
func (*Emulator) SetLogger(l *slog.Logger) { setLogger(l) }

// Ready always reports true.
func (*Emulator) Ready() bool { return true }

// Analyze runs every planned pass over the framebuffer and unpacks it into dst.
func (*Emulator) Analyze(ctx context.Context, req contrast.GPURequest, dst []uint8) error {
	if err := checkRequest(req, dst); err != nil {
		return err
	}
	texels := words(packTexels(req.Pix))
	frame := words(unmarkedFrame(req.Width * req.Height))
	table := tableWords()

	passes := planPasses(req.Width, req.Height, req.Radius, req.Threshold)
	slogger().Debug("contrast-emulator: dispatch", "width", req.Width, "height", req.Height, "passes", len(passes))
	for _, p := range passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		for fy := uint32(0); fy < p.Height; fy++ {
			for fx := uint32(0); fx < p.Width; fx++ {
				shadeFragment(p, texels, table, frame, fx, fy)
			}
		}
	}

	unpackFrame(frameBytes(frame), req.Width, req.Height, dst)
	return nil
}

// shadeFragment is the body of the program's main entry point.
func shadeFragment(p passParams, texels []uint32, table *[256]float32, frame []uint32, fx, fy uint32) {
	fi := fy*p.Width + fx
	if frame[fi] != unmarkedPixel {
		return
	}

	tx := int32(fx)                //nolint:gosec // width fits int32
	ty := int32(p.Height - 1 - fy) //nolint:gosec // height fits int32
	nx, ny := tx+p.DX, ty+p.DY
	if nx < 0 || ny < 0 || nx >= int32(p.Width) || ny >= int32(p.Height) { //nolint:gosec // fits int32
		return
	}

	lc := texelLuminance(table, texels[uint32(ty)*p.Width+uint32(tx)]) //nolint:gosec // non-negative
	ln := texelLuminance(table, texels[uint32(ny)*p.Width+uint32(nx)]) //nolint:gosec // non-negative
	hi, lo := max(lc, ln), min(lc, ln)
	if (hi+0.05)/(lo+0.05) >= p.Threshold {
		g := p.Gray
		frame[fi] = g | g<<8 | g<<16 | 0xff000000
	}
}

func texelLuminance(table *[256]float32, t uint32) float32 {
	r := table[t&0xff]
	g := table[(t>>8)&0xff]
	b := table[(t>>16)&0xff]
	return float32(0.2126)*r + float32(0.7152)*g + float32(0.0722)*b
}

// checkRequest validates a request against the program's limits.
func checkRequest(req contrast.GPURequest, dst []uint8) error {
	if req.Width <= 0 || req.Height <= 0 {
		return fmt.Errorf("%w: empty %dx%d request", contrast.ErrFallbackToCPU, req.Width, req.Height)
	}
	size := req.Width * req.Height * 4
	if len(req.Pix) != size || len(dst) != size {
		return fmt.Errorf("%w: buffer sizes %d/%d, want %d", contrast.ErrInvalidInput, len(req.Pix), len(dst), size)
	}
	if size > maxBufferSize {
		return fmt.Errorf("%w: %dx%d exceeds the storage buffer limit", contrast.ErrFallbackToCPU, req.Width, req.Height)
	}
	if req.Radius < 1 || req.Radius > contrast.MaxRadius {
		return fmt.Errorf("%w: radius %d", contrast.ErrInvalidInput, req.Radius)
	}
	return nil
}

func words(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func frameBytes(w []uint32) []byte {
	out := make([]byte, len(w)*4)
	for i, v := range w {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

// tableWords decodes the uploaded linearization table.
func tableWords() *[256]float32 {
	var t [256]float32
	for i, v := range words(linearTableBytes()) {
		t[i] = math.Float32frombits(v)
	}
	return &t
}
