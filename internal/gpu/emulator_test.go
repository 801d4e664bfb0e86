package gpu

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/gogpu/contrast"
	"github.com/gogpu/contrast/internal/wcag"
)

// cpuMask computes the reference mask serially.
func cpuMask(w, h int, pix []uint8, radius int, threshold float64) []uint8 {
	im := wcag.Image{Width: w, Height: h, Pix: pix}
	p := wcag.Params{Radius: radius, Threshold: threshold}
	c := wcag.NewCache()
	out := make([]uint8, len(pix))
	for y := 0; y < h; y++ {
		wcag.ScanRow(im, c, y, p, out[y*w*4:(y+1)*w*4])
	}
	return out
}

func emulate(t *testing.T, w, h int, pix []uint8, radius int, threshold float64) []uint8 {
	t.Helper()
	dst := make([]uint8, len(pix))
	req := contrast.GPURequest{Width: w, Height: h, Pix: pix, Radius: radius, Threshold: threshold}
	if err := NewEmulator().Analyze(context.Background(), req, dst); err != nil {
		t.Fatalf("Emulator.Analyze() = %v", err)
	}
	return dst
}

func opaque(w, h int, fn func(x, y int) uint8) []uint8 {
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := fn(x, y)
			i := (y*w + x) * 4
			pix[i], pix[i+1], pix[i+2], pix[i+3] = v, v, v, 255
		}
	}
	return pix
}

func diffPixels(a, b []uint8) int {
	n := 0
	for i := 0; i < len(a); i += 4 {
		if a[i] != b[i] || a[i+1] != b[i+1] || a[i+2] != b[i+2] || a[i+3] != b[i+3] {
			n++
		}
	}
	return n
}

func TestEmulatorMatchesCPUOnAsymmetricImage(t *testing.T) {
	// A single white pixel near the top-left corner of a black image. A
	// missing row flip would mark the bottom of the mask instead.
	const w, h = 7, 5
	pix := opaque(w, h, func(x, y int) uint8 {
		if x == 1 && y == 0 {
			return 255
		}
		return 0
	})

	for radius := 1; radius <= wcag.MaxRadius; radius++ {
		want := cpuMask(w, h, pix, radius, 4.5)
		got := emulate(t, w, h, pix, radius, 4.5)
		if n := diffPixels(got, want); n != 0 {
			t.Errorf("radius %d: %d pixels differ from the CPU mask", radius, n)
		}
	}
}

func TestEmulatorMatchesCPUOnStripes(t *testing.T) {
	const w, h = 16, 11
	pix := opaque(w, h, func(x, y int) uint8 {
		if (y/3)%2 == 0 && x < 12 {
			return 250
		}
		return 20
	})
	for _, level := range wcag.Levels() {
		want := cpuMask(w, h, pix, 3, level.Threshold())
		got := emulate(t, w, h, pix, 3, level.Threshold())
		if n := diffPixels(got, want); n != 0 {
			t.Errorf("%v: %d pixels differ from the CPU mask", level, n)
		}
	}
}

func TestEmulatorAgreesWithCPUOnNoise(t *testing.T) {
	const w, h = 64, 48
	rng := rand.New(rand.NewPCG(1, 2))
	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = uint8(rng.IntN(256)), uint8(rng.IntN(256)), uint8(rng.IntN(256)), 255 //nolint:gosec // < 256
	}

	want := cpuMask(w, h, pix, 2, 4.5)
	got := emulate(t, w, h, pix, 2, 4.5)

	agree := 0
	for i := 0; i < len(got); i += 4 {
		if (wcag.Decode(got[i], got[i+1], got[i+2], got[i+3]) > 0) == (wcag.Decode(want[i], want[i+1], want[i+2], want[i+3]) > 0) {
			agree++
		}
	}
	if ratio := float64(agree) / float64(w*h); ratio < 0.99 {
		t.Errorf("agreement = %.4f, want >= 0.99", ratio)
	}
}

func TestEmulatorUniformUnmarked(t *testing.T) {
	pix := opaque(9, 9, func(int, int) uint8 { return 77 })
	got := emulate(t, 9, 9, pix, 3, 3.0)
	for i := 0; i < len(got); i += 4 {
		if wcag.Decode(got[i], got[i+1], got[i+2], got[i+3]) != 0 || got[i+3] != wcag.UnmarkedAlpha {
			t.Fatalf("pixel %d marked on a uniform image", i/4)
		}
	}
}

func TestEmulatorRejectsBadRequests(t *testing.T) {
	e := NewEmulator()
	tests := []struct {
		name string
		req  contrast.GPURequest
		dst  int
		want error
	}{
		{"empty", contrast.GPURequest{Radius: 1}, 0, contrast.ErrFallbackToCPU},
		{"short pix", contrast.GPURequest{Width: 2, Height: 2, Pix: make([]uint8, 8), Radius: 1}, 16, contrast.ErrInvalidInput},
		{"radius 0", contrast.GPURequest{Width: 1, Height: 1, Pix: make([]uint8, 4)}, 4, contrast.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.Analyze(context.Background(), tt.req, make([]uint8, tt.dst))
			if !errors.Is(err, tt.want) {
				t.Errorf("Analyze() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEmulatorHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pix := opaque(4, 4, func(x, _ int) uint8 { return uint8(x * 60) }) //nolint:gosec // < 256
	req := contrast.GPURequest{Width: 4, Height: 4, Pix: pix, Radius: 1, Threshold: 4.5}
	if err := NewEmulator().Analyze(ctx, req, make([]uint8, len(pix))); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze(cancelled) = %v, want context.Canceled", err)
	}
}

func TestEmulatorAsAnalyzerBackend(t *testing.T) {
	pix := opaque(12, 8, func(x, y int) uint8 { return uint8((x*y*37 + x) % 256) }) //nolint:gosec // < 256
	bm, err := contrast.NewBitmap(12, 8, pix)
	if err != nil {
		t.Fatal(err)
	}
	s := contrast.Settings{Level: contrast.AALarge, Radius: 3, Backend: contrast.BackendGPU}

	a := contrast.NewAnalyzer(contrast.WithAccelerator(NewEmulator()))
	defer a.Close()
	res, err := a.Scan(context.Background(), bm, s)
	if err != nil {
		t.Fatal(err)
	}
	if res.Backend != contrast.BackendGPU {
		t.Errorf("Backend = %v, want GPU", res.Backend)
	}

	s.Backend = contrast.BackendCPU
	cpu, err := contrast.Analyze(context.Background(), bm, s)
	if err != nil {
		t.Fatal(err)
	}
	agree, err := res.Mask.Agreement(cpu)
	if err != nil {
		t.Fatal(err)
	}
	if agree < 0.99 {
		t.Errorf("emulator/CPU agreement = %.4f, want >= 0.99", agree)
	}
}
