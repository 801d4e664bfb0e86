// Package wcag implements the WCAG 2.x relative luminance and contrast ratio
// model together with the ring search that decides whether a pixel has a
// sufficient-contrast neighbor.
//
// The package is backend-agnostic: the CPU band workers call Search directly,
// and the GPU program mirrors it using LinearTable for channel linearization.
//
// References:
//   - Relative luminance: https://www.w3.org/TR/WCAG21/#dfn-relative-luminance
//   - Contrast ratio: https://www.w3.org/TR/WCAG21/#dfn-contrast-ratio
package wcag

import "math"

// Luminance weights for linear-light sRGB primaries.
const (
	WeightR = 0.2126
	WeightG = 0.7152
	WeightB = 0.0722
)

// linearCutoff is the WCAG 2.x breakpoint of the sRGB transfer function.
// It differs from the IEC 61966-2-1 value (0.04045); no 8-bit channel falls
// between the two, so both produce the same table.
const linearCutoff = 0.03928

// linearLUT maps an 8-bit sRGB channel to linear light.
var linearLUT [256]float64

// linearLUT32 is linearLUT narrowed to float32, the form uploaded to the GPU.
var linearLUT32 [256]float32

func init() {
	for i := 0; i < 256; i++ {
		v := linearizeSlow(uint8(i)) //nolint:gosec // i < 256
		linearLUT[i] = v
		linearLUT32[i] = float32(v)
	}
}

// linearizeSlow is the reference transfer function. Used to build the tables.
func linearizeSlow(c uint8) float64 {
	s := float64(c) / 255.0
	if s <= linearCutoff {
		return s / 12.92
	}
	return math.Pow((s+0.055)/1.055, 2.4)
}

// Linearize converts an 8-bit sRGB channel value to linear light in [0, 1].
func Linearize(c uint8) float64 {
	return linearLUT[c]
}

// LinearTable returns the 256-entry float32 linearization table shared with
// the GPU program.
func LinearTable() [256]float32 {
	return linearLUT32
}

// RelativeLuminance returns the WCAG relative luminance of an 8-bit sRGB color.
// The result is in [0, 1]; black is 0 and white is 1.
func RelativeLuminance(r, g, b uint8) float64 {
	return WeightR*linearLUT[r] + WeightG*linearLUT[g] + WeightB*linearLUT[b]
}

// ContrastRatio returns (lighter+0.05)/(darker+0.05) for two relative
// luminances. The result is in [1, 21] and symmetric in its arguments.
func ContrastRatio(l1, l2 float64) float64 {
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Passes reports whether ratio meets the minimum ratio of level.
func Passes(ratio float64, level Level) bool {
	return ratio >= level.Threshold()
}
