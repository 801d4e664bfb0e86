package contrast

import (
	"fmt"

	"github.com/gogpu/contrast/internal/wcag"
)

// Level selects one of the four WCAG contrast threshold tiers.
type Level = wcag.Level

// WCAG levels and their minimum contrast ratios.
const (
	AASmall  = wcag.AASmall  // 4.5:1
	AALarge  = wcag.AALarge  // 3:1
	AAASmall = wcag.AAASmall // 7:1
	AAALarge = wcag.AAALarge // 4.5:1
)

// Search radius bounds.
const (
	MinRadius     = 1
	MaxRadius     = wcag.MaxRadius
	DefaultRadius = 3
)

// Levels returns all levels in declaration order.
func Levels() []Level { return wcag.Levels() }

// ParseLevel parses a level name such as "WCAG-aa-small" or "aaa-large".
func ParseLevel(s string) (Level, error) {
	l, err := wcag.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return l, nil
}

// Settings configures one analysis.
type Settings struct {
	// Level selects the contrast threshold.
	Level Level

	// Radius is the largest neighbor ring searched, in [1, 3].
	Radius int

	// Backend selects GPU-preferred or CPU-only execution.
	Backend Backend
}

// DefaultSettings returns AA-small, radius 3, GPU preferred.
func DefaultSettings() Settings {
	return Settings{Level: AASmall, Radius: DefaultRadius, Backend: BackendGPU}
}

// Validate returns ErrInvalidInput for an unknown level or backend, or a
// radius outside [MinRadius, MaxRadius].
func (s Settings) Validate() error {
	if !s.Level.Valid() {
		return fmt.Errorf("%w: level %d", ErrInvalidInput, uint8(s.Level))
	}
	if s.Radius < MinRadius || s.Radius > MaxRadius {
		return fmt.Errorf("%w: radius %d outside [%d, %d]", ErrInvalidInput, s.Radius, MinRadius, MaxRadius)
	}
	if !s.Backend.Valid() {
		return fmt.Errorf("%w: backend %d", ErrInvalidInput, int(s.Backend))
	}
	return nil
}

// Threshold returns the minimum contrast ratio of s.Level.
func (s Settings) Threshold() float64 {
	return s.Level.Threshold()
}

func (s Settings) params() wcag.Params {
	return wcag.ParamsFor(s.Level, s.Radius)
}

// RelativeLuminance returns the WCAG relative luminance of an sRGB color.
func RelativeLuminance(r, g, b uint8) float64 {
	return wcag.RelativeLuminance(r, g, b)
}

// ContrastRatio returns (lighter+0.05)/(darker+0.05) for two luminances.
func ContrastRatio(l1, l2 float64) float64 {
	return wcag.ContrastRatio(l1, l2)
}

// PassesThreshold reports whether ratio meets the minimum ratio of level.
func PassesThreshold(ratio float64, level Level) bool {
	return wcag.Passes(ratio, level)
}
