package wcag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownLevel is returned by ParseLevel for unrecognized level names.
var ErrUnknownLevel = errors.New("wcag: unknown level")

// Level selects one of the four WCAG contrast threshold tiers.
type Level uint8

const (
	// AASmall is WCAG AA for normal-size text (4.5:1).
	AASmall Level = iota

	// AALarge is WCAG AA for large text (3:1).
	AALarge

	// AAASmall is WCAG AAA for normal-size text (7:1).
	AAASmall

	// AAALarge is WCAG AAA for large text (4.5:1).
	AAALarge

	levelCount
)

var levelThresholds = [levelCount]float64{
	AASmall:  4.5,
	AALarge:  3.0,
	AAASmall: 7.0,
	AAALarge: 4.5,
}

var levelNames = [levelCount]string{
	AASmall:  "WCAG-aa-small",
	AALarge:  "WCAG-aa-large",
	AAASmall: "WCAG-aaa-small",
	AAALarge: "WCAG-aaa-large",
}

// Levels returns all levels in declaration order.
func Levels() []Level {
	return []Level{AASmall, AALarge, AAASmall, AAALarge}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l < levelCount
}

// Threshold returns the minimum contrast ratio for l.
// Invalid levels return the AA-small threshold.
func (l Level) Threshold() float64 {
	if !l.Valid() {
		return levelThresholds[AASmall]
	}
	return levelThresholds[l]
}

// String returns the settings-store name of l, e.g. "WCAG-aa-small".
func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Level(%d)", uint8(l))
	}
	return levelNames[l]
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLevel, uint8(l))
	}
	return []byte(levelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// ParseLevel parses a level name. Both the full store names
// ("WCAG-aaa-large") and the short forms ("aaa-large") are accepted,
// case-insensitively.
func ParseLevel(s string) (Level, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.TrimPrefix(name, "wcag-")
	for i, full := range levelNames {
		if name == strings.TrimPrefix(strings.ToLower(full), "wcag-") {
			return Level(i), nil //nolint:gosec // i < levelCount
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}
