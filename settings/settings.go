// Package settings persists analysis preferences in a small YAML file.
//
// The store holds three keys with the names and defaults the capture tool
// has always used:
//
//	wcagLevel:   WCAG-aa-small   # WCAG-aa-small | WCAG-aa-large | WCAG-aaa-small | WCAG-aaa-large
//	pixelRadius: 3               # 1..3
//	useGPU:      true
//
// A missing file or key means the default value.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/contrast"
)

// Store keys.
const (
	KeyLevel  = "wcagLevel"
	KeyRadius = "pixelRadius"
	KeyUseGPU = "useGPU"
)

// ErrUnknownKey is returned by Get and Set for keys outside Keys().
var ErrUnknownKey = errors.New("settings: unknown key")

// Keys returns the store keys in display order.
func Keys() []string {
	return []string{KeyLevel, KeyRadius, KeyUseGPU}
}

// document is the YAML form. Nil fields were absent from the file.
type document struct {
	WCAGLevel   *string      `yaml:"wcagLevel,omitempty"`
	PixelRadius *radiusValue `yaml:"pixelRadius,omitempty"`
	UseGPU      *bool        `yaml:"useGPU,omitempty"`
}

// radiusValue accepts both 3 and "3"; older stores wrote the radius as a
// string.
type radiusValue int

func (r *radiusValue) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: %s must be a number", n.Line, KeyRadius)
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("line %d: %s: %w", n.Line, KeyRadius, err)
	}
	*r = radiusValue(v)
	return nil
}

// DefaultPath returns the settings file under the user configuration
// directory, e.g. ~/.config/contrastlens/settings.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "contrastlens", "settings.yaml"), nil
}

// Decode reads settings from r. Absent keys keep their defaults.
func Decode(r io.Reader) (contrast.Settings, error) {
	s := contrast.DefaultSettings()

	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("%w: settings: %w", contrast.ErrInvalidInput, err)
	}
	if doc.WCAGLevel != nil {
		l, err := contrast.ParseLevel(*doc.WCAGLevel)
		if err != nil {
			return s, err
		}
		s.Level = l
	}
	if doc.PixelRadius != nil {
		s.Radius = int(*doc.PixelRadius)
	}
	if doc.UseGPU != nil {
		s.Backend = backendFor(*doc.UseGPU)
	}
	return s, s.Validate()
}

// Encode writes every key of s to w.
func Encode(w io.Writer, s contrast.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	level := s.Level.String()
	radius := radiusValue(s.Radius)
	useGPU := s.Backend == contrast.BackendGPU
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document{WCAGLevel: &level, PixelRadius: &radius, UseGPU: &useGPU}); err != nil {
		return err
	}
	return enc.Close()
}

// Load reads the settings file at path. A missing file yields the defaults.
func Load(path string) (contrast.Settings, error) {
	f, err := os.Open(path) //nolint:gosec // path is user-provided intentionally
	if errors.Is(err, os.ErrNotExist) {
		return contrast.DefaultSettings(), nil
	}
	if err != nil {
		return contrast.DefaultSettings(), err
	}
	defer func() {
		_ = f.Close()
	}()
	s, err := Decode(f)
	if err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path, creating parent directories as needed. The file is
// replaced atomically.
func Save(path string, s contrast.Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".settings-*.yaml")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if err := Encode(tmp, s); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Get returns the store value of key in s.
func Get(s contrast.Settings, key string) (string, error) {
	switch key {
	case KeyLevel:
		return s.Level.String(), nil
	case KeyRadius:
		return strconv.Itoa(s.Radius), nil
	case KeyUseGPU:
		return strconv.FormatBool(s.Backend == contrast.BackendGPU), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

// Set parses value and stores it under key in s. s is unchanged on error.
func Set(s *contrast.Settings, key, value string) error {
	next := *s
	switch key {
	case KeyLevel:
		l, err := contrast.ParseLevel(value)
		if err != nil {
			return err
		}
		next.Level = l
	case KeyRadius:
		r, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", contrast.ErrInvalidInput, KeyRadius, err)
		}
		next.Radius = r
	case KeyUseGPU:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: %s: %w", contrast.ErrInvalidInput, KeyUseGPU, err)
		}
		next.Backend = backendFor(b)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}

func backendFor(useGPU bool) contrast.Backend {
	if useGPU {
		return contrast.BackendGPU
	}
	return contrast.BackendCPU
}
