package main

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/spf13/cobra"

	"github.com/gogpu/contrast"
)

func newRatioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratio FOREGROUND BACKGROUND",
		Short: "Print the contrast ratio of two hex colors",
		Example: `  contrastlens ratio '#767676' '#ffffff'
  contrastlens ratio 000 fff`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fg, err := parseHex(args[0])
			if err != nil {
				return err
			}
			bg, err := parseHex(args[1])
			if err != nil {
				return err
			}
			ratio := colorRatio(fg, bg)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s on %s: %.2f:1\n", fg.Hex(), bg.Hex(), ratio)
			for _, l := range contrast.Levels() {
				verdict := "fail"
				if contrast.PassesThreshold(ratio, l) {
					verdict = "pass"
				}
				fmt.Fprintf(out, "  %-15s %4.1f:1  %s\n", l, l.Threshold(), verdict)
			}
			return nil
		},
	}
}

// parseHex accepts "#rgb", "#rrggbb" and the same without '#'.
func parseHex(s string) (colorful.Color, error) {
	h := strings.TrimSpace(s)
	if !strings.HasPrefix(h, "#") {
		h = "#" + h
	}
	c, err := colorful.Hex(h)
	if err != nil {
		return colorful.Color{}, fmt.Errorf("%w: color %q: %w", contrast.ErrInvalidInput, s, err)
	}
	return c, nil
}

// colorRatio quantizes both colors to 8-bit sRGB, as they would appear in
// a capture, and returns their contrast ratio.
func colorRatio(a, b colorful.Color) float64 {
	r1, g1, b1 := a.RGB255()
	r2, g2, b2 := b.RGB255()
	return contrast.ContrastRatio(
		contrast.RelativeLuminance(r1, g1, b1),
		contrast.RelativeLuminance(r2, g2, b2),
	)
}
