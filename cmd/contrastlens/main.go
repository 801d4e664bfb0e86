// Command contrastlens marks the pixels of a capture that sit next to a
// sufficiently contrasting neighbor, using the WCAG contrast thresholds.
//
//	contrastlens analyze screenshot.png
//	contrastlens analyze --level aaa-small --radius 2 --mask *.png
//	contrastlens ratio '#767676' '#ffffff'
//	contrastlens settings set wcagLevel WCAG-aa-large
package main

import (
	"os"

	_ "github.com/gogpu/contrast/gpu" // enable GPU analysis
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
