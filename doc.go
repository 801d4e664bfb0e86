// Package contrast analyzes screenshots for WCAG color-contrast sufficiency.
//
// # Overview
//
// Given a captured Bitmap, the analyzer decides for every pixel whether a
// neighbor within a small radius forms a contrast pair that meets the
// configured WCAG threshold, and produces a Mask of identical dimensions.
// Composite merges the Mask over the original capture for display or export.
//
// # Quick Start
//
//	import "github.com/gogpu/contrast"
//
//	bm, err := contrast.LoadBitmap("capture.png")
//	if err != nil {
//	    return err
//	}
//	a := contrast.NewAnalyzer()
//	defer a.Close()
//
//	res, err := a.Scan(ctx, bm, contrast.DefaultSettings())
//	if err != nil {
//	    return err
//	}
//	_ = res.Merged.SavePNG(contrast.ExportName(time.Now()))
//
// # Mask Encoding
//
// A pixel whose nearest qualifying neighbor lies on ring 1, 2 or 3 is painted
// opaque gray 255, 170 or 85. A pixel without one is (0, 0, 0, 128); the
// compositor darkens those pixels of the original by half.
//
// # Backends
//
// Two backends produce equivalent masks:
//   - GPU: a compute program over the capture uploaded as a texture buffer.
//     Enable it with a blank import of the gpu package:
//
//     import _ "github.com/gogpu/contrast/gpu"
//
//   - CPU: the image is split into at most four horizontal bands searched by
//     a fixed worker pool.
//
// GPU is preferred by default. If no accelerator is registered, or it fails
// or stalls, the analysis transparently falls back to the CPU backend and the
// fallback is only logged.
//
// # Coordinate System
//
// Bitmaps and Masks are row-major RGBA with row 0 at the top. The GPU backend
// reconciles this with bottom-up texture and framebuffer row order itself.
package contrast
