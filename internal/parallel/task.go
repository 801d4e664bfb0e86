package parallel

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/contrast/internal/wcag"
)

// ErrBandFailed reports that a band task could not produce its mask rows.
var ErrBandFailed = errors.New("parallel: band failed")

// ContrastTask is the unit of work dispatched to a worker: search every
// pixel in rows [BandStart, BandEnd) of Source.
type ContrastTask struct {
	BandStart int
	BandEnd   int
	Params    wcag.Params

	// Source is the whole image, shared read-only by all tasks.
	Source wcag.Image
}

// BandResult carries the encoded mask rows of one task.
type BandResult struct {
	BandStart int
	BandEnd   int

	// Pix holds (BandEnd-BandStart) rows of mask pixels; nil when Err is set.
	Pix []uint8
	Err error
}

// Run searches the band and returns its mask rows. The task owns a fresh
// luminance cache; the context is checked once per row.
func (t ContrastTask) Run(ctx context.Context) ([]uint8, error) {
	w := t.Source.Width
	if t.BandStart < 0 || t.BandEnd > t.Source.Height || t.BandStart >= t.BandEnd {
		return nil, fmt.Errorf("%w: invalid rows [%d,%d) for height %d",
			ErrBandFailed, t.BandStart, t.BandEnd, t.Source.Height)
	}

	stride := w * 4
	out := make([]uint8, (t.BandEnd-t.BandStart)*stride)
	cache := wcag.NewCache()
	for y := t.BandStart; y < t.BandEnd; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		off := (y - t.BandStart) * stride
		wcag.ScanRow(t.Source, cache, y, t.Params, out[off:off+stride])
	}
	return out, nil
}
