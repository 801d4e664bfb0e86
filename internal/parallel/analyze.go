package parallel

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/contrast/internal/wcag"
)

// ProgressFunc is called after each band completes with the number of
// finished bands and the total.
type ProgressFunc func(done, total int)

// Analyze runs the neighborhood search over im on pool, split into at most
// bands horizontal bands, and returns the full mask buffer.
//
// If any band fails the whole analysis fails and no mask is returned.
// Context cancellation is returned unwrapped.
func Analyze(ctx context.Context, pool *WorkerPool, im wcag.Image, p wcag.Params, bands int, progress ProgressFunc) ([]uint8, error) {
	parts := Bands(im.Height, bands)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty image %dx%d", ErrBandFailed, im.Width, im.Height)
	}

	// A failed band cancels the others; their results are discarded anyway.
	bctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Buffered so workers never block on delivery, even after we bail out.
	results := make(chan BandResult, len(parts))
	submitted := 0
	for _, b := range parts {
		task := ContrastTask{BandStart: b.Start, BandEnd: b.End, Params: p, Source: im}
		if err := pool.Submit(bctx, task, results); err != nil {
			return nil, err
		}
		submitted++
	}

	stride := im.Width * 4
	mask := make([]uint8, im.Height*stride)
	var failure error
	for done := 1; done <= submitted; done++ {
		res := <-results
		if res.Err != nil {
			if failure == nil && !isContextErr(res.Err) {
				failure = res.Err
				cancel()
			}
			continue
		}
		copy(mask[res.BandStart*stride:res.BandEnd*stride], res.Pix)
		if progress != nil && failure == nil {
			progress(done, submitted)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	return mask, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
