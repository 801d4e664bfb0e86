// Package parallel implements the CPU backend of the contrast analyzer.
//
// The image is split into horizontal bands. Each band becomes a ContrastTask
// that a fixed WorkerPool runs against the full, shared, read-only source
// buffer; a pixel near a band boundary reads rows of the neighboring band.
// Every task writes only its own output buffer, and the orchestrator copies
// the band buffers into the mask at their row offsets in completion order.
package parallel

import "runtime"

// MaxWorkers caps the number of CPU bands analyzed concurrently.
const MaxWorkers = 4

// DefaultWorkers returns min(MaxWorkers, NumCPU).
func DefaultWorkers() int {
	return min(MaxWorkers, runtime.NumCPU())
}

// Band is the half-open row range [Start, End).
type Band struct {
	Start int
	End   int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.End - b.Start
}

// Bands splits height rows into n bands of equal height; the last band
// absorbs the remainder. At most height bands are returned, so no band is
// empty. It returns nil when height or n is not positive.
func Bands(height, n int) []Band {
	if height <= 0 || n <= 0 {
		return nil
	}
	n = min(n, height)
	size := height / n

	bands := make([]Band, n)
	for i := range n {
		bands[i] = Band{Start: i * size, End: (i + 1) * size}
	}
	bands[n-1].End = height
	return bands
}
