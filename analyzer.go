package contrast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/contrast/internal/parallel"
)

// Analyzer runs contrast analyses one at a time.
//
// An Analyzer is safe for concurrent use, but it admits a single analysis:
// Analyze fails with ErrAnalysisInProgress while another call is running or
// being cancelled. The CPU worker pool is created on first use and reused
// until Close.
type Analyzer struct {
	opts analyzerOptions

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	pool   *parallel.WorkerPool
	closed bool
}

// Result is the outcome of Scan.
type Result struct {
	// Mask is the per-pixel analysis result.
	Mask *Mask

	// Merged is the original bitmap composited with Mask.
	Merged *Bitmap

	// Backend is the backend that produced Mask.
	Backend Backend

	// Elapsed is the wall time of analysis and compositing.
	Elapsed time.Duration
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(opts ...AnalyzerOption) *Analyzer {
	o := defaultAnalyzerOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Analyzer{opts: o}
}

// Analyze computes the contrast mask of bm under s.
//
// With s.Backend == BackendGPU and a ready accelerator the GPU runs first.
// A GPU error or a pass exceeding the GPU timeout is logged and the CPU
// backend runs instead; GPU errors never reach the caller. CPU band failures
// return ErrWorkerFailure and no mask. Cancellation of ctx or a call to
// Cancel returns the context error.
func (a *Analyzer) Analyze(ctx context.Context, bm *Bitmap, s Settings) (*Mask, error) {
	m, _, err := a.analyze(ctx, bm, s)
	return m, err
}

// Scan analyzes bm and composites the mask over it. Every call produces a
// fresh mask and merged bitmap.
func (a *Analyzer) Scan(ctx context.Context, bm *Bitmap, s Settings) (*Result, error) {
	start := time.Now()
	m, backend, err := a.analyze(ctx, bm, s)
	if err != nil {
		return nil, err
	}
	merged, err := Composite(bm, m)
	if err != nil {
		return nil, err
	}
	return &Result{Mask: m, Merged: merged, Backend: backend, Elapsed: time.Since(start)}, nil
}

// Cancel asks the running analysis to stop. It is a no-op when idle.
func (a *Analyzer) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == StateRunning {
		a.state = StateCancelling
		a.cancel()
	}
}

// State returns the current lifecycle state.
func (a *Analyzer) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Close cancels any running analysis and stops the worker pool.
// Close is safe to call multiple times.
func (a *Analyzer) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.cancel != nil {
		a.cancel()
	}
	pool := a.pool
	a.pool = nil
	a.mu.Unlock()

	if pool != nil {
		pool.Close()
	}
}

// Analyze runs a single analysis on a temporary analyzer configured with
// opts.
func Analyze(ctx context.Context, bm *Bitmap, s Settings, opts ...AnalyzerOption) (*Mask, error) {
	a := NewAnalyzer(opts...)
	defer a.Close()
	return a.Analyze(ctx, bm, s)
}

func (a *Analyzer) analyze(ctx context.Context, bm *Bitmap, s Settings) (*Mask, Backend, error) {
	if err := validateBitmap(bm); err != nil {
		return nil, 0, err
	}
	if err := s.Validate(); err != nil {
		return nil, 0, err
	}

	ctx, err := a.begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer a.end()

	backend := selectBackend(s.Backend, a.accelerator(), bm.width, bm.height)
	Logger().Debug("contrast: analysis started",
		"width", bm.width, "height", bm.height,
		"level", s.Level.String(), "radius", s.Radius, "backend", backend.String())

	if backend == BackendGPU {
		acc := a.accelerator()
		m, err := a.runGPU(ctx, acc, bm, s)
		if err == nil {
			a.report("Complete", 100)
			return m, BackendGPU, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		Logger().Warn("contrast: GPU analysis failed, falling back to CPU",
			"accelerator", acc.Name(), "err", err)
	}

	m, err := a.runCPU(ctx, bm, s)
	if err != nil {
		return nil, 0, err
	}
	a.report("Complete", 100)
	return m, BackendCPU, nil
}

// begin moves Idle to Running and derives the cancellable analysis context.
func (a *Analyzer) begin(ctx context.Context) (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAnalyzerClosed
	}
	if a.state != StateIdle {
		return nil, fmt.Errorf("%w: state %s", ErrAnalysisInProgress, a.state)
	}
	ctx, cancel := context.WithCancel(ctx)
	a.state = StateRunning
	a.cancel = cancel
	return ctx, nil
}

// end returns to Idle.
func (a *Analyzer) end() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.state = StateIdle
}

func (a *Analyzer) accelerator() GPUAccelerator {
	if a.opts.noAccel {
		return nil
	}
	if a.opts.accel != nil {
		return a.opts.accel
	}
	return Accelerator()
}

// runGPU runs the accelerator with a bounded wait. A stalled pass is
// abandoned; its goroutine writes into a buffer nobody reads.
func (a *Analyzer) runGPU(ctx context.Context, acc GPUAccelerator, bm *Bitmap, s Settings) (*Mask, error) {
	a.report("Initializing GPU analysis...", 0)

	gctx, cancel := context.WithTimeout(ctx, a.opts.gpuTimeout)
	defer cancel()

	req := GPURequest{
		Width:     bm.width,
		Height:    bm.height,
		Pix:       bm.pix,
		Radius:    s.Radius,
		Threshold: s.Threshold(),
	}
	dst := make([]uint8, len(bm.pix))
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %s panicked: %v", ErrBackendUnavailable, acc.Name(), r)
			}
		}()
		done <- acc.Analyze(gctx, req, dst)
	}()

	a.report("Running GPU analysis...", 40)
	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
	case <-gctx.Done():
		return nil, fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, acc.Name(), gctx.Err())
	}
	a.report("GPU analysis complete", 90)
	return newMask(bm.width, bm.height, dst), nil
}

// analyzeBands runs the CPU backend. Tests replace it to break a band.
var analyzeBands = parallel.Analyze

func (a *Analyzer) runCPU(ctx context.Context, bm *Bitmap, s Settings) (*Mask, error) {
	a.report("Using multi-threaded CPU analysis...", 10)

	pool, err := a.workerPool()
	if err != nil {
		return nil, err
	}
	n := pool.Workers()
	Logger().Debug("contrast: CPU bands", "workers", n, "bands", len(parallel.Bands(bm.height, n)))

	pix, err := analyzeBands(ctx, pool, bm.view(), s.params(), n, func(done, total int) {
		a.report(fmt.Sprintf("Processing chunk %d/%d...", done, total),
			20+float64(done)/float64(total)*60)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if isContextErr(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrWorkerFailure, err)
	}
	a.report("Combining worker results...", 85)
	return newMask(bm.width, bm.height, pix), nil
}

func (a *Analyzer) workerPool() (*parallel.WorkerPool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrAnalyzerClosed
	}
	if a.pool == nil {
		a.pool = parallel.NewWorkerPool(a.opts.workers)
	}
	return a.pool, nil
}

func (a *Analyzer) report(stage string, percent float64) {
	if a.opts.progress != nil {
		a.opts.progress(stage, percent)
	}
}

func validateBitmap(bm *Bitmap) error {
	if bm == nil {
		return fmt.Errorf("%w: nil bitmap", ErrInvalidInput)
	}
	if bm.width <= 0 || bm.height <= 0 || len(bm.pix) != bm.width*bm.height*4 {
		return fmt.Errorf("%w: bitmap %dx%d with %d bytes", ErrInvalidInput, bm.width, bm.height, len(bm.pix))
	}
	return nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
