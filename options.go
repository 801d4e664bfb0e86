package contrast

import "time"

// DefaultGPUTimeout bounds a single GPU analysis before the analyzer gives
// up on it and runs the CPU backend instead.
const DefaultGPUTimeout = 10 * time.Second

// ProgressFunc receives a human-readable stage and a completion percentage
// in [0, 100]. It is called from the goroutine running Analyze.
type ProgressFunc func(stage string, percent float64)

// AnalyzerOption configures an Analyzer during creation.
//
// Example:
//
//	a := contrast.NewAnalyzer(
//	    contrast.WithWorkers(2),
//	    contrast.WithProgress(func(stage string, pct float64) {
//	        log.Printf("%3.0f%% %s", pct, stage)
//	    }),
//	)
type AnalyzerOption func(*analyzerOptions)

type analyzerOptions struct {
	workers    int
	gpuTimeout time.Duration
	progress   ProgressFunc
	accel      GPUAccelerator
	noAccel    bool
}

func defaultAnalyzerOptions() analyzerOptions {
	return analyzerOptions{
		workers:    0, // parallel.DefaultWorkers
		gpuTimeout: DefaultGPUTimeout,
	}
}

// WithWorkers sets the number of CPU workers and bands. The count is capped
// at min(4, runtime.NumCPU()), which is also what values <= 0 select.
func WithWorkers(n int) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.workers = n
	}
}

// WithGPUTimeout bounds each GPU analysis. Values <= 0 restore
// DefaultGPUTimeout.
func WithGPUTimeout(d time.Duration) AnalyzerOption {
	return func(o *analyzerOptions) {
		if d <= 0 {
			d = DefaultGPUTimeout
		}
		o.gpuTimeout = d
	}
}

// WithProgress installs a progress callback.
func WithProgress(fn ProgressFunc) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.progress = fn
	}
}

// WithAccelerator uses a instead of the globally registered accelerator.
// The caller remains responsible for calling a.Init and a.Close.
func WithAccelerator(a GPUAccelerator) AnalyzerOption {
	return func(o *analyzerOptions) {
		o.accel = a
		o.noAccel = false
	}
}

// WithoutAccelerator disables the GPU backend for this analyzer, whatever
// the settings prefer.
func WithoutAccelerator() AnalyzerOption {
	return func(o *analyzerOptions) {
		o.accel = nil
		o.noAccel = true
	}
}
