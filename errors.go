package contrast

import "errors"

var (
	// ErrInvalidInput reports a malformed bitmap or invalid settings.
	ErrInvalidInput = errors.New("contrast: invalid input")

	// ErrBackendUnavailable reports that the GPU backend could not be used.
	// Analyze recovers from it by falling back to the CPU backend.
	ErrBackendUnavailable = errors.New("contrast: GPU backend unavailable")

	// ErrShaderCompile reports that the GPU program failed to build.
	// It is handled like ErrBackendUnavailable.
	ErrShaderCompile = errors.New("contrast: GPU program failed to compile")

	// ErrWorkerFailure reports that a CPU band task failed. No partial mask
	// is produced; callers may retry the whole analysis.
	ErrWorkerFailure = errors.New("contrast: CPU worker failed")

	// ErrDimensionMismatch reports a mask whose size differs from the bitmap.
	ErrDimensionMismatch = errors.New("contrast: dimension mismatch")

	// ErrAnalysisInProgress reports an Analyze call made while another
	// analysis on the same Analyzer is running or being cancelled.
	ErrAnalysisInProgress = errors.New("contrast: analysis in progress")

	// ErrAnalyzerClosed is returned by Analyze after Close.
	ErrAnalyzerClosed = errors.New("contrast: analyzer closed")
)
