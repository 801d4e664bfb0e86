package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/contrast"
)

// loggerPtr holds the backend logger, tagged with the component name.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	setLogger(nil)
}

// slogger returns the current backend logger.
func slogger() *slog.Logger { return loggerPtr.Load() }

// setLogger replaces the backend logger. Called when contrast.SetLogger
// propagates to a registered accelerator; nil falls back to the package
// logger of contrast.
func setLogger(l *slog.Logger) {
	if l == nil {
		l = contrast.Logger()
	}
	loggerPtr.Store(l.With("component", "contrast-gpu"))
}
