package contrast

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/contrast/internal/parallel"
)

// captureLogger installs a debug-level text logger for the duration of t.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestNopHandler(t *testing.T) {
	var h slog.Handler = nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true, want false", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v, want nil", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.Int("radius", 3)}).(nopHandler); !ok {
		t.Error("WithAttrs() did not return a nopHandler")
	}
	if _, ok := h.WithGroup("gpu").(nopHandler); !ok {
		t.Error("WithGroup() did not return a nopHandler")
	}
}

func TestLoggerSilentByDefault(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() = nil")
	}
	if l.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("default logger is enabled for Warn")
	}
}

func TestSetLoggerNilRestoresSilence(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestAnalyzeLogsBandLayout(t *testing.T) {
	buf := captureLogger(t)

	bm := fillBitmap(t, 8, 12, checkerboard)
	if _, err := Analyze(context.Background(), bm, cpuSettings(AALarge, 2), WithWorkers(3)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	workers := fmt.Sprintf("workers=%d", min(3, parallel.DefaultWorkers()))
	for _, want := range []string{"analysis started", "backend=CPU", "CPU bands", workers} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestAnalyzeQuietWithoutLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })
	SetLogger(nil)

	bm := fillBitmap(t, 4, 4, solid(color.NRGBA{A: 255}))
	if _, err := Analyze(context.Background(), bm, cpuSettings(AASmall, 1)); err != nil {
		t.Fatal(err)
	}
}

func TestSetLoggerPropagatesToAccelerator(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()

	mock := &mockAccelerator{name: "logger-test"}
	accelMu.Lock()
	accel = mock
	accelMu.Unlock()

	captureLogger(t)
	if mock.logger != Logger() {
		t.Error("SetLogger did not reach the registered accelerator")
	}
}

func TestRegisterAcceleratorReceivesCurrentLogger(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()
	captureLogger(t)

	mock := &mockAccelerator{name: "late-registration"}
	if err := RegisterAccelerator(mock); err != nil {
		t.Fatalf("RegisterAccelerator() = %v", err)
	}
	if mock.logger != Logger() {
		t.Error("RegisterAccelerator did not hand over the current logger")
	}
}

func TestLoggerConcurrentSwap(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				SetLogger(slog.Default())
				SetLogger(nil)
				return
			}
			Logger().Debug("contrast: concurrent read", "i", i)
		}()
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledDebug(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("contrast: CPU bands", "workers", 4, "bands", 4)
	}
}
