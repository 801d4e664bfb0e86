package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/contrast"
	"github.com/gogpu/contrast/gpu"
	"github.com/gogpu/contrast/settings"
)

type analyzeOptions struct {
	level      levelFlag
	radius     int
	backend    string
	outDir     string
	writeMask  bool
	emulateGPU bool
	jobs       int
	workers    int
	gpuTimeout time.Duration
	quiet      bool
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [flags] IMAGE...",
		Short: "Analyze captures and write the composited result",
		Long: `Analyze decodes each capture (PNG, JPEG, GIF, BMP, TIFF or WebP), marks
every pixel that has a neighbor meeting the selected WCAG contrast ratio within
the search radius, and writes the capture with unmarked pixels darkened.

Flags override the stored settings for this run only.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load(root.settingsPath)
			if err != nil {
				return err
			}
			if err := opts.apply(cmd, &s); err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), opts, s, args)
		},
	}
	f := cmd.Flags()
	f.VarP(&opts.level, "level", "l", "WCAG level: aa-small, aa-large, aaa-small, aaa-large")
	f.IntVarP(&opts.radius, "radius", "r", 0, "search radius in pixels (1-3)")
	f.StringVarP(&opts.backend, "backend", "b", "", "gpu or cpu")
	f.StringVarP(&opts.outDir, "out-dir", "o", "", "output directory (default: next to each input)")
	f.BoolVar(&opts.writeMask, "mask", false, "also write the raw mask")
	f.BoolVar(&opts.emulateGPU, "emulate-gpu", false, "run the GPU program on the CPU instead of a device")
	f.IntVarP(&opts.jobs, "jobs", "j", 2, "captures analyzed concurrently")
	f.IntVar(&opts.workers, "workers", 0, "CPU workers per capture, at most min(4, NumCPU)")
	f.DurationVar(&opts.gpuTimeout, "gpu-timeout", contrast.DefaultGPUTimeout, "fall back to the CPU after this long")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	return cmd
}

// levelFlag parses a WCAG level on the command line.
type levelFlag struct {
	level contrast.Level
	set   bool
}

var _ pflag.Value = (*levelFlag)(nil)

func (f *levelFlag) String() string {
	if !f.set {
		return ""
	}
	return f.level.String()
}

func (f *levelFlag) Set(v string) error {
	l, err := contrast.ParseLevel(v)
	if err != nil {
		return err
	}
	f.level, f.set = l, true
	return nil
}

func (*levelFlag) Type() string { return "level" }

// apply overrides s with the flags the user set explicitly.
func (o *analyzeOptions) apply(cmd *cobra.Command, s *contrast.Settings) error {
	flags := cmd.Flags()
	if flags.Changed("level") {
		s.Level = o.level.level
	}
	if flags.Changed("radius") {
		s.Radius = o.radius
	}
	if flags.Changed("backend") {
		b, err := contrast.ParseBackend(o.backend)
		if err != nil {
			return err
		}
		s.Backend = b
	}
	if o.emulateGPU {
		s.Backend = contrast.BackendGPU
	}
	if o.jobs < 1 {
		return fmt.Errorf("%w: --jobs must be at least 1", contrast.ErrInvalidInput)
	}
	return s.Validate()
}

// analyzerOptions builds the options of one per-capture analyzer.
func (o *analyzeOptions) analyzerOptions(progress contrast.ProgressFunc) []contrast.AnalyzerOption {
	opts := []contrast.AnalyzerOption{
		contrast.WithWorkers(o.workers),
		contrast.WithGPUTimeout(o.gpuTimeout),
		contrast.WithProgress(progress),
	}
	if o.emulateGPU {
		opts = append(opts, contrast.WithAccelerator(gpu.NewEmulator()))
	}
	return opts
}

func runAnalyze(ctx context.Context, stdout, stderr io.Writer, opts *analyzeOptions, s contrast.Settings, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
			return err
		}
	}
	if s.Backend == contrast.BackendGPU && !opts.emulateGPU && !gpu.Available() {
		fmt.Fprintln(stderr, "GPU not available, analyzing on the CPU")
	}

	bar := newBar(stderr, len(files), opts.quiet)
	stamp := time.Now()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.jobs)
	for _, file := range files {
		g.Go(func() error {
			line, err := analyzeFile(ctx, opts, s, file, stamp, len(files) > 1, bar)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}
			mu.Lock()
			defer mu.Unlock()
			_ = bar.Clear()
			_, err = fmt.Fprintln(stdout, line)
			return err
		})
	}
	err := g.Wait()
	_ = bar.Finish()
	return err
}

func analyzeFile(ctx context.Context, opts *analyzeOptions, s contrast.Settings, file string,
	stamp time.Time, many bool, bar *progressbar.ProgressBar,
) (string, error) {
	bm, err := contrast.LoadBitmap(file)
	if err != nil {
		return "", err
	}

	// Each capture contributes 100 steps to the shared bar.
	var last int
	progress := func(_ string, pct float64) {
		if p := int(pct); p > last {
			_ = bar.Add(p - last)
			last = p
		}
	}
	a := contrast.NewAnalyzer(opts.analyzerOptions(progress)...)
	defer a.Close()

	res, err := a.Scan(ctx, bm, s)
	if err != nil {
		return "", err
	}
	if last < 100 {
		_ = bar.Add(100 - last)
	}

	out := outputPath(opts.outDir, file, stamp, many, "")
	if err := res.Merged.SavePNG(out); err != nil {
		return "", err
	}
	if opts.writeMask {
		if err := res.Mask.SavePNG(outputPath(opts.outDir, file, stamp, many, "-mask")); err != nil {
			return "", err
		}
	}

	total := bm.Width() * bm.Height()
	marked := res.Mask.MarkedCount()
	return fmt.Sprintf("%s: %d/%d pixels marked (%.1f%%) at %s, radius %d, %s backend, %s -> %s",
		file, marked, total, 100*float64(marked)/float64(total),
		s.Level, s.Radius, res.Backend, res.Elapsed.Round(time.Millisecond), out), nil
}

// outputPath names the merged image of file. With several inputs the
// input's base name is appended so the names stay unique.
func outputPath(outDir, file string, stamp time.Time, many bool, suffix string) string {
	dir := outDir
	if dir == "" {
		dir = filepath.Dir(file)
	}
	name := strings.TrimSuffix(contrast.ExportName(stamp), ".png")
	if many {
		name += "-" + strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	return filepath.Join(dir, name+suffix+".png")
}

func newBar(w io.Writer, files int, quiet bool) *progressbar.ProgressBar {
	if quiet {
		return progressbar.DefaultSilent(int64(files * 100))
	}
	return progressbar.NewOptions(files*100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("analyzing"),
		progressbar.OptionClearOnFinish(),
	)
}
