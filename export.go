package contrast

import (
	"strings"
	"time"
)

// ExportPrefix starts every exported analysis file name.
const ExportPrefix = "contrast-analysis-"

// ExportName returns the file name for a merged image exported at t, e.g.
// "contrast-analysis-2024-05-01T12-30-45-123Z.png". The timestamp is t in
// UTC with millisecond precision; ':' and '.' are replaced by '-' so the name
// is valid on every file system.
func ExportName(t time.Time) string {
	ts := t.UTC().Format("2006-01-02T15:04:05.000Z")
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return ExportPrefix + ts + ".png"
}
