package progress

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// formatDuration formats d as H:MM:SS. Fractions of a second are truncated.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h, m, s := splitDuration(d)
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// formatDurationPrecise formats d as H:MM:SS.mmm.
func formatDurationPrecise(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h, m, s := splitDuration(d)
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}

func splitDuration(d time.Duration) (h, m, s int64) {
	secs := int64(d / time.Second)
	return secs / 3600, secs / 60 % 60, secs % 60
}

// binaryBytes formats n with an IEC unit, like 1.5 KiB.
func binaryBytes(n uint64) string {
	return humanize.IBytes(n)
}

// decimalBytes formats n with an SI unit, like 1.5 kB.
func decimalBytes(n uint64) string {
	return humanize.Bytes(n)
}

// formatRate formats a rate in steps per second.
func formatRate(r float64) string {
	switch {
	case r >= 100:
		return strconv.FormatFloat(r, 'f', 0, 64) + "/s"
	case r >= 10:
		return strconv.FormatFloat(r, 'f', 1, 64) + "/s"
	default:
		return strconv.FormatFloat(r, 'f', 2, 64) + "/s"
	}
}
