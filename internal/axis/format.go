package axis

import (
	"math"
	"strconv"
	"time"
)

// Formatter turns a tick value into its label
type Formatter func(float64) string

// FormatNumber gives a compact label with fewer decimals for larger values
func FormatNumber(v float64) string {
	av := math.Abs(v)
	switch {
	case av >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 1, 64) + "G"
	case av >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 1, 64) + "M"
	case av >= 1e4:
		return strconv.FormatFloat(v/1e3, 'f', 1, 64) + "k"
	case av >= 100:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av == 0:
		return "0"
	case av >= 0.01:
		return strconv.FormatFloat(v, 'f', 3, 64)
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}

// TimeFormatter picks a layout for Unix-millisecond tick values from the
// bucket size and the visible span.
func TimeFormatter(bucketMs, spanMs float64, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	layout := "15:04"
	switch {
	case spanMs >= float64(72*time.Hour/time.Millisecond):
		layout = "Jan 02"
	case spanMs >= float64(24*time.Hour/time.Millisecond):
		layout = "Jan 02 15:04"
	case bucketMs < float64(time.Minute/time.Millisecond):
		layout = "15:04:05"
	}
	return func(v float64) string {
		return time.UnixMilli(int64(math.Round(v))).In(loc).Format(layout)
	}
}
