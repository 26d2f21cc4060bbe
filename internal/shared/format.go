package shared

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB"}

// FormatDuration renders seconds as m:ss. Negative, NaN and infinite input render as 0:00.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatBytes renders a byte count in the largest binary unit (up to GB) whose scaled value
// is at least 1, rounded to two decimals with trailing zeros dropped.
func FormatBytes(b int64) string {
	if b <= 0 {
		return "0 B"
	}

	i := int(math.Floor(math.Log(float64(b)) / math.Log(1024)))
	i = Clamp(i, 0, len(byteUnits)-1)

	v := math.Round(float64(b)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + byteUnits[i]
}

// Clamp bounds v to [lo, hi]. A NaN v yields lo.
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	switch {
	case cmp.Less(v, lo):
		return lo
	case cmp.Less(hi, v):
		return hi
	}
	return v
}

// RandomBetween returns a uniformly distributed integer in [lo, hi] inclusive.
func RandomBetween(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return rand.IntN(hi-lo+1) + lo
}

// TimeAgo describes how long ago t was, relative to now.
func TimeAgo(t time.Time) string {
	return timeAgo(t, time.Now())
}

func timeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.Format("Jan 2, 2006")
	}
}
