package shared

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		name    string
		seconds float64
		want    string
	}{
		{name: "zero", seconds: 0, want: "0:00"},
		{name: "pads seconds", seconds: 5, want: "0:05"},
		{name: "minutes", seconds: 125, want: "2:05"},
		{name: "truncates fraction", seconds: 59.99, want: "0:59"},
		{name: "over an hour", seconds: 3661, want: "61:01"},
		{name: "negative", seconds: -3, want: "0:00"},
		{name: "NaN", seconds: math.NaN(), want: "0:00"},
		{name: "infinite", seconds: math.Inf(1), want: "0:00"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tc := []struct {
		bytes int64
		want  string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{2048 * 1024 * 1024 * 1024, "2048 GB"},
	}

	for _, tt := range tc {
		if got := FormatBytes(tt.bytes); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	t.Run("Within Range", func(t *testing.T) {
		for v := 0; v <= 10; v++ {
			if got := Clamp(v, 0, 10); got != v {
				t.Errorf("Clamp(%d, 0, 10) = %d", v, got)
			}
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		for _, v := range []float64{-1e9, -1, 0, 0.5, 1, 2, 1e9} {
			got := Clamp(v, 0, 1)
			if got < 0 || got > 1 {
				t.Errorf("Clamp(%v, 0, 1) = %v out of bounds", v, got)
			}
		}
	})

	t.Run("NaN", func(t *testing.T) {
		if got := Clamp(math.NaN(), 0, 1); got != 0 {
			t.Errorf("Clamp(NaN, 0, 1) = %v, want 0", got)
		}
		if got := Clamp(math.NaN(), -2.5, 7); got != -2.5 {
			t.Errorf("Clamp(NaN, -2.5, 7) = %v, want -2.5", got)
		}
	})

	t.Run("Degenerate Range", func(t *testing.T) {
		for _, v := range []int{-5, 3, 7, 100} {
			if got := Clamp(v, 3, 3); got != 3 {
				t.Errorf("Clamp(%d, 3, 3) = %d, want 3", v, got)
			}
		}
	})
}

func TestRandomBetween(t *testing.T) {
	t.Run("Inclusive Range", func(t *testing.T) {
		seen := map[int]bool{}
		for range 2000 {
			n := RandomBetween(1, 4)
			if n < 1 || n > 4 {
				t.Fatalf("RandomBetween(1, 4) = %d out of range", n)
			}
			seen[n] = true
		}
		if !seen[1] || !seen[4] {
			t.Errorf("expected both endpoints to be observed, saw %v", seen)
		}
	})

	t.Run("Single Value", func(t *testing.T) {
		for range 10 {
			if n := RandomBetween(7, 7); n != 7 {
				t.Errorf("RandomBetween(7, 7) = %d", n)
			}
		}
	})
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tc := []struct {
		name string
		then time.Time
		want string
	}{
		{name: "seconds", then: now.Add(-30 * time.Second), want: "just now"},
		{name: "minutes", then: now.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", then: now.Add(-2 * time.Hour), want: "2h ago"},
		{name: "days", then: now.Add(-3 * 24 * time.Hour), want: "3d ago"},
		{name: "older", then: time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC), want: "Feb 1, 2025"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := timeAgo(tt.then, now); got != tt.want {
				t.Errorf("timeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}
