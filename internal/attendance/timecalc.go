package attendance

import (
	"math"
	"strconv"
	"strings"
)

// ParseClock converts an "HH:MM:SS" time of day into seconds since midnight.
// "HH:MM" is accepted with zero seconds and fractional seconds are truncated.
// Fields are not range checked. ok is false for an empty or non-numeric value.
func ParseClock(hms string) (secs int, ok bool) {
	hms = strings.TrimSpace(hms)
	if hms == "" {
		return 0, false
	}
	parts := strings.Split(hms, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	if len(parts) == 2 {
		parts = append(parts, "0")
	}
	if i := strings.IndexByte(parts[2], '.'); i >= 0 {
		parts[2] = parts[2][:i]
	}

	mult := [3]int{3600, 60, 1}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, false
		}
		secs += n * mult[i]
	}
	return secs, true
}

// TimeToSeconds returns the seconds since midnight for hms, or 0 when hms is
// empty or malformed.
func TimeToSeconds(hms string) int {
	secs, _ := ParseClock(hms)
	return secs
}

// WorkingSeconds returns checkOut minus checkIn in seconds, clamped to zero.
// It is zero when either side is absent or malformed.
func WorkingSeconds(checkIn, checkOut string) int {
	in, ok := ParseClock(checkIn)
	if !ok {
		return 0
	}
	out, ok := ParseClock(checkOut)
	if !ok {
		return 0
	}
	if diff := out - in; diff > 0 {
		return diff
	}
	return 0
}

// WorkingHours is WorkingSeconds expressed in hours, rounded to 2 decimals.
// A check-out after midnight yields 0.
func WorkingHours(checkIn, checkOut string) float64 {
	return round2(float64(WorkingSeconds(checkIn, checkOut)) / 3600)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// formatClock renders seconds since midnight as HH:MM:SS, wrapping past 24h.
func formatClock(secs int) string {
	secs %= 24 * 3600
	if secs < 0 {
		secs += 24 * 3600
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
