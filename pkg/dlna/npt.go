package dlna

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidNPT is returned for unparsable TimeSeekRange values.
var ErrInvalidNPT = errors.New("invalid npt range")

// NPTRange is a parsed TimeSeekRange.dlna.org request.
type NPTRange struct {
	Start  time.Duration
	End    time.Duration
	HasEnd bool
}

// ParseTimeSeekRange parses values such as "npt=10.5-20", "npt=00:01:00.000-".
func ParseTimeSeekRange(value string) (NPTRange, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(strings.ToLower(value), "npt=") {
		return NPTRange{}, ErrInvalidNPT
	}
	value = value[len("npt="):]
	if idx := strings.Index(value, "/"); idx >= 0 {
		value = value[:idx]
	}
	startRaw, endRaw, ok := strings.Cut(value, "-")
	if !ok {
		return NPTRange{}, ErrInvalidNPT
	}
	start, err := ParseNPT(startRaw)
	if err != nil {
		return NPTRange{}, err
	}
	out := NPTRange{Start: start}
	if strings.TrimSpace(endRaw) != "" {
		end, err := ParseNPT(endRaw)
		if err != nil {
			return NPTRange{}, err
		}
		if end < start {
			return NPTRange{}, ErrInvalidNPT
		}
		out.End = end
		out.HasEnd = true
	}
	return out, nil
}

// ParseNPT parses a single npt time as seconds or h:mm:ss[.fff].
func ParseNPT(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, ErrInvalidNPT
	}
	parts := strings.Split(value, ":")
	if len(parts) > 3 {
		return 0, ErrInvalidNPT
	}
	var seconds float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return 0, ErrInvalidNPT
		}
		seconds = seconds*60 + v
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// FormatNPT renders a duration as npt seconds with millisecond precision.
func FormatNPT(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// FormatDuration renders a DIDL res@duration value (H:MM:SS.mmm).
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	hours := ms / 3600000
	ms -= hours * 3600000
	mins := ms / 60000
	ms -= mins * 60000
	secs := ms / 1000
	ms -= secs * 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", hours, mins, secs, ms)
}
