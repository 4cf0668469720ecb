package subtitle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var errBadTimestamp = errors.New("malformed timestamp")

// ParseTimestamp converts a subtitle timestamp to seconds. Accepted forms are
// H:MM:SS.mmm, MM:SS.mmm and SS.mmm. A comma decimal separator is normalized
// to a dot first, since SubRip uses comma and WebVTT uses dot.
func ParseTimestamp(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0, errBadTimestamp
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %q", errBadTimestamp, raw)
	}

	var seconds float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", errBadTimestamp, raw)
		}
		seconds = seconds*60 + v
	}
	return seconds, nil
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, zero-padded with three
// fractional digits, the form WebVTT output uses.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(seconds*1000 + 0.5)
	h := millis / 3600000
	millis -= h * 3600000
	m := millis / 60000
	millis -= m * 60000
	s := millis / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
