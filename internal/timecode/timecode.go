// Package timecode converts between second counts and the MM:SS / H:MM:SS
// display strings used by the segment picker. Both directions are total:
// malformed input degrades to a zero value instead of an error.
package timecode

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the numeric prefix a lenient decimal parse accepts,
// e.g. "12.5s" -> "12.5".
var leadingNumber = regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d*)?|\.\d+)(?:[eE][+-]?\d+)?`)

// SecondsToTimestamp formats a second count as MM:SS. Minutes are not
// rolled over into hours, so 3723 seconds renders as "62:03".
// NaN, infinite and negative input renders as "00:00".
func SecondsToTimestamp(totalSeconds float64) string {
	if math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) || totalSeconds < 0 {
		totalSeconds = 0
	}

	// Formatted as floats so minutes never wrap past the int64 range.
	mins := math.Floor(totalSeconds / 60)
	secs := math.Floor(math.Mod(totalSeconds, 60))
	return fmt.Sprintf("%02.0f:%02.0f", mins, secs)
}

// TimestampToSeconds parses "SS", "MM:SS" or "HH:MM:SS". Unparsable
// components count as zero and any other shape yields zero.
func TimestampToSeconds(text string) float64 {
	var total float64

	if !strings.Contains(text, ":") {
		total = parseLenient(text)
	} else {
		parts := strings.Split(text, ":")
		values := make([]float64, len(parts))
		for i, p := range parts {
			values[i] = parseLenient(p)
		}

		switch len(values) {
		case 2:
			total = values[0]*60 + values[1]
		case 3:
			total = values[0]*3600 + values[1]*60 + values[2]
		default:
			return 0
		}
	}

	if math.IsNaN(total) || math.IsInf(total, 0) || total < 0 {
		return 0
	}
	return total
}

// parseLenient parses the leading decimal number of s, ignoring trailing
// garbage. It returns 0 when no number is present.
func parseLenient(s string) float64 {
	s = strings.TrimLeft(s, " \t\r\n")
	m := leadingNumber.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
