package timecode

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestSecondsToTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00"},
		{"under a minute", 59, "00:59"},
		{"minutes and seconds", 125, "02:05"},
		{"fraction floored", 61.9, "01:01"},
		{"no hour rollover", 3723, "62:03"},
		{"three digit minutes", 6000, "100:00"},
		{"negative", -5, "00:00"},
		{"nan", math.NaN(), "00:00"},
		{"infinity", math.Inf(1), "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SecondsToTimestamp(tt.seconds); got != tt.want {
				t.Errorf("SecondsToTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestSecondsToTimestamp_Huge(t *testing.T) {
	for _, seconds := range []float64{1e19, 1e300, math.MaxFloat64} {
		got := SecondsToTimestamp(seconds)
		mins, secs, ok := strings.Cut(got, ":")
		if !ok || len(secs) != 2 || mins == "" || strings.Trim(mins, "0123456789") != "" {
			t.Errorf("SecondsToTimestamp(%g) = %q, want non-negative MM:SS", seconds, got)
		}
	}
}

func TestTimestampToSeconds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"empty", "", 0},
		{"garbage", "garbage", 0},
		{"plain seconds", "45", 45},
		{"plain decimal", "12.5", 12.5},
		{"numeric prefix", "12abc", 12},
		{"leading space", "  7", 7},
		{"minutes seconds", "01:30", 90},
		{"single digit minutes", "1:05", 65},
		{"hours minutes seconds", "1:02:03", 3723},
		{"bad component counts zero", "xx:30", 30},
		{"empty components", ":", 0},
		{"too many separators", "1:2:3:4", 0},
		{"negative clamped", "-5", 0},
		{"fractional seconds", "00:01.5", 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TimestampToSeconds(tt.text); got != tt.want {
				t.Errorf("TimestampToSeconds(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for s := 0; s <= 20000; s += 7 {
		got := TimestampToSeconds(SecondsToTimestamp(float64(s)))
		if got != float64(s) {
			t.Fatalf("round trip of %d = %v", s, got)
		}
	}

	if got := TimestampToSeconds(SecondsToTimestamp(90.75)); got != 90 {
		t.Errorf("round trip of 90.75 = %v, want 90", got)
	}
}

func TestSpan_Validate(t *testing.T) {
	if err := (Span{StartTime: "00:10", EndTime: "00:20"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
	if err := (Span{StartTime: "01:00", EndTime: "00:20"}).Validate(); !errors.Is(err, ErrInvertedSpan) {
		t.Errorf("Validate() error = %v, want ErrInvertedSpan", err)
	}
	if err := (Span{StartTime: "00:20", EndTime: "00:20"}).Validate(); !errors.Is(err, ErrInvertedSpan) {
		t.Errorf("Validate() empty span error = %v, want ErrInvertedSpan", err)
	}

	start, end := Span{StartTime: "1:00", EndTime: "1:45"}.Seconds()
	if start != 60 || end != 105 {
		t.Errorf("Seconds() = (%v, %v), want (60, 105)", start, end)
	}
}
