package util

import (
	"time"
)

const (
	issDateLayout   = "2006-01-02"
	curveDateLayout = "02.01.2006"
)

// ParseISSDate parses an exchange date field (YYYY-MM-DD). The exchange uses
// "0000-00-00" as an explicit no-date marker; that and anything unparsable
// map to (zero, false).
func ParseISSDate(s string) (time.Time, bool) {
	if s == "" || s == "0000-00-00" {
		return time.Time{}, false
	}
	t, err := time.Parse(issDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCurveDate parses a benchmark-curve date (DD.MM.YYYY), falling back to
// the ISS layout for records that arrive already normalized.
func ParseCurveDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(curveDateLayout, s); err == nil {
		return t, true
	}
	return ParseISSDate(s)
}

// FormatCurveDate renders a curve date back to DD.MM.YYYY.
func FormatCurveDate(t time.Time) string {
	return t.Format(curveDateLayout)
}

// ParseDateDefault parses a curve-style date or returns default if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseCurveDate(s); ok {
		return t
	}
	return def
}
