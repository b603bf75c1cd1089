package util

import (
	"testing"
	"time"
)

func TestParseISSDate(t *testing.T) {
	d, ok := ParseISSDate("2026-03-15")
	if !ok {
		t.Fatalf("expected ok")
	}
	if d.Year() != 2026 || d.Month() != time.March || d.Day() != 15 {
		t.Fatalf("unexpected date %v", d)
	}
}

func TestParseISSDateSentinel(t *testing.T) {
	if _, ok := ParseISSDate("0000-00-00"); ok {
		t.Fatalf("sentinel date must not parse")
	}
	if _, ok := ParseISSDate(""); ok {
		t.Fatalf("empty date must not parse")
	}
}

func TestParseCurveDate(t *testing.T) {
	d, ok := ParseCurveDate("26.08.2026")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got := FormatCurveDate(d); got != "26.08.2026" {
		t.Fatalf("round trip mismatch: %s", got)
	}
	// ISS layout accepted as a fallback.
	if _, ok := ParseCurveDate("2026-08-26"); !ok {
		t.Fatalf("expected ISS fallback to parse")
	}
}

func TestParseDateDefault(t *testing.T) {
	def := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("not-a-date", def); !got.Equal(def) {
		t.Fatalf("expected default, got %v", got)
	}
	want := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	if got := ParseDateDefault("26.08.2026", def); !got.Equal(want) {
		t.Fatalf("unexpected %v", got)
	}
}
