package util

import "testing"

func TestParseDecimalDot(t *testing.T) {
	v, ok := ParseDecimal("6.50")
	if !ok {
		t.Fatalf("expected ok")
	}
	if v != 6.5 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestParseDecimalComma(t *testing.T) {
	v, ok := ParseDecimal(" 5,20 ")
	if !ok {
		t.Fatalf("expected ok")
	}
	if v != 5.2 {
		t.Fatalf("unexpected value %v", v)
	}
}

func TestParseDecimalSeparatorAgnostic(t *testing.T) {
	// Comma and dot renditions of the same number must parse identically.
	a, ok := ParseDecimal("16,84")
	if !ok {
		t.Fatalf("expected ok")
	}
	b, ok := ParseDecimal("16.84")
	if !ok {
		t.Fatalf("expected ok")
	}
	if a != b {
		t.Fatalf("separator changed value: %v != %v", a, b)
	}
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "  ", "abc", "NaN", "+Inf", "1,2,3"} {
		if _, ok := ParseDecimal(s); ok {
			t.Errorf("expected failure for %q", s)
		}
	}
}

func TestFloatCell(t *testing.T) {
	if v := FloatCell(7.25); v == nil || *v != 7.25 {
		t.Fatalf("float cell: %v", v)
	}
	if v := FloatCell("8,1"); v == nil || *v != 8.1 {
		t.Fatalf("string cell: %v", v)
	}
	for _, c := range []interface{}{nil, "", "nan", "None", "N/A", true} {
		if v := FloatCell(c); v != nil {
			t.Errorf("expected nil for %v, got %v", c, *v)
		}
	}
}

func TestStringCell(t *testing.T) {
	if v := StringCell(" RU000A0JX0J2 "); v == nil || *v != "RU000A0JX0J2" {
		t.Fatalf("unexpected %v", v)
	}
	if v := StringCell(""); v != nil {
		t.Fatalf("expected nil for empty string")
	}
	if v := StringCell(12.0); v != nil {
		t.Fatalf("expected nil for non-string")
	}
}
