package util

import "testing"

func TestParsePeriodDays(t *testing.T) {
	got, err := ParsePeriod("90d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 90 {
		t.Fatalf("unexpected days %d", got)
	}
}

func TestParsePeriodMonthsAndYears(t *testing.T) {
	cases := map[string]int{
		"1mo": 21,
		"6mo": 126,
		"1y":  252,
		"2y":  504,
	}
	for in, want := range cases {
		got, err := ParsePeriod(in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %d, want %d", in, got, want)
		}
	}
}

func TestParsePeriodInvalid(t *testing.T) {
	for _, in := range []string{"", "x", "0d", "-1y", "1w"} {
		if _, err := ParsePeriod(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestParseIntDefault(t *testing.T) {
	if got := ParseIntDefault("", 7); got != 7 {
		t.Fatalf("expected default, got %d", got)
	}
	if got := ParseIntDefault("12", 7); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
}
