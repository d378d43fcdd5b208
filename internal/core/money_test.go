package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"42.50", 4250, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"7", 700, true},
		{".50", 50, true},
		{"0", 0, false},
		{"", 0, false},
		{"-1.00", 0, false},
		{"+1.00", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: expected %d, got %d (%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{4250, "42.50"},
		{5, "0.05"},
		{100, "1.00"},
		{-1234, "-12.34"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).Decimal(); got != tc.want {
			t.Fatalf("%d cents: expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestParseMoneyRoundTrip(t *testing.T) {
	m, err := ParseMoney("42.50")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Decimal() != "42.50" {
		t.Fatalf("round trip mismatch: %s", m.Decimal())
	}
}
