package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"25000", "25000", true},
		{"12500.50", "12500.5", true},
		{"12500,50", "12500.5", true},
		{" 150000 ", "150000", true},
		{"0.01", "0.01", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"0", "Rp 0"},
		{"500", "Rp 500"},
		{"25000", "Rp 25.000"},
		{"1500000", "Rp 1.500.000"},
		{"1234567890", "Rp 1.234.567.890"},
		{"12500.5", "Rp 12.501"}, // rounds to whole rupiah
		{"-75000", "-Rp 75.000"},
	}
	for _, tc := range cases {
		d, err := decimal.NewFromString(tc.in)
		if err != nil {
			t.Fatalf("bad fixture %q: %v", tc.in, err)
		}
		if got := FormatRupiah(d); got != tc.out {
			t.Fatalf("%s expected %q, got %q", tc.in, tc.out, got)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        float64
	}{
		{50, 100, 50},
		{100, 100, 100},
		{150, 100, 100}, // clamped
		{0, 100, 0},
		{-5, 100, 0}, // clamped
		{1, 0, 0},    // degenerate whole
		{1, 3, 100.0 / 3},
	}
	for i, tc := range cases {
		got := Percent(decimal.NewFromInt(tc.part), decimal.NewFromInt(tc.whole))
		if got < tc.want-1e-9 || got > tc.want+1e-9 {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
		if got < 0 || got > 100 {
			t.Fatalf("case %d out of range: %v", i, got)
		}
	}
}
