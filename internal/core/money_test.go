package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"-12,50", -1250, true},
		{"+3", 300, true},
		{"40.1", 4010, true},
		{" -0.005 ", -1, true},
		{"--1", 0, false},
		{"-", 0, false},
		{"-0", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestCurrencyFormat(t *testing.T) {
	eur, err := LookupCurrency("eur")
	if err != nil {
		t.Fatal(err)
	}
	usd, _ := LookupCurrency("USD")
	sek, _ := LookupCurrency("SEK")

	cases := []struct {
		c     Currency
		cents int64
		want  string
	}{
		{eur, 1234, "€12,34"},
		{eur, -123450, "-€1.234,50"},
		{eur, 5, "€0,05"},
		{usd, 100000000, "$1,000,000.00"},
		{sek, -99, "-0,99 kr"},
	}
	for _, tc := range cases {
		if got := tc.c.Format(tc.cents); got != tc.want {
			t.Errorf("Format(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}

	if got := eur.FormatUnits(-7.005); got != "-€7,01" && got != "-€7,00" {
		t.Errorf("FormatUnits rounding: %q", got)
	}
	if got := eur.FormatUnits(math.NaN()); got != "-" {
		t.Errorf("FormatUnits(NaN) = %q", got)
	}

	if _, err := LookupCurrency("XXX"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}
