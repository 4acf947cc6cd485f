package utils

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "10", want: "10"},
		{in: " 10.5 ", want: "10.5"},
		{in: "10,5", want: "10.5"},
		{in: "0", want: "0"},
		{in: "1.239", want: "1.24"},
		{in: "abc", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("%q: got %s, %v; want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestParseAmountRejectsZero(t *testing.T) {
	if _, err := ParseAmount("0"); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if got, err := ParseAmount("2.50"); err != nil || !got.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("got %s, %v", got, err)
	}
}

func TestParseQuantity(t *testing.T) {
	for in, want := range map[string]int{"0": 0, "3": 3, " 12 ": 12} {
		if got, err := ParseQuantity(in); err != nil || got != want {
			t.Errorf("%q: got %d, %v", in, got, err)
		}
	}
	for _, in := range []string{"-1", "1.5", "three", ""} {
		if _, err := ParseQuantity(in); err != ErrInvalidQuantity {
			t.Errorf("%q: expected ErrInvalidQuantity, got %v", in, err)
		}
	}
}

func TestParseProductNumber(t *testing.T) {
	if n, ok := ParseProductNumber("12345678"); !ok || n != 12345678 {
		t.Fatalf("got %d, %v", n, ok)
	}
	for _, in := range []string{"1234567", "123456789", "abc", ""} {
		if _, ok := ParseProductNumber(in); ok {
			t.Errorf("%q accepted", in)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeText(` <b>"Widget";</b> `); got != "bWidget/b" {
		t.Fatalf("SanitizeText = %q", got)
	}
	if got := SanitizeText(strings.Repeat("a", 1500)); len(got) != 1000 {
		t.Fatalf("SanitizeText length = %d", len(got))
	}
	if got := SanitizeUsername(strings.Repeat("u", 51)); got != "" {
		t.Fatalf("long username kept: %q", got)
	}
	if got := SanitizeUsername("alice'"); got != "alice" {
		t.Fatalf("SanitizeUsername = %q", got)
	}
}

func TestMoneyConversion(t *testing.T) {
	if got := MinorToUnits(1, 2); !got.Equal(decimal.RequireFromString("0.01")) {
		t.Fatalf("MinorToUnits(1, 2) = %s", got)
	}
	if got := MinorToUnits(500, 0); !got.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("MinorToUnits(500, 0) = %s", got)
	}

	minor, err := UnitsToMinor(decimal.RequireFromString("5.25"), 2)
	if err != nil || minor != 525 {
		t.Fatalf("UnitsToMinor(5.25) = %d, %v", minor, err)
	}
	if _, err := UnitsToMinor(decimal.RequireFromString("0.001"), 2); err == nil {
		t.Fatal("expected sub-cent amount to be rejected")
	}

	if got := FormatMoney(decimal.NewFromInt(10), "USD"); got != "10.00 USD" {
		t.Fatalf("FormatMoney = %q", got)
	}
}

func TestUnitsToMinorBounds(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "0.01", want: 1},
		{in: "21474836.47", want: MaxMinorAmount},
		{in: "21474836.48", wantErr: true},
		{in: "184467440737095516.17", wantErr: true},
		{in: "1e17", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1", wantErr: true},
	}

	for _, tt := range tests {
		got, err := UnitsToMinor(decimal.RequireFromString(tt.in), 2)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Errorf("%s: err = %v, want ErrInvalidAmount", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%s: got %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
}
