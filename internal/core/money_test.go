package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	ok := map[string]string{
		"12.34":  "12.34",
		"12,34":  "12.34",
		"12.345": "12.345",
		"0.004":  "0.004",
		"9.99":   "9.99",
		".5":     "0.5",
		"100":    "100",
	}
	for in, want := range ok {
		got, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", in, err)
		}
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("%s: got %s want %s", in, got, want)
		}
	}
	bad := []string{"", "-1", "+1", "0", "0.000", "1.2.3", "abc", "1e3"}
	for _, in := range bad {
		if _, err := ParseAmount(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q: expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestValidateCurrency(t *testing.T) {
	for _, c := range []string{"USD", "eur", " jpy "} {
		if err := ValidateCurrency(c); err != nil {
			t.Fatalf("%s: %v", c, err)
		}
	}
	for _, c := range []string{"", "XXXX", "DOLLARS"} {
		if err := ValidateCurrency(c); !errors.Is(err, ErrInvalidCurrency) {
			t.Fatalf("%q: expected ErrInvalidCurrency, got %v", c, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("90.01"), "USD"); got != "$90.01" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("3.5"), "ZZZ"); got != "3.50 ZZZ" {
		t.Fatalf("got %q", got)
	}
}

func TestCheckAmountScale(t *testing.T) {
	cases := []struct {
		amount, currency string
		ok               bool
	}{
		{"1.234", "KWD", true},
		{"1.2345", "KWD", false},
		{"12.34", "USD", true},
		{"12.340", "USD", true},
		{"1.234", "USD", false},
		{"0.004", "USD", false},
		{"500", "JPY", true},
		{"500.5", "JPY", false},
		{"3.99", "ZZZ", true},
	}
	for _, c := range cases {
		err := CheckAmountScale(decimal.RequireFromString(c.amount), c.currency)
		if c.ok && err != nil {
			t.Errorf("%s %s: unexpected error %v", c.amount, c.currency, err)
		}
		if !c.ok && !errors.Is(err, ErrAmountPrecision) {
			t.Errorf("%s %s: expected ErrAmountPrecision, got %v", c.amount, c.currency, err)
		}
	}
	if Classify(ErrAmountPrecision) != ClassValidation {
		t.Fatal("precision errors are validation errors")
	}
	if got := CurrencyFraction("kwd"); got != 3 {
		t.Fatalf("CurrencyFraction(kwd) = %d", got)
	}
}
