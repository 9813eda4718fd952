// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings,
// validating ISO-4217 currency codes and formatting amounts for display.
package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The value
// is kept exactly as written; whether its precision suits a currency is
// decided by CheckAmountScale. Returns an error for invalid formats, negative
// values, or zero amounts.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("1.234")  -> 1.234, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrency checks code against the ISO-4217 table shipped with go-money.
func ValidateCurrency(code string) error {
	code = NormalizeCurrency(code)
	if code == "" {
		return fmt.Errorf("%w: currency is required", ErrInvalidCurrency)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return nil
}

// CurrencyFraction returns how many fractional digits code's minor unit has
// (2 for USD, 3 for KWD, 0 for JPY). Unknown codes get 2.
func CurrencyFraction(code string) int32 {
	if cur := money.GetCurrency(NormalizeCurrency(code)); cur != nil {
		return int32(cur.Fraction)
	}
	return 2
}

// CheckAmountScale rejects an amount with more significant fractional digits
// than the currency's minor unit allows. Trailing zeros do not count.
func CheckAmountScale(amount decimal.Decimal, code string) error {
	frac := CurrencyFraction(code)
	if !amount.Equal(amount.Truncate(frac)) {
		return fmt.Errorf("%w: %s has more than %d decimal places for %s",
			ErrAmountPrecision, amount, frac, NormalizeCurrency(code))
	}
	return nil
}

// FormatAmount renders amount in the currency's conventional format, e.g. "$9.99".
// Unknown currencies fall back to "<amount> <code>".
func FormatAmount(amount decimal.Decimal, code string) string {
	code = NormalizeCurrency(code)
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display()
}
