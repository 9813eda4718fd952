// This file implements the Strategy Pattern for advancing subscription billing
// dates. Each frequency has its own period that knows how to step a date forward.

package core

import (
	"fmt"
	"time"
)

// BillingPeriod advances a billing date by exactly one period. anchorDay is
// the day of month the subscription bills on; a shorter month clamps it to
// its last day without forgetting it.
type BillingPeriod interface {
	Next(from Date, anchorDay int) Date
}

// MonthlyPeriod steps one calendar month.
type MonthlyPeriod struct{}

func (MonthlyPeriod) Next(from Date, anchorDay int) Date {
	return addMonthsClamped(from, 1, anchorDay)
}

// YearlyPeriod steps one calendar year; Feb 29 becomes Feb 28 in non-leap years.
type YearlyPeriod struct{}

func (YearlyPeriod) Next(from Date, anchorDay int) Date {
	return addMonthsClamped(from, 12, anchorDay)
}

var billingPeriods = map[Frequency]BillingPeriod{
	Mensual: MonthlyPeriod{},
	Anual:   YearlyPeriod{},
}

// GetBillingPeriod returns the period for a frequency.
func GetBillingPeriod(f Frequency) (BillingPeriod, error) {
	p, ok := billingPeriods[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
	return p, nil
}

// NextBillingDate advances from by one period of f, landing on anchorDay
// where the target month has it. A non-positive anchorDay means from's day.
func NextBillingDate(f Frequency, from Date, anchorDay int) (Date, error) {
	p, err := GetBillingPeriod(f)
	if err != nil {
		return Date{}, err
	}
	return p.Next(from, anchorDay), nil
}

func addMonthsClamped(from Date, months, anchorDay int) Date {
	y, m, d := from.Date()
	if anchorDay > 0 {
		d = anchorDay
	}
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return NewDate(first.Year(), int(first.Month()), d)
}
