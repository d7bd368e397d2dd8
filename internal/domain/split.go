package domain

import (
	"github.com/shopspring/decimal"
)

// InstallmentAmount returns ceil(amount / n) * -1.
//
// The ceiling is taken toward positive infinity, so the installments of a
// positive amount round up in magnitude and their sum may exceed the
// original by up to n-1 minor units.
func InstallmentAmount(amount int64, n int) int64 {
	q := decimal.NewFromInt(amount).Div(decimal.NewFromInt(int64(n))).Ceil()
	return q.Neg().IntPart()
}

// ShareAmounts splits an entry between the user and the other payer.
// The two amounts always sum to exactly -amount.
func ShareAmounts(amount, mine int64) (self, other int64) {
	return mine, -amount - mine
}

// Occurrences lists the dates of an n-occurrence series starting at start,
// stepping one unit at a time.
func Occurrences(start Date, f Frequency, n int) []Date {
	dates := make([]Date, 0, n)
	d := start
	for i := 0; i < n; i++ {
		dates = append(dates, d)
		d = f.Advance(d, 1)
	}
	return dates
}

// SeriesLimit is the date of the last occurrence of an n-occurrence series.
func SeriesLimit(start Date, f Frequency, n int) Date {
	return f.Advance(start, n-1)
}

// Backfill returns the dates one unit apart after start that fall on or
// before today. The host only materializes future occurrences of a series,
// so these have to be created explicitly. The walk is bounded by today
// alone, not by the length of the series.
func Backfill(start Date, f Frequency, today Date) []Date {
	var dates []Date
	for d := f.Advance(start, 1); !d.After(today); d = f.Advance(d, 1) {
		dates = append(dates, d)
	}
	return dates
}
