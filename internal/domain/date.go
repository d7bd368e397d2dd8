package domain

import (
	"fmt"
	"time"
)

// Layouts used by the host application.
const (
	DateLayout      = "2006/01/02" // ledger and gateway dates
	MonthLayout     = "2006-01"    // month form field
	InputDateLayout = "2006-01-02" // dates typed by the user
)

// Date is a calendar date without time of day.
type Date struct {
	t time.Time
}

// NewDate builds a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts both YYYY/MM/DD and YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	for _, layout := range []string{DateLayout, InputDateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{t: t}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: date %q", ErrMalformedField, s)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// String renders the date as YYYY/MM/DD.
func (d Date) String() string {
	return d.t.Format(DateLayout)
}

// Month renders the YYYY-MM month of the date.
func (d Date) Month() string {
	return d.t.Format(MonthLayout)
}

// Before reports whether d is strictly before o.
func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

// After reports whether d is strictly after o.
func (d Date) After(o Date) bool {
	return d.t.After(o.t)
}

// AddDays adds n days.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// AddMonths adds n months, clamping the day to the end of the target month
// (2024/01/31 + 1 month = 2024/02/29).
func (d Date) AddMonths(n int) Date {
	y, m, day := d.t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if day > last {
		day = last
	}
	return Date{t: time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)}
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
