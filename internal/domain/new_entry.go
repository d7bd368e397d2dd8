package domain

import (
	"fmt"
)

// Frequency is the step of a recurring series.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ParseFrequency validates a frequency name.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(s); f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return f, nil
	default:
		return "", InvalidInput("unknown frequency %q", s)
	}
}

// Advance moves d forward by n units of f.
func (f Frequency) Advance(d Date, n int) Date {
	switch f {
	case FrequencyMonthly:
		return d.AddMonths(n)
	case FrequencyWeekly:
		return d.AddDays(7 * n)
	default:
		return d.AddDays(n)
	}
}

// DefaultPayment is the payment method the host form always submits.
const DefaultPayment = 2

// MaxMemoLength bounds the memo of a non-recurring entry.
const MaxMemoLength = 20

// Recurring carries the host's recurring-series parameters.
type Recurring struct {
	Flag      bool   `json:"flag"`
	Frequency string `json:"frequency"`
	Limit     *Date  `json:"limit,omitempty"`
	LimitOff  bool   `json:"limit_off"`
	RuleOnly  bool   `json:"rule_only"`
}

// NewEntryRequest is the write-only shape used to create a ledger entry.
// It is never read back into an Entry.
type NewEntryRequest struct {
	IsTransfer       bool      `json:"is_transfer"`
	IsIncome         bool      `json:"is_income"`
	Payment          int       `json:"payment"`
	SubAccountIDFrom string    `json:"sub_account_id_from,omitempty"`
	SubAccountIDTo   string    `json:"sub_account_id_to,omitempty"`
	Date             Date      `json:"date"`
	Recurring        Recurring `json:"recurring"`
	Amount           int64     `json:"amount"`
	SubAccountID     string    `json:"sub_account_id"`
	LargeCategoryID  int       `json:"large_category_id"`
	MiddleCategoryID int       `json:"middle_category_id"`
	Content          string    `json:"content"`
	Memo             string    `json:"memo"`
}

// Month returns the YYYY-MM month field; it always matches Date.
func (r *NewEntryRequest) Month() string {
	return r.Date.Month()
}

// TruncatedMemo returns the memo cut to MaxMemoLength characters.
func (r *NewEntryRequest) TruncatedMemo() string {
	runes := []rune(r.Memo)
	if len(runes) <= MaxMemoLength {
		return r.Memo
	}
	return string(runes[:MaxMemoLength])
}

// Validate checks the request can be submitted.
func (r *NewEntryRequest) Validate() error {
	if r.SubAccountID == "" {
		return InvalidInput("sub-account id is empty")
	}
	if r.Date.IsZero() {
		return InvalidInput("date is empty")
	}
	if r.Recurring.Flag {
		if r.Recurring.Limit == nil {
			return InvalidInput("recurring entry has no limit")
		}
		if r.Recurring.Limit.Before(r.Date) {
			return InvalidInput("recurring limit %s is before start %s", r.Recurring.Limit, r.Date)
		}
	}
	return nil
}

// Derive returns a non-recurring request copying the entry's category,
// income flag and content, booked on subAccountID.
func Derive(e *Entry, subAccountID string, date Date, amount int64) NewEntryRequest {
	return NewEntryRequest{
		IsIncome:         e.IsIncome,
		Payment:          DefaultPayment,
		Date:             date,
		Recurring:        Recurring{Frequency: string(FrequencyDaily)},
		Amount:           amount,
		SubAccountID:     subAccountID,
		LargeCategoryID:  e.LargeCategoryID,
		MiddleCategoryID: e.MiddleCategoryID,
		Content:          e.Content,
	}
}

func (r NewEntryRequest) String() string {
	return fmt.Sprintf("%s %d %q", r.Date, r.Amount, r.Content)
}
