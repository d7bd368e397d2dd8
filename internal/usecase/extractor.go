package usecase

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iho/cfadjust/internal/domain"
)

// Row field names.
const (
	InputID               = "user_asset_act[id]"
	InputTableName        = "user_asset_act[table_name]"
	InputIsIncome         = "user_asset_act[is_income]"
	InputLargeCategoryID  = "user_asset_act[large_category_id]"
	InputMiddleCategoryID = "user_asset_act[middle_category_id]"
	InputSubAccountID     = "user_asset_act[sub_account_id_hash]"
	InputIsTarget         = "user_asset_act[is_target]"
	InputMemo             = "user_asset_act[memo]"
	InputUpdatedAt        = "user_asset_act[updated_at]"
	InputAmount           = "user_asset_act[amount]"
	InputContent          = "user_asset_act[content]"
	InputOriginalAmount   = "original_amount"

	CellDate    = "date"
	CellAmount  = "amount"
	CellContent = "content"
)

// FieldRow is a Row backed by plain maps, as posted by the browser.
type FieldRow struct {
	Inputs map[string]string `json:"inputs"`
	Cells  map[string]string `json:"cells"`
}

// Input implements Row.
func (r FieldRow) Input(name string) (string, bool) {
	v, ok := r.Inputs[name]
	return v, ok
}

// Cell implements Row.
func (r FieldRow) Cell(name string) (string, bool) {
	v, ok := r.Cells[name]
	return v, ok
}

// ExtractEntry rebuilds the ledger entry rendered in row. The variant is
// decided once, by the presence of the amount input, and every required
// field must be present or nothing is returned.
func ExtractEntry(row Row) (*domain.Entry, error) {
	x := extraction{row: row}

	e := &domain.Entry{
		ID:               x.input(InputID),
		TableName:        x.input(InputTableName),
		IsIncome:         x.input(InputIsIncome) == "1",
		LargeCategoryID:  x.category(InputLargeCategoryID),
		MiddleCategoryID: x.category(InputMiddleCategoryID),
		SubAccountID:     x.input(InputSubAccountID),
		Target:           targetFlag(row),
	}

	if _, manual := row.Input(InputAmount); manual {
		e.Kind = domain.EntryKindManuallyAdded
		e.OriginalAmount = x.integer(InputOriginalAmount, x.input(InputOriginalAmount))
		e.Date = x.date(InputUpdatedAt, x.input(InputUpdatedAt))
		e.Amount = x.integer(InputAmount, x.input(InputAmount))
		e.Content = x.input(InputContent)
		e.Memo = x.input(InputMemo)
	} else {
		e.Kind = domain.EntryKindImported
		e.Memo = x.input(InputMemo)
		date := x.cell(CellDate)
		if len(date) > 10 {
			date = date[:10]
		}
		e.Date = x.date(CellDate, date)
		e.Amount = x.integer(CellAmount, x.cell(CellAmount))
		e.Content = strings.TrimSpace(x.cell(CellContent))
	}

	if x.err != nil {
		return nil, x.err
	}
	return e, nil
}

func targetFlag(row Row) domain.TargetFlag {
	v, ok := row.Input(InputIsTarget)
	switch {
	case !ok:
		return domain.TargetUnset
	case v == "1":
		return domain.TargetIncluded
	default:
		return domain.TargetExcluded
	}
}

// extraction keeps the first failure so ExtractEntry reads like a plain
// field list.
type extraction struct {
	row Row
	err error
}

func (x *extraction) fail(err error) {
	if x.err == nil {
		x.err = err
	}
}

func (x *extraction) input(name string) string {
	v, ok := x.row.Input(name)
	if !ok {
		x.fail(domain.MissingField(name))
	}
	return v
}

func (x *extraction) cell(name string) string {
	v, ok := x.row.Cell(name)
	if !ok {
		x.fail(domain.MissingField(name))
	}
	return v
}

func (x *extraction) integer(field, raw string) int64 {
	if x.err != nil {
		return 0
	}
	n, err := ParseAmount(raw)
	if err != nil {
		x.fail(&domain.FieldError{Field: field, Err: err})
	}
	return n
}

// category parses a category id; the host leaves it empty for
// uncategorized entries.
func (x *extraction) category(name string) int {
	raw := x.input(name)
	if x.err != nil || strings.TrimSpace(raw) == "" {
		return 0
	}
	return int(x.integer(name, raw))
}

func (x *extraction) date(field, raw string) domain.Date {
	if x.err != nil {
		return domain.Date{}
	}
	d, err := domain.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		x.fail(&domain.FieldError{Field: field, Err: domain.ErrMalformedField})
	}
	return d
}

// ParseAmount parses the leading signed integer of s after removing
// thousands separators, so "1,234円" yields 1234.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrMalformedField, s)
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrMalformedField, err)
	}
	return n, nil
}
