package dto

import (
	"fmt"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

// RowRequest is one ledger row as read by the browser: the row's form
// inputs by name and the text of its date, amount and content cells.
type RowRequest struct {
	Inputs map[string]string `json:"inputs"`
	Cells  map[string]string `json:"cells"`
}

// ToRow converts the request to a usecase.Row.
func (r RowRequest) ToRow() usecase.FieldRow {
	return usecase.FieldRow{Inputs: r.Inputs, Cells: r.Cells}
}

// ExtractEntryRequest represents a request to extract an entry from a row.
type ExtractEntryRequest struct {
	RowRequest
}

// AccountRequest is one account scraped from the accounts page.
type AccountRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RefreshAccountsRequest represents a request to replace the cached accounts.
type RefreshAccountsRequest struct {
	Accounts []AccountRequest `json:"accounts"`
}

// ToDomain converts the request to domain accounts.
func (r *RefreshAccountsRequest) ToDomain() []domain.Account {
	accounts := make([]domain.Account, len(r.Accounts))
	for i, a := range r.Accounts {
		accounts[i] = domain.Account{ID: a.ID, Name: a.Name}
	}
	return accounts
}

// SubAccountRequest is one option of the page's sub-account selector.
type SubAccountRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdjustmentRequest is the part shared by all adjustment requests.
type AdjustmentRequest struct {
	Row                    RowRequest          `json:"row"`
	SubAccounts            []SubAccountRequest `json:"sub_accounts"`
	AdjustmentSubAccountID string              `json:"adjustment_sub_account_id"`
	// Confirmed must be true for the workflow to touch the host.
	Confirmed bool `json:"confirmed"`
}

// ToTarget extracts the entry and builds the workflow target. accounts is
// the cached snapshot, nil when nothing is cached.
func (r *AdjustmentRequest) ToTarget(accounts *domain.AccountSnapshot) (usecase.AdjustmentTarget, error) {
	entry, err := usecase.ExtractEntry(r.Row.ToRow())
	if err != nil {
		return usecase.AdjustmentTarget{}, err
	}

	subAccounts := make([]domain.SubAccount, len(r.SubAccounts))
	for i, s := range r.SubAccounts {
		subAccounts[i] = domain.SubAccount{ID: s.ID, Name: domain.SubAccountName(s.Name)}
	}

	return usecase.AdjustmentTarget{
		Entry:                  entry,
		AdjustmentSubAccountID: r.AdjustmentSubAccountID,
		Accounts:               accounts,
		SubAccounts:            subAccounts,
	}, nil
}

// ChangeDateRequest represents a request to move an entry to another date.
type ChangeDateRequest struct {
	AdjustmentRequest
	TargetDate string `json:"target_date"`
}

// ToUseCaseInput converts the request to usecase input.
func (r *ChangeDateRequest) ToUseCaseInput(accounts *domain.AccountSnapshot) (usecase.ChangeDateInput, error) {
	target, err := r.ToTarget(accounts)
	if err != nil {
		return usecase.ChangeDateInput{}, err
	}
	date, err := parseOptionalDate("target_date", r.TargetDate)
	if err != nil {
		return usecase.ChangeDateInput{}, err
	}
	return usecase.ChangeDateInput{AdjustmentTarget: target, TargetDate: date}, nil
}

// SplitRequest represents a request to split an entry into installments.
type SplitRequest struct {
	AdjustmentRequest
	NumSplit  int    `json:"num_split"`
	Frequency string `json:"frequency"`
	StartDate string `json:"start_date"`
}

// ToUseCaseInput converts the request to usecase input.
func (r *SplitRequest) ToUseCaseInput(accounts *domain.AccountSnapshot) (usecase.SplitInstallmentsInput, error) {
	target, err := r.ToTarget(accounts)
	if err != nil {
		return usecase.SplitInstallmentsInput{}, err
	}
	date, err := parseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return usecase.SplitInstallmentsInput{}, err
	}
	return usecase.SplitInstallmentsInput{
		AdjustmentTarget: target,
		NumSplit:         r.NumSplit,
		Frequency:        r.Frequency,
		StartDate:        date,
	}, nil
}

// ShareRequest represents a request to split an entry with another payer.
type ShareRequest struct {
	AdjustmentRequest
	MyExpenseAmount int64 `json:"my_expense_amount"`
}

// ToUseCaseInput converts the request to usecase input.
func (r *ShareRequest) ToUseCaseInput(accounts *domain.AccountSnapshot) (usecase.SplitShareInput, error) {
	target, err := r.ToTarget(accounts)
	if err != nil {
		return usecase.SplitShareInput{}, err
	}
	return usecase.SplitShareInput{AdjustmentTarget: target, MyExpenseAmount: r.MyExpenseAmount}, nil
}

// parseOptionalDate leaves an empty value zero so the workflow reports it.
func parseOptionalDate(field, value string) (domain.Date, error) {
	if value == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(value)
	if err != nil {
		return domain.Date{}, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}
