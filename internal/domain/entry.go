package domain

// EntryKind discriminates the two ledger entry variants.
type EntryKind string

const (
	// EntryKindImported is an entry synced from a bank or card. The host only
	// lets the user edit category, target flag, memo and sub-account.
	EntryKindImported EntryKind = "imported"
	// EntryKindManuallyAdded is an entry the user registered by hand.
	EntryKindManuallyAdded EntryKind = "manually_added"
)

// TargetFlag is the three-valued "included in totals" flag of an entry.
type TargetFlag string

const (
	TargetUnset    TargetFlag = ""         // the entry is a transfer
	TargetIncluded TargetFlag = "included" // counted in income/expense totals
	TargetExcluded TargetFlag = "excluded"
)

// Entry is one ledger transaction reconstructed from a rendered row.
// Entries are rebuilt for every user action and never mutated in place.
type Entry struct {
	Kind             EntryKind  `json:"kind"`
	ID               string     `json:"id"`
	TableName        string     `json:"table_name"`
	IsIncome         bool       `json:"is_income"`
	LargeCategoryID  int        `json:"large_category_id"`
	MiddleCategoryID int        `json:"middle_category_id"`
	SubAccountID     string     `json:"sub_account_id"`
	Target           TargetFlag `json:"target"`
	Date             Date       `json:"date"`
	Amount           int64      `json:"amount"`
	Content          string     `json:"content"`
	Memo             string     `json:"memo"`

	// Set only for EntryKindManuallyAdded.
	OriginalAmount int64 `json:"original_amount,omitempty"`
}

// OriginalAmountValue returns the immutable original amount of a manually
// added entry. Imported entries have none.
func (e *Entry) OriginalAmountValue() (int64, bool) {
	if e.Kind != EntryKindManuallyAdded {
		return 0, false
	}
	return e.OriginalAmount, true
}

// IsImported reports whether the entry came from an external source.
func (e *Entry) IsImported() bool {
	return e.Kind == EntryKindImported
}
