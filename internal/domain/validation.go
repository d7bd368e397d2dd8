package domain

import (
	"fmt"
	"strings"
)

// Validation constants
const (
	MinSplitCount = 2
	MaxAccounts   = 1000
)

// ValidateSubAccountID validates the adjustment sub-account selection
func ValidateSubAccountID(id string) error {
	if strings.TrimSpace(id) == "" {
		return InvalidInput("adjustment sub-account is not selected")
	}
	return nil
}

// ValidateSplitCount validates the number of installments
func ValidateSplitCount(n int) error {
	if n < MinSplitCount {
		return InvalidInput("split count must be at least %d, got %d", MinSplitCount, n)
	}
	return nil
}

// ValidateMyExpense validates the self-paid part of a shared entry
func ValidateMyExpense(amount int64) error {
	if amount <= 0 {
		return InvalidInput("self-paid amount must be positive, got %d", amount)
	}
	return nil
}

// ValidateAccounts validates a scraped account list before it is cached
func ValidateAccounts(accounts []Account) error {
	if len(accounts) == 0 {
		return InvalidInput("account list is empty")
	}
	if len(accounts) > MaxAccounts {
		return InvalidInput("account list exceeds %d entries", MaxAccounts)
	}

	seen := make(map[string]bool, len(accounts))
	for i, a := range accounts {
		if a.ID == "" {
			return fmt.Errorf("%w: account %d has no id", ErrInvalidInput, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate account id %s", ErrInvalidInput, a.ID)
		}
		seen[a.ID] = true
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
