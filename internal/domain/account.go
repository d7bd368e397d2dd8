package domain

import (
	"strings"
	"time"
)

// Account is a bank or wallet registered in the host application.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubAccount is the smallest addressable unit within an account.
// Manually created wallets have exactly one.
type SubAccount struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AccountSnapshot is a read-only copy of the cached account list.
type AccountSnapshot struct {
	Accounts  []Account `json:"accounts"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FindByName returns the account whose name equals name exactly.
func (s *AccountSnapshot) FindByName(name string) (Account, bool) {
	if s == nil {
		return Account{}, false
	}
	for _, a := range s.Accounts {
		if a.Name == name {
			return a, true
		}
	}
	return Account{}, false
}

// FindSubAccount returns the sub-account with the given id.
func FindSubAccount(subAccounts []SubAccount, id string) (SubAccount, bool) {
	for _, s := range subAccounts {
		if s.ID == id {
			return s, true
		}
	}
	return SubAccount{}, false
}

// SubAccountName strips the balance suffix the host renders after the
// sub-account name in its selector ("Wallet (1,000円)" -> "Wallet").
func SubAccountName(label string) string {
	label = strings.TrimSpace(label)
	if i := strings.IndexFunc(label, isSpace); i >= 0 {
		return label[:i]
	}
	return label
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '　'
}
