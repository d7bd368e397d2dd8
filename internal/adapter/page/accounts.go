package page

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/iho/cfadjust/internal/domain"
)

const accountTableID = "account-table"

// ParseAccounts reads the registered accounts from the accounts page.
func ParseAccounts(r io.Reader) ([]domain.Account, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse accounts page: %w", err)
	}

	table := find(doc, byID(accountTableID))
	if table == nil {
		return nil, nil
	}
	tbody := find(table, byTag("tbody"))
	if tbody == nil {
		return nil, nil
	}

	var accounts []domain.Account
	for _, tr := range findAll(tbody, byTag("tr")) {
		id, _ := attr(tr, "id")
		name := "?"
		for _, td := range findAll(tr, byTag("td")) {
			if a := find(td, byTag("a")); a != nil {
				name = strings.TrimSpace(text(a))
				break
			}
		}
		accounts = append(accounts, domain.Account{ID: id, Name: name})
	}
	return accounts, nil
}
