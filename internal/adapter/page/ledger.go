// Package page reads the host's rendered pages: the cash flow ledger and the
// accounts list.
package page

import (
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

const ledgerTableID = "cf-detail-table"

// Row is one <tr> of the ledger table. It implements usecase.Row.
type Row struct {
	inputs map[string]string
	cells  map[string]string
}

var _ usecase.Row = (*Row)(nil)

// Input implements usecase.Row.
func (r *Row) Input(name string) (string, bool) {
	v, ok := r.inputs[name]
	return v, ok
}

// Cell implements usecase.Row.
func (r *Row) Cell(name string) (string, bool) {
	v, ok := r.cells[name]
	return v, ok
}

// Fields returns the row as plain maps.
func (r *Row) Fields() usecase.FieldRow {
	return usecase.FieldRow{Inputs: r.inputs, Cells: r.cells}
}

// Ledger is a parsed cash flow page.
type Ledger struct {
	CSRFToken   string
	Rows        []*Row
	SubAccounts []domain.SubAccount
}

// Row returns the row of the entry with the given id.
func (l *Ledger) Row(entryID string) (*Row, bool) {
	for _, r := range l.Rows {
		if id, ok := r.Input(usecase.InputID); ok && id == entryID {
			return r, true
		}
	}
	return nil, false
}

// ParseLedger parses a cash flow page. A page without the ledger table
// yields no rows.
func ParseLedger(r io.Reader) (*Ledger, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ledger page: %w", err)
	}

	ledger := &Ledger{
		CSRFToken:   csrfToken(doc),
		SubAccounts: subAccounts(doc),
	}

	table := find(doc, byID(ledgerTableID))
	if table == nil {
		return ledger, nil
	}
	tbody := find(table, byTag("tbody"))
	if tbody == nil {
		return ledger, nil
	}

	for _, tr := range findAll(tbody, byTag("tr")) {
		ledger.Rows = append(ledger.Rows, parseRow(tr))
	}
	return ledger, nil
}

func parseRow(tr *html.Node) *Row {
	row := &Row{inputs: map[string]string{}, cells: map[string]string{}}

	for _, in := range findAll(tr, byTag("input")) {
		name, ok := attr(in, "name")
		if !ok {
			continue
		}
		// the first input of a name wins, as with querySelector
		if _, seen := row.inputs[name]; seen {
			continue
		}
		value, _ := attr(in, "value")
		row.inputs[name] = value
	}

	if td := find(tr, byTagClass("td", "date")); td != nil {
		if v, ok := attr(td, "data-table-sortable-value"); ok {
			row.cells[usecase.CellDate] = v
		}
	}
	if td := find(tr, byTagClass("td", "amount")); td != nil {
		if span := find(td, byTagClass("span", "offset")); span != nil {
			row.cells[usecase.CellAmount] = text(span)
		}
	}
	if td := find(tr, byTagClass("td", "content")); td != nil {
		row.cells[usecase.CellContent] = text(td)
	}

	return row
}

func csrfToken(doc *html.Node) string {
	meta := find(doc, func(n *html.Node) bool {
		name, _ := attr(n, "name")
		return isElement(n, "meta") && name == "csrf-token"
	})
	if meta == nil {
		return ""
	}
	v, _ := attr(meta, "content")
	return v
}

// subAccounts reads the sub-account selector of the first manually added
// row. Pages without one yield none.
func subAccounts(doc *html.Node) []domain.SubAccount {
	sel := find(doc, byTagClass("select", "v_sub_account_id_hash"))
	if sel == nil {
		return nil
	}

	var out []domain.SubAccount
	for _, opt := range findAll(sel, byTag("option")) {
		value, _ := attr(opt, "value")
		out = append(out, domain.SubAccount{ID: value, Name: domain.SubAccountName(text(opt))})
	}
	return out
}
