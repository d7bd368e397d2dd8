package page

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

const ledgerHTML = `<!DOCTYPE html>
<html>
<head><meta name="csrf-token" content="tok-123"></head>
<body>
<table id="cf-detail-table">
  <thead><tr><th>date</th></tr></thead>
  <tbody>
    <tr>
      <td class="date" data-table-sortable-value="2024/01/20-0001"><span>01/20(土)</span></td>
      <td class="content"><div><span>Coffee shop</span></div></td>
      <td class="amount"><span class="offset">-1,234</span></td>
      <td>
        <form>
          <input type="hidden" name="user_asset_act[id]" value="imp-1">
          <input type="hidden" name="user_asset_act[table_name]" value="user_asset_act">
          <input type="hidden" name="user_asset_act[is_income]" value="0">
          <input type="hidden" name="user_asset_act[large_category_id]" value="11">
          <input type="hidden" name="user_asset_act[middle_category_id]" value="42">
          <input type="hidden" name="user_asset_act[sub_account_id_hash]" value="sub-card">
          <input type="hidden" name="user_asset_act[is_target]" value="1">
          <input type="text" name="user_asset_act[memo]" value="lunch">
        </form>
      </td>
    </tr>
    <tr>
      <td class="date" data-table-sortable-value="2024/02/03-0002"></td>
      <td>
        <form>
          <input type="hidden" name="user_asset_act[id]" value="man-1">
          <input type="hidden" name="original_amount" value="2,500">
          <input type="hidden" name="user_asset_act[table_name]" value="user_asset_act">
          <input type="hidden" name="user_asset_act[is_income]" value="1">
          <input type="hidden" name="user_asset_act[large_category_id]" value="">
          <input type="hidden" name="user_asset_act[middle_category_id]" value="">
          <select class="v_sub_account_id_hash" name="user_asset_act[sub_account_id_hash]">
            <option value="sub-wallet" selected>Wallet (3,000円)</option>
            <option value="sub-adjust">Adjust (0円)</option>
          </select>
          <input type="hidden" name="user_asset_act[sub_account_id_hash]" value="sub-wallet">
          <input type="text" name="user_asset_act[updated_at]" value="2024/02/03">
          <input type="text" name="user_asset_act[amount]" value="3,000">
          <input type="text" name="user_asset_act[content]" value="Refund">
          <input type="text" name="user_asset_act[memo]" value="">
        </form>
      </td>
    </tr>
  </tbody>
</table>
</body>
</html>`

func TestParseLedger(t *testing.T) {
	ledger, err := ParseLedger(strings.NewReader(ledgerHTML))
	require.NoError(t, err)

	assert.Equal(t, "tok-123", ledger.CSRFToken)
	require.Len(t, ledger.Rows, 2)
	assert.Equal(t, []domain.SubAccount{
		{ID: "sub-wallet", Name: "Wallet"},
		{ID: "sub-adjust", Name: "Adjust"},
	}, ledger.SubAccounts)
}

func TestParseLedgerRowsExtract(t *testing.T) {
	ledger, err := ParseLedger(strings.NewReader(ledgerHTML))
	require.NoError(t, err)

	row, ok := ledger.Row("imp-1")
	require.True(t, ok)
	imported, err := usecase.ExtractEntry(row)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindImported, imported.Kind)
	assert.Equal(t, "2024/01/20", imported.Date.String())
	assert.Equal(t, int64(-1234), imported.Amount)
	assert.Equal(t, "Coffee shop", imported.Content)
	assert.Equal(t, "lunch", imported.Memo)

	row, ok = ledger.Row("man-1")
	require.True(t, ok)
	manual, err := usecase.ExtractEntry(row)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindManuallyAdded, manual.Kind)
	assert.Equal(t, int64(3000), manual.Amount)
	assert.Equal(t, int64(2500), manual.OriginalAmount)
	assert.Equal(t, "Refund", manual.Content)
	assert.Equal(t, domain.TargetUnset, manual.Target)

	_, ok = ledger.Row("missing")
	assert.False(t, ok)
}

func TestParseLedgerWithoutTable(t *testing.T) {
	ledger, err := ParseLedger(strings.NewReader(`<html><body><p>login</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, ledger.Rows)
	assert.Empty(t, ledger.SubAccounts)
	assert.Empty(t, ledger.CSRFToken)
}

func TestRowFields(t *testing.T) {
	ledger, err := ParseLedger(strings.NewReader(ledgerHTML))
	require.NoError(t, err)

	fields := ledger.Rows[0].Fields()
	assert.Equal(t, "imp-1", fields.Inputs[usecase.InputID])
	assert.Equal(t, "-1,234", fields.Cells[usecase.CellAmount])
}
