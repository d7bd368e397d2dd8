package gateway

import (
	"net/url"
	"strconv"

	"github.com/iho/cfadjust/internal/domain"
)

const (
	createCommit       = "保存する"
	counterpartyCommit = "設定を保存"
)

func field(name string) string {
	return "user_asset_act[" + name + "]"
}

// EncodeCreateForm renders req as the host's create form.
func EncodeCreateForm(req domain.NewEntryRequest) url.Values {
	form := url.Values{}
	form.Add(field("is_transfer"), flag(req.IsTransfer))
	form.Add(field("is_income"), flag(req.IsIncome))
	form.Add(field("payment"), strconv.Itoa(domain.DefaultPayment))
	form.Add(field("sub_account_id_hash_from"), orZero(req.SubAccountIDFrom))
	form.Add(field("sub_account_id_hash_to"), orZero(req.SubAccountIDTo))
	form.Add(field("updated_at"), req.Date.String())

	// The host reads the last value of a repeated flag.
	form.Add(field("recurring_flag"), "0")
	if req.Recurring.Flag {
		form.Add(field("recurring_flag"), "1")
	}
	form.Add("month", req.Month())
	form.Add(field("recurring_frequency"), req.Recurring.Frequency)
	if req.Recurring.Limit != nil {
		form.Add(field("recurring_limit"), req.Recurring.Limit.String())
	}
	form.Add(field("recurring_limit_off_flag"), "0")
	if req.Recurring.LimitOff {
		form.Add(field("recurring_limit_off_flag"), "1")
	}
	form.Add(field("recurring_rule_only_flag"), flag(req.Recurring.RuleOnly))

	form.Add(field("amount"), strconv.FormatInt(req.Amount, 10))
	form.Add(field("sub_account_id_hash"), req.SubAccountID)
	form.Add(field("large_category_id"), category(req.LargeCategoryID))
	form.Add(field("middle_category_id"), category(req.MiddleCategoryID))
	form.Add(field("content"), req.Content)
	if !req.Recurring.Flag {
		form.Add(field("memo"), req.TruncatedMemo())
	}
	form.Add("commit", createCommit)

	return form
}

// EncodeCounterpartyForm renders the transfer counterparty form.
func EncodeCounterpartyForm(entryID, accountID, subAccountID string) url.Values {
	form := url.Values{}
	form.Add(field("id"), entryID)
	form.Add(field("partner_account_id_hash"), accountID)
	form.Add(field("partner_sub_account_id_hash"), subAccountID)
	form.Add("commit", counterpartyCommit)
	return form
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// category encodes "uncategorized" as an empty value.
func category(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}
