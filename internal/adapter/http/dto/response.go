package dto

import (
	"time"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

// EntryResponse represents an extracted entry in API responses.
type EntryResponse struct {
	*domain.Entry
	ChangeableFields []string `json:"changeable_fields"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	fields := []string{"category", "target", "memo", "sub_account"}
	if !e.IsImported() {
		fields = append(fields, "date", "amount", "content")
	}
	return &EntryResponse{Entry: e, ChangeableFields: fields}
}

// AccountsResponse represents the cached account list.
type AccountsResponse struct {
	Accounts  []domain.Account `json:"accounts"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// AccountsFromDomain converts a snapshot to a response.
func AccountsFromDomain(s *domain.AccountSnapshot) *AccountsResponse {
	return &AccountsResponse{Accounts: s.Accounts, FetchedAt: s.FetchedAt}
}

// AdjustmentResponse represents a finished workflow.
type AdjustmentResponse struct {
	Run       *domain.AdjustmentRun      `json:"run"`
	Responses []*usecase.GatewayResponse `json:"responses"`
}

// AdjustmentFromResult converts a workflow result to a response.
func AdjustmentFromResult(r *usecase.AdjustmentResult) *AdjustmentResponse {
	return &AdjustmentResponse{Run: r.Run, Responses: r.Responses}
}

// RunsResponse represents a page of journaled runs.
type RunsResponse struct {
	Runs   []*domain.AdjustmentRun `json:"runs"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	// Step and State are set when a host call failed mid-workflow.
	Step  string `json:"step,omitempty"`
	State string `json:"state,omitempty"`
}
