package handler

import (
	"context"
	"net/http"

	"github.com/iho/cfadjust/internal/adapter/http/dto"
	"github.com/iho/cfadjust/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	Refresh(ctx context.Context, accounts []domain.Account) (*domain.AccountSnapshot, error)
	Snapshot(ctx context.Context) (*domain.AccountSnapshot, error)
}

// AccountHandler handles the cached account list.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Refresh replaces the cached account list.
func (h *AccountHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshAccountsRequest
	if !decode(w, r, &req) {
		return
	}

	snapshot, err := h.accountUC.Refresh(r.Context(), req.ToDomain())
	if err != nil {
		writeDomainError(w, "failed to refresh accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(snapshot))
}

// Get returns the cached account list.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.accountUC.Snapshot(r.Context())
	if err != nil {
		writeDomainError(w, "failed to load accounts", err)
		return
	}
	if snapshot == nil {
		writeError(w, http.StatusNotFound, "no cached accounts", domain.ErrMissingCachedAccounts.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(snapshot))
}
