package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/cfadjust/internal/adapter/http/dto"
	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

// AdjustmentService defines the behavior needed by AdjustmentHandler.
type AdjustmentService interface {
	ChangeDate(ctx context.Context, input usecase.ChangeDateInput) (*usecase.AdjustmentResult, error)
	SplitInstallments(ctx context.Context, input usecase.SplitInstallmentsInput) (*usecase.AdjustmentResult, error)
	SplitShare(ctx context.Context, input usecase.SplitShareInput) (*usecase.AdjustmentResult, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error)
}

// SnapshotLoader loads the cached account list.
type SnapshotLoader interface {
	Snapshot(ctx context.Context) (*domain.AccountSnapshot, error)
}

// AdjustmentHandler handles the adjustment workflows.
type AdjustmentHandler struct {
	adjustmentUC AdjustmentService
	accounts     SnapshotLoader
	logger       zerolog.Logger
}

// NewAdjustmentHandler creates a new AdjustmentHandler.
func NewAdjustmentHandler(adjustmentUC AdjustmentService, accounts SnapshotLoader, logger zerolog.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{
		adjustmentUC: adjustmentUC,
		accounts:     accounts,
		logger:       logger,
	}
}

// ChangeDate moves an entry to another date.
func (h *AdjustmentHandler) ChangeDate(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangeDateRequest
	if !decode(w, r, &req) {
		return
	}
	h.run(w, r, req.AdjustmentRequest, func(ctx context.Context, accounts *domain.AccountSnapshot) (*usecase.AdjustmentResult, error) {
		input, err := req.ToUseCaseInput(accounts)
		if err != nil {
			return nil, err
		}
		return h.adjustmentUC.ChangeDate(ctx, input)
	})
}

// Split books an entry as a series of installments.
func (h *AdjustmentHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitRequest
	if !decode(w, r, &req) {
		return
	}
	h.run(w, r, req.AdjustmentRequest, func(ctx context.Context, accounts *domain.AccountSnapshot) (*usecase.AdjustmentResult, error) {
		input, err := req.ToUseCaseInput(accounts)
		if err != nil {
			return nil, err
		}
		return h.adjustmentUC.SplitInstallments(ctx, input)
	})
}

// Share splits an entry between the user and another payer.
func (h *AdjustmentHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req dto.ShareRequest
	if !decode(w, r, &req) {
		return
	}
	h.run(w, r, req.AdjustmentRequest, func(ctx context.Context, accounts *domain.AccountSnapshot) (*usecase.AdjustmentResult, error) {
		input, err := req.ToUseCaseInput(accounts)
		if err != nil {
			return nil, err
		}
		return h.adjustmentUC.SplitShare(ctx, input)
	})
}

// List lists journaled runs.
func (h *AdjustmentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := domain.ValidatePagination(parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))

	runs, err := h.adjustmentUC.ListRuns(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.RunsResponse{Runs: runs, Limit: limit, Offset: offset})
}

func (h *AdjustmentHandler) run(
	w http.ResponseWriter,
	r *http.Request,
	req dto.AdjustmentRequest,
	fn func(ctx context.Context, accounts *domain.AccountSnapshot) (*usecase.AdjustmentResult, error),
) {
	accounts, err := h.accounts.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load accounts", err.Error())
		return
	}

	ctx := withConfirmation(r.Context(), req.Confirmed)
	result, err := fn(ctx, accounts)
	if err != nil {
		if usecase.IsRemoteFailure(err) {
			h.logger.Error().Err(err).Msg("adjustment stopped after the host was changed")
		}
		writeDomainError(w, "adjustment failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AdjustmentFromResult(result))
}
