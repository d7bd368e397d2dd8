package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/cfadjust/internal/adapter/http/dto"
	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
	"github.com/iho/cfadjust/internal/usecase/mocks"
)

type adjustmentServiceStub struct {
	changeDateFn func(ctx context.Context, input usecase.ChangeDateInput) (*usecase.AdjustmentResult, error)
	splitFn      func(ctx context.Context, input usecase.SplitInstallmentsInput) (*usecase.AdjustmentResult, error)
	shareFn      func(ctx context.Context, input usecase.SplitShareInput) (*usecase.AdjustmentResult, error)
	listFn       func(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error)
}

func (s *adjustmentServiceStub) ChangeDate(ctx context.Context, input usecase.ChangeDateInput) (*usecase.AdjustmentResult, error) {
	return s.changeDateFn(ctx, input)
}

func (s *adjustmentServiceStub) SplitInstallments(ctx context.Context, input usecase.SplitInstallmentsInput) (*usecase.AdjustmentResult, error) {
	return s.splitFn(ctx, input)
}

func (s *adjustmentServiceStub) SplitShare(ctx context.Context, input usecase.SplitShareInput) (*usecase.AdjustmentResult, error) {
	return s.shareFn(ctx, input)
}

func (s *adjustmentServiceStub) ListRuns(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error) {
	return s.listFn(ctx, limit, offset)
}

type snapshotStub struct {
	snapshot *domain.AccountSnapshot
	err      error
}

func (s snapshotStub) Snapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	return s.snapshot, s.err
}

var cachedAccounts = &domain.AccountSnapshot{Accounts: []domain.Account{{ID: "acc-adj", Name: "Adjust"}}}

func adjustmentBody(extra string) string {
	return `{
		"row": ` + importedRowJSON + `,
		"sub_accounts": [{"id": "adj", "name": "Adjust (0円)"}],
		"adjustment_sub_account_id": "adj",
		"confirmed": true` + extra + `
	}`
}

func doneResult() *usecase.AdjustmentResult {
	return &usecase.AdjustmentResult{
		Run:       &domain.AdjustmentRun{ID: "run-1", State: domain.RunStateDone},
		Responses: []*usecase.GatewayResponse{{StatusCode: 200}},
	}
}

func TestAdjustmentHandler_Share(t *testing.T) {
	var captured usecase.SplitShareInput
	var confirmed bool
	handler := NewAdjustmentHandler(&adjustmentServiceStub{
		shareFn: func(ctx context.Context, input usecase.SplitShareInput) (*usecase.AdjustmentResult, error) {
			captured = input
			confirmed, _ = RequestConfirmer{}.Confirm(ctx, "")
			return doneResult(), nil
		},
	}, snapshotStub{snapshot: cachedAccounts}, zerolog.Nop())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/adjustments/share", strings.NewReader(adjustmentBody(`, "my_expense_amount": 1000`)))
	handler.Share(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, confirmed)
	assert.Equal(t, int64(1000), captured.MyExpenseAmount)
	assert.Equal(t, int64(-3000), captured.Entry.Amount)
	assert.Equal(t, "Adjust", captured.SubAccounts[0].Name)
	assert.Same(t, cachedAccounts, captured.Accounts)

	var resp dto.AdjustmentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.RunStateDone, resp.Run.State)
}

func TestAdjustmentHandler_SplitAndChangeDateParseParams(t *testing.T) {
	var split usecase.SplitInstallmentsInput
	var change usecase.ChangeDateInput
	handler := NewAdjustmentHandler(&adjustmentServiceStub{
		splitFn: func(ctx context.Context, input usecase.SplitInstallmentsInput) (*usecase.AdjustmentResult, error) {
			split = input
			return doneResult(), nil
		},
		changeDateFn: func(ctx context.Context, input usecase.ChangeDateInput) (*usecase.AdjustmentResult, error) {
			change = input
			return doneResult(), nil
		},
	}, snapshotStub{snapshot: cachedAccounts}, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.Split(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		adjustmentBody(`, "num_split": 4, "frequency": "monthly", "start_date": "2024-01-01"`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, split.NumSplit)
	assert.Equal(t, "monthly", split.Frequency)
	assert.Equal(t, domain.NewDate(2024, time.January, 1), split.StartDate)

	rec = httptest.NewRecorder()
	handler.ChangeDate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		adjustmentBody(`, "target_date": "2024/04/30"`))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, domain.NewDate(2024, time.April, 30), change.TargetDate)
}

func TestAdjustmentHandler_MalformedDateIsBadRequest(t *testing.T) {
	handler := NewAdjustmentHandler(&adjustmentServiceStub{
		changeDateFn: func(ctx context.Context, input usecase.ChangeDateInput) (*usecase.AdjustmentResult, error) {
			t.Fatalf("workflow should not run with a malformed date")
			return nil, nil
		},
	}, snapshotStub{snapshot: cachedAccounts}, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.ChangeDate(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
		adjustmentBody(`, "target_date": "tomorrow"`))))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdjustmentHandler_SnapshotFailure(t *testing.T) {
	handler := NewAdjustmentHandler(&adjustmentServiceStub{}, snapshotStub{err: errors.New("redis down")}, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.Share(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(adjustmentBody(`, "my_expense_amount": 1`))))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

// The workflows below run through the real use case so the status codes
// reflect what the host saw.
func newWorkflowHandler(t *testing.T, gateway *mocks.MockGateway, accounts *domain.AccountSnapshot) *AdjustmentHandler {
	t.Helper()
	ctrl := gomock.NewController(t)

	runRepo := mocks.NewMockRunRepository(ctrl)
	runRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	idGen := mocks.NewMockIDGenerator(ctrl)
	idGen.EXPECT().Generate().Return("run-1").AnyTimes()
	observer := mocks.NewMockWorkflowObserver(ctrl)
	observer.EXPECT().ObserveWorkflow(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	uc := usecase.NewAdjustmentUseCase(gateway, RequestConfirmer{}, runRepo, idGen, observer, zerolog.Nop())
	return NewAdjustmentHandler(uc, snapshotStub{snapshot: accounts}, zerolog.Nop())
}

func TestAdjustmentHandler_WorkflowStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		accounts *domain.AccountSnapshot
		body     string
		setup    func(g *mocks.MockGateway)
		status   int
	}{
		{
			name:     "declined issues no calls",
			accounts: cachedAccounts,
			body:     strings.Replace(adjustmentBody(`, "my_expense_amount": 1000`), `"confirmed": true`, `"confirmed": false`, 1),
			status:   http.StatusConflict,
		},
		{
			name:   "missing cache issues no calls",
			body:   adjustmentBody(`, "my_expense_amount": 1000`),
			status: http.StatusPreconditionFailed,
		},
		{
			name:     "unknown counterparty",
			accounts: &domain.AccountSnapshot{Accounts: []domain.Account{{ID: "x", Name: "Other"}}},
			body:     adjustmentBody(`, "my_expense_amount": 1000`),
			status:   http.StatusUnprocessableEntity,
		},
		{
			name:     "host rejects conversion",
			accounts: cachedAccounts,
			body:     adjustmentBody(`, "my_expense_amount": 1000`),
			setup: func(g *mocks.MockGateway) {
				g.EXPECT().ConvertToTransfer(gomock.Any(), "987").
					Return(nil, &domain.RemoteCallError{Op: "convert_to_transfer", StatusCode: 500})
			},
			status: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := mocks.NewMockGateway(gomock.NewController(t))
			if tt.setup != nil {
				tt.setup(gateway)
			}
			handler := newWorkflowHandler(t, gateway, tt.accounts)

			rec := httptest.NewRecorder()
			handler.Share(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestAdjustmentHandler_List(t *testing.T) {
	var gotLimit, gotOffset int
	handler := NewAdjustmentHandler(&adjustmentServiceStub{
		listFn: func(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error) {
			gotLimit, gotOffset = limit, offset
			return []*domain.AdjustmentRun{{ID: "run-1"}}, nil
		},
	}, snapshotStub{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/adjustments?limit=5000&offset=-3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1000, gotLimit)
	assert.Equal(t, 0, gotOffset)

	var resp dto.RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Runs, 1)
}
