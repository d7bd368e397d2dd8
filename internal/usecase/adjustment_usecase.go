package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cfadjust/internal/domain"
)

// AdjustmentUseCase runs the adjustment workflows. Each workflow turns the
// original entry into a transfer into the adjustment sub-account and books
// replacement entries there.
type AdjustmentUseCase struct {
	gateway   Gateway
	confirmer Confirmer
	runRepo   RunRepository
	idGen     IDGenerator
	observer  WorkflowObserver
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAdjustmentUseCase creates a new AdjustmentUseCase.
func NewAdjustmentUseCase(
	gateway Gateway,
	confirmer Confirmer,
	runRepo RunRepository,
	idGen IDGenerator,
	observer WorkflowObserver,
	logger zerolog.Logger,
) *AdjustmentUseCase {
	return &AdjustmentUseCase{
		gateway:   gateway,
		confirmer: confirmer,
		runRepo:   runRepo,
		idGen:     idGen,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used to decide which installments are past.
func (uc *AdjustmentUseCase) WithClock(now func() time.Time) *AdjustmentUseCase {
	uc.now = now
	return uc
}

// AdjustmentTarget is the part of every workflow input that identifies the
// entry and where its offsetting leg goes.
type AdjustmentTarget struct {
	Entry                  *domain.Entry
	AdjustmentSubAccountID string
	// Accounts is the cached account list; nil means nothing is cached.
	Accounts    *domain.AccountSnapshot
	SubAccounts []domain.SubAccount
}

// ChangeDateInput represents input for moving an entry to another date.
type ChangeDateInput struct {
	AdjustmentTarget
	TargetDate domain.Date
}

// SplitInstallmentsInput represents input for splitting an entry into a
// recurring series.
type SplitInstallmentsInput struct {
	AdjustmentTarget
	NumSplit  int
	Frequency string
	StartDate domain.Date
}

// SplitShareInput represents input for splitting an entry between the user
// and another payer.
type SplitShareInput struct {
	AdjustmentTarget
	MyExpenseAmount int64
}

// AdjustmentResult is the outcome of a completed workflow.
type AdjustmentResult struct {
	Run       *domain.AdjustmentRun `json:"run"`
	Responses []*GatewayResponse    `json:"responses"`
}

// StepError reports the pipeline step that failed and the run state the
// entry was left in.
type StepError struct {
	Step  string
	State domain.RunState
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s failed in state %s: %v", e.Step, e.State, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ChangeDate re-books the entry on TargetDate with its amount, categories,
// income flag and content unchanged.
func (uc *AdjustmentUseCase) ChangeDate(ctx context.Context, input ChangeDateInput) (*AdjustmentResult, error) {
	return uc.execute(ctx, workflow{
		kind:   domain.WorkflowChangeDate,
		target: input.AdjustmentTarget,
		validate: func() error {
			if input.TargetDate.IsZero() {
				return domain.InvalidInput("target date is empty")
			}
			return nil
		},
		prompt: fmt.Sprintf("Convert this entry into a transfer to the adjustment sub-account and register it again on %s?", input.TargetDate),
		build: func(domain.Date) []domain.NewEntryRequest {
			e := input.Entry
			req := domain.Derive(e, input.AdjustmentSubAccountID, input.TargetDate, e.Amount)
			req.Memo = fmt.Sprintf(changeDateMemoFormat, e.Date)
			return []domain.NewEntryRequest{req}
		},
	})
}

// SplitInstallments books the entry as a recurring series of NumSplit
// installments. Occurrences already due today are booked explicitly since
// the host only generates future ones.
func (uc *AdjustmentUseCase) SplitInstallments(ctx context.Context, input SplitInstallmentsInput) (*AdjustmentResult, error) {
	var freq domain.Frequency
	return uc.execute(ctx, workflow{
		kind:   domain.WorkflowSplitInstallments,
		target: input.AdjustmentTarget,
		validate: func() error {
			if err := domain.ValidateSplitCount(input.NumSplit); err != nil {
				return err
			}
			f, err := domain.ParseFrequency(input.Frequency)
			if err != nil {
				return err
			}
			freq = f
			if input.StartDate.IsZero() {
				return domain.InvalidInput("start date is empty")
			}
			return nil
		},
		prompt: fmt.Sprintf("Convert this entry into a transfer to the adjustment sub-account and register it as %d installments?", input.NumSplit),
		build: func(today domain.Date) []domain.NewEntryRequest {
			e := input.Entry
			amount := domain.InstallmentAmount(e.Amount, input.NumSplit)

			series := domain.Derive(e, input.AdjustmentSubAccountID, input.StartDate, amount)
			limit := domain.SeriesLimit(input.StartDate, freq, input.NumSplit)
			series.Recurring = domain.Recurring{Flag: true, Frequency: string(freq), Limit: &limit}
			series.Content = fmt.Sprintf(splitContentFormat, e.Content, input.NumSplit)

			reqs := []domain.NewEntryRequest{series}
			for _, d := range domain.Backfill(input.StartDate, freq, today) {
				past := series
				past.Date = d
				past.Recurring = domain.Recurring{}
				reqs = append(reqs, past)
			}
			return reqs
		},
	})
}

// SplitShare books the part the user paid and the part the other payer
// covered as two entries whose amounts sum to exactly -Amount.
func (uc *AdjustmentUseCase) SplitShare(ctx context.Context, input SplitShareInput) (*AdjustmentResult, error) {
	return uc.execute(ctx, workflow{
		kind:   domain.WorkflowSplitShare,
		target: input.AdjustmentTarget,
		validate: func() error {
			return domain.ValidateMyExpense(input.MyExpenseAmount)
		},
		prompt: fmt.Sprintf("Convert this entry into a transfer to the adjustment sub-account and register %d as self-paid?", input.MyExpenseAmount),
		build: func(domain.Date) []domain.NewEntryRequest {
			e := input.Entry
			self, other := domain.ShareAmounts(e.Amount, input.MyExpenseAmount)
			memo := fmt.Sprintf(shareMemoFormat, e.Amount)

			mine := domain.Derive(e, input.AdjustmentSubAccountID, e.Date, self)
			mine.Content = fmt.Sprintf(selfPayContentFormat, e.Content)
			mine.Memo = memo

			theirs := domain.Derive(e, input.AdjustmentSubAccountID, e.Date, other)
			theirs.Content = fmt.Sprintf(otherPayContentFormat, e.Content)
			theirs.Memo = memo

			return []domain.NewEntryRequest{mine, theirs}
		},
	})
}

type workflow struct {
	kind     domain.WorkflowKind
	target   AdjustmentTarget
	validate func() error
	prompt   string
	build    func(today domain.Date) []domain.NewEntryRequest
}

type step struct {
	name    string
	reached domain.RunState
	create  bool
	call    func(ctx context.Context) (*GatewayResponse, error)
}

func (uc *AdjustmentUseCase) execute(ctx context.Context, wf workflow) (*AdjustmentResult, error) {
	t := wf.target

	// 1. Preconditions, none of which touch the host
	if t.Accounts == nil {
		return nil, domain.ErrMissingCachedAccounts
	}
	if t.Entry == nil {
		return nil, domain.InvalidInput("entry is required")
	}
	if err := domain.ValidateSubAccountID(t.AdjustmentSubAccountID); err != nil {
		return nil, err
	}
	if err := wf.validate(); err != nil {
		return nil, err
	}

	started := uc.now()
	run := &domain.AdjustmentRun{
		ID:        uc.idGen.Generate(),
		Kind:      wf.kind,
		EntryID:   t.Entry.ID,
		State:     domain.RunStateActive,
		LastState: domain.RunStateActive,
		CreatedAt: started.UTC(),
		UpdatedAt: started.UTC(),
	}

	// 2. Confirmation
	ok, err := uc.confirmer.Confirm(ctx, wf.prompt)
	if err != nil {
		return nil, fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		run.State = domain.RunStateDeclined
		uc.finish(ctx, run, started)
		return nil, domain.ErrConfirmationDeclined
	}

	// 3. Counterparty account
	account, err := resolveAccount(t)
	if err != nil {
		run.Fail(err, uc.now().UTC())
		uc.finish(ctx, run, started)
		return nil, err
	}

	run.Requests = wf.build(domain.DateOf(started))
	uc.save(ctx, run)

	// 4. Remote pipeline
	entryID := t.Entry.ID
	steps := []step{
		{
			name:    "convert_to_transfer",
			reached: domain.RunStateConvertedToTransfer,
			call: func(ctx context.Context) (*GatewayResponse, error) {
				return uc.gateway.ConvertToTransfer(ctx, entryID)
			},
		},
		{
			name:    "set_counterparty",
			reached: domain.RunStateCounterpartySet,
			call: func(ctx context.Context) (*GatewayResponse, error) {
				return uc.gateway.SetCounterparty(ctx, entryID, account.ID, t.AdjustmentSubAccountID)
			},
		},
	}
	for i, req := range run.Requests {
		steps = append(steps, step{
			name:    fmt.Sprintf("create_entry[%d]", i),
			reached: domain.RunStateCounterpartySet,
			create:  true,
			call: func(ctx context.Context) (*GatewayResponse, error) {
				return uc.gateway.CreateEntry(ctx, req)
			},
		})
	}

	responses := make([]*GatewayResponse, 0, len(steps))
	for _, s := range steps {
		resp, err := s.call(ctx)
		if err != nil {
			stepErr := &StepError{Step: s.name, State: run.LastState, Err: err}
			run.Fail(stepErr, uc.now().UTC())
			uc.finish(ctx, run, started)
			return nil, stepErr
		}
		responses = append(responses, resp)
		if s.create {
			run.CreatedEntries++
		}
		run.Advance(s.reached, uc.now().UTC())
	}

	run.Advance(domain.RunStateDone, uc.now().UTC())
	uc.finish(ctx, run, started)

	return &AdjustmentResult{Run: run, Responses: responses}, nil
}

// resolveAccount maps the adjustment sub-account to a cached account by
// display name.
func resolveAccount(t AdjustmentTarget) (domain.Account, error) {
	sub, ok := domain.FindSubAccount(t.SubAccounts, t.AdjustmentSubAccountID)
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: sub-account %s is not on the page", domain.ErrUnresolvedAccount, t.AdjustmentSubAccountID)
	}
	account, ok := t.Accounts.FindByName(sub.Name)
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: %q", domain.ErrUnresolvedAccount, sub.Name)
	}
	return account, nil
}

func (uc *AdjustmentUseCase) finish(ctx context.Context, run *domain.AdjustmentRun, started time.Time) {
	uc.save(ctx, run)
	uc.observer.ObserveWorkflow(run.Kind, run.State, uc.now().Sub(started))
}

// save journals the run. A journal failure never changes the workflow
// outcome since the host has already been mutated.
func (uc *AdjustmentUseCase) save(ctx context.Context, run *domain.AdjustmentRun) {
	if err := uc.runRepo.Save(context.WithoutCancel(ctx), run); err != nil {
		uc.logger.Warn().Err(err).
			Str("run_id", run.ID).
			Str("state", string(run.State)).
			Msg("failed to journal adjustment run")
	}
}

// IsRemoteFailure reports whether err came from a host call after the
// entry may already have been changed.
func IsRemoteFailure(err error) bool {
	var stepErr *StepError
	return errors.As(err, &stepErr) && errors.Is(err, domain.ErrRemoteCallFailed)
}

// ListRuns lists journaled runs, newest first.
func (uc *AdjustmentUseCase) ListRuns(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.runRepo.List(ctx, limit, offset)
}
