package domain

import (
	"time"
)

// WorkflowKind identifies an adjustment workflow.
type WorkflowKind string

const (
	WorkflowChangeDate        WorkflowKind = "change_date"
	WorkflowSplitInstallments WorkflowKind = "split_installments"
	WorkflowSplitShare        WorkflowKind = "split_share"
)

// RunState is the position of a run in the adjustment state machine:
// active -> converted_to_transfer -> counterparty_set -> done.
// A failed run keeps the last state reached in LastState.
type RunState string

const (
	RunStateActive              RunState = "active"
	RunStateConvertedToTransfer RunState = "converted_to_transfer"
	RunStateCounterpartySet     RunState = "counterparty_set"
	RunStateDone                RunState = "done"
	RunStateFailed              RunState = "failed"
	RunStateDeclined            RunState = "declined"
)

// AdjustmentRun is the journal record of one workflow execution.
type AdjustmentRun struct {
	ID             string            `json:"id"`
	Kind           WorkflowKind      `json:"kind"`
	EntryID        string            `json:"entry_id"`
	State          RunState          `json:"state"`
	LastState      RunState          `json:"last_state"`
	Requests       []NewEntryRequest `json:"requests"`
	CreatedEntries int               `json:"created_entries"`
	Error          string            `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// Advance moves the run to state.
func (r *AdjustmentRun) Advance(state RunState, at time.Time) {
	r.State = state
	r.LastState = state
	r.UpdatedAt = at
}

// Fail marks the run failed, keeping the last state reached.
func (r *AdjustmentRun) Fail(err error, at time.Time) {
	r.State = RunStateFailed
	r.Error = err.Error()
	r.UpdatedAt = at
}
