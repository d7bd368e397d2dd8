package usecase

import (
	"context"
	"time"

	"github.com/iho/cfadjust/internal/domain"
)

// Row gives read-by-name access to one rendered ledger row.
type Row interface {
	// Input returns the value of the form input with the given name.
	Input(name string) (string, bool)
	// Cell returns the text of a rendered cell: "date" (sortable value),
	// "amount" or "content".
	Cell(name string) (string, bool)
}

// GatewayResponse is the host's answer to a mutation. Script holds the
// table refresh instructions when the host sent any.
type GatewayResponse struct {
	StatusCode int    `json:"status_code"`
	Script     string `json:"script,omitempty"`
}

// Gateway issues the three remote mutations against the host ledger.
// Every call completes, body included, before it returns.
type Gateway interface {
	ConvertToTransfer(ctx context.Context, entryID string) (*GatewayResponse, error)
	SetCounterparty(ctx context.Context, entryID, accountID, subAccountID string) (*GatewayResponse, error)
	CreateEntry(ctx context.Context, req domain.NewEntryRequest) (*GatewayResponse, error)
}

// Confirmer asks the user to approve a destructive workflow.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// AccountCache persists the scraped account list between sessions.
type AccountCache interface {
	// Load returns nil without error when nothing is cached.
	Load(ctx context.Context) (*domain.AccountSnapshot, error)
	Store(ctx context.Context, snapshot *domain.AccountSnapshot) error
}

// RunRepository journals adjustment runs.
type RunRepository interface {
	// Save inserts the run or replaces the stored copy with the same id.
	Save(ctx context.Context, run *domain.AdjustmentRun) error
	List(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error)
}

// WorkflowObserver receives the outcome of every finished run.
type WorkflowObserver interface {
	ObserveWorkflow(kind domain.WorkflowKind, state domain.RunState, duration time.Duration)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so the request can be retried.
	Release(ctx context.Context, key string) error
}
