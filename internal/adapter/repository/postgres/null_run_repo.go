package postgres

import (
	"context"

	"github.com/iho/cfadjust/internal/domain"
)

// NullRunRepository discards runs. It is used when no journal database is
// configured.
type NullRunRepository struct{}

// NewNullRunRepository creates a new NullRunRepository.
func NewNullRunRepository() *NullRunRepository {
	return &NullRunRepository{}
}

func (r *NullRunRepository) Save(ctx context.Context, run *domain.AdjustmentRun) error {
	return nil
}

func (r *NullRunRepository) List(ctx context.Context, limit, offset int) ([]*domain.AdjustmentRun, error) {
	return []*domain.AdjustmentRun{}, nil
}
