package usecase

import (
	"context"
	"time"

	"github.com/iho/cfadjust/internal/domain"
)

// AccountUseCase owns the cached account list that workflows resolve
// counterparties against.
type AccountUseCase struct {
	cache AccountCache
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(cache AccountCache) *AccountUseCase {
	return &AccountUseCase{cache: cache}
}

// Refresh replaces the cached list with accounts freshly read from the
// host's accounts page.
func (uc *AccountUseCase) Refresh(ctx context.Context, accounts []domain.Account) (*domain.AccountSnapshot, error) {
	if err := domain.ValidateAccounts(accounts); err != nil {
		return nil, err
	}

	snapshot := &domain.AccountSnapshot{
		Accounts:  accounts,
		FetchedAt: time.Now().UTC(),
	}

	if err := uc.cache.Store(ctx, snapshot); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// Snapshot returns the cached list, or nil when nothing has been cached.
func (uc *AccountUseCase) Snapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	return uc.cache.Load(ctx)
}

// RequireSnapshot is Snapshot for callers that cannot proceed without one.
func (uc *AccountUseCase) RequireSnapshot(ctx context.Context) (*domain.AccountSnapshot, error) {
	snapshot, err := uc.cache.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, domain.ErrMissingCachedAccounts
	}
	return snapshot, nil
}
