package metrics

import (
	"context"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

type runRepository struct {
	usecase.RunRepository
	m *Metrics
}

// InstrumentRunRepository counts journal writes made through repo.
func InstrumentRunRepository(repo usecase.RunRepository, m *Metrics) usecase.RunRepository {
	return &runRepository{RunRepository: repo, m: m}
}

func (r *runRepository) Save(ctx context.Context, run *domain.AdjustmentRun) error {
	err := r.RunRepository.Save(ctx, run)
	r.m.ObserveJournalWrite(err)
	return err
}

type accountCache struct {
	usecase.AccountCache
	m *Metrics
}

// InstrumentAccountCache records every snapshot stored through cache.
func InstrumentAccountCache(cache usecase.AccountCache, m *Metrics) usecase.AccountCache {
	return &accountCache{AccountCache: cache, m: m}
}

func (c *accountCache) Store(ctx context.Context, snapshot *domain.AccountSnapshot) error {
	if err := c.AccountCache.Store(ctx, snapshot); err != nil {
		return err
	}
	c.m.ObserveAccountRefresh(len(snapshot.Accounts))
	return nil
}
