package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase/mocks"
)

func TestInstrumentRunRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRunRepository(ctrl)
	m := New(prometheus.NewRegistry())

	run := &domain.AdjustmentRun{ID: "run-1"}
	repo.EXPECT().Save(gomock.Any(), run).Return(nil)
	repo.EXPECT().Save(gomock.Any(), run).Return(errors.New("down"))
	repo.EXPECT().List(gomock.Any(), 10, 0).Return(nil, nil)

	instrumented := InstrumentRunRepository(repo, m)
	if err := instrumented.Save(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := instrumented.Save(context.Background(), run); err == nil {
		t.Fatalf("expected error to be passed through")
	}
	if _, err := instrumented.List(context.Background(), 10, 0); err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}

	if got := testutil.ToFloat64(m.JournalWrites.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok write, got %v", got)
	}
	if got := testutil.ToFloat64(m.JournalWrites.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed write, got %v", got)
	}
}

func TestInstrumentAccountCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockAccountCache(ctrl)
	m := New(prometheus.NewRegistry())

	snapshot := &domain.AccountSnapshot{Accounts: []domain.Account{{ID: "a"}, {ID: "b"}}}
	cache.EXPECT().Store(gomock.Any(), snapshot).Return(nil)
	cache.EXPECT().Store(gomock.Any(), snapshot).Return(errors.New("disk full"))

	instrumented := InstrumentAccountCache(cache, m)
	if err := instrumented.Store(context.Background(), snapshot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := instrumented.Store(context.Background(), snapshot); err == nil {
		t.Fatalf("expected error to be passed through")
	}

	if got := testutil.ToFloat64(m.AccountRefreshes); got != 1 {
		t.Fatalf("expected failed store not to be counted, got %v", got)
	}
	if got := testutil.ToFloat64(m.CachedAccounts); got != 2 {
		t.Fatalf("expected cached account gauge 2, got %v", got)
	}
}

func TestObserveIdempotentReplay(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveIdempotentReplay()

	if got := testutil.ToFloat64(m.IdempotentReplays); got != 1 {
		t.Fatalf("expected 1 replay, got %v", got)
	}
}
