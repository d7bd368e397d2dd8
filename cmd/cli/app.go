package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/cfadjust/internal/adapter/gateway"
	"github.com/iho/cfadjust/internal/adapter/page"
	fileRepo "github.com/iho/cfadjust/internal/adapter/repository/file"
	postgresRepo "github.com/iho/cfadjust/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cfadjust/internal/adapter/repository/redis"
	"github.com/iho/cfadjust/internal/infrastructure/config"
	"github.com/iho/cfadjust/internal/infrastructure/logger"
	"github.com/iho/cfadjust/internal/infrastructure/metrics"
	"github.com/iho/cfadjust/internal/infrastructure/postgres"
	"github.com/iho/cfadjust/internal/infrastructure/redis"
	"github.com/iho/cfadjust/internal/usecase"
)

// app builds the collaborators of a command from configuration. Commands
// only open the connections they need.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	in     io.Reader
	out    io.Writer

	metrics *metrics.Metrics
	closers []func()
}

func newApp(cfg *config.Config, in io.Reader, out, errOut io.Writer) *app {
	return &app{
		cfg:     cfg,
		logger:  logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: errOut}),
		in:      in,
		out:     out,
		metrics: metrics.New(prometheus.NewRegistry()),
	}
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *app) gateway(csrfToken string) (*gateway.Client, error) {
	client, err := gateway.New(gateway.Config{
		BaseURL:   a.cfg.HostBaseURL,
		Cookie:    a.cfg.HostCookie,
		CSRFToken: a.cfg.HostCSRFToken,
		Timeout:   a.cfg.HostTimeout,
		RateLimit: a.cfg.HostRateLimit,
		RateBurst: a.cfg.HostRateBurst,
	}, a.metrics, a.logger)
	if err != nil {
		return nil, err
	}
	if a.cfg.HostCSRFToken == "" && csrfToken != "" {
		client = client.WithCSRFToken(csrfToken)
	}
	return client, nil
}

// readPage returns the saved page at file, or downloads path from the host
// when file is empty.
func (a *app) readPage(ctx context.Context, file, path string) ([]byte, error) {
	if file != "" {
		return os.ReadFile(file)
	}
	client, err := a.gateway("")
	if err != nil {
		return nil, err
	}
	return client.FetchPage(ctx, path)
}

func (a *app) ledger(ctx context.Context, file string) (*page.Ledger, error) {
	body, err := a.readPage(ctx, file, gateway.LedgerPagePath)
	if err != nil {
		return nil, fmt.Errorf("read ledger page: %w", err)
	}
	return page.ParseLedger(bytes.NewReader(body))
}

func (a *app) redisClient(ctx context.Context) (*goredis.Client, error) {
	client, err := redis.NewClient(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { client.Close() })
	return client, nil
}

func (a *app) accountCache(ctx context.Context) (usecase.AccountCache, error) {
	var cache usecase.AccountCache
	switch a.cfg.AccountCache {
	case config.AccountCacheRedis:
		client, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		cache = redisRepo.NewAccountCache(client, a.cfg.AccountCacheTTL)
	default:
		dir := a.cfg.AccountCacheDir
		if dir == "" {
			d, err := fileRepo.DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		cache = fileRepo.NewAccountCache(dir, a.cfg.AccountCacheTTL)
	}
	return metrics.InstrumentAccountCache(cache, a.metrics), nil
}

func (a *app) accountUseCase(ctx context.Context) (*usecase.AccountUseCase, error) {
	cache, err := a.accountCache(ctx)
	if err != nil {
		return nil, err
	}
	return usecase.NewAccountUseCase(cache), nil
}

// runRepository journals to PostgreSQL when DATABASE_URL is set.
func (a *app) runRepository(ctx context.Context) (usecase.RunRepository, error) {
	if !a.cfg.JournalEnabled() {
		return postgresRepo.NewNullRunRepository(), nil
	}

	pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DatabaseMaxConns, a.cfg.DatabaseMinConns)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	repo := postgresRepo.NewRunRepository(pool, postgresRepo.NewRetrier(a.logger))
	return metrics.InstrumentRunRepository(repo, a.metrics), nil
}

func (a *app) adjustmentUseCase(ctx context.Context, gw usecase.Gateway, confirmer usecase.Confirmer) (*usecase.AdjustmentUseCase, error) {
	runRepo, err := a.runRepository(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}

	uc := usecase.NewAdjustmentUseCase(gw, confirmer, runRepo, postgresRepo.NewULIDGenerator(), a.metrics, a.logger)
	return uc.WithClock(func() time.Time { return time.Now().In(loc) }), nil
}
