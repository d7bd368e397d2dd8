package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/cfadjust/internal/adapter/http"
	"github.com/iho/cfadjust/internal/adapter/gateway"
	"github.com/iho/cfadjust/internal/adapter/http/handler"
	"github.com/iho/cfadjust/internal/adapter/http/middleware"
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

const limiterIdleTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	deps := dependencies{registry: prometheus.DefaultRegisterer}

	// Connect to PostgreSQL when the run journal is enabled
	if cfg.JournalEnabled() {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		log.Info().Msg("connected to postgres")

		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return err
		}
		deps.pool = pool
	} else {
		log.Warn().Msg("DATABASE_URL is not set, adjustment runs are not journaled")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")
	deps.redis = redisClient

	srv, err := newServer(cfg, deps, log)
	if err != nil {
		return err
	}

	go srv.cleanupLimiters(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := srv.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// dependencies are the connections opened by run. pool is nil when the
// run journal is disabled.
type dependencies struct {
	pool     *pgxpool.Pool
	redis    *goredis.Client
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
}

type server struct {
	http        *http.Server
	rateLimiter *middleware.RateLimiter
}

func newServer(cfg *config.Config, deps dependencies, log zerolog.Logger) (*server, error) {
	m := metrics.New(deps.registry)

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Repositories
	var runRepo usecase.RunRepository = postgresRepo.NewNullRunRepository()
	if deps.pool != nil {
		runRepo = metrics.InstrumentRunRepository(postgresRepo.NewRunRepository(deps.pool, postgresRepo.NewRetrier(log)), m)
	}

	var cache usecase.AccountCache
	if cfg.AccountCache == config.AccountCacheRedis {
		cache = redisRepo.NewAccountCache(deps.redis, cfg.AccountCacheTTL)
	} else {
		dir := cfg.AccountCacheDir
		if dir == "" {
			if dir, err = fileRepo.DefaultDir(); err != nil {
				return nil, err
			}
		}
		cache = fileRepo.NewAccountCache(dir, cfg.AccountCacheTTL)
	}
	cache = metrics.InstrumentAccountCache(cache, m)

	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.HostBaseURL,
		Cookie:    cfg.HostCookie,
		CSRFToken: cfg.HostCSRFToken,
		Timeout:   cfg.HostTimeout,
		RateLimit: cfg.HostRateLimit,
		RateBurst: cfg.HostRateBurst,
	}, m, log)
	if err != nil {
		return nil, err
	}

	// Use cases
	accountUC := usecase.NewAccountUseCase(cache)
	adjustmentUC := usecase.NewAdjustmentUseCase(gw, handler.RequestConfirmer{}, runRepo, postgresRepo.NewULIDGenerator(), m, log).
		WithClock(func() time.Time { return time.Now().In(loc) })

	// Handlers
	checks := map[string]handler.Pinger{}
	if deps.pool != nil {
		checks["postgres"] = deps.pool
	}
	if deps.redis != nil {
		checks["redis"] = redis.Pinger{Client: deps.redis}
	}

	// HTTP_RATE_LIMIT is per minute; zero disables limiting
	var rateLimiter *middleware.RateLimiter
	if cfg.HTTPRateLimit > 0 {
		rateLimiter = middleware.NewRateLimiter(float64(cfg.HTTPRateLimit)/60, cfg.HTTPRateLimit)
	}

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler:    handler.NewAccountHandler(accountUC),
		AdjustmentHandler: handler.NewAdjustmentHandler(adjustmentUC, accountUC, log),
		EntryHandler:      handler.NewEntryHandler(),
		HealthHandler:     handler.NewHealthHandler(checks),
		HTTPMetrics:       middleware.NewHTTPMetrics(deps.registry),
		Logger:            log,
	}
	if rateLimiter != nil {
		routerCfg.RateLimiter = rateLimiter
	}
	if deps.gatherer != nil {
		routerCfg.Metrics = promhttp.HandlerFor(deps.gatherer, promhttp.HandlerOpts{})
	}
	if deps.redis != nil {
		routerCfg.Idempotency = middleware.NewIdempotencyMiddleware(redisRepo.NewIdempotencyStore(deps.redis), cfg.IdempotencyTTL, m, log)
	}

	return &server{
		http: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
			Handler:      httpAdapter.NewRouter(routerCfg),
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		rateLimiter: rateLimiter,
	}, nil
}

// cleanupLimiters forgets idle API clients until ctx is done.
func (s *server) cleanupLimiters(ctx context.Context) {
	if s.rateLimiter == nil {
		return
	}

	ticker := time.NewTicker(limiterIdleTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.rateLimiter.CleanupLimiters(limiterIdleTimeout)
		}
	}
}
