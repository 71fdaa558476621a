package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/andreysobol/amora/internal/config"
	"github.com/andreysobol/amora/internal/domain/enums"
	pgrepo "github.com/andreysobol/amora/internal/repo/postgres"
	redrepo "github.com/andreysobol/amora/internal/repo/redis"
	actionsvc "github.com/andreysobol/amora/internal/services/actions"
	authsvc "github.com/andreysobol/amora/internal/services/auth"
	matchingsvc "github.com/andreysobol/amora/internal/services/matching"
	"github.com/andreysobol/amora/internal/services/notify"
	quotasvc "github.com/andreysobol/amora/internal/services/quota"
	ratesvc "github.com/andreysobol/amora/internal/services/rate"
	tiersvc "github.com/andreysobol/amora/internal/services/tiers"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	idempotencyRepo := redrepo.NewIdempotencyRepo(redisClient)
	usageRepo := pgrepo.NewUsageRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	subscriptionRepo := pgrepo.NewSubscriptionRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)

	dispatcher := notify.NewLogDispatcher(log)

	defaultTier, ok := enums.ParseTier(cfg.Engine.DefaultTier)
	if !ok {
		defaultTier = enums.TierFree
	}
	tierService := tiersvc.NewService(subscriptionRepo, cfg.Engine.Quotas.Allowances(), tiersvc.Config{
		DefaultTier: defaultTier,
	})

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Engine.Burst.PerMinute,
		cfg.Engine.Burst.Per10Seconds,
	)

	quotaService := quotasvc.NewService(usageRepo, tierService, quotasvc.Config{
		DefaultTimezone: cfg.Engine.DefaultTimezone,
	})
	quotaService.AttachRateView(rateLimiter)
	quotaService.AttachDispatcher(dispatcher)

	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		Likes:      likeRepo,
		Matches:    matchRepo,
		Dispatcher: dispatcher,
	})

	actionService := actionsvc.NewService(actionsvc.Dependencies{
		Quota:       quotaService,
		Matcher:     matchingService,
		RateLimiter: rateLimiter,
		Idempotency: idempotencyRepo,
		Logger:      log,
	}, actionsvc.Config{
		IdempotencyTTL: cfg.Engine.IdempotencyTTL,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		ActionService: actionService,
		QuotaService:  quotaService,
		JWTManager:    jwtManager,
		Logger:        log,
		Config:        cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
