// Package planservice собирает и запускает plan-сервис: каталог тарифов,
// подписки и ежедневный перевод их статусов.
package planservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/robfig/cron/v3"

	"github.com/futurewave/telecom-backend/internal/cache"
	"github.com/futurewave/telecom-backend/internal/clients/identity"
	"github.com/futurewave/telecom-backend/internal/config"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/migrations"
	planservice "github.com/futurewave/telecom-backend/internal/services/plan"
	"github.com/futurewave/telecom-backend/internal/services/usage"
	userplanservice "github.com/futurewave/telecom-backend/internal/services/userplan"
	"github.com/futurewave/telecom-backend/internal/storage/repository"
)

// App инкапсулирует HTTP-сервер plan-сервиса, его зависимости и
// планировщик ночного sweep-а.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cron      *cron.Cron
	userPlans *userplanservice.Service
}

// New собирает plan-сервис из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	identityClient := identity.New(cfg.AuthServiceURL, cfg.ClientTimeout)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL, logger)

	planSvc := planservice.New(db, cacheRedis, logger)
	userPlanSvc := userplanservice.New(db, identityClient, planSvc, usage.New(), logger)

	c := cron.New()
	if _, err := c.AddFunc(cfg.SweepSchedule, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := userPlanSvc.SweepStatuses(sweepCtx, time.Now()); err != nil {
			logger.Error("status sweep failed", sl.Err(err))
		}
	}); err != nil {
		return nil, err
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, planSvc, userPlanSvc, jwtMaker, db.DB)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		cron:      c,
		userPlans: userPlanSvc,
	}, nil
}

// Run запускает планировщик и HTTP-сервер, блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	a.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		<-a.cron.Stop().Done()
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", sl.Err(closeErr))
		}
		return err
	}
}
