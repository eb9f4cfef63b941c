package planservice

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/futurewave/telecom-backend/internal/http/handlers/health"
	planhandler "github.com/futurewave/telecom-backend/internal/http/handlers/plan"
	userplanhandler "github.com/futurewave/telecom-backend/internal/http/handlers/userplan"
	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/models"
)

// RegisterRoutes регистрирует все маршруты plan-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, planSvc planhandler.Service, userPlanSvc userplanhandler.Service, jwtMaker jwt.Maker, db *sql.DB) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.Authenticate(jwtMaker, logger))

	plans := planhandler.New(logger, planSvc)
	userPlans := userplanhandler.New(logger, userPlanSvc)

	r.Route("/plans", func(r chi.Router) {
		// Открытый каталог
		r.Get("/", plans.ListActive)

		// Межсервисная проверка, её зовёт payment-сервис
		r.Get("/validate-plan/{id}", plans.ValidatePlan)

		// Создание тарифа, только администратор
		r.With(middlewarectx.RequireRole(models.RoleAdmin, logger)).
			Post("/", plans.Create)

		// Карточка тарифа регистрируется последней, чтобы не перехватить
		// вложенные маршруты.
		r.Get("/{id}", plans.GetByID)
	})

	// Админка тарифов и подписок
	r.Route("/admin/plans", func(r chi.Router) {
		r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
		r.Get("/", plans.ListAll)
		r.Get("/subscriptions", userPlans.ListAll)
		r.Put("/{id}/activate", plans.Activate)
		r.Put("/{id}/deactivate", plans.Deactivate)
		r.Post("/update-statuses", userPlans.SweepNow)
	})

	// Подписки абонента
	r.Route("/user-plans", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Use(middlewarectx.RequireRole(models.RoleUser, logger))
		r.Post("/subscribe", userPlans.Subscribe)
		r.Get("/user/{userId}/history", userPlans.History)
		r.Get("/user/{userId}/active", userPlans.Active)
		r.Get("/user/{userId}/usage", userPlans.Usage)
		r.Post("/{subscriptionId}/cancel", userPlans.Cancel)
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(db).ServeHTTP)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
