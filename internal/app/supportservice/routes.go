package supportservice

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/futurewave/telecom-backend/internal/http/handlers/health"
	supporthandler "github.com/futurewave/telecom-backend/internal/http/handlers/support"
	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/models"
)

// RegisterRoutes регистрирует все маршруты support-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service supporthandler.Service, jwtMaker jwt.Maker, db *sql.DB) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.Authenticate(jwtMaker, logger))

	handler := supporthandler.New(logger, service)

	r.Route("/support/tickets", func(r chi.Router) {
		// Абонент
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Use(middlewarectx.RequireRole(models.RoleUser, logger))
			r.Post("/", handler.Create)
			r.Get("/user/{userId}", handler.ListByUser)
		})

		// Сотрудник поддержки
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(models.RoleEmployee, logger))
			r.Get("/employee/{employeeId}", handler.ListByEmployee)
			r.Put("/{id}/status", handler.UpdateStatus)
		})

		// Админка
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
			r.Get("/get-all-tickets", handler.ListAll)
			r.Put("/{id}/assign/{employeeId}", handler.Assign)
		})

		// Карточка тикета доступна любому аутентифицированному
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireAuthenticated(logger))
			r.Get("/{id}", handler.ByID)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(db).ServeHTTP)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
