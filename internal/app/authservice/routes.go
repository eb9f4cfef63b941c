package authservice

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/futurewave/telecom-backend/internal/http/handlers/account"
	"github.com/futurewave/telecom-backend/internal/http/handlers/health"
	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/models"
)

// RegisterRoutes регистрирует все маршруты auth-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service account.Service, jwtMaker jwt.Maker, db *sql.DB) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.Authenticate(jwtMaker, logger))

	handler := account.New(logger, service)

	r.Route("/account", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/forgot-password", handler.SecurityQuestion)
		r.Post("/reset-password", handler.ResetPassword)

		// Межсервисные проверки, их зовут соседние сервисы
		r.Get("/validate-user/{id}", handler.ValidateUser)
		r.Get("/validate-user/{id}/{role}", handler.ValidateRole)

		// Личный кабинет, доступен любому аутентифицированному
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Use(middlewarectx.RequireAuthenticated(logger))
			r.Get("/find-user/{id}", handler.FindUser)
			r.Put("/update-user/{id}", handler.UpdateUser)
		})

		// Админка
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
			r.Get("/get-all-employees", handler.ListEmployees)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(db).ServeHTTP)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
