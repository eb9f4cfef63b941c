package paymentservice

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/futurewave/telecom-backend/internal/http/handlers/health"
	paymenthandler "github.com/futurewave/telecom-backend/internal/http/handlers/payment"
	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/models"
)

// RegisterRoutes регистрирует все маршруты payment-сервиса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service paymenthandler.Service, jwtMaker jwt.Maker, db *sql.DB) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)
	r.Use(middlewarectx.Authenticate(jwtMaker, logger))

	handler := paymenthandler.New(logger, service)

	r.Route("/payments", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Use(middlewarectx.RequireRole(models.RoleUser, logger))
			r.Post("/process", handler.Process)
			r.Get("/user/{userId}", handler.History)
			r.Get("/transaction/{transactionId}", handler.ByTransactionID)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(db).ServeHTTP)
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
