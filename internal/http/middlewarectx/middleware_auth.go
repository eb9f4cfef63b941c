// Package middlewarectx содержит HTTP middleware для разбора JWT токенов
// и явные проверки ролей.
//
// Authenticate разбирает bearer-токен из заголовка Authorization и при
// успехе кладёт в контекст запроса subject, email и роли. Запрос без
// токена или с некорректным токеном проходит дальше неаутентифицированным:
// ошибка разбора только логируется, отклонение происходит позже, в
// RequireRole на защищённых группах маршрутов. Публичные маршруты
// регистрируются вне этих групп и фильтр не проходят вовсе.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/futurewave/telecom-backend/internal/http/response"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserID — ключ для id пользователя в контексте.
	UserID Key = "user_id"
	// Email — ключ для email пользователя в контексте.
	Email Key = "email"
	// Roles — ключ для списка ролей в контексте.
	Roles Key = "roles"
)

// Authenticate возвращает middleware, который разбирает JWT из заголовка
// Authorization и наполняет контекст запроса.
//
// Переход "неаутентифицирован -> аутентифицирован" происходит не более
// одного раза на запрос и между запросами не сохраняется.
func Authenticate(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims := maker.DecodeClaims(tokenStr)
			if claims == nil {
				// Некорректный токен не отклоняем на этом слое:
				// запрос идёт дальше без identity-контекста.
				log.Warn("failed to decode bearer token, proceeding unauthenticated",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserID, claims.Subject)
			ctx = context.WithValue(ctx, Email, claims.Email)
			ctx = context.WithValue(ctx, Roles, claims.Roles)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware-гард для ролевых маршрутов.
//
// Без identity-контекста запрос отклоняется с 401, без требуемой роли —
// с 403. Роли сравниваются без учёта регистра.
func RequireRole(role string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireRole"
			reqLog := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			roles, ok := r.Context().Value(Roles).([]string)
			if !ok || len(roles) == 0 {
				reqLog.Warn("request without identity context rejected")
				response.Error(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			if !slices.ContainsFunc(roles, func(have string) bool {
				return strings.EqualFold(have, role)
			}) {
				reqLog.Warn("insufficient role", slog.String("required", role))
				response.Error(w, r, http.StatusForbidden, "access denied")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext возвращает id пользователя из identity-контекста.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	subject, ok := ctx.Value(UserID).(string)
	if !ok || subject == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// RolesFromContext возвращает роли пользователя из identity-контекста.
func RolesFromContext(ctx context.Context) []string {
	roles, _ := ctx.Value(Roles).([]string)
	return roles
}

// HasRole сообщает, есть ли у запроса роль role, без учёта регистра.
func HasRole(ctx context.Context, role string) bool {
	return slices.ContainsFunc(RolesFromContext(ctx), func(have string) bool {
		return strings.EqualFold(have, role)
	})
}

// RequireAuthenticated возвращает middleware-гард, пропускающий только
// запросы с identity-контекстом, без проверки конкретной роли.
func RequireAuthenticated(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RequireAuthenticated"

			if len(RolesFromContext(r.Context())) == 0 {
				log.Warn("request without identity context rejected",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				response.Error(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
