package response

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
)

// ErrorBody структура JSON-ответа с ошибкой.
type ErrorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
}

// Error пишет ответ с ошибкой с указанным кодом и сообщением.
func Error(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Message:   msg,
		Path:      r.URL.Path,
	})
}

// HandleError транслирует типизированную доменную ошибку в HTTP-ответ.
//
// NotFound - 404, InvalidState - 400, ErrAuthenticationFailed - 401,
// ServiceUnavailable - 503. Всё остальное - 500 с обезличенным текстом:
// детали исходной ошибки остаются только в логе сервера.
func HandleError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errs.IsNotFound(err):
		Error(w, r, http.StatusNotFound, err.Error())
	case errs.IsInvalidState(err):
		Error(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrAuthenticationFailed):
		Error(w, r, http.StatusUnauthorized, "invalid credentials")
	case errs.IsUnavailable(err):
		log.Error("downstream service unavailable", sl.Err(err))
		Error(w, r, http.StatusServiceUnavailable, "dependent service unavailable")
	default:
		log.Error("unexpected error", sl.Err(err))
		Error(w, r, http.StatusInternalServerError, "internal server error")
	}
}
