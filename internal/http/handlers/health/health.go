// Package health реализует probe-обработчик для балансировщика.
package health

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/render"
)

// Handler отвечает на health-запросы.
type Handler struct {
	db *sql.DB
}

// New создает новый экземпляр Handler.
func New(db *sql.DB) *Handler {
	return &Handler{db: db}
}

// ServeHTTP возвращает 200, пока живо соединение с базой.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, map[string]string{"status": "DOWN"})
		return
	}
	render.JSON(w, r, map[string]string{"status": "UP"})
}
