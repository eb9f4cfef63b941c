// Package support реализует HTTP-обработчики тикетов поддержки.
package support

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/http/response"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/models"
)

// Service определяет методы бизнес-логики тикетов поддержки.
type Service interface {
	Create(ctx context.Context, userID int64, title, description, priority string) (*models.Ticket, error)
	Assign(ctx context.Context, ticketID, employeeID int64) error
	UpdateStatus(ctx context.Context, ticketID int64, status models.TicketStatus) error
	ByID(ctx context.Context, ticketID int64) (*models.Ticket, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Ticket, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]*models.Ticket, error)
	ListAll(ctx context.Context) ([]*models.Ticket, error)
}

// Handler обрабатывает HTTP-запросы тикетов.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

func (h *Handler) reqLog(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func ticketID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CreateRequest — входные данные для создания тикета.
type CreateRequest struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH"`
}

// Create godoc
// @Summary Создание тикета поддержки
// @Tags Support
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Тикет"
// @Success 200 {object} response.Response
// @Router /support/tickets [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.Create"
	log := h.reqLog(r, op)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Error(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	ticket, err := h.service.Create(r.Context(), userID, req.Title, req.Description, req.Priority)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("ticket created", slog.Int64("id", ticket.ID))
	render.JSON(w, r, response.OKWithData(ticket))
}

// Assign godoc
// @Summary Назначение тикета сотруднику
// @Tags Support
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID тикета"
// @Param employeeId path int true "ID сотрудника"
// @Success 200 {object} response.Response
// @Router /support/tickets/{id}/assign/{employeeId} [put]
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.Assign"
	log := h.reqLog(r, op)

	id, err := ticketID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid ticket id")
		return
	}
	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid employee id")
		return
	}

	if err := h.service.Assign(r.Context(), id, employeeID); err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("ticket assigned", slog.Int64("id", id), slog.Int64("employee_id", employeeID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "ticket assigned",
	}))
}

// UpdateStatusRequest — входные данные для смены статуса тикета.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=NEW ASSIGNED IN_PROGRESS RESOLVED CLOSED"`
}

// UpdateStatus godoc
// @Summary Смена статуса тикета
// @Tags Support
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID тикета"
// @Param request body UpdateStatusRequest true "Новый статус"
// @Success 200 {object} response.Response
// @Router /support/tickets/{id}/status [put]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.UpdateStatus"
	log := h.reqLog(r, op)

	id, err := ticketID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid ticket id")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		response.Error(w, r, http.StatusBadRequest, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.UpdateStatus(r.Context(), id, models.TicketStatus(req.Status)); err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "ticket status updated",
	}))
}

// ByID godoc
// @Summary Тикет по ID
// @Tags Support
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID тикета"
// @Success 200 {object} response.Response
// @Router /support/tickets/{id} [get]
func (h *Handler) ByID(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.ByID"
	log := h.reqLog(r, op)

	id, err := ticketID(r)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ticket, err := h.service.ByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(ticket))
}

// ListByUser godoc
// @Summary Тикеты, созданные пользователем
// @Tags Support
// @Produce json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /support/tickets/user/{userId} [get]
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.ListByUser"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	items, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(items),
		"tickets": items,
	}))
}

// ListByEmployee godoc
// @Summary Тикеты, закреплённые за сотрудником
// @Tags Support
// @Produce json
// @Security BearerAuth
// @Param employeeId path int true "ID сотрудника"
// @Success 200 {object} response.Response
// @Router /support/tickets/employee/{employeeId} [get]
func (h *Handler) ListByEmployee(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.ListByEmployee"
	log := h.reqLog(r, op)

	employeeID, err := strconv.ParseInt(chi.URLParam(r, "employeeId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid employee id")
		return
	}

	items, err := h.service.ListByEmployee(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(items),
		"tickets": items,
	}))
}

// ListAll godoc
// @Summary Все тикеты, для админки
// @Tags Support
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /support/tickets/get-all-tickets [get]
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.support.ListAll"
	log := h.reqLog(r, op)

	items, err := h.service.ListAll(r.Context())
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":   len(items),
		"tickets": items,
	}))
}
