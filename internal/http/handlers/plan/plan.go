// Package plan реализует HTTP-обработчики каталога тарифов.
package plan

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

	"github.com/futurewave/telecom-backend/internal/http/response"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/models"
)

// Service определяет методы бизнес-логики каталога тарифов.
type Service interface {
	Create(ctx context.Context, plan models.Plan) (string, error)
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	ListActive(ctx context.Context, page, size int) (*models.PagedPlans, error)
	ListAll(ctx context.Context, page, size int) ([]*models.Plan, error)
	Validate(ctx context.Context, id string) (bool, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// Handler обрабатывает HTTP-запросы каталога тарифов.
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

// CreateRequest — входные данные для создания тарифа.
type CreateRequest struct {
	Name            string   `json:"name" validate:"required,min=3,max=100"`
	Description     string   `json:"description"`
	Price           float64  `json:"price" validate:"required,gt=0"`
	DurationDays    int      `json:"duration_days" validate:"required,gt=0"`
	DataLimitGB     int      `json:"data_limit_gb" validate:"required,gt=0"`
	SMSLimit        int      `json:"sms_limit" validate:"required,gt=0"`
	TalkTimeMinutes string   `json:"talk_time_minutes" validate:"required"`
	Features        []string `json:"features"`
}

// Create godoc
// @Summary Создание тарифа
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Новый тариф"
// @Success 200 {object} response.Response
// @Router /plans [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.Create"
	log := h.reqLog(r, op)

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

	id, err := h.service.Create(r.Context(), models.Plan{
		Name:            req.Name,
		Description:     req.Description,
		Price:           req.Price,
		DurationDays:    req.DurationDays,
		DataLimitGB:     req.DataLimitGB,
		SMSLimit:        req.SMSLimit,
		TalkTimeMinutes: req.TalkTimeMinutes,
		Features:        req.Features,
	})
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("plan created", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":      id,
		"message": "plan created successfully",
	}))
}

// pageParams читает номер и размер страницы из query-параметров.
func pageParams(r *http.Request) (page, size int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	return page, size
}

// ListActive godoc
// @Summary Страница активных тарифов, отсортированных по цене
// @Tags Plans
// @Produce json
// @Param page query int false "Номер страницы"
// @Param size query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Router /plans [get]
func (h *Handler) ListActive(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.ListActive"
	log := h.reqLog(r, op)

	page, size := pageParams(r)
	paged, err := h.service.ListActive(r.Context(), page, size)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(paged))
}

// ListAll godoc
// @Summary Все тарифы, включая выключенные
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/plans [get]
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.ListAll"
	log := h.reqLog(r, op)

	page, size := pageParams(r)
	items, err := h.service.ListAll(r.Context(), page, size)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(items),
		"plans": items,
	}))
}

// GetByID godoc
// @Summary Тариф по ID
// @Tags Plans
// @Produce json
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.Response
// @Router /plans/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.GetByID"
	log := h.reqLog(r, op)

	plan, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(plan))
}

// ValidatePlan godoc
// @Summary Существует ли тариф
// @Tags Plans
// @Produce json
// @Param id path string true "ID тарифа"
// @Success 200 {boolean} bool
// @Router /plans/validate-plan/{id} [get]
func (h *Handler) ValidatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.ValidatePlan"
	log := h.reqLog(r, op)

	ok, err := h.service.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, ok)
}

// Activate godoc
// @Summary Включение тарифа
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.Response
// @Router /admin/plans/{id}/activate [put]
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true, "handlers.plan.Activate")
}

// Deactivate godoc
// @Summary Выключение тарифа
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.Response
// @Router /admin/plans/{id}/deactivate [put]
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false, "handlers.plan.Deactivate")
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool, op string) {
	log := h.reqLog(r, op)

	id := chi.URLParam(r, "id")
	if err := h.service.SetActive(r.Context(), id, active); err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("plan state changed", slog.String("id", id), slog.Bool("active", active))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":     id,
		"active": active,
	}))
}
