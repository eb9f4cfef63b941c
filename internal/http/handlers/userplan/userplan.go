// Package userplan реализует HTTP-обработчики жизненного цикла подписок.
package userplan

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/http/response"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/models"
)

// Service определяет методы бизнес-логики подписок.
type Service interface {
	Subscribe(ctx context.Context, userID int64, planID string) (*models.UserPlan, error)
	Cancel(ctx context.Context, userID int64, userPlanID string) error
	History(ctx context.Context, userID int64) ([]models.UserPlanView, error)
	Active(ctx context.Context, userID int64) (*models.UserPlan, error)
	Usage(ctx context.Context, userID int64) (*models.PlanUsage, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.UserPlan, error)
	SweepStatuses(ctx context.Context, now time.Time) (int, error)
}

// Handler обрабатывает HTTP-запросы подписок.
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

// SubscribeRequest — входные данные для оформления подписки.
type SubscribeRequest struct {
	PlanID string `json:"plan_id" validate:"required,uuid4"`
}

// Subscribe godoc
// @Summary Оформление подписки на тариф
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SubscribeRequest true "Тариф"
// @Success 200 {object} response.Response
// @Router /user-plans/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.Subscribe"
	log := h.reqLog(r, op)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SubscribeRequest
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

	up, err := h.service.Subscribe(r.Context(), userID, req.PlanID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("subscription created", slog.String("id", up.ID), slog.String("status", string(up.Status)))
	render.JSON(w, r, response.OKWithData(up))
}

// Cancel godoc
// @Summary Отмена предстоящей подписки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param subscriptionId path string true "ID подписки"
// @Success 200 {object} response.Response
// @Router /user-plans/{subscriptionId}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.Cancel"
	log := h.reqLog(r, op)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "authentication required")
		return
	}

	id := chi.URLParam(r, "subscriptionId")
	if err := h.service.Cancel(r.Context(), userID, id); err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("subscription cancelled", slog.String("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "subscription cancelled",
	}))
}

// History godoc
// @Summary История подписок пользователя
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /user-plans/user/{userId}/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.History"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	items, err := h.service.History(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":         len(items),
		"subscriptions": items,
	}))
}

// Active godoc
// @Summary Действующая подписка пользователя
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /user-plans/user/{userId}/active [get]
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.Active"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	up, err := h.service.Active(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(up))
}

// Usage godoc
// @Summary Потребление по действующей подписке пользователя
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /user-plans/user/{userId}/usage [get]
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.Usage"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	usage, err := h.service.Usage(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(usage))
}

// ListAll godoc
// @Summary Все подписки, для админки
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Номер страницы"
// @Param size query int false "Размер страницы"
// @Success 200 {object} response.Response
// @Router /admin/plans/subscriptions [get]
func (h *Handler) ListAll(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.ListAll"
	log := h.reqLog(r, op)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}

	items, err := h.service.ListAll(r.Context(), size, page*size)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":         len(items),
		"subscriptions": items,
	}))
}

// SweepNow godoc
// @Summary Ручной запуск перевода статусов подписок
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/plans/update-statuses [post]
func (h *Handler) SweepNow(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.userplan.SweepNow"
	log := h.reqLog(r, op)

	updated, err := h.service.SweepStatuses(r.Context(), time.Now().UTC())
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("subscription statuses swept", slog.Int("updated", updated))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"updated": updated,
	}))
}
