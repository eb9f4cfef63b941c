// Package payment реализует HTTP-обработчики платёжного сервиса.
package payment

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

// Service определяет методы бизнес-логики платежей.
type Service interface {
	Process(ctx context.Context, userID int64, planID string, amount float64, email string) (*models.Payment, error)
	History(ctx context.Context, userID int64) ([]*models.Payment, error)
	ByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
}

// Handler обрабатывает HTTP-запросы платежей.
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

// ProcessRequest — входные данные для проведения платежа.
type ProcessRequest struct {
	PlanID string  `json:"plan_id" validate:"required,uuid4"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Process godoc
// @Summary Проведение платежа за тариф
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProcessRequest true "Платёж"
// @Success 200 {object} response.Response
// @Router /payments/process [post]
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Process"
	log := h.reqLog(r, op)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	email, _ := r.Context().Value(middlewarectx.Email).(string)

	var req ProcessRequest
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

	payment, err := h.service.Process(r.Context(), userID, req.PlanID, req.Amount, email)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("payment processed", slog.String("transaction_id", payment.TransactionID))
	render.JSON(w, r, response.OKWithData(payment))
}

// History godoc
// @Summary Платежи пользователя
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param userId path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /payments/user/{userId} [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.History"
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
		"count":    len(items),
		"payments": items,
	}))
}

// ByTransactionID godoc
// @Summary Платёж по номеру транзакции
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param transactionId path string true "Номер транзакции"
// @Success 200 {object} response.Response
// @Router /payments/transaction/{transactionId} [get]
func (h *Handler) ByTransactionID(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.ByTransactionID"
	log := h.reqLog(r, op)

	payment, err := h.service.ByTransactionID(r.Context(), chi.URLParam(r, "transactionId"))
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(payment))
}
