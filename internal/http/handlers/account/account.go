// Package account реализует HTTP-обработчики auth-сервиса: регистрацию,
// вход, профиль, восстановление пароля и межсервисную валидацию.
package account

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
	"github.com/futurewave/telecom-backend/internal/services/auth"
)

// Service определяет методы бизнес-логики для работы с пользователями.
type Service interface {
	Register(ctx context.Context, user models.User, rawPassword string) (int64, error)
	Login(ctx context.Context, login, rawPassword string) (*auth.LoginResult, error)
	ValidateUser(ctx context.Context, userID int64) (bool, error)
	ValidateRole(ctx context.Context, userID int64, role string) (bool, error)
	FindUser(ctx context.Context, userID int64) (*models.UserDTO, error)
	UpdateProfile(ctx context.Context, user models.User) (*models.UserDTO, error)
	ListEmployees(ctx context.Context) ([]models.UserDTO, error)
	SecurityQuestion(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, email, securityAnswer, newPassword string) error
}

// Handler обрабатывает HTTP-запросы auth-сервиса.
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

// RegisterRequest — входные данные для регистрации.
type RegisterRequest struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6"`
	Mobile           string `json:"mobile" validate:"required,min=10"`
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name"`
	AlternatePhone   string `json:"alternate_phone"`
	Address          string `json:"address"`
	SecurityQuestion string `json:"security_question" validate:"required"`
	SecurityAnswer   string `json:"security_answer" validate:"required"`
}

// Register godoc
// @Summary Регистрация нового абонента
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Данные нового абонента"
// @Success 200 {object} response.Response
// @Router /account/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.Register"
	log := h.reqLog(r, op)

	var req RegisterRequest
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

	user := models.User{
		Email:            req.Email,
		Mobile:           req.Mobile,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		AlternatePhone:   req.AlternatePhone,
		Address:          req.Address,
		SecurityQuestion: req.SecurityQuestion,
		SecurityAnswer:   req.SecurityAnswer,
	}
	id, err := h.service.Register(r.Context(), user, req.Password)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("user registered", slog.Int64("id", id))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"id":      id,
		"message": "user created successfully",
	}))
}

// LoginRequest — входные данные для входа: email либо номер телефона.
type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login godoc
// @Summary Вход по email или номеру телефона
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Учётные данные"
// @Success 200 {object} response.Response
// @Router /account/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.Login"
	log := h.reqLog(r, op)

	var req LoginRequest
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

	result, err := h.service.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}

	log.Info("user logged in", slog.Int64("user_id", result.User.ID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"token": result.Token,
		"user":  result.User,
	}))
}

// ValidateUser godoc
// @Summary Существует ли пользователь
// @Tags Auth
// @Produce json
// @Param id path int true "ID пользователя"
// @Success 200 {boolean} bool
// @Router /account/validate-user/{id} [get]
func (h *Handler) ValidateUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.ValidateUser"
	log := h.reqLog(r, op)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	ok, err := h.service.ValidateUser(r.Context(), id)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, ok)
}

// ValidateRole godoc
// @Summary Существует ли пользователь с ролью
// @Tags Auth
// @Produce json
// @Param id path int true "ID пользователя"
// @Param role path string true "Роль"
// @Success 200 {boolean} bool
// @Router /account/validate-user/{id}/{role} [get]
func (h *Handler) ValidateRole(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.ValidateRole"
	log := h.reqLog(r, op)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	ok, err := h.service.ValidateRole(r.Context(), id, chi.URLParam(r, "role"))
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, ok)
}

// FindUser godoc
// @Summary Профиль пользователя по ID
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /account/find-user/{id} [get]
func (h *Handler) FindUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.FindUser"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	dto, err := h.service.FindUser(r.Context(), userID)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(dto))
}

// UpdateProfileRequest — входные данные для обновления профиля.
type UpdateProfileRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Mobile         string `json:"mobile" validate:"required,min=10"`
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name"`
	AlternatePhone string `json:"alternate_phone"`
	Address        string `json:"address"`
}

// UpdateUser godoc
// @Summary Обновление профиля пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "ID пользователя"
// @Success 200 {object} response.Response
// @Router /account/update-user/{id} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.UpdateUser"
	log := h.reqLog(r, op)

	userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateProfileRequest
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

	dto, err := h.service.UpdateProfile(r.Context(), models.User{
		ID:             userID,
		Email:          req.Email,
		Mobile:         req.Mobile,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		AlternatePhone: req.AlternatePhone,
		Address:        req.Address,
	})
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(dto))
}

// ListEmployees godoc
// @Summary Список сотрудников
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /account/get-all-employees [get]
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.ListEmployees"
	log := h.reqLog(r, op)

	employees, err := h.service.ListEmployees(r.Context())
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":     len(employees),
		"employees": employees,
	}))
}

// SecurityQuestionRequest — входные данные запроса секретного вопроса.
type SecurityQuestionRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SecurityQuestion godoc
// @Summary Секретный вопрос для восстановления пароля
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /account/forgot-password [post]
func (h *Handler) SecurityQuestion(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.SecurityQuestion"
	log := h.reqLog(r, op)

	var req SecurityQuestionRequest
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

	question, err := h.service.SecurityQuestion(r.Context(), req.Email)
	if err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"security_question": question,
	}))
}

// ResetPasswordRequest — входные данные для смены пароля.
type ResetPasswordRequest struct {
	Email          string `json:"email" validate:"required,email"`
	SecurityAnswer string `json:"security_answer" validate:"required"`
	NewPassword    string `json:"new_password" validate:"required,min=6"`
}

// ResetPassword godoc
// @Summary Смена пароля по секретному вопросу
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response
// @Router /account/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.ResetPassword"
	log := h.reqLog(r, op)

	var req ResetPasswordRequest
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

	if err := h.service.ResetPassword(r.Context(), req.Email, req.SecurityAnswer, req.NewPassword); err != nil {
		response.HandleError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OKWithData(map[string]any{
		"message": "password updated successfully",
	}))
}
