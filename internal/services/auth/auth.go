// Package auth содержит логику бизнес-уровня для работы с пользователями
// и аутентификацией.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/lib/jwt"
	"github.com/futurewave/telecom-backend/internal/lib/password"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/models"
	"github.com/futurewave/telecom-backend/internal/rabbitmq"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет нового пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// GetUserByID возвращает пользователя по id либо nil, если его нет.
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	// GetUserByEmail возвращает пользователя по email либо nil, если его нет.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUserByMobile возвращает пользователя по номеру телефона либо nil.
	GetUserByMobile(ctx context.Context, mobile string) (*models.User, error)
	// ExistsUserByEmail проверяет, занят ли email.
	ExistsUserByEmail(ctx context.Context, email string) (bool, error)
	// ExistsUserByMobile проверяет, занят ли номер телефона.
	ExistsUserByMobile(ctx context.Context, mobile string) (bool, error)
	// ListUsersByRole возвращает пользователей с указанной ролью.
	ListUsersByRole(ctx context.Context, role string) ([]*models.User, error)
	// UpdateUser обновляет профиль и возвращает число изменённых строк.
	UpdateUser(ctx context.Context, user models.User) (int64, error)
	// UpdateUserPassword меняет хэш пароля пользователя.
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
}

// EventPublisher публикует события в очередь уведомлений.
type EventPublisher interface {
	PublishMessage(exchange, routingKey string, message any) error
}

// Service отвечает за регистрацию, авторизацию и валидацию пользователей.
type Service struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	publisher EventPublisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		users:     users,
		jwtMaker:  jwtMaker,
		publisher: publisher,
		log:       log,
	}
}

// LoginResult результат успешной авторизации.
type LoginResult struct {
	Token string
	User  *models.UserDTO
}

// Register создает нового пользователя с хэшированием пароля и ролью USER.
// После сохранения публикует приветственное событие; сбой публикации не
// считается ошибкой регистрации.
func (s *Service) Register(ctx context.Context, user models.User, rawPassword string) (int64, error) {
	const op = "services.auth.Register"

	exists, err := s.users.ExistsUserByEmail(ctx, user.Email)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, errs.InvalidState("email is already registered")
	}
	exists, err = s.users.ExistsUserByMobile(ctx, user.Mobile)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return 0, errs.InvalidState("mobile number is already registered")
	}

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	user.PasswordHash = hashed
	user.Role = models.RoleUser

	id, err := s.users.CreateUser(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("registered new user", slog.Int64("id", id))

	if s.publisher != nil {
		event := models.WelcomeEvent{Email: user.Email, FirstName: user.FirstName}
		if err := s.publisher.PublishMessage(rabbitmq.NotificationsExchange, rabbitmq.RoutingKeyWelcome, event); err != nil {
			s.log.Warn("failed to publish welcome event", sl.Err(err))
		}
	}

	return id, nil
}

// Login проверяет пароль пользователя и генерирует JWT. Логин принимает
// email либо номер телефона: номер сперва разрешается в email.
func (s *Service) Login(ctx context.Context, login, rawPassword string) (*LoginResult, error) {
	const op = "services.auth.Login"

	var user *models.User
	var err error
	if strings.Contains(login, "@") {
		user, err = s.users.GetUserByEmail(ctx, login)
	} else {
		user, err = s.users.GetUserByMobile(ctx, login)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, errs.ErrAuthenticationFailed
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, errs.ErrAuthenticationFailed
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email, []string{user.Role})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	dto := user.ToDTO()
	return &LoginResult{Token: token, User: &dto}, nil
}

// ValidateUser сообщает, существует ли пользователь с данным id.
func (s *Service) ValidateUser(ctx context.Context, userID int64) (bool, error) {
	const op = "services.auth.ValidateUser"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return user != nil, nil
}

// ValidateRole сообщает, существует ли пользователь с данным id и ролью.
// Сравнение роли регистронезависимое; отсутствующий пользователь даёт false,
// а не ошибку.
func (s *Service) ValidateRole(ctx context.Context, userID int64, role string) (bool, error) {
	const op = "services.auth.ValidateRole"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return false, nil
	}
	return strings.EqualFold(user.Role, role), nil
}

// FindUser возвращает профиль пользователя без чувствительных полей.
func (s *Service) FindUser(ctx context.Context, userID int64) (*models.UserDTO, error) {
	const op = "services.auth.FindUser"
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return nil, errs.NotFound("user", "id", userID)
	}
	dto := user.ToDTO()
	return &dto, nil
}

// UpdateProfile обновляет контактные данные пользователя.
func (s *Service) UpdateProfile(ctx context.Context, user models.User) (*models.UserDTO, error) {
	const op = "services.auth.UpdateProfile"

	existing, err := s.users.GetUserByID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if existing == nil {
		return nil, errs.NotFound("user", "id", user.ID)
	}

	existing.Email = user.Email
	existing.Mobile = user.Mobile
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.AlternatePhone = user.AlternatePhone
	existing.Address = user.Address

	if _, err := s.users.UpdateUser(ctx, *existing); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	dto := existing.ToDTO()
	return &dto, nil
}

// ListEmployees возвращает всех пользователей с ролью EMPLOYEE.
func (s *Service) ListEmployees(ctx context.Context) ([]models.UserDTO, error) {
	const op = "services.auth.ListEmployees"
	users, err := s.users.ListUsersByRole(ctx, models.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	result := make([]models.UserDTO, 0, len(users))
	for _, u := range users {
		result = append(result, u.ToDTO())
	}
	return result, nil
}

// SecurityQuestion возвращает секретный вопрос пользователя по email.
func (s *Service) SecurityQuestion(ctx context.Context, email string) (string, error) {
	const op = "services.auth.SecurityQuestion"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return "", errs.NotFound("user", "email", email)
	}
	return user.SecurityQuestion, nil
}

// ResetPassword меняет пароль пользователя после проверки ответа на
// секретный вопрос. Сравнение ответа регистронезависимое.
func (s *Service) ResetPassword(ctx context.Context, email, securityAnswer, newPassword string) error {
	const op = "services.auth.ResetPassword"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return errs.NotFound("user", "email", email)
	}
	if !strings.EqualFold(strings.TrimSpace(user.SecurityAnswer), strings.TrimSpace(securityAnswer)) {
		return errs.InvalidState("security answer does not match")
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, user.ID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("password reset", slog.Int64("user_id", user.ID))
	return nil
}
