// Package payment содержит бизнес-логику обработки платежей за тарифы.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/lib/txid"
	"github.com/futurewave/telecom-backend/internal/models"
	"github.com/futurewave/telecom-backend/internal/rabbitmq"
)

// PaymentRepository определяет методы для работы с платежами в хранилище.
type PaymentRepository interface {
	// CreatePayment сохраняет платёж и возвращает его ID.
	CreatePayment(ctx context.Context, payment models.Payment) (string, error)
	// UpdatePaymentStatus переводит платёж в новый статус.
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error
	// GetPaymentByTransactionID возвращает платёж по номеру транзакции либо nil.
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	// ListPaymentsByUser возвращает платежи пользователя, свежие сначала.
	ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error)
}

// IdentityClient проверяет роли пользователей через auth-сервис.
type IdentityClient interface {
	ValidateRole(ctx context.Context, userID int64, role string) (bool, error)
}

// PlanClient проверяет тарифы через plan-сервис.
type PlanClient interface {
	ValidatePlan(ctx context.Context, planID string) (bool, error)
}

// EventPublisher публикует события в очередь уведомлений.
type EventPublisher interface {
	PublishMessage(exchange, routingKey string, message any) error
}

// Service обрабатывает платежи за тарифные планы.
type Service struct {
	repo      PaymentRepository
	identity  IdentityClient
	plans     PlanClient
	publisher EventPublisher
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo PaymentRepository, identity IdentityClient, plans PlanClient, publisher EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		identity:  identity,
		plans:     plans,
		publisher: publisher,
		log:       log,
	}
}

// Process проводит платёж пользователя за тариф.
//
// Плательщик обязан существовать с ролью USER, тариф - в каталоге;
// отрицательный ответ даёт NotFound, недоступность сервиса -
// ServiceUnavailable. Платёж создаётся в статусе PENDING, получает
// уникальный номер транзакции и переводится в COMPLETED, после чего
// публикуется событие чека.
func (s *Service) Process(ctx context.Context, userID int64, planID string, amount float64, email string) (*models.Payment, error) {
	const op = "services.payment.Process"

	ok, err := s.identity.ValidateRole(ctx, userID, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("user", "id", userID)
	}

	ok, err = s.plans.ValidatePlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("plan", "id", planID)
	}

	payment := models.Payment{
		UserID:        userID,
		PlanID:        planID,
		Amount:        amount,
		Status:        models.PaymentPending,
		TransactionID: txid.New(),
	}
	id, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payment.ID = id

	if err := s.repo.UpdatePaymentStatus(ctx, id, models.PaymentCompleted); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payment.Status = models.PaymentCompleted

	s.log.Info("processed payment",
		slog.String("transaction_id", payment.TransactionID),
		slog.Int64("user_id", userID))

	if s.publisher != nil {
		receipt := models.PaymentReceipt{
			Email:         email,
			TransactionID: payment.TransactionID,
			Amount:        amount,
			PaidAt:        time.Now().UTC(),
		}
		if err := s.publisher.PublishMessage(rabbitmq.NotificationsExchange, rabbitmq.RoutingKeyReceipt, receipt); err != nil {
			s.log.Warn("failed to publish payment receipt", sl.Err(err))
		}
	}

	return &payment, nil
}

// History возвращает платежи пользователя, свежие сначала.
func (s *Service) History(ctx context.Context, userID int64) ([]*models.Payment, error) {
	const op = "services.payment.History"
	items, err := s.repo.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// ByTransactionID возвращает платёж по номеру транзакции.
func (s *Service) ByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	const op = "services.payment.ByTransactionID"
	payment, err := s.repo.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment == nil {
		return nil, errs.NotFound("payment", "transaction_id", transactionID)
	}
	return payment, nil
}
