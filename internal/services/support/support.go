// Package support содержит бизнес-логику тикетов поддержки.
package support

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
)

// TicketRepository определяет методы для работы с тикетами в хранилище.
type TicketRepository interface {
	// CreateTicket сохраняет тикет и возвращает его ID.
	CreateTicket(ctx context.Context, ticket models.Ticket) (int64, error)
	// GetTicketByID возвращает тикет по id либо nil.
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	// AssignTicket закрепляет тикет за сотрудником.
	AssignTicket(ctx context.Context, id, employeeID int64) (int64, error)
	// UpdateTicketStatus переводит тикет в новый статус.
	UpdateTicketStatus(ctx context.Context, id int64, status models.TicketStatus) (int64, error)
	// ListTicketsByUser возвращает тикеты, созданные пользователем.
	ListTicketsByUser(ctx context.Context, userID int64) ([]*models.Ticket, error)
	// ListTicketsByEmployee возвращает тикеты сотрудника.
	ListTicketsByEmployee(ctx context.Context, employeeID int64) ([]*models.Ticket, error)
	// ListAllTickets возвращает все тикеты.
	ListAllTickets(ctx context.Context) ([]*models.Ticket, error)
}

// IdentityClient проверяет роли пользователей через auth-сервис.
type IdentityClient interface {
	ValidateRole(ctx context.Context, userID int64, role string) (bool, error)
}

// Service реализует жизненный цикл тикетов поддержки.
type Service struct {
	repo     TicketRepository
	identity IdentityClient
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo TicketRepository, identity IdentityClient, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		log:      log,
	}
}

// Create заводит тикет от имени пользователя в статусе NEW. Автор обязан
// существовать с ролью USER.
func (s *Service) Create(ctx context.Context, userID int64, title, description, priority string) (*models.Ticket, error) {
	const op = "services.support.Create"

	ok, err := s.identity.ValidateRole(ctx, userID, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("user", "id", userID)
	}

	ticket := models.Ticket{
		Title:       title,
		Description: description,
		Priority:    priority,
		Status:      models.TicketNew,
		UserID:      userID,
	}
	id, err := s.repo.CreateTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ticket.ID = id

	s.log.Info("created support ticket", slog.Int64("id", id), slog.Int64("user_id", userID))
	return &ticket, nil
}

// Assign закрепляет тикет за сотрудником и переводит его в ASSIGNED.
// Назначаемый обязан иметь роль EMPLOYEE; переназначение допустимо в
// любом статусе.
func (s *Service) Assign(ctx context.Context, ticketID, employeeID int64) error {
	const op = "services.support.Assign"

	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ticket == nil {
		return errs.NotFound("ticket", "id", ticketID)
	}

	ok, err := s.identity.ValidateRole(ctx, employeeID, models.RoleEmployee)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return errs.NotFound("employee", "id", employeeID)
	}

	if _, err := s.repo.AssignTicket(ctx, ticketID, employeeID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("assigned ticket", slog.Int64("id", ticketID), slog.Int64("employee_id", employeeID))
	return nil
}

// UpdateStatus переводит тикет в новый статус. Переходы не
// ограничиваются: поддержка сама решает, в каком порядке вести тикет.
func (s *Service) UpdateStatus(ctx context.Context, ticketID int64, status models.TicketStatus) error {
	const op = "services.support.UpdateStatus"

	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if ticket == nil {
		return errs.NotFound("ticket", "id", ticketID)
	}

	if _, err := s.repo.UpdateTicketStatus(ctx, ticketID, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ByID возвращает тикет по id.
func (s *Service) ByID(ctx context.Context, ticketID int64) (*models.Ticket, error) {
	const op = "services.support.ByID"
	ticket, err := s.repo.GetTicketByID(ctx, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ticket == nil {
		return nil, errs.NotFound("ticket", "id", ticketID)
	}
	return ticket, nil
}

// ListByUser возвращает тикеты, созданные пользователем. Пользователь
// обязан существовать с ролью USER.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*models.Ticket, error) {
	const op = "services.support.ListByUser"

	ok, err := s.identity.ValidateRole(ctx, userID, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("user", "id", userID)
	}

	items, err := s.repo.ListTicketsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// ListByEmployee возвращает тикеты, закреплённые за сотрудником.
// Сотрудник обязан существовать с ролью EMPLOYEE.
func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]*models.Ticket, error) {
	const op = "services.support.ListByEmployee"

	ok, err := s.identity.ValidateRole(ctx, employeeID, models.RoleEmployee)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("employee", "id", employeeID)
	}

	items, err := s.repo.ListTicketsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// ListAll возвращает все тикеты для админки.
func (s *Service) ListAll(ctx context.Context) ([]*models.Ticket, error) {
	const op = "services.support.ListAll"
	items, err := s.repo.ListAllTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}
