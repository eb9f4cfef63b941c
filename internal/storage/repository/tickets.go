package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/futurewave/telecom-backend/internal/models"
)

const ticketColumns = `id, title, description, priority, status, user_id,
			      employee_id, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }) (*models.Ticket, error) {
	t := &models.Ticket{}
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&t.UserID, &t.EmployeeID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// CreateTicket сохраняет тикет поддержки и возвращает его ID.
func (s *Storage) CreateTicket(ctx context.Context, ticket models.Ticket) (int64, error) {
	const op = "storage.CreateTicket"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO tickets (title, description, priority, status, user_id)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var newID int64
	if err := s.DB.QueryRowContext(ctx, query,
		ticket.Title, ticket.Description, ticket.Priority, ticket.Status,
		ticket.UserID).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetTicketByID возвращает тикет по id либо nil, если его нет.
func (s *Storage) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	const op = "storage.GetTicketByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	t, err := scanTicket(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// AssignTicket закрепляет тикет за сотрудником и переводит его в ASSIGNED.
func (s *Storage) AssignTicket(ctx context.Context, id, employeeID int64) (int64, error) {
	const op = "storage.AssignTicket"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE tickets SET employee_id = $2, status = $3, updated_at = now() WHERE id = $1`,
		id, employeeID, models.TicketAssigned)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpdateTicketStatus переводит тикет в новый статус.
func (s *Storage) UpdateTicketStatus(ctx context.Context, id int64, status models.TicketStatus) (int64, error) {
	const op = "storage.UpdateTicketStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE tickets SET status = $2, updated_at = now() WHERE id = $1`,
		id, status)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

func (s *Storage) listTickets(ctx context.Context, op, where string, args ...any) ([]*models.Ticket, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets ` + where + ` ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListTicketsByUser возвращает тикеты, созданные пользователем.
func (s *Storage) ListTicketsByUser(ctx context.Context, userID int64) ([]*models.Ticket, error) {
	return s.listTickets(ctx, "storage.ListTicketsByUser", `WHERE user_id = $1`, userID)
}

// ListTicketsByEmployee возвращает тикеты, закреплённые за сотрудником.
func (s *Storage) ListTicketsByEmployee(ctx context.Context, employeeID int64) ([]*models.Ticket, error) {
	return s.listTickets(ctx, "storage.ListTicketsByEmployee", `WHERE employee_id = $1`, employeeID)
}

// ListAllTickets возвращает все тикеты для админки.
func (s *Storage) ListAllTickets(ctx context.Context) ([]*models.Ticket, error) {
	return s.listTickets(ctx, "storage.ListAllTickets", ``)
}
