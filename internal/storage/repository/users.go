package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/futurewave/telecom-backend/internal/models"
)

const userColumns = `id, email, password_hash, mobile, role, first_name, last_name,
			      alternate_phone, address, security_question, security_answer,
			      created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Mobile, &u.Role,
		&u.FirstName, &u.LastName, &u.AlternatePhone, &u.Address,
		&u.SecurityQuestion, &u.SecurityAnswer, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser сохраняет нового пользователя и возвращает его ID.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (email, password_hash, mobile, role, first_name,
			      last_name, alternate_phone, address, security_question, security_answer)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int64
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Mobile, user.Role, user.FirstName,
		user.LastName, user.AlternatePhone, user.Address, user.SecurityQuestion,
		user.SecurityAnswer).Scan(&newID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetUserByID возвращает пользователя по id либо nil, если его нет.
func (s *Storage) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const op = "storage.GetUserByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email либо nil, если его нет.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByMobile возвращает пользователя по номеру телефона либо nil.
func (s *Storage) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	const op = "storage.GetUserByMobile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE mobile = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, mobile))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ExistsUserByEmail проверяет, занят ли email.
func (s *Storage) ExistsUserByEmail(ctx context.Context, email string) (bool, error) {
	const op = "storage.ExistsUserByEmail"
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ExistsUserByMobile проверяет, занят ли номер телефона.
func (s *Storage) ExistsUserByMobile(ctx context.Context, mobile string) (bool, error) {
	const op = "storage.ExistsUserByMobile"
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE mobile = $1)`, mobile).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListUsersByRole возвращает пользователей с указанной ролью.
func (s *Storage) ListUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	const op = "storage.ListUsersByRole"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUser обновляет профиль и возвращает число изменённых строк.
func (s *Storage) UpdateUser(ctx context.Context, user models.User) (int64, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = $2, mobile = $3, first_name = $4, last_name = $5,
			      alternate_phone = $6, address = $7, updated_at = now()
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		user.ID, user.Email, user.Mobile, user.FirstName, user.LastName,
		user.AlternatePhone, user.Address)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpdateUserPassword меняет хэш пароля пользователя.
func (s *Storage) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	const op = "storage.UpdateUserPassword"
	if _, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		userID, passwordHash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
