package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
)

const userPlanColumns = `id, user_id, plan_id, start_date, end_date, status,
			      created_at, updated_at`

func scanUserPlan(row interface{ Scan(...any) error }) (*models.UserPlan, error) {
	up := &models.UserPlan{}
	err := row.Scan(&up.ID, &up.UserID, &up.PlanID, &up.StartDate, &up.EndDate,
		&up.Status, &up.CreatedAt, &up.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return up, nil
}

// CreateUserPlanWithLimit вставляет подписку, если суммарное число
// ACTIVE+UPCOMING подписок пользователя меньше maxCount.
//
// Проверка лимита и вставка выполняются в одной транзакции под
// pg_advisory_xact_lock по id пользователя: конкурентные подписки одного
// пользователя сериализуются и совместно превысить лимит не могут.
// При превышении возвращается errs.InvalidState.
func (s *Storage) CreateUserPlanWithLimit(ctx context.Context, up models.UserPlan, maxCount int) (string, error) {
	const op = "storage.CreateUserPlanWithLimit"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock($1, $2)`, advisoryClassUserPlans, up.UserID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM user_plans
		 WHERE user_id = $1 AND status IN ($2, $3)`,
		up.UserID, models.StatusActive, models.StatusUpcoming).Scan(&count); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if count >= maxCount {
		return "", errs.InvalidState(fmt.Sprintf("user cannot subscribe to more than %d plans", maxCount))
	}

	query := `INSERT INTO user_plans (id, user_id, plan_id, start_date, end_date, status)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID string
	if err := tx.QueryRowContext(ctx, query,
		uuid.NewString(), up.UserID, up.PlanID, up.StartDate, up.EndDate,
		up.Status).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// advisoryClassUserPlans ключ класса advisory-блокировок подписок.
const advisoryClassUserPlans = 0x7570 // "up"

// GetUserPlanByID возвращает подписку по id либо nil, если её нет.
func (s *Storage) GetUserPlanByID(ctx context.Context, id string) (*models.UserPlan, error) {
	const op = "storage.GetUserPlanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userPlanColumns + ` FROM user_plans WHERE id = $1`
	up, err := scanUserPlan(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return up, nil
}

// FindActiveUserPlan возвращает единственную ACTIVE подписку пользователя
// либо nil, если активной подписки нет.
func (s *Storage) FindActiveUserPlan(ctx context.Context, userID int64) (*models.UserPlan, error) {
	const op = "storage.FindActiveUserPlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userPlanColumns + `
			  FROM user_plans
			  WHERE user_id = $1 AND status = $2`
	up, err := scanUserPlan(s.DB.QueryRowContext(ctx, query, userID, models.StatusActive))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return up, nil
}

// ListUserPlans возвращает подписки пользователя, свежие сначала.
func (s *Storage) ListUserPlans(ctx context.Context, userID int64) ([]*models.UserPlan, error) {
	const op = "storage.ListUserPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userPlanColumns + `
			  FROM user_plans
			  WHERE user_id = $1
			  ORDER BY start_date DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserPlan
	for rows.Next() {
		up, err := scanUserPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUserPlansByStatuses возвращает все подписки с указанными статусами.
func (s *Storage) ListUserPlansByStatuses(ctx context.Context, statuses []models.PlanStatus) ([]*models.UserPlan, error) {
	const op = "storage.ListUserPlansByStatuses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userPlanColumns + `
			  FROM user_plans
			  WHERE status = ANY($1)`
	args := make([]string, 0, len(statuses))
	for _, st := range statuses {
		args = append(args, string(st))
	}
	rows, err := s.DB.QueryContext(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserPlan
	for rows.Next() {
		up, err := scanUserPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllUserPlans возвращает страницу всех подписок для админки.
func (s *Storage) ListAllUserPlans(ctx context.Context, limit, offset int) ([]*models.UserPlan, error) {
	const op = "storage.ListAllUserPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userPlanColumns + `
			  FROM user_plans
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.UserPlan
	for rows.Next() {
		up, err := scanUserPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, up)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveUserPlan удаляет подписку и возвращает число удалённых строк.
func (s *Storage) RemoveUserPlan(ctx context.Context, id string) (int64, error) {
	const op = "storage.RemoveUserPlan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM user_plans WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// UpdateUserPlanStatuses меняет статусы перечисленных подписок одной
// транзакцией. Используется ежедневным sweep-ом.
func (s *Storage) UpdateUserPlanStatuses(ctx context.Context, updates map[string]models.PlanStatus) error {
	const op = "storage.UpdateUserPlanStatuses"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if len(updates) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for id, status := range updates {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_plans SET status = $2, updated_at = now() WHERE id = $1`,
			id, status); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
