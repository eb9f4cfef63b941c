package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/futurewave/telecom-backend/internal/models"
)

const planColumns = `id, name, description, price, duration_days, data_limit_gb,
			      sms_limit, talk_time_minutes, features, active, created_at, updated_at`

func scanPlan(row interface{ Scan(...any) error }) (*models.Plan, error) {
	p := &models.Plan{}
	var features []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.DurationDays,
		&p.DataLimitGB, &p.SMSLimit, &p.TalkTimeMinutes, &features, &p.Active,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalFeatures(features, &p.Features); err != nil {
		return nil, err
	}
	return p, nil
}

// CreatePlan вставляет новый тариф и возвращает его ID.
func (s *Storage) CreatePlan(ctx context.Context, plan models.Plan) (string, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := marshalFeatures(plan.Features)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO plans (id, name, description, price, duration_days,
			      data_limit_gb, sms_limit, talk_time_minutes, features, active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID string
	if err := s.DB.QueryRowContext(ctx, query,
		uuid.NewString(), plan.Name, plan.Description, plan.Price, plan.DurationDays,
		plan.DataLimitGB, plan.SMSLimit, plan.TalkTimeMinutes, features,
		plan.Active).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetPlanByID возвращает тариф по id либо nil, если его нет.
func (s *Storage) GetPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	p, err := scanPlan(s.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// ExistsPlanByName проверяет, занято ли имя тарифа.
func (s *Storage) ExistsPlanByName(ctx context.Context, name string) (bool, error) {
	const op = "storage.ExistsPlanByName"
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM plans WHERE name = $1)`, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ExistsPlan проверяет существование тарифа по id.
func (s *Storage) ExistsPlan(ctx context.Context, id string) (bool, error) {
	const op = "storage.ExistsPlan"
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM plans WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListActivePlans возвращает страницу активных тарифов, отсортированных
// по цене, и общее число активных тарифов.
func (s *Storage) ListActivePlans(ctx context.Context, limit, offset int) ([]*models.Plan, int, error) {
	const op = "storage.ListActivePlans"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM plans WHERE active`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + planColumns + `
			  FROM plans
			  WHERE active
			  ORDER BY price
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListAllPlans возвращает страницу всех тарифов, включая выключенные.
func (s *Storage) ListAllPlans(ctx context.Context, limit, offset int) ([]*models.Plan, error) {
	const op = "storage.ListAllPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + `
			  FROM plans
			  ORDER BY price
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SetPlanActive включает или выключает тариф, возвращает число строк.
func (s *Storage) SetPlanActive(ctx context.Context, id string, active bool) (int64, error) {
	const op = "storage.SetPlanActive"
	result, err := s.DB.ExecContext(ctx,
		`UPDATE plans SET active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}
