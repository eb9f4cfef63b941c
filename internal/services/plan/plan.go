// Package plan содержит бизнес-логику каталога тарифов с кешированием.
package plan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/lib/sl"
	"github.com/futurewave/telecom-backend/internal/models"
)

// DefaultPageSize размер страницы каталога по умолчанию.
const DefaultPageSize = 20

const cacheTTL = time.Hour

// PlanRepository определяет методы для работы с тарифами в хранилище.
type PlanRepository interface {
	// CreatePlan вставляет новый тариф и возвращает его ID.
	CreatePlan(ctx context.Context, plan models.Plan) (string, error)
	// GetPlanByID возвращает тариф по id либо nil, если его нет.
	GetPlanByID(ctx context.Context, id string) (*models.Plan, error)
	// ExistsPlanByName проверяет, занято ли имя тарифа.
	ExistsPlanByName(ctx context.Context, name string) (bool, error)
	// ExistsPlan проверяет существование тарифа по id.
	ExistsPlan(ctx context.Context, id string) (bool, error)
	// ListActivePlans возвращает страницу активных тарифов и их общее число.
	ListActivePlans(ctx context.Context, limit, offset int) ([]*models.Plan, int, error)
	// ListAllPlans возвращает страницу всех тарифов, включая выключенные.
	ListAllPlans(ctx context.Context, limit, offset int) ([]*models.Plan, error)
	// SetPlanActive включает или выключает тариф, возвращает число строк.
	SetPlanActive(ctx context.Context, id string, active bool) (int64, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(key string) error
}

// Service реализует бизнес-логику каталога тарифов, включая кеширование.
type Service struct {
	repo  PlanRepository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo PlanRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func cacheKey(id string) string {
	return fmt.Sprintf("plan:%s", id)
}

// Create создает новый тариф. Имя тарифа должно быть уникальным.
func (s *Service) Create(ctx context.Context, plan models.Plan) (string, error) {
	const op = "services.plan.Create"

	exists, err := s.repo.ExistsPlanByName(ctx, plan.Name)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return "", errs.InvalidState("plan name is already taken")
	}

	plan.Active = true
	id, err := s.repo.CreatePlan(ctx, plan)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("created new plan", slog.String("id", id))
	return id, nil
}

// GetByID возвращает тариф по ID, используя кеш или репозиторий.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	const op = "services.plan.GetByID"

	var cached *models.Plan
	key := cacheKey(id)
	found, err := s.cache.Get(key, &cached)
	if err != nil {
		s.log.Warn("cache lookup failed", slog.String("key", key), sl.Err(err))
	}
	if found && cached != nil {
		return cached, nil
	}

	plan, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if plan == nil {
		return nil, errs.NotFound("plan", "id", id)
	}

	if err := s.cache.Set(key, plan, cacheTTL); err != nil {
		s.log.Warn("failed to cache plan", slog.String("key", key), sl.Err(err))
	}
	return plan, nil
}

// ListActive возвращает страницу активных тарифов, отсортированных по цене.
func (s *Service) ListActive(ctx context.Context, page, size int) (*models.PagedPlans, error) {
	const op = "services.plan.ListActive"

	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	items, total, err := s.repo.ListActivePlans(ctx, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	totalPages := total / size
	if total%size != 0 {
		totalPages++
	}
	return &models.PagedPlans{
		Plans:       items,
		CurrentPage: page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
	}, nil
}

// ListAll возвращает страницу всех тарифов для админки.
func (s *Service) ListAll(ctx context.Context, page, size int) ([]*models.Plan, error) {
	const op = "services.plan.ListAll"
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	items, err := s.repo.ListAllPlans(ctx, size, page*size)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Validate сообщает, существует ли тариф с данным id.
func (s *Service) Validate(ctx context.Context, id string) (bool, error) {
	const op = "services.plan.Validate"
	exists, err := s.repo.ExistsPlan(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// SetActive включает или выключает тариф и инвалидирует кеш.
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	const op = "services.plan.SetActive"

	count, err := s.repo.SetPlanActive(ctx, id, active)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return errs.NotFound("plan", "id", id)
	}

	key := cacheKey(id)
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate plan cache", slog.String("key", key), sl.Err(err))
	}
	return nil
}
