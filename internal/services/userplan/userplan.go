// Package userplan содержит бизнес-логику жизненного цикла подписок:
// оформление, отмену, ежедневный перевод статусов и выдачу потребления.
package userplan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
	"github.com/futurewave/telecom-backend/internal/services/usage"
)

// MaxConcurrentPlans предел одновременных ACTIVE+UPCOMING подписок.
const MaxConcurrentPlans = 2

// UserPlanRepository определяет методы для работы с подписками в хранилище.
type UserPlanRepository interface {
	// CreateUserPlanWithLimit вставляет подписку под лимитом maxCount,
	// сериализуя конкурентные вставки одного пользователя.
	CreateUserPlanWithLimit(ctx context.Context, up models.UserPlan, maxCount int) (string, error)
	// GetUserPlanByID возвращает подписку по id либо nil.
	GetUserPlanByID(ctx context.Context, id string) (*models.UserPlan, error)
	// FindActiveUserPlan возвращает ACTIVE подписку пользователя либо nil.
	FindActiveUserPlan(ctx context.Context, userID int64) (*models.UserPlan, error)
	// ListUserPlans возвращает подписки пользователя, свежие сначала.
	ListUserPlans(ctx context.Context, userID int64) ([]*models.UserPlan, error)
	// ListUserPlansByStatuses возвращает подписки с указанными статусами.
	ListUserPlansByStatuses(ctx context.Context, statuses []models.PlanStatus) ([]*models.UserPlan, error)
	// ListAllUserPlans возвращает страницу всех подписок.
	ListAllUserPlans(ctx context.Context, limit, offset int) ([]*models.UserPlan, error)
	// RemoveUserPlan удаляет подписку, возвращает число удалённых строк.
	RemoveUserPlan(ctx context.Context, id string) (int64, error)
	// UpdateUserPlanStatuses меняет статусы подписок одной транзакцией.
	UpdateUserPlanStatuses(ctx context.Context, updates map[string]models.PlanStatus) error
}

// IdentityClient проверяет пользователей через auth-сервис.
type IdentityClient interface {
	ValidateRole(ctx context.Context, userID int64, role string) (bool, error)
}

// PlanProvider отдаёт тарифы локального каталога.
type PlanProvider interface {
	GetByID(ctx context.Context, id string) (*models.Plan, error)
}

// Service реализует жизненный цикл подписок.
type Service struct {
	repo     UserPlanRepository
	identity IdentityClient
	plans    PlanProvider
	usage    *usage.Simulator
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(repo UserPlanRepository, identity IdentityClient, plans PlanProvider, sim *usage.Simulator, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		identity: identity,
		plans:    plans,
		usage:    sim,
		log:      log,
		now:      time.Now,
	}
}

// Subscribe оформляет подписку пользователя на тариф.
//
// Пользователь обязан существовать с ролью USER, тариф - существовать в
// каталоге. Лимит ACTIVE+UPCOMING проверяется до обращения к каталогу,
// окончательно - в хранилище под блокировкой при вставке. При наличии
// действующей подписки новая начинается с даты её окончания и получает
// статус UPCOMING, иначе стартует немедленно как ACTIVE. Дата окончания
// = старт + срок тарифа в днях.
func (s *Service) Subscribe(ctx context.Context, userID int64, planID string) (*models.UserPlan, error) {
	const op = "services.userplan.Subscribe"

	ok, err := s.identity.ValidateRole(ctx, userID, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return nil, errs.NotFound("user", "id", userID)
	}

	existing, err := s.repo.ListUserPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	concurrent := 0
	for _, up := range existing {
		if up.Status == models.StatusActive || up.Status == models.StatusUpcoming {
			concurrent++
		}
	}
	if concurrent >= MaxConcurrentPlans {
		return nil, errs.InvalidState(fmt.Sprintf("user cannot subscribe to more than %d plans", MaxConcurrentPlans))
	}

	plan, err := s.plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	startDate := now
	status := models.StatusActive
	active, err := s.repo.FindActiveUserPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if active != nil {
		startDate = active.EndDate
		status = models.StatusUpcoming
	}
	endDate := startDate.AddDate(0, 0, plan.DurationDays)

	up := models.UserPlan{
		UserID:    userID,
		PlanID:    planID,
		StartDate: startDate,
		EndDate:   endDate,
		Status:    status,
	}
	id, err := s.repo.CreateUserPlanWithLimit(ctx, up, MaxConcurrentPlans)
	if err != nil {
		if errs.IsInvalidState(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	up.ID = id

	s.log.Info("subscribed user to plan",
		slog.Int64("user_id", userID),
		slog.String("plan_id", planID),
		slog.String("status", string(status)))
	return &up, nil
}

// Cancel отменяет подписку. Отменить можно только UPCOMING подписку,
// и только её владельцу; запись удаляется.
func (s *Service) Cancel(ctx context.Context, userID int64, userPlanID string) error {
	const op = "services.userplan.Cancel"

	up, err := s.repo.GetUserPlanByID(ctx, userPlanID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if up == nil || up.UserID != userID {
		return errs.NotFound("subscription", "id", userPlanID)
	}
	if up.Status != models.StatusUpcoming {
		return errs.InvalidState("only upcoming subscriptions can be cancelled")
	}

	if _, err := s.repo.RemoveUserPlan(ctx, userPlanID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("cancelled upcoming subscription", slog.String("id", userPlanID))
	return nil
}

// History возвращает подписки пользователя вместе с данными тарифов,
// свежие сначала.
func (s *Service) History(ctx context.Context, userID int64) ([]models.UserPlanView, error) {
	const op = "services.userplan.History"

	items, err := s.repo.ListUserPlans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.UserPlanView, 0, len(items))
	for _, up := range items {
		view := models.UserPlanView{
			ID:        up.ID,
			UserID:    up.UserID,
			PlanID:    up.PlanID,
			StartDate: up.StartDate,
			EndDate:   up.EndDate,
			Status:    up.Status,
		}
		if plan, err := s.plans.GetByID(ctx, up.PlanID); err == nil {
			view.PlanName = plan.Name
			view.Price = plan.Price
		}
		result = append(result, view)
	}
	return result, nil
}

// Active возвращает действующую подписку пользователя.
func (s *Service) Active(ctx context.Context, userID int64) (*models.UserPlan, error) {
	const op = "services.userplan.Active"

	up, err := s.repo.FindActiveUserPlan(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if up == nil {
		return nil, errs.NotFound("active subscription", "user_id", userID)
	}
	return up, nil
}

// Usage возвращает снимок потребления по действующей подписке.
func (s *Service) Usage(ctx context.Context, userID int64) (*models.PlanUsage, error) {
	up, err := s.Active(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plans.GetByID(ctx, up.PlanID)
	if err != nil {
		return nil, err
	}
	snapshot := s.usage.Snapshot(plan, up, s.now())
	return &snapshot, nil
}

// ListAll возвращает страницу всех подписок для админки.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.UserPlan, error) {
	const op = "services.userplan.ListAll"
	items, err := s.repo.ListAllUserPlans(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// SweepStatuses переводит статусы подписок по состоянию на момент now:
// ACTIVE с датой окончания строго раньше now становится EXPIRED, после
// чего UPCOMING с датой старта строго раньше now становится ACTIVE.
// Обе границы строгие: подписка, заканчивающаяся ровно в now, ещё
// действует, а стартующая ровно в now активируется следующим проходом.
// Повторный запуск с тем же now ничего не меняет.
func (s *Service) SweepStatuses(ctx context.Context, now time.Time) (int, error) {
	const op = "services.userplan.SweepStatuses"

	items, err := s.repo.ListUserPlansByStatuses(ctx,
		[]models.PlanStatus{models.StatusActive, models.StatusUpcoming})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	updates := make(map[string]models.PlanStatus)
	for _, up := range items {
		if up.Status == models.StatusActive && up.EndDate.Before(now) {
			updates[up.ID] = models.StatusExpired
		}
	}
	for _, up := range items {
		if up.Status != models.StatusUpcoming {
			continue
		}
		if !up.StartDate.Before(now) {
			continue
		}
		// UPCOMING активируется, только если его окно уже наступило,
		// а сам он ещё не истёк.
		if up.EndDate.Before(now) {
			updates[up.ID] = models.StatusExpired
			continue
		}
		updates[up.ID] = models.StatusActive
	}

	if len(updates) == 0 {
		return 0, nil
	}
	if err := s.repo.UpdateUserPlanStatuses(ctx, updates); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("swept subscription statuses", slog.Int("updated", len(updates)))
	return len(updates), nil
}
