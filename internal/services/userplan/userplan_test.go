package userplan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
	"github.com/futurewave/telecom-backend/internal/services/usage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateUserPlanWithLimit(ctx context.Context, up models.UserPlan, maxCount int) (string, error) {
	args := m.Called(ctx, up, maxCount)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) GetUserPlanByID(ctx context.Context, id string) (*models.UserPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPlan), args.Error(1)
}
func (m *RepoMock) FindActiveUserPlan(ctx context.Context, userID int64) (*models.UserPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPlan), args.Error(1)
}
func (m *RepoMock) ListUserPlans(ctx context.Context, userID int64) ([]*models.UserPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserPlan), args.Error(1)
}
func (m *RepoMock) ListUserPlansByStatuses(ctx context.Context, statuses []models.PlanStatus) ([]*models.UserPlan, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserPlan), args.Error(1)
}
func (m *RepoMock) ListAllUserPlans(ctx context.Context, limit, offset int) ([]*models.UserPlan, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserPlan), args.Error(1)
}
func (m *RepoMock) RemoveUserPlan(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) UpdateUserPlanStatuses(ctx context.Context, updates map[string]models.PlanStatus) error {
	return m.Called(ctx, updates).Error(0)
}

type IdentityMock struct{ mock.Mock }

func (m *IdentityMock) ValidateRole(ctx context.Context, userID int64, role string) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newService(repo *RepoMock, identity *IdentityMock, plans *PlansMock, now time.Time) *Service {
	s := New(repo, identity, plans, usage.NewWithSeed(1), newNoopLogger())
	s.now = func() time.Time { return now }
	return s
}

var testPlan = &models.Plan{
	ID:           "6c1a2f6e-5a6f-4a06-9c5b-3f6a43a1f001",
	Name:         "Smart 30",
	Price:        299,
	DurationDays: 30,
	DataLimitGB:  50,
	SMSLimit:     100,
	Active:       true,
}

func TestSubscribe_FirstPlanStartsActive(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
	repo.On("ListUserPlans", mock.Anything, int64(1)).Return([]*models.UserPlan{}, nil).Once()
	plans.On("GetByID", mock.Anything, testPlan.ID).Return(testPlan, nil).Once()
	repo.On("FindActiveUserPlan", mock.Anything, int64(1)).Return(nil, nil).Once()
	repo.On("CreateUserPlanWithLimit", mock.Anything, mock.MatchedBy(func(up models.UserPlan) bool {
		return up.Status == models.StatusActive &&
			up.StartDate.Equal(now) &&
			up.EndDate.Equal(now.AddDate(0, 0, 30))
	}), MaxConcurrentPlans).Return("sub-1", nil).Once()

	s := newService(repo, identity, plans, now)
	up, err := s.Subscribe(context.Background(), 1, testPlan.ID)

	require.NoError(t, err)
	assert.Equal(t, "sub-1", up.ID)
	assert.Equal(t, models.StatusActive, up.Status)
	repo.AssertExpectations(t)
	identity.AssertExpectations(t)
}

func TestSubscribe_SecondPlanQueuedAfterActive(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	activeEnd := now.AddDate(0, 0, 12)
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
	repo.On("ListUserPlans", mock.Anything, int64(1)).Return([]*models.UserPlan{
		{ID: "sub-1", UserID: 1, EndDate: activeEnd, Status: models.StatusActive},
	}, nil).Once()
	plans.On("GetByID", mock.Anything, testPlan.ID).Return(testPlan, nil).Once()
	repo.On("FindActiveUserPlan", mock.Anything, int64(1)).Return(&models.UserPlan{
		ID:      "sub-1",
		UserID:  1,
		EndDate: activeEnd,
		Status:  models.StatusActive,
	}, nil).Once()
	repo.On("CreateUserPlanWithLimit", mock.Anything, mock.MatchedBy(func(up models.UserPlan) bool {
		return up.Status == models.StatusUpcoming &&
			up.StartDate.Equal(activeEnd) &&
			up.EndDate.Equal(activeEnd.AddDate(0, 0, 30))
	}), MaxConcurrentPlans).Return("sub-2", nil).Once()

	s := newService(repo, identity, plans, now)
	up, err := s.Subscribe(context.Background(), 1, testPlan.ID)

	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, up.Status)
	repo.AssertExpectations(t)
}

func TestSubscribe_UnknownUser(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(99), models.RoleUser).Return(false, nil).Once()

	s := newService(repo, identity, plans, time.Now())
	_, err := s.Subscribe(context.Background(), 99, testPlan.ID)

	assert.True(t, errs.IsNotFound(err))
	repo.AssertNotCalled(t, "CreateUserPlanWithLimit", mock.Anything, mock.Anything, mock.Anything)
}

func TestSubscribe_AuthServiceUnreachable(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).
		Return(false, errs.Unavailable("auth-service", errors.New("connection refused"))).Once()

	s := newService(repo, identity, plans, time.Now())
	_, err := s.Subscribe(context.Background(), 1, testPlan.ID)

	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
	assert.False(t, errs.IsNotFound(err))
}

func TestSubscribe_LimitExceeded(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	t.Run("limit rejected before catalog lookup", func(t *testing.T) {
		// Лимит проверяется раньше каталога: пользователь с двумя
		// подписками получает InvalidState даже с несуществующим тарифом.
		repo := new(RepoMock)
		identity := new(IdentityMock)
		plans := new(PlansMock)

		identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
		repo.On("ListUserPlans", mock.Anything, int64(1)).Return([]*models.UserPlan{
			{ID: "sub-1", UserID: 1, Status: models.StatusActive},
			{ID: "sub-2", UserID: 1, Status: models.StatusUpcoming},
		}, nil).Once()

		s := newService(repo, identity, plans, now)
		_, err := s.Subscribe(context.Background(), 1, "no-such-plan")

		require.Error(t, err)
		assert.True(t, errs.IsInvalidState(err))
		assert.Equal(t, "user cannot subscribe to more than 2 plans", err.Error())
		plans.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "CreateUserPlanWithLimit", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired subscriptions do not count", func(t *testing.T) {
		// Истёкшие подписки в лимит не входят; гонку закрывает
		// транзакционная проверка при вставке, её ошибка уходит наружу
		// без обёртки.
		repo := new(RepoMock)
		identity := new(IdentityMock)
		plans := new(PlansMock)

		identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
		repo.On("ListUserPlans", mock.Anything, int64(1)).Return([]*models.UserPlan{
			{ID: "sub-0", UserID: 1, Status: models.StatusExpired},
			{ID: "sub-1", UserID: 1, EndDate: now.AddDate(0, 0, 10), Status: models.StatusActive},
		}, nil).Once()
		plans.On("GetByID", mock.Anything, testPlan.ID).Return(testPlan, nil).Once()
		repo.On("FindActiveUserPlan", mock.Anything, int64(1)).Return(&models.UserPlan{
			ID:      "sub-1",
			EndDate: now.AddDate(0, 0, 10),
			Status:  models.StatusActive,
		}, nil).Once()
		repo.On("CreateUserPlanWithLimit", mock.Anything, mock.Anything, MaxConcurrentPlans).
			Return("", errs.InvalidState("user cannot subscribe to more than 2 plans")).Once()

		s := newService(repo, identity, plans, now)
		_, err := s.Subscribe(context.Background(), 1, testPlan.ID)

		require.Error(t, err)
		assert.True(t, errs.IsInvalidState(err))
		assert.Equal(t, "user cannot subscribe to more than 2 plans", err.Error())
	})
}

func TestCancel(t *testing.T) {
	upcoming := &models.UserPlan{ID: "sub-2", UserID: 1, Status: models.StatusUpcoming}
	active := &models.UserPlan{ID: "sub-1", UserID: 1, Status: models.StatusActive}

	tests := []struct {
		name       string
		userID     int64
		setupMocks func(r *RepoMock)
		wantErr    func(t *testing.T, err error)
	}{
		{
			name:   "upcoming cancelled",
			userID: 1,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserPlanByID", mock.Anything, "sub-2").Return(upcoming, nil).Once()
				r.On("RemoveUserPlan", mock.Anything, "sub-2").Return(int64(1), nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name:   "active cannot be cancelled",
			userID: 1,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserPlanByID", mock.Anything, "sub-1").Return(active, nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errs.IsInvalidState(err))
				assert.Equal(t, "only upcoming subscriptions can be cancelled", err.Error())
			},
		},
		{
			name:   "missing subscription",
			userID: 1,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserPlanByID", mock.Anything, mock.Anything).Return(nil, nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errs.IsNotFound(err))
			},
		},
		{
			name:   "foreign subscription looks like missing",
			userID: 2,
			setupMocks: func(r *RepoMock) {
				r.On("GetUserPlanByID", mock.Anything, "sub-2").Return(upcoming, nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errs.IsNotFound(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			s := newService(repo, new(IdentityMock), new(PlansMock), time.Now())

			id := "sub-2"
			if tt.name == "active cannot be cancelled" {
				id = "sub-1"
			}
			err := s.Cancel(context.Background(), tt.userID, id)
			tt.wantErr(t, err)
			repo.AssertExpectations(t)
		})
	}
}

func TestSweepStatuses(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	expiredActive := &models.UserPlan{
		ID:      "sub-expired",
		Status:  models.StatusActive,
		EndDate: now.Add(-time.Hour),
	}
	// Заканчивается ровно в момент sweep-а: ещё действует.
	boundaryActive := &models.UserPlan{
		ID:      "sub-boundary",
		Status:  models.StatusActive,
		EndDate: now,
	}
	dueUpcoming := &models.UserPlan{
		ID:        "sub-upcoming",
		Status:    models.StatusUpcoming,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.AddDate(0, 0, 30),
	}
	// Стартует ровно в момент sweep-а: активируется следующим проходом.
	boundaryUpcoming := &models.UserPlan{
		ID:        "sub-start-boundary",
		Status:    models.StatusUpcoming,
		StartDate: now,
		EndDate:   now.AddDate(0, 0, 30),
	}
	futureUpcoming := &models.UserPlan{
		ID:        "sub-future",
		Status:    models.StatusUpcoming,
		StartDate: now.AddDate(0, 0, 5),
		EndDate:   now.AddDate(0, 0, 35),
	}

	repo := new(RepoMock)
	repo.On("ListUserPlansByStatuses", mock.Anything,
		[]models.PlanStatus{models.StatusActive, models.StatusUpcoming}).
		Return([]*models.UserPlan{expiredActive, boundaryActive, dueUpcoming, boundaryUpcoming, futureUpcoming}, nil).Once()
	repo.On("UpdateUserPlanStatuses", mock.Anything, map[string]models.PlanStatus{
		"sub-expired":  models.StatusExpired,
		"sub-upcoming": models.StatusActive,
	}).Return(nil).Once()

	s := newService(repo, new(IdentityMock), new(PlansMock), now)
	updated, err := s.SweepStatuses(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	repo.AssertExpectations(t)
}

func TestSweepStatuses_SecondRunIsNoop(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	// Состояние после первого прогона: EXPIRED уже не выбирается,
	// бывший UPCOMING стал ACTIVE и ещё не истёк.
	repo := new(RepoMock)
	repo.On("ListUserPlansByStatuses", mock.Anything, mock.Anything).
		Return([]*models.UserPlan{
			{ID: "sub-boundary", Status: models.StatusActive, EndDate: now},
			{ID: "sub-upcoming", Status: models.StatusActive, StartDate: now.Add(-time.Hour), EndDate: now.AddDate(0, 0, 30)},
		}, nil).Once()

	s := newService(repo, new(IdentityMock), new(PlansMock), now)
	updated, err := s.SweepStatuses(context.Background(), now)

	require.NoError(t, err)
	assert.Zero(t, updated)
	repo.AssertNotCalled(t, "UpdateUserPlanStatuses", mock.Anything, mock.Anything)
}

func TestSweepStatuses_StaleUpcomingExpires(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	// Подписка, чьё окно целиком прошло, пока сервис лежал.
	repo := new(RepoMock)
	repo.On("ListUserPlansByStatuses", mock.Anything, mock.Anything).
		Return([]*models.UserPlan{
			{ID: "sub-stale", Status: models.StatusUpcoming, StartDate: now.AddDate(0, 0, -40), EndDate: now.AddDate(0, 0, -10)},
		}, nil).Once()
	repo.On("UpdateUserPlanStatuses", mock.Anything, map[string]models.PlanStatus{
		"sub-stale": models.StatusExpired,
	}).Return(nil).Once()

	s := newService(repo, new(IdentityMock), new(PlansMock), now)
	updated, err := s.SweepStatuses(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 1, updated)
	repo.AssertExpectations(t)
}

func TestActive_NotFoundWhenNone(t *testing.T) {
	repo := new(RepoMock)
	repo.On("FindActiveUserPlan", mock.Anything, int64(5)).Return(nil, nil).Once()

	s := newService(repo, new(IdentityMock), new(PlansMock), time.Now())
	_, err := s.Active(context.Background(), 5)

	assert.True(t, errs.IsNotFound(err))
}

func TestUsage_UsesActivePlan(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	active := &models.UserPlan{
		ID:      "sub-1",
		UserID:  1,
		PlanID:  testPlan.ID,
		EndDate: now.AddDate(0, 0, 10),
		Status:  models.StatusActive,
	}

	repo := new(RepoMock)
	plans := new(PlansMock)
	repo.On("FindActiveUserPlan", mock.Anything, int64(1)).Return(active, nil).Once()
	plans.On("GetByID", mock.Anything, testPlan.ID).Return(testPlan, nil).Once()

	s := newService(repo, new(IdentityMock), plans, now)
	snapshot, err := s.Usage(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 10, snapshot.RemainingDays)
	assert.Equal(t, testPlan.DataLimitGB, snapshot.DataLimitGB)
	assert.Equal(t, string(models.StatusActive), snapshot.Status)
}
