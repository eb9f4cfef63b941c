package userplan

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/http/middlewarectx"
	"github.com/futurewave/telecom-backend/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Subscribe(ctx context.Context, userID int64, planID string) (*models.UserPlan, error) {
	args := m.Called(ctx, userID, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPlan), args.Error(1)
}
func (m *ServiceMock) Cancel(ctx context.Context, userID int64, userPlanID string) error {
	return m.Called(ctx, userID, userPlanID).Error(0)
}
func (m *ServiceMock) History(ctx context.Context, userID int64) ([]models.UserPlanView, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserPlanView), args.Error(1)
}
func (m *ServiceMock) Active(ctx context.Context, userID int64) (*models.UserPlan, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserPlan), args.Error(1)
}
func (m *ServiceMock) Usage(ctx context.Context, userID int64) (*models.PlanUsage, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlanUsage), args.Error(1)
}
func (m *ServiceMock) ListAll(ctx context.Context, limit, offset int) ([]*models.UserPlan, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserPlan), args.Error(1)
}
func (m *ServiceMock) SweepStatuses(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const testPlanID = "6c1a2f6e-5a6f-4a06-9c5b-3f6a43a1f001"

// withIdentity кладёт identity-контекст так же, как Authenticate middleware.
func withIdentity(r *http.Request, userID string) *http.Request {
	ctx := context.WithValue(r.Context(), middlewarectx.UserID, userID)
	ctx = context.WithValue(ctx, middlewarectx.Roles, []string{"USER"})
	return r.WithContext(ctx)
}

func newRouter(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/user-plans/subscribe", h.Subscribe)
	r.Post("/user-plans/{subscriptionId}/cancel", h.Cancel)
	r.Get("/user-plans/user/{userId}/history", h.History)
	return r
}

func TestSubscribe(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		setupMocks func(s *ServiceMock)
		wantStatus int
		wantInBody string
	}{
		{
			name:   "success",
			body:   `{"plan_id":"` + testPlanID + `"}`,
			userID: "1",
			setupMocks: func(s *ServiceMock) {
				s.On("Subscribe", mock.Anything, int64(1), testPlanID).
					Return(&models.UserPlan{ID: "sub-1", Status: models.StatusActive}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantInBody: `"status":"OK"`,
		},
		{
			name:       "no identity context",
			body:       `{"plan_id":"` + testPlanID + `"}`,
			userID:     "",
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed body",
			body:       `{"plan_id":`,
			userID:     "1",
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantInBody: "invalid request body",
		},
		{
			name:       "plan id is not a uuid",
			body:       `{"plan_id":"smart-30"}`,
			userID:     "1",
			setupMocks: func(s *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "plan limit reached",
			body:   `{"plan_id":"` + testPlanID + `"}`,
			userID: "1",
			setupMocks: func(s *ServiceMock) {
				s.On("Subscribe", mock.Anything, int64(1), testPlanID).
					Return(nil, errs.InvalidState("user cannot subscribe to more than 2 plans")).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantInBody: "user cannot subscribe to more than 2 plans",
		},
		{
			name:   "unknown plan",
			body:   `{"plan_id":"` + testPlanID + `"}`,
			userID: "1",
			setupMocks: func(s *ServiceMock) {
				s.On("Subscribe", mock.Anything, int64(1), testPlanID).
					Return(nil, errs.NotFound("plan", "id", testPlanID)).Once()
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(ServiceMock)
			tt.setupMocks(service)
			router := newRouter(New(newNoopLogger(), service))

			r := httptest.NewRequest(http.MethodPost, "/user-plans/subscribe", bytes.NewBufferString(tt.body))
			if tt.userID != "" {
				r = withIdentity(r, tt.userID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantInBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantInBody)
			}
			service.AssertExpectations(t)
		})
	}
}

func TestCancel(t *testing.T) {
	t.Run("upcoming cancelled", func(t *testing.T) {
		service := new(ServiceMock)
		service.On("Cancel", mock.Anything, int64(1), "sub-2").Return(nil).Once()
		router := newRouter(New(newNoopLogger(), service))

		r := withIdentity(httptest.NewRequest(http.MethodPost, "/user-plans/sub-2/cancel", nil), "1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "subscription cancelled")
		service.AssertExpectations(t)
	})

	t.Run("active subscription rejected", func(t *testing.T) {
		service := new(ServiceMock)
		service.On("Cancel", mock.Anything, int64(1), "sub-1").
			Return(errs.InvalidState("only upcoming subscriptions can be cancelled")).Once()
		router := newRouter(New(newNoopLogger(), service))

		r := withIdentity(httptest.NewRequest(http.MethodPost, "/user-plans/sub-1/cancel", nil), "1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "only upcoming subscriptions can be cancelled")
	})
}

func TestHistory(t *testing.T) {
	service := new(ServiceMock)
	service.On("History", mock.Anything, int64(1)).Return([]models.UserPlanView{
		{ID: "sub-2", PlanName: "Smart 30", Status: models.StatusUpcoming},
		{ID: "sub-1", PlanName: "Base 10", Status: models.StatusActive},
	}, nil).Once()
	router := newRouter(New(newNoopLogger(), service))

	r := httptest.NewRequest(http.MethodGet, "/user-plans/user/1/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string `json:"status"`
		Data   struct {
			Count         int               `json:"count"`
			Subscriptions []json.RawMessage `json:"subscriptions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "OK", body.Status)
	assert.Equal(t, 2, body.Data.Count)
	assert.Len(t, body.Data.Subscriptions, 2)
}
