package support

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateTicket(ctx context.Context, ticket models.Ticket) (int64, error) {
	args := m.Called(ctx, ticket)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ticket), args.Error(1)
}
func (m *RepoMock) AssignTicket(ctx context.Context, id, employeeID int64) (int64, error) {
	args := m.Called(ctx, id, employeeID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) UpdateTicketStatus(ctx context.Context, id int64, status models.TicketStatus) (int64, error) {
	args := m.Called(ctx, id, status)
	return args.Get(0).(int64), args.Error(1)
}
func (m *RepoMock) ListTicketsByUser(ctx context.Context, userID int64) ([]*models.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}
func (m *RepoMock) ListTicketsByEmployee(ctx context.Context, employeeID int64) ([]*models.Ticket, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}
func (m *RepoMock) ListAllTickets(ctx context.Context) ([]*models.Ticket, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Ticket), args.Error(1)
}

type IdentityMock struct{ mock.Mock }

func (m *IdentityMock) ValidateRole(ctx context.Context, userID int64, role string) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptrInt64(v int64) *int64 { return &v }

func TestCreate(t *testing.T) {
	t.Run("new ticket", func(t *testing.T) {
		repo := new(RepoMock)
		identity := new(IdentityMock)

		identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
		repo.On("CreateTicket", mock.Anything, mock.MatchedBy(func(tk models.Ticket) bool {
			return tk.Status == models.TicketNew && tk.UserID == 1 && tk.Priority == "HIGH"
		})).Return(int64(10), nil).Once()

		s := New(repo, identity, newNoopLogger())
		ticket, err := s.Create(context.Background(), 1, "No signal", "No coverage at home", "HIGH")

		require.NoError(t, err)
		assert.Equal(t, int64(10), ticket.ID)
		assert.Equal(t, models.TicketNew, ticket.Status)
	})

	t.Run("author without the USER role", func(t *testing.T) {
		repo := new(RepoMock)
		identity := new(IdentityMock)
		identity.On("ValidateRole", mock.Anything, int64(99), models.RoleUser).Return(false, nil).Once()

		s := New(repo, identity, newNoopLogger())
		_, err := s.Create(context.Background(), 99, "No signal", "", "LOW")

		assert.True(t, errs.IsNotFound(err))
		repo.AssertNotCalled(t, "CreateTicket", mock.Anything, mock.Anything)
	})
}

func TestAssign(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, i *IdentityMock)
		wantErr    func(t *testing.T, err error)
	}{
		{
			name: "new ticket assigned",
			setupMocks: func(r *RepoMock, i *IdentityMock) {
				r.On("GetTicketByID", mock.Anything, int64(10)).
					Return(&models.Ticket{ID: 10, Status: models.TicketNew}, nil).Once()
				i.On("ValidateRole", mock.Anything, int64(3), models.RoleEmployee).Return(true, nil).Once()
				r.On("AssignTicket", mock.Anything, int64(10), int64(3)).Return(int64(1), nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "in progress ticket reassigned",
			setupMocks: func(r *RepoMock, i *IdentityMock) {
				r.On("GetTicketByID", mock.Anything, int64(10)).
					Return(&models.Ticket{ID: 10, Status: models.TicketInProgress, EmployeeID: ptrInt64(2)}, nil).Once()
				i.On("ValidateRole", mock.Anything, int64(3), models.RoleEmployee).Return(true, nil).Once()
				r.On("AssignTicket", mock.Anything, int64(10), int64(3)).Return(int64(1), nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "assignee is not an employee",
			setupMocks: func(r *RepoMock, i *IdentityMock) {
				r.On("GetTicketByID", mock.Anything, int64(10)).
					Return(&models.Ticket{ID: 10, Status: models.TicketNew}, nil).Once()
				i.On("ValidateRole", mock.Anything, int64(3), models.RoleEmployee).Return(false, nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errs.IsNotFound(err))
			},
		},
		{
			name: "missing ticket",
			setupMocks: func(r *RepoMock, i *IdentityMock) {
				r.On("GetTicketByID", mock.Anything, int64(10)).Return(nil, nil).Once()
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, errs.IsNotFound(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			identity := new(IdentityMock)
			tt.setupMocks(repo, identity)

			s := New(repo, identity, newNoopLogger())
			err := s.Assign(context.Background(), 10, 3)

			tt.wantErr(t, err)
			repo.AssertExpectations(t)
			identity.AssertExpectations(t)
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	// Переходы статусов не ограничиваются, смена допустима из любого
	// состояния в любое.
	tests := []struct {
		name    string
		current models.TicketStatus
		next    models.TicketStatus
	}{
		{name: "assigned to in progress", current: models.TicketAssigned, next: models.TicketInProgress},
		{name: "in progress to resolved", current: models.TicketInProgress, next: models.TicketResolved},
		{name: "new straight to closed", current: models.TicketNew, next: models.TicketClosed},
		{name: "closed reopened", current: models.TicketClosed, next: models.TicketInProgress},
		{name: "resolved back to in progress", current: models.TicketResolved, next: models.TicketInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("GetTicketByID", mock.Anything, int64(10)).
				Return(&models.Ticket{ID: 10, Status: tt.current}, nil).Once()
			repo.On("UpdateTicketStatus", mock.Anything, int64(10), tt.next).Return(int64(1), nil).Once()

			s := New(repo, new(IdentityMock), newNoopLogger())
			err := s.UpdateStatus(context.Background(), 10, tt.next)

			assert.NoError(t, err)
			repo.AssertExpectations(t)
		})
	}

	t.Run("missing ticket", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetTicketByID", mock.Anything, int64(99)).Return(nil, nil).Once()

		s := New(repo, new(IdentityMock), newNoopLogger())
		err := s.UpdateStatus(context.Background(), 99, models.TicketClosed)

		assert.True(t, errs.IsNotFound(err))
		repo.AssertNotCalled(t, "UpdateTicketStatus", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestByID_Missing(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetTicketByID", mock.Anything, int64(99)).Return(nil, nil).Once()

	s := New(repo, new(IdentityMock), newNoopLogger())
	_, err := s.ByID(context.Background(), 99)

	assert.True(t, errs.IsNotFound(err))
}

func TestListByUser(t *testing.T) {
	t.Run("tickets of an existing user", func(t *testing.T) {
		items := []*models.Ticket{{ID: 10, Status: models.TicketNew, UserID: 1}}

		repo := new(RepoMock)
		identity := new(IdentityMock)
		identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
		repo.On("ListTicketsByUser", mock.Anything, int64(1)).Return(items, nil).Once()

		s := New(repo, identity, newNoopLogger())
		got, err := s.ListByUser(context.Background(), 1)

		require.NoError(t, err)
		assert.Equal(t, items, got)
	})

	t.Run("user without the USER role", func(t *testing.T) {
		repo := new(RepoMock)
		identity := new(IdentityMock)
		identity.On("ValidateRole", mock.Anything, int64(3), models.RoleUser).Return(false, nil).Once()

		s := New(repo, identity, newNoopLogger())
		_, err := s.ListByUser(context.Background(), 3)

		assert.True(t, errs.IsNotFound(err))
		repo.AssertNotCalled(t, "ListTicketsByUser", mock.Anything, mock.Anything)
	})
}

func TestListByEmployee(t *testing.T) {
	t.Run("tickets of an employee", func(t *testing.T) {
		items := []*models.Ticket{{ID: 10, Status: models.TicketAssigned}}

		repo := new(RepoMock)
		identity := new(IdentityMock)
		identity.On("ValidateRole", mock.Anything, int64(3), models.RoleEmployee).Return(true, nil).Once()
		repo.On("ListTicketsByEmployee", mock.Anything, int64(3)).Return(items, nil).Once()

		s := New(repo, identity, newNoopLogger())
		got, err := s.ListByEmployee(context.Background(), 3)

		require.NoError(t, err)
		assert.Equal(t, items, got)
	})

	t.Run("target is not an employee", func(t *testing.T) {
		repo := new(RepoMock)
		identity := new(IdentityMock)
		identity.On("ValidateRole", mock.Anything, int64(1), models.RoleEmployee).Return(false, nil).Once()

		s := New(repo, identity, newNoopLogger())
		_, err := s.ListByEmployee(context.Background(), 1)

		assert.True(t, errs.IsNotFound(err))
		repo.AssertNotCalled(t, "ListTicketsByEmployee", mock.Anything, mock.Anything)
	})
}
