package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/futurewave/telecom-backend/internal/errs"
	"github.com/futurewave/telecom-backend/internal/models"
	"github.com/futurewave/telecom-backend/internal/rabbitmq"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePayment(ctx context.Context, payment models.Payment) (string, error) {
	args := m.Called(ctx, payment)
	return args.String(0), args.Error(1)
}
func (m *RepoMock) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus) error {
	return m.Called(ctx, id, status).Error(0)
}
func (m *RepoMock) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}
func (m *RepoMock) ListPaymentsByUser(ctx context.Context, userID int64) ([]*models.Payment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

type IdentityMock struct{ mock.Mock }

func (m *IdentityMock) ValidateRole(ctx context.Context, userID int64, role string) (bool, error) {
	args := m.Called(ctx, userID, role)
	return args.Bool(0), args.Error(1)
}

type PlansMock struct{ mock.Mock }

func (m *PlansMock) ValidatePlan(ctx context.Context, planID string) (bool, error) {
	args := m.Called(ctx, planID)
	return args.Bool(0), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishMessage(exchange, routingKey string, message any) error {
	return m.Called(exchange, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const testPlanID = "6c1a2f6e-5a6f-4a06-9c5b-3f6a43a1f001"

var txidPattern = regexp.MustCompile(`^TXN\d{8}-`)

func TestProcess_Success(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)
	publisher := new(PublisherMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
	plans.On("ValidatePlan", mock.Anything, testPlanID).Return(true, nil).Once()
	repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
		return p.Status == models.PaymentPending && txidPattern.MatchString(p.TransactionID)
	})).Return("pay-1", nil).Once()
	repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentCompleted).Return(nil).Once()
	publisher.On("PublishMessage", rabbitmq.NotificationsExchange, rabbitmq.RoutingKeyReceipt,
		mock.MatchedBy(func(msg any) bool {
			receipt, ok := msg.(models.PaymentReceipt)
			return ok && receipt.Email == "user@example.com" && receipt.Amount == 299.0
		})).Return(nil).Once()

	s := New(repo, identity, plans, publisher, newNoopLogger())
	payment, err := s.Process(context.Background(), 1, testPlanID, 299.0, "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, "pay-1", payment.ID)
	assert.Equal(t, models.PaymentCompleted, payment.Status)
	assert.Regexp(t, txidPattern, payment.TransactionID)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestProcess_UnknownUser(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(99), models.RoleUser).Return(false, nil).Once()

	s := New(repo, identity, plans, nil, newNoopLogger())
	_, err := s.Process(context.Background(), 99, testPlanID, 299.0, "user@example.com")

	assert.True(t, errs.IsNotFound(err))
	repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	plans.AssertNotCalled(t, "ValidatePlan", mock.Anything, mock.Anything)
}

func TestProcess_PayerWithoutUserRole(t *testing.T) {
	// Существующий аккаунт без роли USER, например сотрудник, платить
	// за тариф не может.
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(3), models.RoleUser).Return(false, nil).Once()

	s := New(repo, identity, plans, nil, newNoopLogger())
	_, err := s.Process(context.Background(), 3, testPlanID, 299.0, "employee@futurewave.io")

	assert.True(t, errs.IsNotFound(err))
	repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
	identity.AssertExpectations(t)
}

func TestProcess_UnknownPlan(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
	plans.On("ValidatePlan", mock.Anything, testPlanID).Return(false, nil).Once()

	s := New(repo, identity, plans, nil, newNoopLogger())
	_, err := s.Process(context.Background(), 1, testPlanID, 299.0, "user@example.com")

	assert.True(t, errs.IsNotFound(err))
	repo.AssertNotCalled(t, "CreatePayment", mock.Anything, mock.Anything)
}

func TestProcess_DependencyUnavailable(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).
		Return(false, errs.Unavailable("auth-service", errors.New("connection refused"))).Once()

	s := New(repo, identity, plans, nil, newNoopLogger())
	_, err := s.Process(context.Background(), 1, testPlanID, 299.0, "user@example.com")

	require.Error(t, err)
	assert.True(t, errs.IsUnavailable(err))
	assert.False(t, errs.IsNotFound(err))
}

func TestProcess_PublishFailureIsNonFatal(t *testing.T) {
	repo := new(RepoMock)
	identity := new(IdentityMock)
	plans := new(PlansMock)
	publisher := new(PublisherMock)

	identity.On("ValidateRole", mock.Anything, int64(1), models.RoleUser).Return(true, nil).Once()
	plans.On("ValidatePlan", mock.Anything, testPlanID).Return(true, nil).Once()
	repo.On("CreatePayment", mock.Anything, mock.Anything).Return("pay-1", nil).Once()
	repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentCompleted).Return(nil).Once()
	publisher.On("PublishMessage", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("channel closed")).Once()

	s := New(repo, identity, plans, publisher, newNoopLogger())
	payment, err := s.Process(context.Background(), 1, testPlanID, 299.0, "user@example.com")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, payment.Status)
}

func TestByTransactionID(t *testing.T) {
	stored := &models.Payment{
		ID:            "pay-1",
		UserID:        1,
		TransactionID: "TXN20260828-aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee",
		Status:        models.PaymentCompleted,
	}

	repo := new(RepoMock)
	repo.On("GetPaymentByTransactionID", mock.Anything, stored.TransactionID).Return(stored, nil).Once()
	repo.On("GetPaymentByTransactionID", mock.Anything, "TXN00000000-missing").Return(nil, nil).Once()

	s := New(repo, new(IdentityMock), new(PlansMock), nil, newNoopLogger())

	payment, err := s.ByTransactionID(context.Background(), stored.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, stored, payment)

	_, err = s.ByTransactionID(context.Background(), "TXN00000000-missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestHistory(t *testing.T) {
	items := []*models.Payment{
		{ID: "pay-2", UserID: 1},
		{ID: "pay-1", UserID: 1},
	}

	repo := new(RepoMock)
	repo.On("ListPaymentsByUser", mock.Anything, int64(1)).Return(items, nil).Once()

	s := New(repo, new(IdentityMock), new(PlansMock), nil, newNoopLogger())
	got, err := s.History(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, items, got)
}
