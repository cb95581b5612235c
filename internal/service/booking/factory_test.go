package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/repository"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByPaymentID(ctx context.Context, paymentID int64) (*domain.Booking, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Insert(ctx context.Context, tx repository.Tx, b *domain.Booking) (bool, error) {
	args := m.Called(ctx, tx, b)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) EventCapacity(ctx context.Context, tx repository.Tx, eventID int64) (int, int, error) {
	args := m.Called(ctx, tx, eventID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockBookingRepository) AddAttendees(ctx context.Context, tx repository.Tx, eventID, userID int64, quantity int) error {
	args := m.Called(ctx, tx, eventID, userID, quantity)
	return args.Error(0)
}

func (m *MockBookingRepository) PackageForUpdate(ctx context.Context, tx repository.Tx, packageID int64) (*domain.Package, error) {
	args := m.Called(ctx, tx, packageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Package), args.Error(1)
}

func (m *MockBookingRepository) IncrementPackageBookings(ctx context.Context, tx repository.Tx, packageID int64, quantity int) error {
	args := m.Called(ctx, tx, packageID, quantity)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateStatus(ctx context.Context, tx repository.Tx, paymentID int64, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, tx, paymentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestFactory() (*Factory, *MockBookingRepository) {
	repo := &MockBookingRepository{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewFactory(repo, log), repo
}

func completedPayment() *domain.Payment {
	return &domain.Payment{
		ID:            1,
		TransactionID: "tran-1",
		UserID:        7,
		EventID:       42,
		Quantity:      2,
		AmountCents:   100000,
		Currency:      "USD",
		Status:        domain.PaymentStatusCompleted,
	}
}

func TestFactory_CreateForPayment_Success(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(100, 10, nil).Once()
	repo.On("Insert", ctx, tx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.PaymentID == 1 && b.Quantity == 2 && b.Status == domain.BookingStatusConfirmed && !b.OverCapacity
	})).Return(true, nil).Once()
	repo.On("AddAttendees", ctx, tx, int64(42), int64(7), 2).Return(nil).Once()

	b, err := f.CreateForPayment(ctx, tx, payment)

	assert.NoError(t, err)
	assert.Equal(t, int64(100000), b.TotalCents)
	assert.False(t, b.OverCapacity)
	repo.AssertExpectations(t)
}

func TestFactory_CreateForPayment_WithPackage(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()
	pkgID := int64(5)
	payment.PackageID = &pkgID

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(100, 10, nil).Once()
	repo.On("PackageForUpdate", ctx, tx, pkgID).
		Return(&domain.Package{ID: 5, EventID: 42, MaxBookings: 10, BookingCount: 3}, nil).Once()
	repo.On("Insert", ctx, tx, mock.Anything).Return(true, nil).Once()
	repo.On("AddAttendees", ctx, tx, int64(42), int64(7), 2).Return(nil).Once()
	repo.On("IncrementPackageBookings", ctx, tx, pkgID, 2).Return(nil).Once()

	b, err := f.CreateForPayment(ctx, tx, payment)

	assert.NoError(t, err)
	assert.False(t, b.OverCapacity)
	repo.AssertExpectations(t)
}

// A second settlement attempt finds the booking already inserted: the
// existing row is returned and no inventory counter moves again.
func TestFactory_CreateForPayment_Idempotent(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(100, 10, nil).Once()
	repo.On("Insert", ctx, tx, mock.Anything).Return(false, nil).Once()

	_, err := f.CreateForPayment(ctx, tx, payment)

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "AddAttendees", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "IncrementPackageBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// The event sold out between session init and settlement. The paid booking
// is still created, flagged for operator reconciliation.
func TestFactory_CreateForPayment_OverCapacityFlagged(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(10, 9, nil).Once()
	repo.On("Insert", ctx, tx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.OverCapacity
	})).Return(true, nil).Once()
	repo.On("AddAttendees", ctx, tx, int64(42), int64(7), 2).Return(nil).Once()

	b, err := f.CreateForPayment(ctx, tx, payment)

	assert.NoError(t, err)
	assert.True(t, b.OverCapacity)
}

func TestFactory_CreateForPayment_PackageQuotaExceededFlagged(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()
	pkgID := int64(5)
	payment.PackageID = &pkgID

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(100, 10, nil).Once()
	repo.On("PackageForUpdate", ctx, tx, pkgID).
		Return(&domain.Package{ID: 5, EventID: 42, MaxBookings: 10, BookingCount: 9}, nil).Once()
	repo.On("Insert", ctx, tx, mock.Anything).Return(true, nil).Once()
	repo.On("AddAttendees", ctx, tx, int64(42), int64(7), 2).Return(nil).Once()
	repo.On("IncrementPackageBookings", ctx, tx, pkgID, 2).Return(nil).Once()

	b, err := f.CreateForPayment(ctx, tx, payment)

	assert.NoError(t, err)
	assert.True(t, b.OverCapacity)
}

func TestFactory_CreateForPayment_InsertError(t *testing.T) {
	f, repo := newTestFactory()
	ctx := context.Background()
	tx := &MockTx{}
	payment := completedPayment()

	repo.On("EventCapacity", ctx, tx, int64(42)).Return(100, 10, nil).Once()
	repo.On("Insert", ctx, tx, mock.Anything).Return(false, errors.New("connection reset")).Once()

	_, err := f.CreateForPayment(ctx, tx, payment)

	assert.Error(t, err)
	repo.AssertNotCalled(t, "AddAttendees", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
