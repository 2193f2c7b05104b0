package application

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-transit-booking/internal/infrastructure/redis"
)

// === テスト用モック実装 ===

// MockTxManager は transaction.Manager のモック
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx は transaction.Tx のモック
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockJourneyRepository は journey.Repository のモック
type MockJourneyRepository struct {
	mock.Mock
}

func (m *MockJourneyRepository) Create(ctx context.Context, j *journey.Journey) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJourneyRepository) GetByID(ctx context.Context, id string) (*journey.Journey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journey.Journey), args.Error(1)
}

func (m *MockJourneyRepository) List(ctx context.Context, filter journey.ListFilter) ([]*journey.Journey, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*journey.Journey), args.Error(1)
}

func (m *MockJourneyRepository) Update(ctx context.Context, j *journey.Journey) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJourneyRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJourneyRepository) ReserveCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error {
	args := m.Called(ctx, tx, journeyID, count)
	return args.Error(0)
}

func (m *MockJourneyRepository) ReleaseCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error {
	args := m.Called(ctx, tx, journeyID, count)
	return args.Error(0)
}

func (m *MockJourneyRepository) FindAvailabilityViolations(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockSeatRepository は seat.Repository のモック
type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	args := m.Called(ctx, seats)
	return args.Error(0)
}

func (m *MockSeatRepository) GetByJourneyID(ctx context.Context, journeyID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, journeyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*seat.Seat), args.Error(1)
}

func (m *MockSeatRepository) Allocate(ctx context.Context, tx transaction.Tx, journeyID string, seatNumbers []string, bookingID string) error {
	args := m.Called(ctx, tx, journeyID, seatNumbers, bookingID)
	return args.Error(0)
}

func (m *MockSeatRepository) Release(ctx context.Context, tx transaction.Tx, bookingID string) ([]string, error) {
	args := m.Called(ctx, tx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSeatRepository) CountAvailableByJourneyID(ctx context.Context, journeyID string) (int, error) {
	args := m.Called(ctx, journeyID)
	return args.Int(0), args.Error(1)
}

// MockBookingRepository は booking.Repository のモック
type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	args := m.Called(ctx, tx, b)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, b *booking.Booking) (bool, error) {
	args := m.Called(ctx, tx, b)
	return args.Bool(0), args.Error(1)
}

// MockPaymentRepository は payment.Repository のモック
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*payment.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*payment.Payment, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Payment), args.Error(1)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, p *payment.Payment) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

// MockGateway は payment.Gateway のモック
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Charge(ctx context.Context, amount int, method string, details map[string]any) (payment.ChargeResult, error) {
	args := m.Called(ctx, amount, method, details)
	return args.Get(0).(payment.ChargeResult), args.Error(1)
}

// MockLockManager は redisinfra.LockManagerInterface のモック
type MockLockManager struct {
	mock.Mock
}

func (m *MockLockManager) AcquireLock(ctx context.Context, key string, ttl time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

func (m *MockLockManager) AcquireLockWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (redisinfra.Lock, error) {
	args := m.Called(ctx, key, ttl, maxRetries, retryDelay)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(redisinfra.Lock), args.Error(1)
}

// MockLock は redisinfra.Lock のモック
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLock) Extend(ctx context.Context, ttl time.Duration) error {
	args := m.Called(ctx, ttl)
	return args.Error(0)
}

// MockAvailabilityCache は redisinfra.AvailabilityCacheInterface のモック
type MockAvailabilityCache struct {
	mock.Mock
}

func (m *MockAvailabilityCache) GetAvailableSeats(ctx context.Context, journeyID string) (int, error) {
	args := m.Called(ctx, journeyID)
	return args.Int(0), args.Error(1)
}

func (m *MockAvailabilityCache) SetAvailableSeats(ctx context.Context, journeyID string, count int, ttl time.Duration) error {
	args := m.Called(ctx, journeyID, count, ttl)
	return args.Error(0)
}

func (m *MockAvailabilityCache) Invalidate(ctx context.Context, journeyID string) error {
	args := m.Called(ctx, journeyID)
	return args.Error(0)
}
