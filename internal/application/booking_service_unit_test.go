package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
	redisinfra "github.com/sanosuguru/go-transit-booking/internal/infrastructure/redis"
)

type bookingServiceMocks struct {
	txManager   *MockTxManager
	tx          *MockTx
	bookingRepo *MockBookingRepository
	seatRepo    *MockSeatRepository
	journeyRepo *MockJourneyRepository
	lockManager *MockLockManager
	lock        *MockLock
	cache       *MockAvailabilityCache
}

func newBookingServiceForTest() (*BookingService, *bookingServiceMocks) {
	m := &bookingServiceMocks{
		txManager:   new(MockTxManager),
		tx:          new(MockTx),
		bookingRepo: new(MockBookingRepository),
		seatRepo:    new(MockSeatRepository),
		journeyRepo: new(MockJourneyRepository),
		lockManager: new(MockLockManager),
		lock:        new(MockLock),
		cache:       new(MockAvailabilityCache),
	}
	svc := NewBookingService(m.txManager, m.bookingRepo, m.seatRepo, m.journeyRepo, m.lockManager, m.cache, nil)
	return svc, m
}

func upcomingJourney() *journey.Journey {
	departure := time.Now().Add(24 * time.Hour)
	j := journey.NewJourney("東京", "大阪", departure, departure.Add(3*time.Hour), journey.TransportTrain, "のぞみ", "N700-1", 100, 13500)
	j.ID = "journey-123"
	return j
}

func (m *bookingServiceMocks) expectLockAcquired() {
	m.lockManager.On("AcquireLockWithRetry", mock.Anything, "journey:journey-123", journeyLockTTL, lockMaxRetries, lockRetryDelay).
		Return(m.lock, nil)
	m.lock.On("Release", mock.Anything).Return(nil)
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("座席指定付きで予約を作成できる", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 2).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).Return(nil)
		m.seatRepo.On("Allocate", ctx, m.tx, "journey-123", []string{"A1", "A2"}, mock.AnythingOfType("string")).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.tx.On("Rollback").Return(nil)
		m.cache.On("Invalidate", ctx, "journey-123").Return(nil)

		b, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:      "user-123",
			JourneyID:   "journey-123",
			SeatCount:   2,
			SeatNumbers: []string{"A1", "A2"},
		})

		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		assert.Equal(t, 27000, b.TotalPrice, "合計金額は予約時の単価で凍結される")
		assert.True(t, booking.ValidReference(b.Reference))

		m.journeyRepo.AssertExpectations(t)
		m.bookingRepo.AssertExpectations(t)
		m.seatRepo.AssertExpectations(t)
		m.tx.AssertExpectations(t)
	})

	t.Run("席数のみの予約では座席割り当てを行わない", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 3).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.tx.On("Rollback").Return(nil)
		m.cache.On("Invalidate", ctx, "journey-123").Return(nil)

		b, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 3,
		})

		require.NoError(t, err)
		assert.False(t, b.HasSeatAssignment())
		m.seatRepo.AssertNotCalled(t, "Allocate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ロックとキャッシュなしでも予約を作成できる", func(t *testing.T) {
		// Redisが落ちている場合の縮退運転。
		// 空席数の整合性はReserveCapacityの条件付きUPDATEだけで保たれる
		m := &bookingServiceMocks{
			txManager:   new(MockTxManager),
			tx:          new(MockTx),
			bookingRepo: new(MockBookingRepository),
			seatRepo:    new(MockSeatRepository),
			journeyRepo: new(MockJourneyRepository),
		}
		svc := NewBookingService(m.txManager, m.bookingRepo, m.seatRepo, m.journeyRepo, nil, nil, nil)

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 1).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.tx.On("Rollback").Return(nil)

		b, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 1,
		})

		require.NoError(t, err)
		assert.Equal(t, booking.StatusConfirmed, b.Status)
		m.tx.AssertExpectations(t)
	})

	t.Run("席数0はバリデーションエラー", func(t *testing.T) {
		svc, _ := newBookingServiceForTest()

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 0,
		})

		assert.ErrorIs(t, err, booking.ErrInvalidSeatCount)
	})

	t.Run("座席番号数と席数の不一致はエラー", func(t *testing.T) {
		svc, _ := newBookingServiceForTest()

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:      "user-123",
			JourneyID:   "journey-123",
			SeatCount:   3,
			SeatNumbers: []string{"A1"},
		})

		assert.ErrorIs(t, err, booking.ErrSeatCountMismatch)
	})

	t.Run("出発済みの運行便は予約できない", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		departed := upcomingJourney()
		departed.DepartureAt = time.Now().Add(-time.Hour)
		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(departed, nil)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 1,
		})

		assert.ErrorIs(t, err, journey.ErrJourneyDeparted)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("空席不足ではトランザクションが巻き戻る", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 5).Return(journey.ErrInsufficientSeats)
		m.tx.On("Rollback").Return(nil)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 5,
		})

		assert.ErrorIs(t, err, journey.ErrInsufficientSeats)
		m.tx.AssertNotCalled(t, "Commit")
		m.bookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("座席割り当て失敗で空席数の確保も巻き戻る", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 1).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).Return(nil)
		m.seatRepo.On("Allocate", ctx, m.tx, "journey-123", []string{"A1"}, mock.AnythingOfType("string")).
			Return(&seat.UnavailableError{SeatNumbers: []string{"A1"}})
		m.tx.On("Rollback").Return(nil)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:      "user-123",
			JourneyID:   "journey-123",
			SeatCount:   1,
			SeatNumbers: []string{"A1"},
		})

		assert.ErrorIs(t, err, seat.ErrSeatUnavailable)
		m.tx.AssertNotCalled(t, "Commit")
	})

	t.Run("予約番号の衝突時は新しい番号で再試行する", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 1).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).
			Return(booking.ErrDuplicateReference).Once()
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).
			Return(nil).Once()
		m.tx.On("Commit").Return(nil)
		m.tx.On("Rollback").Return(nil)
		m.cache.On("Invalidate", ctx, "journey-123").Return(nil)

		b, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 1,
		})

		require.NoError(t, err)
		assert.True(t, booking.ValidReference(b.Reference))
		m.bookingRepo.AssertNumberOfCalls(t, "Create", 2)
	})

	t.Run("予約番号の衝突が続く場合は打ち切る", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.journeyRepo.On("ReserveCapacity", ctx, m.tx, "journey-123", 1).Return(nil)
		m.bookingRepo.On("Create", ctx, m.tx, mock.AnythingOfType("*booking.Booking")).
			Return(booking.ErrDuplicateReference)
		m.tx.On("Rollback").Return(nil)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 1,
		})

		assert.ErrorIs(t, err, booking.ErrDuplicateReference)
		m.bookingRepo.AssertNumberOfCalls(t, "Create", maxReferenceTries)
	})

	t.Run("ロック取得失敗はErrJourneyBusy", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		m.lockManager.On("AcquireLockWithRetry", mock.Anything, "journey:journey-123", journeyLockTTL, lockMaxRetries, lockRetryDelay).
			Return(nil, redisinfra.ErrLockNotAcquired)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "journey-123",
			SeatCount: 1,
		})

		assert.ErrorIs(t, err, booking.ErrJourneyBusy)
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("存在しない運行便はエラー", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.journeyRepo.On("GetByID", ctx, "nonexistent").Return(nil, journey.ErrJourneyNotFound)

		_, err := svc.CreateBooking(ctx, CreateBookingInput{
			UserID:    "user-123",
			JourneyID: "nonexistent",
			SeatCount: 1,
		})

		assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
	})
}

func TestBookingService_CancelBooking(t *testing.T) {
	ctx := context.Background()

	confirmedBooking := func() *booking.Booking {
		b := booking.NewBooking("user-123", "journey-123", 2, []string{"A1", "A2"}, 13500, "")
		b.ID = "booking-123"
		return b
	}

	t.Run("正常にキャンセルできる", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := confirmedBooking()

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.bookingRepo.On("MarkCancelled", ctx, m.tx, b).Return(true, nil)
		m.seatRepo.On("Release", ctx, m.tx, "booking-123").Return([]string{"A1", "A2"}, nil)
		m.journeyRepo.On("ReleaseCapacity", ctx, m.tx, "journey-123", 2).Return(nil)
		m.tx.On("Commit").Return(nil)
		m.tx.On("Rollback").Return(nil)
		m.cache.On("Invalidate", ctx, "journey-123").Return(nil)

		got, err := svc.CancelBooking(ctx, "booking-123", "user-123")

		require.NoError(t, err)
		assert.True(t, got.IsCancelled())
		assert.NotNil(t, got.CancelledAt)
		m.tx.AssertExpectations(t)
	})

	t.Run("キャンセル済みの予約への再キャンセルは何もしない", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := confirmedBooking()
		b.Cancel()

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)

		got, err := svc.CancelBooking(ctx, "booking-123", "user-123")

		require.NoError(t, err)
		assert.True(t, got.IsCancelled())
		m.txManager.AssertNotCalled(t, "Begin", mock.Anything)
		m.journeyRepo.AssertNotCalled(t, "ReleaseCapacity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("他人の予約はキャンセルできない", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := confirmedBooking()

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)

		_, err := svc.CancelBooking(ctx, "booking-123", "other-user")

		// 存在を明かさない
		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	})

	t.Run("並行キャンセルが先行した場合は最新状態を返す", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := confirmedBooking()
		alreadyCancelled := confirmedBooking()
		alreadyCancelled.Cancel()

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil).Once()
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.bookingRepo.On("MarkCancelled", ctx, m.tx, b).Return(false, nil)
		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(alreadyCancelled, nil).Once()
		m.tx.On("Rollback").Return(nil)

		got, err := svc.CancelBooking(ctx, "booking-123", "user-123")

		require.NoError(t, err)
		assert.True(t, got.IsCancelled())
		// 座席・空席数は先行したキャンセルが解放済み
		m.seatRepo.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
		m.journeyRepo.AssertNotCalled(t, "ReleaseCapacity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("空席数解放の不変条件違反はエラーとして返す", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := confirmedBooking()

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)
		m.expectLockAcquired()
		m.txManager.On("Begin", ctx).Return(m.tx, nil)
		m.bookingRepo.On("MarkCancelled", ctx, m.tx, b).Return(true, nil)
		m.seatRepo.On("Release", ctx, m.tx, "booking-123").Return([]string{"A1", "A2"}, nil)
		m.journeyRepo.On("ReleaseCapacity", ctx, m.tx, "journey-123", 2).Return(journey.ErrAvailabilityInvariant)
		m.tx.On("Rollback").Return(nil)

		_, err := svc.CancelBooking(ctx, "booking-123", "user-123")

		assert.ErrorIs(t, err, journey.ErrAvailabilityInvariant)
		m.tx.AssertNotCalled(t, "Commit")
	})
}

func TestBookingService_GetBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("本人は取得できる", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := booking.NewBooking("user-123", "journey-123", 1, nil, 1000, "")
		b.ID = "booking-123"

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)

		got, err := svc.GetBooking(ctx, "booking-123", "user-123")
		require.NoError(t, err)
		assert.Equal(t, "booking-123", got.ID)
	})

	t.Run("他人の予約は404相当", func(t *testing.T) {
		svc, m := newBookingServiceForTest()
		b := booking.NewBooking("user-123", "journey-123", 1, nil, 1000, "")
		b.ID = "booking-123"

		m.bookingRepo.On("GetByID", ctx, "booking-123").Return(b, nil)

		_, err := svc.GetBooking(ctx, "booking-123", "stranger")
		assert.ErrorIs(t, err, booking.ErrBookingNotFound)
	})
}

func TestBookingService_GetUserBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("limitとoffsetが正規化される", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.bookingRepo.On("GetByUserID", ctx, "user-123", 20, 0).Return([]*booking.Booking{}, nil)

		_, err := svc.GetUserBookings(ctx, "user-123", 0, -5)
		require.NoError(t, err)
		m.bookingRepo.AssertExpectations(t)
	})

	t.Run("limitの上限は100", func(t *testing.T) {
		svc, m := newBookingServiceForTest()

		m.bookingRepo.On("GetByUserID", ctx, "user-123", 100, 0).Return([]*booking.Booking{}, nil)

		_, err := svc.GetUserBookings(ctx, "user-123", 500, 0)
		require.NoError(t, err)
		m.bookingRepo.AssertExpectations(t)
	})
}
