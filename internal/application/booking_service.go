package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
	redisinfra "github.com/sanosuguru/go-transit-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/metrics"
)

const (
	// 運行便単位の排他制御。別の運行便への予約は互いにブロックしない
	journeyLockTTL    = 10 * time.Second
	lockMaxRetries    = 3
	lockRetryDelay    = 100 * time.Millisecond
	maxReferenceTries = 5
)

type BookingService struct {
	txManager   transaction.Manager
	bookingRepo booking.Repository
	seatRepo    seat.Repository
	journeyRepo journey.Repository
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.AvailabilityCacheInterface
	metrics     *metrics.Metrics
}

func NewBookingService(
	txManager transaction.Manager,
	br booking.Repository,
	sr seat.Repository,
	jr journey.Repository,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
	m *metrics.Metrics,
) *BookingService {
	return &BookingService{
		txManager:   txManager,
		bookingRepo: br,
		seatRepo:    sr,
		journeyRepo: jr,
		lockManager: lm,
		cache:       cache,
		metrics:     m,
	}
}

type CreateBookingInput struct {
	UserID      string
	JourneyID   string
	SeatCount   int
	SeatNumbers []string
	Notes       string
}

// CreateBooking は予約を作成する
// 空席数の確保・座席割り当て・予約レコードの作成は1つのDBトランザクションで
// 行われ、どこかで失敗した場合はすべて巻き戻る。さらに運行便単位の分散ロックで
// 同一運行便への並行予約を直列化する
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	if input.SeatCount < 1 {
		s.countBooking("validation_error")
		return nil, booking.ErrInvalidSeatCount
	}
	if len(input.SeatNumbers) != 0 && len(input.SeatNumbers) != input.SeatCount {
		s.countBooking("validation_error")
		return nil, booking.ErrSeatCountMismatch
	}

	j, err := s.journeyRepo.GetByID(ctx, input.JourneyID)
	if err != nil {
		return nil, err
	}
	if !j.IsUpcoming() {
		s.countBooking("departed")
		return nil, journey.ErrJourneyDeparted
	}

	// 分散ロックを取得（運行便単位）
	lock, err := s.acquireJourneyLock(ctx, input.JourneyID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	b := booking.NewBooking(input.UserID, input.JourneyID, input.SeatCount, input.SeatNumbers, j.Price, input.Notes)
	if err := b.Validate(); err != nil {
		s.countBooking("validation_error")
		return nil, err
	}

	// 予約番号の衝突時はトランザクションごと再試行する
	// （ユニーク制約違反はトランザクションを中断させるため）
	for attempt := 0; ; attempt++ {
		err = s.createInTx(ctx, b)
		if err == nil {
			break
		}
		if errors.Is(err, booking.ErrDuplicateReference) && attempt+1 < maxReferenceTries {
			b.Reference = booking.NewReference()
			continue
		}
		s.recordCreateFailure(err)
		return nil, err
	}

	s.invalidateCache(ctx, input.JourneyID)
	s.countBooking("success")
	logger.Info("予約作成",
		zap.String("booking_id", b.ID),
		zap.String("journey_id", b.JourneyID),
		zap.String("reference", b.Reference),
		zap.Int("seat_count", b.SeatCount),
	)
	return b, nil
}

func (s *BookingService) createInTx(ctx context.Context, b *booking.Booking) error {
	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if err := s.journeyRepo.ReserveCapacity(ctx, tx, b.JourneyID, b.SeatCount); err != nil {
		return err
	}
	if err := s.bookingRepo.Create(ctx, tx, b); err != nil {
		return err
	}
	if b.HasSeatAssignment() {
		// 座席割り当ての失敗はロールバックで空席数の確保ごと巻き戻る
		if err := s.seatRepo.Allocate(ctx, tx, b.JourneyID, b.SeatNumbers, b.ID); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}

// CancelBooking は予約をキャンセルし、座席と空席数を解放する
// 予約の状態変更・座席解放・空席数の解放は1つのDBトランザクションで行う。
// キャンセル済みの予約への再キャンセルは何もせず成功する（冪等）
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, requesterID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// 他ユーザーの予約には存在を明かさない
	if b.UserID != requesterID {
		return nil, booking.ErrBookingNotFound
	}
	if b.IsCancelled() {
		return b, nil
	}

	lock, err := s.acquireJourneyLock(ctx, b.JourneyID)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	b.Cancel()
	changed, err := s.bookingRepo.MarkCancelled(ctx, tx, b)
	if err != nil {
		return nil, err
	}
	if !changed {
		// 並行するキャンセルが先行した。キャンセル済みの状態を返す
		return s.bookingRepo.GetByID(ctx, bookingID)
	}
	if _, err := s.seatRepo.Release(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	if err := s.journeyRepo.ReleaseCapacity(ctx, tx, b.JourneyID, b.SeatCount); err != nil {
		if errors.Is(err, journey.ErrAvailabilityInvariant) {
			s.countFault("capacity_release")
			logger.Error("空席数解放で不変条件違反を検出",
				zap.String("journey_id", b.JourneyID),
				zap.String("booking_id", b.ID),
				zap.Int("seat_count", b.SeatCount),
			)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.invalidateCache(ctx, b.JourneyID)
	s.countBooking("cancelled")
	logger.Info("予約キャンセル",
		zap.String("booking_id", b.ID),
		zap.String("journey_id", b.JourneyID),
	)
	return b, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id, requesterID string) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != requesterID {
		return nil, booking.ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.GetByUserID(ctx, userID, limit, offset)
}

// acquireJourneyLock は運行便単位の分散ロックを取得する
// リトライ上限まで取得できない場合は ErrJourneyBusy（再試行可能）を返す
func (s *BookingService) acquireJourneyLock(ctx context.Context, journeyID string) (redisinfra.Lock, error) {
	if s.lockManager == nil {
		return nil, nil
	}
	start := time.Now()
	lock, err := s.lockManager.AcquireLockWithRetry(ctx, journeyLockKey(journeyID), journeyLockTTL, lockMaxRetries, lockRetryDelay)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "failed"
		}
		s.metrics.DistributedLockDuration.WithLabelValues("acquire", status).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			s.countBooking("contention")
			return nil, booking.ErrJourneyBusy
		}
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	return lock, nil
}

func journeyLockKey(journeyID string) string {
	return "journey:" + journeyID
}

func (s *BookingService) invalidateCache(ctx context.Context, journeyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, journeyID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.Error(err))
	}
}

func (s *BookingService) countBooking(status string) {
	if s.metrics != nil {
		s.metrics.BookingsTotal.WithLabelValues(status).Inc()
	}
}

func (s *BookingService) countFault(kind string) {
	if s.metrics != nil {
		s.metrics.ConsistencyFaultsTotal.WithLabelValues(kind).Inc()
	}
}

func (s *BookingService) recordCreateFailure(err error) {
	switch {
	case errors.Is(err, journey.ErrInsufficientSeats):
		s.countBooking("insufficient_seats")
	case errors.Is(err, seat.ErrSeatUnavailable):
		s.countBooking("seat_conflict")
	default:
		s.countBooking("error")
	}
}
