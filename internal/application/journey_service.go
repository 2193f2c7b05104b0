package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	redisinfra "github.com/sanosuguru/go-transit-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/metrics"
)

const availabilityCacheTTL = 30 * time.Second

type JourneyService struct {
	journeyRepo journey.Repository
	cache       redisinfra.AvailabilityCacheInterface
	metrics     *metrics.Metrics
}

func NewJourneyService(jr journey.Repository, cache redisinfra.AvailabilityCacheInterface, m *metrics.Metrics) *JourneyService {
	return &JourneyService{journeyRepo: jr, cache: cache, metrics: m}
}

type CreateJourneyInput struct {
	Source          string
	Destination     string
	DepartureAt     time.Time
	ArrivalAt       time.Time
	TransportType   string
	TransportName   string
	TransportNumber string
	TotalSeats      int
	Price           int
}

func (s *JourneyService) CreateJourney(ctx context.Context, input CreateJourneyInput) (*journey.Journey, error) {
	j := journey.NewJourney(
		input.Source, input.Destination, input.DepartureAt, input.ArrivalAt,
		journey.TransportType(input.TransportType), input.TransportName, input.TransportNumber,
		input.TotalSeats, input.Price,
	)
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.journeyRepo.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JourneyService) GetJourney(ctx context.Context, id string) (*journey.Journey, error) {
	return s.journeyRepo.GetByID(ctx, id)
}

func (s *JourneyService) ListJourneys(ctx context.Context, filter journey.ListFilter) ([]*journey.Journey, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.journeyRepo.List(ctx, filter)
}

type UpdateJourneyInput struct {
	ID              string
	Source          string
	Destination     string
	DepartureAt     time.Time
	ArrivalAt       time.Time
	TransportType   string
	TransportName   string
	TransportNumber string
	Price           int
}

// UpdateJourney は運行便の経路・時刻・価格を更新する（楽観的ロック）
// total_seats と available_seats は予約操作以外からは変更できない
func (s *JourneyService) UpdateJourney(ctx context.Context, input UpdateJourneyInput) (*journey.Journey, error) {
	j, err := s.journeyRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	j.Source = input.Source
	j.Destination = input.Destination
	j.DepartureAt = input.DepartureAt
	j.ArrivalAt = input.ArrivalAt
	j.TransportType = journey.TransportType(input.TransportType)
	j.TransportName = input.TransportName
	j.TransportNumber = input.TransportNumber
	j.Price = input.Price
	if err := j.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.journeyRepo.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *JourneyService) DeleteJourney(ctx context.Context, id string) error {
	return s.journeyRepo.Delete(ctx, id)
}

// GetAvailableSeats は運行便の空席数を返す（キャッシュ優先）
func (s *JourneyService) GetAvailableSeats(ctx context.Context, journeyID string) (int, error) {
	if s.cache != nil {
		count, err := s.cache.GetAvailableSeats(ctx, journeyID)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("journey_id", journeyID), zap.Int("count", count))
			return count, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	j, err := s.journeyRepo.GetByID(ctx, journeyID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.SetAvailableSeats(ctx, journeyID, j.AvailableSeats, availabilityCacheTTL); cacheErr != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(cacheErr))
		}
	}
	return j.AvailableSeats, nil
}

// AuditAvailability は空席数の不変条件を監査し、違反数を返す
// 違反は修復せず、ログとメトリクスで運用者に通知する
func (s *JourneyService) AuditAvailability(ctx context.Context) (int, error) {
	ids, err := s.journeyRepo.FindAvailabilityViolations(ctx)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if s.metrics != nil {
			s.metrics.ConsistencyFaultsTotal.WithLabelValues("availability_audit").Inc()
		}
		logger.Error("空席数の不変条件違反を検出", zap.String("journey_id", id))
	}
	return len(ids), nil
}
