package application

import (
	"context"
	"fmt"

	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
)

type SeatService struct {
	seatRepo    seat.Repository
	journeyRepo journey.Repository
}

func NewSeatService(sr seat.Repository, jr journey.Repository) *SeatService {
	return &SeatService{seatRepo: sr, journeyRepo: jr}
}

type CreateBulkSeatsInput struct {
	JourneyID   string
	Prefix      string
	Count       int
	SeatNumbers []string // 指定時は Prefix/Count より優先
	SeatClass   string
}

// CreateBulkSeats は運行便の座席を一括作成する
// 座席番号を明示するか、プレフィックスと席数から連番で生成する
func (s *SeatService) CreateBulkSeats(ctx context.Context, input CreateBulkSeatsInput) ([]*seat.Seat, error) {
	if _, err := s.journeyRepo.GetByID(ctx, input.JourneyID); err != nil {
		return nil, err
	}

	numbers := input.SeatNumbers
	if len(numbers) == 0 {
		for i := 1; i <= input.Count; i++ {
			numbers = append(numbers, fmt.Sprintf("%s%d", input.Prefix, i))
		}
	}

	seats := make([]*seat.Seat, 0, len(numbers))
	for _, n := range numbers {
		se := seat.NewSeat(input.JourneyID, n, input.SeatClass)
		if err := se.Validate(); err != nil {
			return nil, err
		}
		seats = append(seats, se)
	}
	if err := s.seatRepo.CreateBulk(ctx, seats); err != nil {
		return nil, err
	}
	return seats, nil
}

// GetSeatsByJourney は運行便の座席一覧を返す
func (s *SeatService) GetSeatsByJourney(ctx context.Context, journeyID string) ([]*seat.Seat, error) {
	if _, err := s.journeyRepo.GetByID(ctx, journeyID); err != nil {
		return nil, err
	}
	return s.seatRepo.GetByJourneyID(ctx, journeyID)
}

// CountFreeSeats は物理的に空いている座席数を返す
// 席数のみの予約があるため、空席数（available_seats）とは一致しないことがある
func (s *SeatService) CountFreeSeats(ctx context.Context, journeyID string) (int, error) {
	return s.seatRepo.CountAvailableByJourneyID(ctx, journeyID)
}
