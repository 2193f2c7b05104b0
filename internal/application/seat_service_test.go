package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
)

func TestSeatService_CreateBulkSeats(t *testing.T) {
	ctx := context.Background()

	t.Run("プレフィックスと席数から連番で生成する", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		seatRepo.On("CreateBulk", ctx, mock.MatchedBy(func(seats []*seat.Seat) bool {
			return len(seats) == 3 &&
				seats[0].SeatNumber == "A1" &&
				seats[1].SeatNumber == "A2" &&
				seats[2].SeatNumber == "A3"
		})).Return(nil)

		seats, err := svc.CreateBulkSeats(ctx, CreateBulkSeatsInput{
			JourneyID: "journey-123",
			Prefix:    "A",
			Count:     3,
		})

		require.NoError(t, err)
		assert.Len(t, seats, 3)
		assert.Equal(t, seat.DefaultClass, seats[0].SeatClass)
		seatRepo.AssertExpectations(t)
	})

	t.Run("座席番号を明示指定できる", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		seatRepo.On("CreateBulk", ctx, mock.MatchedBy(func(seats []*seat.Seat) bool {
			return len(seats) == 2 && seats[0].SeatNumber == "1A" && seats[1].SeatNumber == "1B"
		})).Return(nil)

		seats, err := svc.CreateBulkSeats(ctx, CreateBulkSeatsInput{
			JourneyID:   "journey-123",
			SeatNumbers: []string{"1A", "1B"},
			SeatClass:   "Green",
		})

		require.NoError(t, err)
		assert.Equal(t, "Green", seats[0].SeatClass)
	})

	t.Run("存在しない運行便はエラー", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		journeyRepo.On("GetByID", ctx, "nonexistent").Return(nil, journey.ErrJourneyNotFound)

		_, err := svc.CreateBulkSeats(ctx, CreateBulkSeatsInput{
			JourneyID: "nonexistent",
			Prefix:    "A",
			Count:     3,
		})

		assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
		seatRepo.AssertNotCalled(t, "CreateBulk", mock.Anything, mock.Anything)
	})

	t.Run("座席番号の重複はリポジトリのエラーを返す", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		seatRepo.On("CreateBulk", ctx, mock.Anything).Return(seat.ErrDuplicateSeat)

		_, err := svc.CreateBulkSeats(ctx, CreateBulkSeatsInput{
			JourneyID: "journey-123",
			Prefix:    "A",
			Count:     2,
		})

		assert.ErrorIs(t, err, seat.ErrDuplicateSeat)
	})
}

func TestSeatService_GetSeatsByJourney(t *testing.T) {
	ctx := context.Background()

	t.Run("正常に座席一覧を取得できる", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		seats := []*seat.Seat{
			seat.NewSeat("journey-123", "A1", ""),
			seat.NewSeat("journey-123", "A2", ""),
		}
		journeyRepo.On("GetByID", ctx, "journey-123").Return(upcomingJourney(), nil)
		seatRepo.On("GetByJourneyID", ctx, "journey-123").Return(seats, nil)

		got, err := svc.GetSeatsByJourney(ctx, "journey-123")

		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("存在しない運行便はエラー", func(t *testing.T) {
		seatRepo := new(MockSeatRepository)
		journeyRepo := new(MockJourneyRepository)
		svc := NewSeatService(seatRepo, journeyRepo)

		journeyRepo.On("GetByID", ctx, "nonexistent").Return(nil, journey.ErrJourneyNotFound)

		_, err := svc.GetSeatsByJourney(ctx, "nonexistent")
		assert.ErrorIs(t, err, journey.ErrJourneyNotFound)
	})
}

func TestSeatService_CountFreeSeats(t *testing.T) {
	ctx := context.Background()

	seatRepo := new(MockSeatRepository)
	journeyRepo := new(MockJourneyRepository)
	svc := NewSeatService(seatRepo, journeyRepo)

	seatRepo.On("CountAvailableByJourneyID", ctx, "journey-123").Return(7, nil)

	count, err := svc.CountFreeSeats(ctx, "journey-123")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
