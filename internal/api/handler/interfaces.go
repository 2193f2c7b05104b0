package handler

import (
	"context"

	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
)

// JourneyServiceInterface は運行便サービスのインターフェース
type JourneyServiceInterface interface {
	CreateJourney(ctx context.Context, input application.CreateJourneyInput) (*journey.Journey, error)
	GetJourney(ctx context.Context, id string) (*journey.Journey, error)
	ListJourneys(ctx context.Context, filter journey.ListFilter) ([]*journey.Journey, error)
	UpdateJourney(ctx context.Context, input application.UpdateJourneyInput) (*journey.Journey, error)
	DeleteJourney(ctx context.Context, id string) error
	GetAvailableSeats(ctx context.Context, journeyID string) (int, error)
}

// SeatServiceInterface は座席サービスのインターフェース
type SeatServiceInterface interface {
	CreateBulkSeats(ctx context.Context, input application.CreateBulkSeatsInput) ([]*seat.Seat, error)
	GetSeatsByJourney(ctx context.Context, journeyID string) ([]*seat.Seat, error)
	CountFreeSeats(ctx context.Context, journeyID string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, id, requesterID string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error)
	CancelBooking(ctx context.Context, bookingID, requesterID string) (*booking.Booking, error)
}

// PaymentServiceInterface は支払いサービスのインターフェース
type PaymentServiceInterface interface {
	CreatePayment(ctx context.Context, input application.CreatePaymentInput) (*payment.Payment, error)
	GetPayment(ctx context.Context, id, requesterID string) (*payment.Payment, error)
	GetUserPayments(ctx context.Context, userID string, limit, offset int) ([]*payment.Payment, error)
	Refund(ctx context.Context, paymentID, requesterID string) (*payment.Payment, error)
}
