package seat

// DefaultClass は座席クラスの既定値
const DefaultClass = "Standard"

// Seat は座席エンティティを表す
type Seat struct {
	ID         string
	JourneyID  string
	SeatNumber string
	SeatClass  string
	IsBooked   bool
	BookingID  *string // 予約されていない場合は nil
}

// NewSeat は新しい座席を作成する
func NewSeat(journeyID, seatNumber, seatClass string) *Seat {
	if seatClass == "" {
		seatClass = DefaultClass
	}
	return &Seat{
		JourneyID:  journeyID,
		SeatNumber: seatNumber,
		SeatClass:  seatClass,
	}
}

// IsAvailable は座席が割り当て可能かを返す
func (s *Seat) IsAvailable() bool {
	return !s.IsBooked
}

// Allocate は座席を予約に割り当てる
func (s *Seat) Allocate(bookingID string) error {
	if s.IsBooked {
		return ErrSeatUnavailable
	}
	s.IsBooked = true
	s.BookingID = &bookingID
	return nil
}

// Release は座席の割り当てを解除する
func (s *Seat) Release() {
	s.IsBooked = false
	s.BookingID = nil
}

// Validate は座席の検証を行う
// 不変条件: IsBooked と BookingID の有無は常に一致する
func (s *Seat) Validate() error {
	if s.JourneyID == "" {
		return ErrJourneyIDRequired
	}
	if s.SeatNumber == "" {
		return ErrSeatNumberRequired
	}
	if s.IsBooked != (s.BookingID != nil) {
		return ErrBookingLinkInvariant
	}
	return nil
}
