package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

// Booking は予約エンティティを表す
// SeatNumbers は空（席数のみの予約）か、SeatCount と同数の座席番号を持つ
type Booking struct {
	ID          string
	UserID      string
	JourneyID   string
	Reference   string
	SeatCount   int
	SeatNumbers []string
	TotalPrice  int
	Status      Status
	Notes       string
	BookedAt    time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

// NewBooking は新しい予約を確定状態で作成する
// 外部の保留ステップが不要なため、予約は直接 CONFIRMED で作成される
func NewBooking(userID, journeyID string, seatCount int, seatNumbers []string, unitPrice int, notes string) *Booking {
	now := time.Now()
	return &Booking{
		UserID:      userID,
		JourneyID:   journeyID,
		Reference:   NewReference(),
		SeatCount:   seatCount,
		SeatNumbers: seatNumbers,
		TotalPrice:  unitPrice * seatCount,
		Status:      StatusConfirmed,
		Notes:       notes,
		BookedAt:    now,
		UpdatedAt:   now,
	}
}

// IsCancelled は予約がキャンセル済みかを返す
func (b *Booking) IsCancelled() bool {
	return b.Status == StatusCancelled
}

// HasSeatAssignment は座席指定付きの予約かを返す
func (b *Booking) HasSeatAssignment() bool {
	return len(b.SeatNumbers) > 0
}

// Cancel は予約をキャンセルする。キャンセル済みの場合は何もしない
// CANCELLED は終端状態であり、cancelled_at は一度だけ設定される
func (b *Booking) Cancel() {
	if b.Status == StatusCancelled {
		return
	}
	now := time.Now()
	b.Status = StatusCancelled
	b.CancelledAt = &now
	b.UpdatedAt = now
}

// Validate は予約の検証を行う
func (b *Booking) Validate() error {
	if b.UserID == "" {
		return ErrUserIDRequired
	}
	if b.JourneyID == "" {
		return ErrJourneyIDRequired
	}
	if b.SeatCount < 1 {
		return ErrInvalidSeatCount
	}
	if len(b.SeatNumbers) != 0 && len(b.SeatNumbers) != b.SeatCount {
		return ErrSeatCountMismatch
	}
	if !ValidReference(b.Reference) {
		return ErrInvalidReference
	}
	return nil
}
