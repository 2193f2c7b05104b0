package payment

import "time"

// Status は支払いの状態を表す
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

// Payment は支払いエンティティを表す。予約と1対1で紐づく
type Payment struct {
	ID            string
	BookingID     string
	Amount        int
	Method        string
	TransactionID string
	Status        Status
	Details       map[string]any
	PaidAt        time.Time
	UpdatedAt     time.Time
}

// NewPayment は新しい支払いを作成する
func NewPayment(bookingID string, amount int, method, transactionID string, accepted bool, details map[string]any) *Payment {
	now := time.Now()
	status := StatusFailed
	if accepted {
		status = StatusCompleted
	}
	if details == nil {
		details = map[string]any{}
	}
	return &Payment{
		BookingID:     bookingID,
		Amount:        amount,
		Method:        method,
		TransactionID: transactionID,
		Status:        status,
		Details:       details,
		PaidAt:        now,
		UpdatedAt:     now,
	}
}

// IsRefundable は返金可能かを返す。返金は COMPLETED からのみ可能
func (p *Payment) IsRefundable() bool {
	return p.Status == StatusCompleted
}

// Refund は支払いを返金済みにする
// 予約側の状態は変更しない。返金後のキャンセルは呼び出し側の明示的な操作
func (p *Payment) Refund() error {
	if !p.IsRefundable() {
		return ErrNotRefundable
	}
	p.Status = StatusRefunded
	p.UpdatedAt = time.Now()
	return nil
}

// Validate は支払いの検証を行う
func (p *Payment) Validate() error {
	if p.BookingID == "" {
		return ErrBookingIDRequired
	}
	if p.Amount <= 0 {
		return ErrInvalidAmount
	}
	if p.Method == "" {
		return ErrMethodRequired
	}
	if p.TransactionID == "" {
		return ErrTransactionIDRequired
	}
	return nil
}
