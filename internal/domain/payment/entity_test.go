package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("承認された支払いはCOMPLETED", func(t *testing.T) {
		p := NewPayment("booking-123", 27000, "CARD", "txn-abc", true, map[string]any{"last4": "4242"})

		assert.Equal(t, "booking-123", p.BookingID)
		assert.Equal(t, 27000, p.Amount)
		assert.Equal(t, "CARD", p.Method)
		assert.Equal(t, "txn-abc", p.TransactionID)
		assert.Equal(t, StatusCompleted, p.Status)
		assert.Equal(t, "4242", p.Details["last4"])
	})

	t.Run("拒否された支払いはFAILED", func(t *testing.T) {
		p := NewPayment("booking-123", 27000, "CARD", "txn-abc", false, nil)

		assert.Equal(t, StatusFailed, p.Status)
		assert.NotNil(t, p.Details, "details は常に非nil")
	})
}

func TestPayment_Refund(t *testing.T) {
	t.Run("COMPLETEDから返金できる", func(t *testing.T) {
		p := NewPayment("booking-123", 1000, "CARD", "txn-1", true, nil)
		require.True(t, p.IsRefundable())

		err := p.Refund()
		require.NoError(t, err)
		assert.Equal(t, StatusRefunded, p.Status)
	})

	t.Run("FAILEDは返金できない", func(t *testing.T) {
		p := NewPayment("booking-123", 1000, "CARD", "txn-1", false, nil)
		assert.False(t, p.IsRefundable())
		assert.ErrorIs(t, p.Refund(), ErrNotRefundable)
	})

	t.Run("二重返金はできない", func(t *testing.T) {
		p := NewPayment("booking-123", 1000, "CARD", "txn-1", true, nil)
		require.NoError(t, p.Refund())
		assert.ErrorIs(t, p.Refund(), ErrNotRefundable)
	})

	t.Run("PENDINGは返金できない", func(t *testing.T) {
		p := NewPayment("booking-123", 1000, "CARD", "txn-1", true, nil)
		p.Status = StatusPending
		assert.ErrorIs(t, p.Refund(), ErrNotRefundable)
	})
}

func TestPayment_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Payment)
		wantErr error
	}{
		{"正常な支払い", func(p *Payment) {}, nil},
		{"予約ID未指定", func(p *Payment) { p.BookingID = "" }, ErrBookingIDRequired},
		{"金額0", func(p *Payment) { p.Amount = 0 }, ErrInvalidAmount},
		{"金額が負", func(p *Payment) { p.Amount = -100 }, ErrInvalidAmount},
		{"支払い方法未指定", func(p *Payment) { p.Method = "" }, ErrMethodRequired},
		{"トランザクションID未指定", func(p *Payment) { p.TransactionID = "" }, ErrTransactionIDRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPayment("booking-123", 27000, "CARD", "txn-abc", true, nil)
			tt.modify(p)
			err := p.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
