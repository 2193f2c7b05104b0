package application

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-transit-booking/internal/pkg/metrics"
)

type PaymentService struct {
	paymentRepo payment.Repository
	bookingRepo booking.Repository
	gateway     payment.Gateway
	metrics     *metrics.Metrics
}

func NewPaymentService(pr payment.Repository, br booking.Repository, gw payment.Gateway, m *metrics.Metrics) *PaymentService {
	return &PaymentService{paymentRepo: pr, bookingRepo: br, gateway: gw, metrics: m}
}

type CreatePaymentInput struct {
	RequesterID string
	BookingID   string
	Amount      int
	Method      string
	Details     map[string]any
}

// CreatePayment は予約に対する支払いを作成する
// 支払いは予約の状態とは独立している。キャンセル済み予約の凍結済み合計金額に
// 対する支払いも成立する（意図された分離であり、取り消しは呼び出し側の責務）
func (s *PaymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*payment.Payment, error) {
	b, err := s.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != input.RequesterID {
		return nil, booking.ErrBookingNotFound
	}

	if _, err := s.paymentRepo.GetByBookingID(ctx, b.ID); err == nil {
		return nil, payment.ErrDuplicatePayment
	} else if !errors.Is(err, payment.ErrPaymentNotFound) {
		return nil, err
	}

	if input.Amount != b.TotalPrice {
		return nil, payment.ErrAmountMismatch
	}

	result, err := s.gateway.Charge(ctx, input.Amount, input.Method, input.Details)
	if err != nil {
		return nil, fmt.Errorf("決済ゲートウェイの呼び出しに失敗: %w", err)
	}

	p := payment.NewPayment(b.ID, input.Amount, input.Method, result.Reference, result.Accepted, input.Details)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.paymentRepo.Create(ctx, p); err != nil {
		// 並行する支払い作成はユニーク制約で弾かれる
		return nil, err
	}

	s.countPayment(string(p.Status))
	logger.Info("支払い作成",
		zap.String("payment_id", p.ID),
		zap.String("booking_id", p.BookingID),
		zap.String("status", string(p.Status)),
		zap.Int("amount", p.Amount),
	)
	return p, nil
}

// Refund は支払いを返金する。返金は COMPLETED の支払いに対して一度だけ可能
// 予約・座席の状態は変更しない。返金後のキャンセルは呼び出し側の明示的な操作
func (s *PaymentService) Refund(ctx context.Context, paymentID, requesterID string) (*payment.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, requesterID); err != nil {
		return nil, err
	}
	if err := p.Refund(); err != nil {
		return nil, err
	}
	// ガード付きUPDATEで返金を確定する。取得後に別リクエストが先に返金して
	// いた場合は更新されないため、返金は常に一度だけ成立する
	changed, err := s.paymentRepo.MarkRefunded(ctx, p)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, payment.ErrNotRefundable
	}

	s.countPayment("refunded")
	logger.Info("支払い返金",
		zap.String("payment_id", p.ID),
		zap.String("booking_id", p.BookingID),
	)
	return p, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id, requesterID string) (*payment.Payment, error) {
	p, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p, requesterID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PaymentService) GetUserPayments(ctx context.Context, userID string, limit, offset int) ([]*payment.Payment, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.paymentRepo.GetByUserID(ctx, userID, limit, offset)
}

// authorize は支払いが紐づく予約の所有者かを確認する
// 他ユーザーの支払いには存在を明かさない
func (s *PaymentService) authorize(ctx context.Context, p *payment.Payment, requesterID string) error {
	b, err := s.bookingRepo.GetByID(ctx, p.BookingID)
	if err != nil {
		return err
	}
	if b.UserID != requesterID {
		return payment.ErrPaymentNotFound
	}
	return nil
}

func (s *PaymentService) countPayment(status string) {
	if s.metrics != nil {
		s.metrics.PaymentsTotal.WithLabelValues(status).Inc()
	}
}
