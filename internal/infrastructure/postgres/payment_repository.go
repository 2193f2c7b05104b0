package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
)

type paymentRow struct {
	ID            string          `db:"id"`
	BookingID     string          `db:"booking_id"`
	Amount        int             `db:"amount"`
	Method        string          `db:"method"`
	TransactionID string          `db:"transaction_id"`
	Status        string          `db:"status"`
	Details       json.RawMessage `db:"details"`
	PaidAt        time.Time       `db:"paid_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

func (r *paymentRow) toEntity() (*payment.Payment, error) {
	details := map[string]any{}
	if len(r.Details) > 0 {
		if err := json.Unmarshal(r.Details, &details); err != nil {
			return nil, fmt.Errorf("支払い詳細の復元に失敗: %w", err)
		}
	}
	return &payment.Payment{
		ID: r.ID, BookingID: r.BookingID, Amount: r.Amount,
		Method: r.Method, TransactionID: r.TransactionID,
		Status: payment.Status(r.Status), Details: details,
		PaidAt: r.PaidAt, UpdatedAt: r.UpdatedAt,
	}, nil
}

const paymentColumns = `id, booking_id, amount, method, transaction_id, status, details, paid_at, updated_at`

type PaymentRepository struct{ db *sqlx.DB }

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	details, err := json.Marshal(p.Details)
	if err != nil {
		return fmt.Errorf("支払い詳細の変換に失敗: %w", err)
	}
	query := `
		INSERT INTO payments (booking_id, amount, method, transaction_id, status, details, paid_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = r.db.QueryRowContext(ctx, query,
		p.BookingID, p.Amount, p.Method, p.TransactionID, string(p.Status),
		details, p.PaidAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			// booking_id のユニーク制約は予約と支払いの1対1を保証する
			return payment.ErrDuplicatePayment
		}
		return fmt.Errorf("支払い作成に失敗: %w", err)
	}
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*payment.Payment, error) {
	var row paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("支払い取得に失敗: %w", err)
	}
	return row.toEntity()
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID string) (*payment.Payment, error) {
	var row paymentRow
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	if err := r.db.GetContext(ctx, &row, query, bookingID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("支払い取得に失敗: %w", err)
	}
	return row.toEntity()
}

func (r *PaymentRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*payment.Payment, error) {
	var rows []paymentRow
	query := `
		SELECT p.id, p.booking_id, p.amount, p.method, p.transaction_id, p.status, p.details, p.paid_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.user_id = $1
		ORDER BY p.paid_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("支払い一覧取得に失敗: %w", err)
	}
	result := make([]*payment.Payment, len(rows))
	for i := range rows {
		p, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

// MarkRefunded は支払いを返金済みに更新する
// status = 'COMPLETED' のガードにより返金は一度だけ成立する。
// 並行する返金は片方だけが true を受け取る
func (r *PaymentRepository) MarkRefunded(ctx context.Context, p *payment.Payment) (bool, error) {
	query := `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 AND status = 'COMPLETED'`
	result, err := r.db.ExecContext(ctx, query, string(payment.StatusRefunded), p.UpdatedAt, p.ID)
	if err != nil {
		return false, fmt.Errorf("支払い返金に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

var _ payment.Repository = (*PaymentRepository)(nil)
