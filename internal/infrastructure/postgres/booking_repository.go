package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

type bookingRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	JourneyID   string     `db:"journey_id"`
	Reference   string     `db:"reference"`
	SeatCount   int        `db:"seat_count"`
	TotalPrice  int        `db:"total_price"`
	Status      string     `db:"status"`
	Notes       *string    `db:"notes"`
	BookedAt    time.Time  `db:"booked_at"`
	CancelledAt *time.Time `db:"cancelled_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const bookingColumns = `id, user_id, journey_id, reference, seat_count, total_price, status, notes, booked_at, cancelled_at, updated_at`

type BookingRepository struct{ db *sqlx.DB }

func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx := UnwrapTx(tx)
	query := `
		INSERT INTO bookings (user_id, journey_id, reference, seat_count, total_price, status, notes, booked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	var notes *string
	if b.Notes != "" {
		notes = &b.Notes
	}
	err := sqlxTx.QueryRowContext(ctx, query,
		b.UserID, b.JourneyID, b.Reference, b.SeatCount, b.TotalPrice,
		string(b.Status), notes, b.BookedAt, b.UpdatedAt,
	).Scan(&b.ID)
	if err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return booking.ErrDuplicateReference
		}
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatNumbers, err := r.getSeatNumbers(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatNumbers), nil
}

func (r *BookingRepository) GetByReference(ctx context.Context, reference string) (*booking.Booking, error) {
	var row bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`
	if err := r.db.GetContext(ctx, &row, query, reference); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	seatNumbers, err := r.getSeatNumbers(ctx, row.ID)
	if err != nil {
		return nil, err
	}
	return r.toEntity(&row, seatNumbers), nil
}

func (r *BookingRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY booked_at DESC LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	result := make([]*booking.Booking, len(rows))
	for i, row := range rows {
		seatNumbers, err := r.getSeatNumbers(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		result[i] = r.toEntity(&row, seatNumbers)
	}
	return result, nil
}

// MarkCancelled は予約をキャンセル済みに更新する
// status <> 'CANCELLED' のガードにより cancelled_at は一度だけ設定される。
// 並行するキャンセルは片方だけが true を受け取る
func (r *BookingRepository) MarkCancelled(ctx context.Context, tx transaction.Tx, b *booking.Booking) (bool, error) {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE bookings SET status = $1, cancelled_at = $2, updated_at = $3 WHERE id = $4 AND status <> 'CANCELLED'`
	result, err := sqlxTx.ExecContext(ctx, query, string(booking.StatusCancelled), b.CancelledAt, b.UpdatedAt, b.ID)
	if err != nil {
		return false, fmt.Errorf("予約キャンセルに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *BookingRepository) getSeatNumbers(ctx context.Context, bookingID string) ([]string, error) {
	var seatNumbers []string
	query := `SELECT seat_number FROM seats WHERE booking_id = $1 ORDER BY seat_number`
	if err := r.db.SelectContext(ctx, &seatNumbers, query, bookingID); err != nil {
		return nil, fmt.Errorf("予約座席番号の取得に失敗: %w", err)
	}
	return seatNumbers, nil
}

func (r *BookingRepository) toEntity(row *bookingRow, seatNumbers []string) *booking.Booking {
	var notes string
	if row.Notes != nil {
		notes = *row.Notes
	}
	return &booking.Booking{
		ID: row.ID, UserID: row.UserID, JourneyID: row.JourneyID,
		Reference: row.Reference, SeatCount: row.SeatCount,
		SeatNumbers: seatNumbers, TotalPrice: row.TotalPrice,
		Status: booking.Status(row.Status), Notes: notes,
		BookedAt: row.BookedAt, CancelledAt: row.CancelledAt, UpdatedAt: row.UpdatedAt,
	}
}

var _ booking.Repository = (*BookingRepository)(nil)
