package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

type seatRow struct {
	ID         string  `db:"id"`
	JourneyID  string  `db:"journey_id"`
	SeatNumber string  `db:"seat_number"`
	SeatClass  string  `db:"seat_class"`
	IsBooked   bool    `db:"is_booked"`
	BookingID  *string `db:"booking_id"`
}

func (r *seatRow) toEntity() *seat.Seat {
	return &seat.Seat{
		ID: r.ID, JourneyID: r.JourneyID, SeatNumber: r.SeatNumber,
		SeatClass: r.SeatClass, IsBooked: r.IsBooked, BookingID: r.BookingID,
	}
}

type SeatRepository struct{ db *sqlx.DB }

func NewSeatRepository(db *sqlx.DB) *SeatRepository { return &SeatRepository{db: db} }

func (r *SeatRepository) Create(ctx context.Context, s *seat.Seat) error {
	query := `INSERT INTO seats (journey_id, seat_number, seat_class) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query, s.JourneyID, s.SeatNumber, s.SeatClass).Scan(&s.ID); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return seat.ErrDuplicateSeat
		}
		return fmt.Errorf("座席作成に失敗: %w", err)
	}
	return nil
}

func (r *SeatRepository) CreateBulk(ctx context.Context, seats []*seat.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	// バッチサイズごとに分割してマルチバリューINSERTを実行
	const batchSize = 1000
	for i := 0; i < len(seats); i += batchSize {
		end := i + batchSize
		if end > len(seats) {
			end = len(seats)
		}
		if err := r.createBulkBatch(ctx, seats[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SeatRepository) createBulkBatch(ctx context.Context, seats []*seat.Seat) error {
	query := `INSERT INTO seats (journey_id, seat_number, seat_class) VALUES `
	args := make([]interface{}, 0, len(seats)*3)
	placeholders := make([]string, 0, len(seats))

	for i, s := range seats {
		base := i * 3
		placeholders = append(placeholders, fmt.Sprintf("($%d, $%d, $%d)", base+1, base+2, base+3))
		args = append(args, s.JourneyID, s.SeatNumber, s.SeatClass)
	}

	query += strings.Join(placeholders, ", ")
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			return seat.ErrDuplicateSeat
		}
		return fmt.Errorf("座席一括作成に失敗: %w", err)
	}
	return nil
}

const seatColumns = `id, journey_id, seat_number, seat_class, is_booked, booking_id`

func (r *SeatRepository) GetByJourneyID(ctx context.Context, journeyID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE journey_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, journeyID); err != nil {
		return nil, fmt.Errorf("座席一覧取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

func (r *SeatRepository) GetByBookingID(ctx context.Context, bookingID string) ([]*seat.Seat, error) {
	query := `SELECT ` + seatColumns + ` FROM seats WHERE booking_id = $1 ORDER BY seat_number`
	var rows []seatRow
	if err := r.db.SelectContext(ctx, &rows, query, bookingID); err != nil {
		return nil, fmt.Errorf("予約座席取得に失敗: %w", err)
	}
	seats := make([]*seat.Seat, len(rows))
	for i, row := range rows {
		seats[i] = row.toEntity()
	}
	return seats, nil
}

// Allocate は指定座席を一括で予約に割り当てる
// 1回のUPDATEで全席を更新し、影響行数が一致しない場合はどの席も割り当てない
// （トランザクションのロールバックで全体が巻き戻る）
func (r *SeatRepository) Allocate(ctx context.Context, tx transaction.Tx, journeyID string, seatNumbers []string, bookingID string) error {
	if len(seatNumbers) == 0 {
		return nil
	}
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE seats SET is_booked = TRUE, booking_id = $1 WHERE journey_id = $2 AND seat_number = ANY($3) AND is_booked = FALSE`
	result, err := sqlxTx.ExecContext(ctx, query, bookingID, journeyID, pq.Array(seatNumbers))
	if err != nil {
		return fmt.Errorf("座席割り当てに失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if int(rows) != len(seatNumbers) {
		conflicts, lookupErr := r.findUnavailable(ctx, sqlxTx, journeyID, seatNumbers, bookingID)
		if lookupErr != nil {
			return lookupErr
		}
		return &seat.UnavailableError{SeatNumbers: conflicts}
	}
	return nil
}

// findUnavailable は存在しないか割り当て済みの座席番号を特定する
// 直前のUPDATEがこの予約に割り当てた席は同一トランザクション内で
// 割り当て済みに見えるため、空席として扱い競合一覧から除く
func (r *SeatRepository) findUnavailable(ctx context.Context, tx *sqlx.Tx, journeyID string, seatNumbers []string, bookingID string) ([]string, error) {
	var free []string
	query := `SELECT seat_number FROM seats WHERE journey_id = $1 AND seat_number = ANY($2) AND (is_booked = FALSE OR booking_id = $3)`
	if err := tx.SelectContext(ctx, &free, query, journeyID, pq.Array(seatNumbers), bookingID); err != nil {
		return nil, fmt.Errorf("座席状態の確認に失敗: %w", err)
	}
	freeSet := make(map[string]struct{}, len(free))
	for _, n := range free {
		freeSet[n] = struct{}{}
	}
	var conflicts []string
	for _, n := range seatNumbers {
		if _, ok := freeSet[n]; !ok {
			conflicts = append(conflicts, n)
		}
	}
	return conflicts, nil
}

// Release は予約が保持する座席をすべて解放する。冪等
func (r *SeatRepository) Release(ctx context.Context, tx transaction.Tx, bookingID string) ([]string, error) {
	sqlxTx := UnwrapTx(tx)
	var freed []string
	query := `UPDATE seats SET is_booked = FALSE, booking_id = NULL WHERE booking_id = $1 RETURNING seat_number`
	if err := sqlxTx.SelectContext(ctx, &freed, query, bookingID); err != nil {
		return nil, fmt.Errorf("座席解放に失敗: %w", err)
	}
	return freed, nil
}

func (r *SeatRepository) CountAvailableByJourneyID(ctx context.Context, journeyID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM seats WHERE journey_id = $1 AND is_booked = FALSE`, journeyID)
	return count, err
}

var _ seat.Repository = (*SeatRepository)(nil)
