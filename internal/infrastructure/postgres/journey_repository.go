package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

// journeyRow はDBの行を表す構造体
type journeyRow struct {
	ID              string    `db:"id"`
	Source          string    `db:"source"`
	Destination     string    `db:"destination"`
	DepartureAt     time.Time `db:"departure_at"`
	ArrivalAt       time.Time `db:"arrival_at"`
	TransportType   string    `db:"transport_type"`
	TransportName   string    `db:"transport_name"`
	TransportNumber string    `db:"transport_number"`
	TotalSeats      int       `db:"total_seats"`
	AvailableSeats  int       `db:"available_seats"`
	Price           int       `db:"price"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
	Version         int       `db:"version"`
}

func (r *journeyRow) toEntity() *journey.Journey {
	return &journey.Journey{
		ID:              r.ID,
		Source:          r.Source,
		Destination:     r.Destination,
		DepartureAt:     r.DepartureAt,
		ArrivalAt:       r.ArrivalAt,
		TransportType:   journey.TransportType(r.TransportType),
		TransportName:   r.TransportName,
		TransportNumber: r.TransportNumber,
		TotalSeats:      r.TotalSeats,
		AvailableSeats:  r.AvailableSeats,
		Price:           r.Price,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

const journeyColumns = `id, source, destination, departure_at, arrival_at, transport_type, transport_name, transport_number, total_seats, available_seats, price, created_at, updated_at, version`

// JourneyRepository は運行便リポジトリのPostgreSQL実装
type JourneyRepository struct {
	db *sqlx.DB
}

// NewJourneyRepository はJourneyRepositoryを作成する
func NewJourneyRepository(db *sqlx.DB) *JourneyRepository {
	return &JourneyRepository{db: db}
}

func (r *JourneyRepository) Create(ctx context.Context, j *journey.Journey) error {
	query := `
		INSERT INTO journeys (source, destination, departure_at, arrival_at, transport_type, transport_name, transport_number, total_seats, available_seats, price, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		j.Source, j.Destination, j.DepartureAt, j.ArrivalAt, string(j.TransportType),
		j.TransportName, j.TransportNumber, j.TotalSeats, j.AvailableSeats, j.Price,
		j.CreatedAt, j.UpdatedAt, j.Version,
	).Scan(&j.ID)
	if err != nil {
		return fmt.Errorf("運行便作成に失敗: %w", err)
	}
	return nil
}

func (r *JourneyRepository) GetByID(ctx context.Context, id string) (*journey.Journey, error) {
	var row journeyRow
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE id = $1`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, journey.ErrJourneyNotFound
		}
		return nil, fmt.Errorf("運行便取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *JourneyRepository) List(ctx context.Context, filter journey.ListFilter) ([]*journey.Journey, error) {
	query := `SELECT ` + journeyColumns + ` FROM journeys WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if filter.Source != "" {
		query += fmt.Sprintf(" AND source ILIKE $%d", idx)
		args = append(args, "%"+filter.Source+"%")
		idx++
	}
	if filter.Destination != "" {
		query += fmt.Sprintf(" AND destination ILIKE $%d", idx)
		args = append(args, "%"+filter.Destination+"%")
		idx++
	}
	if filter.UpcomingOnly {
		query += " AND departure_at >= NOW()"
	}
	query += fmt.Sprintf(" ORDER BY departure_at LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.Limit, filter.Offset)

	var rows []journeyRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("運行便一覧取得に失敗: %w", err)
	}
	journeys := make([]*journey.Journey, len(rows))
	for i, row := range rows {
		journeys[i] = row.toEntity()
	}
	return journeys, nil
}

// Update は運行便を更新する（楽観的ロック）
// total_seats と available_seats は予約操作の管轄のため更新対象に含めない
func (r *JourneyRepository) Update(ctx context.Context, j *journey.Journey) error {
	query := `
		UPDATE journeys
		SET source = $1, destination = $2, departure_at = $3, arrival_at = $4,
		    transport_type = $5, transport_name = $6, transport_number = $7,
		    price = $8, updated_at = $9, version = version + 1
		WHERE id = $10 AND version = $11
	`
	result, err := r.db.ExecContext(ctx, query,
		j.Source, j.Destination, j.DepartureAt, j.ArrivalAt, string(j.TransportType),
		j.TransportName, j.TransportNumber, j.Price, time.Now(), j.ID, j.Version,
	)
	if err != nil {
		return fmt.Errorf("運行便更新に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗: %w", err)
	}
	if rows == 0 {
		if _, getErr := r.GetByID(ctx, j.ID); getErr != nil {
			return getErr
		}
		return journey.ErrVersionConflict
	}
	j.Version++
	return nil
}

func (r *JourneyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM journeys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("運行便削除に失敗: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗: %w", err)
	}
	if rows == 0 {
		return journey.ErrJourneyNotFound
	}
	return nil
}

// ReserveCapacity は空席数の条件付きデクリメントを行う
// available_seats >= count のガード付き更新により、同じ運行便への並行予約が
// 残席を超えて成功することはない
func (r *JourneyRepository) ReserveCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE journeys SET available_seats = available_seats - $1, updated_at = NOW(), version = version + 1 WHERE id = $2 AND available_seats >= $1`
	result, err := sqlxTx.ExecContext(ctx, query, count, journeyID)
	if err != nil {
		return fmt.Errorf("空席数の予約に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists bool
		if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, journeyID); err != nil {
			return fmt.Errorf("運行便の存在確認に失敗: %w", err)
		}
		if !exists {
			return journey.ErrJourneyNotFound
		}
		return journey.ErrInsufficientSeats
	}
	return nil
}

// ReleaseCapacity は空席数のガード付きインクリメントを行う
// total_seats を超えるインクリメントは不変条件違反であり、total_seats に
// 留めた上で ErrAvailabilityInvariant を返す（黙って握りつぶさない）
func (r *JourneyRepository) ReleaseCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error {
	sqlxTx := UnwrapTx(tx)
	query := `UPDATE journeys SET available_seats = available_seats + $1, updated_at = NOW(), version = version + 1 WHERE id = $2 AND available_seats + $1 <= total_seats`
	result, err := sqlxTx.ExecContext(ctx, query, count, journeyID)
	if err != nil {
		return fmt.Errorf("空席数の解放に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows > 0 {
		return nil
	}
	var exists bool
	if err := sqlxTx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM journeys WHERE id = $1)`, journeyID); err != nil {
		return fmt.Errorf("運行便の存在確認に失敗: %w", err)
	}
	if !exists {
		return journey.ErrJourneyNotFound
	}
	if _, err := sqlxTx.ExecContext(ctx, `UPDATE journeys SET available_seats = total_seats, updated_at = NOW(), version = version + 1 WHERE id = $1`, journeyID); err != nil {
		return fmt.Errorf("空席数の補正に失敗: %w", err)
	}
	return journey.ErrAvailabilityInvariant
}

// FindAvailabilityViolations は空席数の不変条件に違反している運行便IDを返す
func (r *JourneyRepository) FindAvailabilityViolations(ctx context.Context) ([]string, error) {
	query := `
		SELECT j.id
		FROM journeys j
		LEFT JOIN (
			SELECT journey_id, COALESCE(SUM(seat_count), 0) AS booked
			FROM bookings
			WHERE status <> 'CANCELLED'
			GROUP BY journey_id
		) b ON b.journey_id = j.id
		WHERE j.available_seats <> j.total_seats - COALESCE(b.booked, 0)
		   OR j.available_seats < 0
		   OR j.available_seats > j.total_seats
	`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("整合性監査クエリに失敗: %w", err)
	}
	return ids, nil
}

var _ journey.Repository = (*JourneyRepository)(nil)
