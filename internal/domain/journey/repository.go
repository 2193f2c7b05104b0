package journey

import (
	"context"

	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

// ListFilter は運行便一覧の絞り込み条件
type ListFilter struct {
	Source       string
	Destination  string
	UpcomingOnly bool
	Limit        int
	Offset       int
}

// Repository は運行便リポジトリのインターフェース
type Repository interface {
	// Create は新しい運行便を作成する
	Create(ctx context.Context, j *Journey) error

	// GetByID はIDから運行便を取得する
	GetByID(ctx context.Context, id string) (*Journey, error)

	// List は条件に一致する運行便一覧を取得する
	List(ctx context.Context, filter ListFilter) ([]*Journey, error)

	// Update は運行便を更新する（楽観的ロック）
	Update(ctx context.Context, j *Journey) error

	// Delete は運行便を削除する
	Delete(ctx context.Context, id string) error

	// ReserveCapacity は空席数を count 減らす（available_seats >= count の
	// 条件付き更新、トランザクション必須）。空席不足の場合は状態を変えずに
	// ErrInsufficientSeats を返す
	ReserveCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error

	// ReleaseCapacity は空席数を count 増やす（トランザクション必須）。
	// total_seats を超える場合は total_seats に留めた上で
	// ErrAvailabilityInvariant を返す
	ReleaseCapacity(ctx context.Context, tx transaction.Tx, journeyID string, count int) error

	// FindAvailabilityViolations は空席数と有効予約の席数合計が一致しない
	// 運行便IDを返す（整合性監査用）
	FindAvailabilityViolations(ctx context.Context) ([]string, error)
}
