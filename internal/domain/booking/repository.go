package booking

import (
	"context"

	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）。
	// 予約番号が衝突した場合は ErrDuplicateReference を返す
	Create(ctx context.Context, tx transaction.Tx, b *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByReference は予約番号から予約を取得する
	GetByReference(ctx context.Context, reference string) (*Booking, error)

	// GetByUserID はユーザーIDから予約一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Booking, error)

	// MarkCancelled は予約をキャンセル済みに更新する（トランザクション必須）。
	// 既にキャンセル済みの行は更新せず false を返す
	MarkCancelled(ctx context.Context, tx transaction.Tx, b *Booking) (bool, error)
}
