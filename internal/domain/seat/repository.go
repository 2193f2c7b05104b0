package seat

import (
	"context"

	"github.com/sanosuguru/go-transit-booking/internal/domain/transaction"
)

// Repository は座席リポジトリのインターフェース
type Repository interface {
	// Create は新しい座席を作成する
	Create(ctx context.Context, s *Seat) error

	// CreateBulk は複数の座席を一括作成する
	CreateBulk(ctx context.Context, seats []*Seat) error

	// GetByJourneyID は運行便の座席一覧を取得する
	GetByJourneyID(ctx context.Context, journeyID string) ([]*Seat, error)

	// GetByBookingID は予約が保持する座席一覧を取得する
	GetByBookingID(ctx context.Context, bookingID string) ([]*Seat, error)

	// Allocate は指定された座席番号の座席をすべて予約に割り当てる
	// （トランザクション必須）。1席でも存在しないか割り当て済みの場合は
	// 1席も割り当てずに *UnavailableError を返す
	Allocate(ctx context.Context, tx transaction.Tx, journeyID string, seatNumbers []string, bookingID string) error

	// Release は予約が保持する座席をすべて解放し、解放した座席番号を返す
	// （トランザクション必須）。保持座席がない場合は何もせず空を返す
	Release(ctx context.Context, tx transaction.Tx, bookingID string) ([]string, error)

	// CountAvailableByJourneyID は運行便の空席数を取得する
	CountAvailableByJourneyID(ctx context.Context, journeyID string) (int, error)
}
