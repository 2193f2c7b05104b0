package payment

import "context"

// Repository は支払いリポジトリのインターフェース
type Repository interface {
	// Create は新しい支払いを作成する。
	// 同じ予約の支払いが既にある場合は ErrDuplicatePayment を返す
	Create(ctx context.Context, p *Payment) error

	// GetByID はIDから支払いを取得する
	GetByID(ctx context.Context, id string) (*Payment, error)

	// GetByBookingID は予約IDから支払いを取得する
	GetByBookingID(ctx context.Context, bookingID string) (*Payment, error)

	// GetByUserID はユーザーの予約に紐づく支払い一覧を取得する
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*Payment, error)

	// MarkRefunded は支払いを返金済みに更新する。
	// COMPLETED の支払いのみ更新され、並行する返金は片方だけが true を受け取る
	MarkRefunded(ctx context.Context, p *Payment) (bool, error)
}
