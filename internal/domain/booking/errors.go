package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound    = errors.New("予約が見つかりません")
	ErrUserIDRequired     = errors.New("ユーザーIDは必須です")
	ErrJourneyIDRequired  = errors.New("運行便IDは必須です")
	ErrInvalidSeatCount   = errors.New("席数は1以上である必要があります")
	ErrSeatCountMismatch  = errors.New("座席番号の数が席数と一致しません")
	ErrInvalidReference   = errors.New("予約番号の形式が不正です")
	ErrDuplicateReference = errors.New("同じ予約番号が既に存在します")

	// ErrJourneyBusy は同一運行便に対する排他制御のリトライ上限超過
	// （一時的エラー、リクエスト全体の再試行が安全）
	ErrJourneyBusy = errors.New("運行便が他のリクエストによって処理中です")
)
