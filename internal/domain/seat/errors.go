package seat

import (
	"errors"
	"fmt"
	"strings"
)

// Seat ドメインのエラー定義
var (
	ErrSeatNotFound       = errors.New("座席が見つかりません")
	ErrSeatUnavailable    = errors.New("座席は割り当てできません")
	ErrJourneyIDRequired  = errors.New("運行便IDは必須です")
	ErrSeatNumberRequired = errors.New("座席番号は必須です")
	ErrDuplicateSeat      = errors.New("同じ座席番号が既に存在します")

	// ErrBookingLinkInvariant は is_booked と予約参照の不一致（整合性エラー）
	ErrBookingLinkInvariant = errors.New("座席の予約参照が不整合です")
)

// UnavailableError は割り当てに失敗した座席番号を保持するエラー
// errors.Is(err, ErrSeatUnavailable) で判定できる
type UnavailableError struct {
	SeatNumbers []string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("座席は割り当てできません: %s", strings.Join(e.SeatNumbers, ", "))
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrSeatUnavailable
}
