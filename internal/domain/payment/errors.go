package payment

import "errors"

// Payment ドメインのエラー定義
var (
	ErrPaymentNotFound       = errors.New("支払いが見つかりません")
	ErrDuplicatePayment      = errors.New("この予約の支払いは既に存在します")
	ErrAmountMismatch        = errors.New("支払い金額が予約の合計金額と一致しません")
	ErrNotRefundable         = errors.New("完了済みの支払いのみ返金できます")
	ErrBookingIDRequired     = errors.New("予約IDは必須です")
	ErrInvalidAmount         = errors.New("金額は1以上である必要があります")
	ErrMethodRequired        = errors.New("支払い方法は必須です")
	ErrTransactionIDRequired = errors.New("取引IDは必須です")
)
