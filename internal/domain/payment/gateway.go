package payment

import "context"

// ChargeResult は決済ゲートウェイの同期応答
type ChargeResult struct {
	Accepted  bool
	Reference string // ゲートウェイ側の取引参照
}

// Gateway は外部決済ゲートウェイのインターフェース
// ゲートウェイ連携の詳細はこのコアの範囲外であり、同期的な可否のみを扱う
type Gateway interface {
	Charge(ctx context.Context, amount int, method string, details map[string]any) (ChargeResult, error)
}
