package booking

import "crypto/rand"

// ReferenceLength は予約番号の長さ
const ReferenceLength = 8

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference は英大文字と数字からなる8文字の予約番号を生成する
// 一意性はストレージ層のユニーク制約で保証し、衝突時は再生成する
func NewReference() string {
	buf := make([]byte, ReferenceLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand の失敗は環境異常であり回復手段がない
		panic(err)
	}
	for i, b := range buf {
		buf[i] = referenceCharset[int(b)%len(referenceCharset)]
	}
	return string(buf)
}

// ValidReference は予約番号の形式を検証する
func ValidReference(ref string) bool {
	if len(ref) != ReferenceLength {
		return false
	}
	for _, c := range ref {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
