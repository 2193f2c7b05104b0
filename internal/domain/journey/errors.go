package journey

import "errors"

// Journey ドメインのエラー定義
var (
	ErrJourneyNotFound      = errors.New("運行便が見つかりません")
	ErrSourceRequired       = errors.New("出発地は必須です")
	ErrDestinationRequired  = errors.New("目的地は必須です")
	ErrInvalidTransportType = errors.New("輸送種別が不正です")
	ErrInvalidTotalSeats    = errors.New("総座席数は1以上である必要があります")
	ErrInvalidPrice         = errors.New("価格は0以上である必要があります")
	ErrInvalidSchedule      = errors.New("到着時刻は出発時刻より後である必要があります")
	ErrInsufficientSeats    = errors.New("空席数が不足しています")
	ErrJourneyDeparted      = errors.New("出発済みの運行便は予約できません")
	ErrVersionConflict      = errors.New("楽観的ロックの競合が発生しました")

	// ErrAvailabilityInvariant は空席数の不変条件違反（0 <= available <= total）
	// 検出時の整合性エラー。利用者起因のエラーではなく内部エラーとして扱う
	ErrAvailabilityInvariant = errors.New("空席数の不変条件に違反しています")
)
