package journey

import "time"

// TransportType は輸送手段の種別を表す
type TransportType string

const (
	TransportBus   TransportType = "BUS"
	TransportTrain TransportType = "TRAIN"
	TransportPlane TransportType = "PLANE"
	TransportShip  TransportType = "SHIP"
)

// IsValid は輸送種別が定義済みかを返す
func (t TransportType) IsValid() bool {
	switch t {
	case TransportBus, TransportTrain, TransportPlane, TransportShip:
		return true
	}
	return false
}

// Journey は運行便エンティティを表す
type Journey struct {
	ID              string
	Source          string
	Destination     string
	DepartureAt     time.Time
	ArrivalAt       time.Time
	TransportType   TransportType
	TransportName   string
	TransportNumber string
	TotalSeats      int
	AvailableSeats  int
	Price           int // 最小通貨単位
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int // 楽観的ロック用
}

// NewJourney は新しい運行便を作成する
func NewJourney(source, destination string, departureAt, arrivalAt time.Time, transportType TransportType, transportName, transportNumber string, totalSeats, price int) *Journey {
	now := time.Now()
	return &Journey{
		Source:          source,
		Destination:     destination,
		DepartureAt:     departureAt,
		ArrivalAt:       arrivalAt,
		TransportType:   transportType,
		TransportName:   transportName,
		TransportNumber: transportNumber,
		TotalSeats:      totalSeats,
		AvailableSeats:  totalSeats,
		Price:           price,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         0,
	}
}

// IsUpcoming は出発時刻が未来かを返す
func (j *Journey) IsUpcoming() bool {
	return j.DepartureAt.After(time.Now())
}

// Duration は所要時間を返す
func (j *Journey) Duration() time.Duration {
	return j.ArrivalAt.Sub(j.DepartureAt)
}

// HasCapacity は指定席数を予約できる空席があるかを返す
func (j *Journey) HasCapacity(count int) bool {
	return j.AvailableSeats >= count
}

// Validate は運行便の検証を行う
func (j *Journey) Validate() error {
	if j.Source == "" {
		return ErrSourceRequired
	}
	if j.Destination == "" {
		return ErrDestinationRequired
	}
	if !j.TransportType.IsValid() {
		return ErrInvalidTransportType
	}
	if j.TotalSeats < 1 {
		return ErrInvalidTotalSeats
	}
	if j.AvailableSeats < 0 || j.AvailableSeats > j.TotalSeats {
		return ErrAvailabilityInvariant
	}
	if j.Price < 0 {
		return ErrInvalidPrice
	}
	if !j.DepartureAt.Before(j.ArrivalAt) {
		return ErrInvalidSchedule
	}
	return nil
}
