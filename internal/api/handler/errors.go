package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
)

// toHTTPError はドメインエラーをHTTPエラーに変換する
// 分類: 入力不正 400 / 未発見 404 / 事前条件違反 409 / 競合リトライ超過 503 /
// 整合性違反・それ以外 500
func toHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, journey.ErrJourneyNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, seat.ErrSeatNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())

	case errors.Is(err, journey.ErrInsufficientSeats),
		errors.Is(err, journey.ErrJourneyDeparted),
		errors.Is(err, journey.ErrVersionConflict),
		errors.Is(err, seat.ErrSeatUnavailable),
		errors.Is(err, seat.ErrDuplicateSeat),
		errors.Is(err, payment.ErrDuplicatePayment),
		errors.Is(err, payment.ErrAmountMismatch),
		errors.Is(err, payment.ErrNotRefundable):
		return echo.NewHTTPError(http.StatusConflict, err.Error())

	case errors.Is(err, booking.ErrJourneyBusy):
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())

	case errors.Is(err, booking.ErrInvalidSeatCount),
		errors.Is(err, booking.ErrSeatCountMismatch),
		errors.Is(err, journey.ErrSourceRequired),
		errors.Is(err, journey.ErrDestinationRequired),
		errors.Is(err, journey.ErrInvalidTransportType),
		errors.Is(err, journey.ErrInvalidTotalSeats),
		errors.Is(err, journey.ErrInvalidPrice),
		errors.Is(err, journey.ErrInvalidSchedule),
		errors.Is(err, seat.ErrSeatNumberRequired),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrMethodRequired):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())

	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// requireUserID は X-User-ID ヘッダから認証済みユーザーIDを取り出す
// 認証自体は外部コラボレータの責務であり、ここではヘッダを信頼する
func requireUserID(c echo.Context) (string, error) {
	userID := c.Request().Header.Get("X-User-ID")
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "ユーザーIDが必要です")
	}
	return userID, nil
}
