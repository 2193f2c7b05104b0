package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/domain/booking"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

type CreateBookingRequest struct {
	JourneyID   string   `json:"journey_id" validate:"required,uuid"`
	SeatCount   int      `json:"seat_count" validate:"required,min=1" example:"2"`
	SeatNumbers []string `json:"seat_numbers" validate:"omitempty,dive,required"`
	Notes       string   `json:"notes" validate:"max=500"`
}

type BookingResponse struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	JourneyID   string     `json:"journey_id"`
	Reference   string     `json:"reference"`
	SeatCount   int        `json:"seat_count"`
	SeatNumbers []string   `json:"seat_numbers,omitempty"`
	TotalPrice  int        `json:"total_price"`
	Status      string     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	BookedAt    time.Time  `json:"booked_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID: b.ID, UserID: b.UserID, JourneyID: b.JourneyID,
		Reference: b.Reference, SeatCount: b.SeatCount, SeatNumbers: b.SeatNumbers,
		TotalPrice: b.TotalPrice, Status: string(b.Status), Notes: b.Notes,
		BookedAt: b.BookedAt, CancelledAt: b.CancelledAt,
	}
}

// Create godoc
// @Summary 予約を作成
// @Description 空席の確保と座席割り当てを単一トランザクションで行う
// @Tags bookings
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:      userID,
		JourneyID:   req.JourneyID,
		SeatCount:   req.SeatCount,
		SeatNumbers: req.SeatNumbers,
		Notes:       req.Notes,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// GetByID godoc
// @Summary 予約を取得
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 200 {object} BookingResponse
// @Failure 404 {object} map[string]string
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	b, err := h.service.GetBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}

// ListMine godoc
// @Summary 自分の予約一覧を取得
// @Tags bookings
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} BookingResponse
// @Router /bookings [get]
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	bookings, err := h.service.GetUserBookings(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = toBookingResponse(b)
	}
	return c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 座席の解放と空席数の復元を単一トランザクションで行う。冪等
// @Tags bookings
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "予約ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /bookings/{id} [delete]
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	if _, err := h.service.CancelBooking(c.Request().Context(), c.Param("id"), userID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
