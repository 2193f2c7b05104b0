package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/domain/seat"
)

type SeatHandler struct {
	service SeatServiceInterface
}

func NewSeatHandler(s SeatServiceInterface) *SeatHandler {
	return &SeatHandler{service: s}
}

type CreateBulkSeatsRequest struct {
	Prefix      string   `json:"prefix" validate:"omitempty,max=8" example:"A"`
	Count       int      `json:"count" validate:"omitempty,min=1,max=1000" example:"40"`
	SeatNumbers []string `json:"seat_numbers" validate:"omitempty,dive,required"`
	SeatClass   string   `json:"seat_class" validate:"omitempty,max=32" example:"Green"`
}

type SeatResponse struct {
	ID         string  `json:"id"`
	JourneyID  string  `json:"journey_id"`
	SeatNumber string  `json:"seat_number"`
	SeatClass  string  `json:"seat_class"`
	IsBooked   bool    `json:"is_booked"`
	BookingID  *string `json:"booking_id,omitempty"`
}

func toSeatResponse(s *seat.Seat) SeatResponse {
	return SeatResponse{
		ID: s.ID, JourneyID: s.JourneyID, SeatNumber: s.SeatNumber,
		SeatClass: s.SeatClass, IsBooked: s.IsBooked, BookingID: s.BookingID,
	}
}

// CreateBulk godoc
// @Summary 運行便の座席を一括作成
// @Tags seats
// @Accept json
// @Produce json
// @Param id path string true "運行便ID"
// @Param request body CreateBulkSeatsRequest true "座席情報"
// @Success 201 {array} SeatResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /journeys/{id}/seats [post]
func (h *SeatHandler) CreateBulk(c echo.Context) error {
	var req CreateBulkSeatsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	seats, err := h.service.CreateBulkSeats(c.Request().Context(), application.CreateBulkSeatsInput{
		JourneyID:   c.Param("id"),
		Prefix:      req.Prefix,
		Count:       req.Count,
		SeatNumbers: req.SeatNumbers,
		SeatClass:   req.SeatClass,
	})
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]SeatResponse, len(seats))
	for i, st := range seats {
		resp[i] = toSeatResponse(st)
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListByJourney godoc
// @Summary 運行便の座席一覧を取得
// @Tags seats
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {array} SeatResponse
// @Failure 404 {object} map[string]string
// @Router /journeys/{id}/seats [get]
func (h *SeatHandler) ListByJourney(c echo.Context) error {
	seats, err := h.service.GetSeatsByJourney(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]SeatResponse, len(seats))
	for i, st := range seats {
		resp[i] = toSeatResponse(st)
	}
	return c.JSON(http.StatusOK, resp)
}
