package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/domain/journey"
)

type JourneyHandler struct {
	service JourneyServiceInterface
}

func NewJourneyHandler(s JourneyServiceInterface) *JourneyHandler {
	return &JourneyHandler{service: s}
}

type CreateJourneyRequest struct {
	Source          string    `json:"source" validate:"required" example:"東京"`
	Destination     string    `json:"destination" validate:"required" example:"大阪"`
	DepartureAt     time.Time `json:"departure_at" validate:"required"`
	ArrivalAt       time.Time `json:"arrival_at" validate:"required"`
	TransportType   string    `json:"transport_type" validate:"required,oneof=BUS TRAIN PLANE SHIP" example:"TRAIN"`
	TransportName   string    `json:"transport_name" validate:"required" example:"のぞみ"`
	TransportNumber string    `json:"transport_number" validate:"required" example:"N700-123"`
	TotalSeats      int       `json:"total_seats" validate:"required,min=1" example:"100"`
	Price           int       `json:"price" validate:"min=0" example:"13500"`
}

type UpdateJourneyRequest struct {
	Source          string    `json:"source" validate:"required"`
	Destination     string    `json:"destination" validate:"required"`
	DepartureAt     time.Time `json:"departure_at" validate:"required"`
	ArrivalAt       time.Time `json:"arrival_at" validate:"required"`
	TransportType   string    `json:"transport_type" validate:"required,oneof=BUS TRAIN PLANE SHIP"`
	TransportName   string    `json:"transport_name" validate:"required"`
	TransportNumber string    `json:"transport_number" validate:"required"`
	Price           int       `json:"price" validate:"min=0"`
}

type JourneyResponse struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Destination     string    `json:"destination"`
	DepartureAt     time.Time `json:"departure_at"`
	ArrivalAt       time.Time `json:"arrival_at"`
	TransportType   string    `json:"transport_type"`
	TransportName   string    `json:"transport_name"`
	TransportNumber string    `json:"transport_number"`
	TotalSeats      int       `json:"total_seats"`
	AvailableSeats  int       `json:"available_seats"`
	Price           int       `json:"price"`
	CreatedAt       time.Time `json:"created_at"`
}

func toJourneyResponse(j *journey.Journey) JourneyResponse {
	return JourneyResponse{
		ID: j.ID, Source: j.Source, Destination: j.Destination,
		DepartureAt: j.DepartureAt, ArrivalAt: j.ArrivalAt,
		TransportType: string(j.TransportType), TransportName: j.TransportName,
		TransportNumber: j.TransportNumber, TotalSeats: j.TotalSeats,
		AvailableSeats: j.AvailableSeats, Price: j.Price, CreatedAt: j.CreatedAt,
	}
}

// Create godoc
// @Summary 運行便を作成
// @Tags journeys
// @Accept json
// @Produce json
// @Param request body CreateJourneyRequest true "運行便情報"
// @Success 201 {object} JourneyResponse
// @Failure 400 {object} map[string]string
// @Router /journeys [post]
func (h *JourneyHandler) Create(c echo.Context) error {
	var req CreateJourneyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	j, err := h.service.CreateJourney(c.Request().Context(), application.CreateJourneyInput{
		Source: req.Source, Destination: req.Destination,
		DepartureAt: req.DepartureAt, ArrivalAt: req.ArrivalAt,
		TransportType: req.TransportType, TransportName: req.TransportName,
		TransportNumber: req.TransportNumber, TotalSeats: req.TotalSeats, Price: req.Price,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toJourneyResponse(j))
}

// List godoc
// @Summary 運行便一覧を取得
// @Tags journeys
// @Produce json
// @Param source query string false "出発地（部分一致）"
// @Param destination query string false "目的地（部分一致）"
// @Param upcoming query bool false "未出発のみ" default(true)
// @Success 200 {array} JourneyResponse
// @Router /journeys [get]
func (h *JourneyHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	upcoming := c.QueryParam("upcoming") != "false"

	journeys, err := h.service.ListJourneys(c.Request().Context(), journey.ListFilter{
		Source:       c.QueryParam("source"),
		Destination:  c.QueryParam("destination"),
		UpcomingOnly: upcoming,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]JourneyResponse, len(journeys))
	for i, j := range journeys {
		resp[i] = toJourneyResponse(j)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 運行便を取得
// @Tags journeys
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {object} JourneyResponse
// @Failure 404 {object} map[string]string
// @Router /journeys/{id} [get]
func (h *JourneyHandler) GetByID(c echo.Context) error {
	j, err := h.service.GetJourney(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toJourneyResponse(j))
}

// Update godoc
// @Summary 運行便を更新
// @Tags journeys
// @Accept json
// @Produce json
// @Param id path string true "運行便ID"
// @Param request body UpdateJourneyRequest true "運行便情報"
// @Success 200 {object} JourneyResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /journeys/{id} [put]
func (h *JourneyHandler) Update(c echo.Context) error {
	var req UpdateJourneyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	j, err := h.service.UpdateJourney(c.Request().Context(), application.UpdateJourneyInput{
		ID: c.Param("id"), Source: req.Source, Destination: req.Destination,
		DepartureAt: req.DepartureAt, ArrivalAt: req.ArrivalAt,
		TransportType: req.TransportType, TransportName: req.TransportName,
		TransportNumber: req.TransportNumber, Price: req.Price,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toJourneyResponse(j))
}

// Delete godoc
// @Summary 運行便を削除
// @Tags journeys
// @Param id path string true "運行便ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /journeys/{id} [delete]
func (h *JourneyHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteJourney(c.Request().Context(), c.Param("id")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Availability godoc
// @Summary 運行便の空席数を取得
// @Tags journeys
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {object} map[string]int
// @Failure 404 {object} map[string]string
// @Router /journeys/{id}/availability [get]
func (h *JourneyHandler) Availability(c echo.Context) error {
	count, err := h.service.GetAvailableSeats(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"available_seats": count})
}
