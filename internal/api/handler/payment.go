package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-transit-booking/internal/application"
	"github.com/sanosuguru/go-transit-booking/internal/domain/payment"
)

type PaymentHandler struct {
	service PaymentServiceInterface
}

func NewPaymentHandler(s PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: s}
}

type CreatePaymentRequest struct {
	BookingID string         `json:"booking_id" validate:"required,uuid"`
	Amount    int            `json:"amount" validate:"required,min=1" example:"27000"`
	Method    string         `json:"method" validate:"required,oneof=CARD BANK_TRANSFER WALLET" example:"CARD"`
	Details   map[string]any `json:"details"`
}

type PaymentResponse struct {
	ID            string    `json:"id"`
	BookingID     string    `json:"booking_id"`
	Amount        int       `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID: p.ID, BookingID: p.BookingID, Amount: p.Amount,
		Method: p.Method, Status: string(p.Status), TransactionID: p.TransactionID,
		PaidAt: p.PaidAt, UpdatedAt: p.UpdatedAt,
	}
}

// Create godoc
// @Summary 支払いを作成
// @Description 予約の合計金額と一致する金額のみ受け付ける
// @Tags payments
// @Accept json
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param request body CreatePaymentRequest true "支払い情報"
// @Success 201 {object} PaymentResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /payments [post]
func (h *PaymentHandler) Create(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.service.CreatePayment(c.Request().Context(), application.CreatePaymentInput{
		RequesterID: userID,
		BookingID:   req.BookingID,
		Amount:      req.Amount,
		Method:      req.Method,
		Details:     req.Details,
	})
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toPaymentResponse(p))
}

// GetByID godoc
// @Summary 支払いを取得
// @Tags payments
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "支払いID"
// @Success 200 {object} PaymentResponse
// @Failure 404 {object} map[string]string
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetByID(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p, err := h.service.GetPayment(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(p))
}

// ListMine godoc
// @Summary 自分の支払い一覧を取得
// @Tags payments
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Success 200 {array} PaymentResponse
// @Router /payments [get]
func (h *PaymentHandler) ListMine(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	payments, err := h.service.GetUserPayments(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return toHTTPError(err)
	}
	resp := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refund godoc
// @Summary 支払いを返金
// @Description 完了済みの支払いのみ返金できる
// @Tags payments
// @Produce json
// @Param X-User-ID header string true "ユーザーID"
// @Param id path string true "支払いID"
// @Success 200 {object} PaymentResponse
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /payments/{id}/refund [patch]
func (h *PaymentHandler) Refund(c echo.Context) error {
	userID, err := requireUserID(c)
	if err != nil {
		return err
	}
	p, err := h.service.Refund(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, toPaymentResponse(p))
}
