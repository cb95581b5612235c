package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/maratgil/eventbooking/internal/domain"
	"github.com/maratgil/eventbooking/internal/service/payments"
)

type PaymentHandler struct {
	service payments.UseCase
	log     *logrus.Logger
}

func NewPaymentHandler(service payments.UseCase, log *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, log: log}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/initiate", AuthRequired(), h.initiate)
	router.POST("/success", h.redirectSuccess)
	router.POST("/fail", h.redirectClosed)
	router.POST("/cancel", h.redirectClosed)
	router.POST("/ipn", h.webhook)
	router.GET("/validate", AuthRequired(), h.validate)
	router.POST("/:id/refund", AuthRequired(), h.refund)
	router.GET("/:id", AuthRequired(), h.get)
}

type initiateRequest struct {
	EventID       int64  `json:"event_id" binding:"required"`
	PackageID     *int64 `json:"package_id"`
	Quantity      int    `json:"quantity" binding:"required,gte=1"`
	Currency      string `json:"currency" binding:"required"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

type sessionResponse struct {
	TransactionID string `json:"transaction_id"`
	RedirectURL   string `json:"redirect_url"`
	Status        string `json:"status"`
}

type paymentResponse struct {
	ID                int64  `json:"id"`
	TransactionID     string `json:"transaction_id"`
	EventID           int64  `json:"event_id"`
	PackageID         *int64 `json:"package_id,omitempty"`
	Quantity          int    `json:"quantity"`
	AmountCents       int64  `json:"amount_cents"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	BankTransactionID string `json:"bank_transaction_id,omitempty"`
	CreatedAt         string `json:"created_at"`
}

type settlementResponse struct {
	TransactionID string           `json:"transaction_id"`
	Status        string           `json:"status"`
	Duplicate     bool             `json:"duplicate,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	Booking       *bookingResponse `json:"booking,omitempty"`
}

type bookingResponse struct {
	ID           int64  `json:"id"`
	PaymentID    int64  `json:"payment_id"`
	EventID      int64  `json:"event_id"`
	PackageID    *int64 `json:"package_id,omitempty"`
	Quantity     int    `json:"quantity"`
	TotalCents   int64  `json:"total_cents"`
	Status       string `json:"status"`
	OverCapacity bool   `json:"over_capacity,omitempty"`
}

func (h *PaymentHandler) initiate(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.InitiateSession(c.Request.Context(), payments.SessionInput{
		UserID:        authenticatedUser(c),
		EventID:       req.EventID,
		PackageID:     req.PackageID,
		Quantity:      req.Quantity,
		Currency:      req.Currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, sessionResponse{
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		Status:        string(result.Status),
	})
}

// redirectSuccess handles the browser returning from the gateway. The posted
// fields are treated as correlation hints only; settlement re-validates with
// the gateway before anything changes.
func (h *PaymentHandler) redirectSuccess(c *gin.Context) {
	h.settle(c, "redirect")
}

func (h *PaymentHandler) redirectClosed(c *gin.Context) {
	h.settle(c, "redirect")
}

func (h *PaymentHandler) validate(c *gin.Context) {
	h.settle(c, "explicit")
}

func (h *PaymentHandler) settle(c *gin.Context, channel string) {
	in := payments.SettleInput{
		TransactionID: correlationField(c, "tran_id"),
		ValidationID:  correlationField(c, "val_id"),
		Channel:       channel,
	}

	result, err := h.service.Settle(c.Request.Context(), in)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toSettlementResponse(result))
}

// webhook is the gateway's server-to-server channel. It acknowledges with
// 200 no matter what happens internally: a non-200 would trigger the
// gateway's retry storm, and the settlement logic is already idempotent.
func (h *PaymentHandler) webhook(c *gin.Context) {
	in := payments.SettleInput{
		TransactionID: correlationField(c, "tran_id"),
		ValidationID:  correlationField(c, "val_id"),
		Channel:       "webhook",
	}

	result, err := h.service.Settle(c.Request.Context(), in)
	if err != nil {
		h.log.WithError(err).WithField("tran_id", in.TransactionID).Warn("webhook settlement failed")
		c.JSON(http.StatusOK, gin.H{"status": "received"})
		return
	}

	c.JSON(http.StatusOK, toSettlementResponse(result))
}

type refundRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,gt=0"`
	Remarks     string `json:"remarks"`
}

func (h *PaymentHandler) refund(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payment, err := h.service.InitiateRefund(c.Request.Context(), paymentID, req.AmountCents, req.Remarks)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) get(c *gin.Context) {
	paymentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		c.JSON(statusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

// correlationField reads an id from the form body (how gateways post
// redirects) falling back to the query string.
func correlationField(c *gin.Context, name string) string {
	if v := c.PostForm(name); v != "" {
		return v
	}
	return c.Query(name)
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		TransactionID:     p.TransactionID,
		EventID:           p.EventID,
		PackageID:         p.PackageID,
		Quantity:          p.Quantity,
		AmountCents:       p.AmountCents,
		Currency:          p.Currency,
		Status:            string(p.Status),
		BankTransactionID: p.BankTransactionID,
		CreatedAt:         p.CreatedAt.Format(time.RFC3339),
	}
}

func toSettlementResponse(r *payments.SettlementResult) settlementResponse {
	resp := settlementResponse{
		TransactionID: r.Payment.TransactionID,
		Status:        string(r.Payment.Status),
		Duplicate:     r.Duplicate,
		Reason:        r.Reason,
	}
	if r.Booking != nil {
		resp.Booking = &bookingResponse{
			ID:           r.Booking.ID,
			PaymentID:    r.Booking.PaymentID,
			EventID:      r.Booking.EventID,
			PackageID:    r.Booking.PackageID,
			Quantity:     r.Booking.Quantity,
			TotalCents:   r.Booking.TotalCents,
			Status:       string(r.Booking.Status),
			OverCapacity: r.Booking.OverCapacity,
		}
	}
	return resp
}
