package handlers

import (
	"net/http"

	"courtreserve/internal/http/middleware"
	"courtreserve/internal/services"

	"github.com/gin-gonic/gin"
)

type validateDiscountRequest struct {
	Code string `json:"code"`
}

// POST /api/discounts/validate
func (h *Handler) ValidateDiscount(c *gin.Context) {
	var req validateDiscountRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	q, err := h.Discounts.Validate(c.Request.Context(), req.Code)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// POST /api/bookings/quote
func (h *Handler) QuoteBooking(c *gin.Context) {
	var req services.QuoteInput
	if !BindJSONOrError(c, &req) {
		return
	}
	q, err := h.Bookings.Quote(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// POST /api/bookings/payments
func (h *Handler) InitiatePayment(c *gin.Context) {
	var req services.PaymentInput
	if !BindJSONOrError(c, &req) {
		return
	}
	intent, err := h.Bookings.InitiatePayment(c.Request.Context(), middleware.Actor(c).UserID, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, intent)
}

// POST /api/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	req.UserID = middleware.Actor(c).UserID
	b, err := h.Bookings.CreateBooking(c.Request.Context(), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GET /api/bookings/mine
func (h *Handler) MyBookings(c *gin.Context) {
	out, err := h.Bookings.ListForUser(c.Request.Context(), middleware.Actor(c).UserID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

// GET /api/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.Bookings.Get(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// POST /api/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	b, err := h.Bookings.CancelBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// GET /api/bookings/:id/receipt
func (h *Handler) BookingReceipt(c *gin.Context) {
	pdf, filename, err := h.Receipts.Generate(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
