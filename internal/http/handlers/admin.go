package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/http/middleware"
	"courtreserve/internal/services"

	"github.com/gin-gonic/gin"
)

// GET /api/admin/bookings?userId=&courtId=&date=&status=
func (h *Handler) AdminListBookings(c *gin.Context) {
	f := models.BookingFilter{
		UserID: strings.TrimSpace(c.Query("userId")),
		Date:   strings.TrimSpace(c.Query("date")),
		Status: domain.Status(strings.TrimSpace(c.Query("status"))),
	}
	if raw := strings.TrimSpace(c.Query("courtId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(c, http.StatusBadRequest, "invalid_courtId", "courtId must be a positive integer", nil)
			return
		}
		f.CourtID = id
	}
	out, err := h.Bookings.ListAll(c.Request.Context(), middleware.Actor(c), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

// POST /api/admin/bookings
func (h *Handler) AdminCreateBooking(c *gin.Context) {
	var req services.ManualBookingInput
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.Admin.CreateManualBooking(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// GET /api/admin/discounts
func (h *Handler) AdminListDiscounts(c *gin.Context) {
	out, err := h.Admin.ListDiscounts(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"discounts": out})
}

// POST /api/admin/discounts
func (h *Handler) AdminCreateDiscount(c *gin.Context) {
	var req services.CreateDiscountInput
	if !BindJSONOrError(c, &req) {
		return
	}
	d, err := h.Admin.CreateDiscount(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"discount": d})
}

// DELETE /api/admin/discounts/:code
func (h *Handler) AdminDeleteDiscount(c *gin.Context) {
	if err := h.Admin.DeleteDiscount(c.Request.Context(), middleware.Actor(c), c.Param("code")); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/admin/users
func (h *Handler) AdminListUsers(c *gin.Context) {
	out, err := h.Admin.ListUsers(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// POST /api/admin/users/:id/ban
func (h *Handler) AdminBanUser(c *gin.Context) {
	u, err := h.Admin.BanUser(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// POST /api/admin/users/:id/unban
func (h *Handler) AdminUnbanUser(c *gin.Context) {
	u, err := h.Admin.UnbanUser(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// PUT /api/admin/users/:id/role
func (h *Handler) AdminSetUserRole(c *gin.Context) {
	var req setRoleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	u, err := h.Admin.SetUserRole(c.Request.Context(), middleware.Actor(c), c.Param("id"), role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// GET /api/admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	stats, err := h.Admin.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GET /api/admin/reconciliations?all=true
func (h *Handler) AdminListReconciliations(c *gin.Context) {
	out, err := h.Admin.ListReconciliations(c.Request.Context(), middleware.Actor(c), !queryBool(c, "all"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciliations": out})
}

type resolveRequest struct {
	Note string `json:"note"`
}

// POST /api/admin/reconciliations/:id/resolve
func (h *Handler) AdminResolveReconciliation(c *gin.Context) {
	var req resolveRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}
	if err := h.Admin.ResolveReconciliation(c.Request.Context(), middleware.Actor(c), c.Param("id"), req.Note); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "resolved"})
}

// GET /api/admin/courts/:id/bookings?date=YYYY-MM-DD
func (h *Handler) AdminCourtDay(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.Availability.Today()
	}
	out, err := h.Bookings.ListForDate(c.Request.Context(), id, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courtId": id, "date": date, "bookings": out})
}
