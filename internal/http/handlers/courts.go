package handlers

import (
	"net/http"
	"strings"

	"courtreserve/internal/catalog"

	"github.com/gin-gonic/gin"
)

// GET /api/courts
func (h *Handler) ListCourts(c *gin.Context) {
	courts, err := h.Availability.ListCourts(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courts": courts})
}

// GET /api/slots
func (h *Handler) ListSlots(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"slots": catalog.SlotsForDay()})
}

// GET /api/courts/:id/availability?date=YYYY-MM-DD[&view=schedule]
func (h *Handler) CourtAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		date = h.Availability.Today()
	}
	if c.Query("view") == "schedule" {
		schedule, err := h.Availability.DaySchedule(c.Request.Context(), id, date)
		if err != nil {
			RespondDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"courtId": id, "date": date, "slots": schedule})
		return
	}
	slots, err := h.Availability.AvailableSlots(c.Request.Context(), id, date)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courtId": id, "date": date, "slots": slots})
}
