package handlers

import (
	"io"
	"net/http"
	"time"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/http/middleware"
	"courtreserve/internal/notify"

	"github.com/gin-gonic/gin"
)

const streamKeepAlive = 25 * time.Second

// bookingView is what non-admin subscribers see of other people's bookings.
type bookingView struct {
	ID      string        `json:"id"`
	CourtID int64         `json:"courtId"`
	Date    string        `json:"date"`
	Hours   []int         `json:"hours"`
	Status  domain.Status `json:"status"`
	Mine    bool          `json:"mine"`
}

// Stream sends the full collection as a server-sent "snapshot" event on connect
// and after every change.
func (h *Handler) Stream(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Hub == nil {
			respondError(c, http.StatusServiceUnavailable, "stream_unavailable", "live updates are disabled", nil)
			return
		}
		actor := middleware.Actor(c)
		sub := h.Hub.Subscribe(collection)
		defer sub.Close()

		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(streamKeepAlive)
		defer ticker.Stop()
		c.Stream(func(w io.Writer) bool {
			select {
			case <-c.Request.Context().Done():
				return false
			case snap, ok := <-sub.C():
				if !ok {
					return false
				}
				c.SSEvent("snapshot", redact(snap, actor))
				return true
			case <-ticker.C:
				c.SSEvent("ping", time.Now().Unix())
				return true
			}
		})
	}
}

func redact(snap notify.Snapshot, actor domain.Actor) notify.Snapshot {
	if actor.Role.IsAdmin() {
		return snap
	}
	bookings, ok := snap.Items.([]models.Booking)
	if !ok {
		return snap
	}
	views := make([]bookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, bookingView{
			ID:      b.ID,
			CourtID: b.CourtID,
			Date:    b.Date,
			Hours:   b.Hours,
			Status:  b.Status,
			Mine:    b.UserID == actor.UserID,
		})
	}
	snap.Items = views
	return snap
}
