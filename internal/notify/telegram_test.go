package notify

import (
	"context"
	"testing"

	"courtreserve/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledAlerterIsNoop(t *testing.T) {
	a, err := NewTelegramAlerter("", 0)
	require.NoError(t, err)
	a.ReconciliationRecorded(context.Background(), models.Reconciliation{ID: "r1"})
}

func TestReconciliationText(t *testing.T) {
	text := reconciliationText(models.Reconciliation{
		ID: "r1", DiscountCode: "SAVE20", UserID: "u1", CourtID: 2, Date: "2025-06-11",
		Hours: []int{9, 14}, Amount: 1600, Reason: "slots conflict",
	})
	assert.Contains(t, text, "SAVE20")
	assert.Contains(t, text, "09:00, 14:00")
	assert.Contains(t, text, "Court 2 on 2025-06-11")
}

func TestLogPublisherAcceptsEvents(t *testing.T) {
	assert.NoError(t, LogPublisher{}.Publish(context.Background(), "booking.created", map[string]string{"id": "b1"}))
	ev := newEvent("booking.created", 1)
	assert.Equal(t, "booking.created", ev.Type)
	assert.NotEmpty(t, ev.ID)
}
