package services

import (
	"context"
	"errors"
	"testing"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableSlotsTodayExcludesElapsedHours(t *testing.T) {
	f := newFixture(t)

	slots, err := f.avail.AvailableSlots(context.Background(), 1, f.today)
	require.NoError(t, err)
	assert.Equal(t, []int{16, 17, 18, 19, 20, 21, 22, 23}, hoursOf(slots))
}

func TestAvailableSlotsFutureAndPastDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	future, err := f.avail.AvailableSlots(ctx, 1, f.tomorrow)
	require.NoError(t, err)
	assert.Len(t, future, 18)
	assert.Equal(t, 6, future[0].Hour)
	assert.Equal(t, 23, future[len(future)-1].Hour)

	past, err := f.avail.AvailableSlots(ctx, 1, "2025-06-09")
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestDayScheduleMarksBookedHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.bookings.CreateBooking(ctx, CreateBookingInput{
		UserID: f.user.ID, CourtID: 2, Date: f.tomorrow, Hours: []int{9, 14}, PaymentToken: f.pay(t, 2000),
	})
	require.NoError(t, err)

	schedule, err := f.avail.DaySchedule(ctx, 2, f.tomorrow)
	require.NoError(t, err)
	states := map[int]SlotState{}
	for _, s := range schedule {
		states[s.Hour] = s.State
	}
	assert.Equal(t, SlotBooked, states[9])
	assert.Equal(t, SlotBooked, states[14])
	assert.Equal(t, SlotAvailable, states[10])

	other, err := f.avail.AvailableSlots(ctx, 1, f.tomorrow)
	require.NoError(t, err)
	assert.Len(t, other, 18, "bookings are scoped to their court")
}

func TestAvailabilityErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.avail.AvailableSlots(ctx, 99, f.tomorrow)
	assert.True(t, domain.IsNotFound(err))

	_, err = f.avail.AvailableSlots(ctx, 1, "11/06/2025")
	assert.True(t, domain.IsValidation(err))

	broken := f.avail
	broken.Bookings = failingBookings{f.store.Bookings()}
	_, err = broken.AvailableSlots(ctx, 1, f.tomorrow)
	assert.True(t, domain.IsUpstream(err))
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

type failingBookings struct{ BookingStore }

func (failingBookings) ListActive(ctx context.Context, courtID int64, date string) ([]models.Booking, error) {
	return nil, errors.New("connection refused")
}
