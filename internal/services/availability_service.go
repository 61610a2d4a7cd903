package services

import (
	"context"
	"time"

	"courtreserve/internal/catalog"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"
)

type SlotState string

const (
	SlotAvailable SlotState = "available"
	SlotBooked    SlotState = "booked"
	SlotPast      SlotState = "past"
)

// ScheduleSlot is a catalog slot annotated with its state for one court and day.
type ScheduleSlot struct {
	catalog.Slot
	State SlotState `json:"state"`
}

type AvailabilityService struct {
	Courts   CourtStore
	Bookings BookingStore
	Now      Clock
	Location *time.Location
}

func (s AvailabilityService) ListCourts(ctx context.Context) ([]models.Court, error) {
	courts, err := s.Courts.List(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return courts, nil
}

func (s AvailabilityService) GetCourt(ctx context.Context, courtID int64) (*models.Court, error) {
	if courtID <= 0 {
		return nil, domain.ValidationError{Field: "courtId", Msg: "must be positive"}
	}
	c, err := s.Courts.Get(ctx, courtID)
	if err != nil {
		return nil, notFoundOr(err, "court")
	}
	return c, nil
}

// Today is the current date in the service's location.
func (s AvailabilityService) Today() string {
	return utils.FormatDate(s.Now.now(), locOrLocal(s.Location))
}

// DaySchedule returns every catalog slot of the day with its state. A booked hour
// reports booked even when it is also past.
func (s AvailabilityService) DaySchedule(ctx context.Context, courtID int64, date string) ([]ScheduleSlot, error) {
	loc := locOrLocal(s.Location)
	day, err := utils.ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	if _, err := s.GetCourt(ctx, courtID); err != nil {
		return nil, err
	}
	active, err := s.Bookings.ListActive(ctx, courtID, utils.FormatDate(day, loc))
	if err != nil {
		return nil, domain.StoreError(err)
	}

	taken := map[int]bool{}
	for _, b := range active {
		for _, h := range b.Hours {
			taken[h] = true
		}
	}

	now := s.Now.now().In(loc)
	today := startOfDay(now, loc)
	slots := catalog.SlotsForDay()
	out := make([]ScheduleSlot, 0, len(slots))
	for _, slot := range slots {
		state := SlotAvailable
		switch {
		case taken[slot.Hour]:
			state = SlotBooked
		case day.Before(today):
			state = SlotPast
		case day.Equal(today) && slot.Hour <= now.Hour():
			state = SlotPast
		}
		out = append(out, ScheduleSlot{Slot: slot, State: state})
	}
	return out, nil
}

// AvailableSlots returns the bookable slots in ascending hour order.
func (s AvailabilityService) AvailableSlots(ctx context.Context, courtID int64, date string) ([]catalog.Slot, error) {
	schedule, err := s.DaySchedule(ctx, courtID, date)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Slot, 0, len(schedule))
	for _, slot := range schedule {
		if slot.State == SlotAvailable {
			out = append(out, slot.Slot)
		}
	}
	return out, nil
}

// ensureAvailable fails with a slots conflict unless every hour is currently bookable.
func (s AvailabilityService) ensureAvailable(ctx context.Context, courtID int64, date string, hours []int) error {
	free, err := s.AvailableSlots(ctx, courtID, date)
	if err != nil {
		return err
	}
	open := make(map[int]bool, len(free))
	for _, slot := range free {
		open[slot.Hour] = true
	}
	for _, h := range hours {
		if !open[h] {
			return slotsConflict()
		}
	}
	return nil
}

func slotsConflict() error {
	return domain.ConflictError{
		Resource: "slots",
		Msg:      "one or more selected slots are no longer available",
		Err:      domain.ErrSlotsNoLongerAvailable,
	}
}
