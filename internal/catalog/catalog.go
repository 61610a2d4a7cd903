// Package catalog defines the fixed grid of bookable hours and their price tiers.
package catalog

import (
	"fmt"
	"sort"

	"courtreserve/internal/domain"
)

const (
	FirstHour = 6
	LastHour  = 23

	// EveningFrom is the first hour billed at the evening rate.
	EveningFrom = 13

	MorningRate int64 = 800
	EveningRate int64 = 1200
)

type Tier string

const (
	TierMorning Tier = "morning"
	TierEvening Tier = "evening"
)

// Slot is one bookable hour. Slots are derived, never stored.
type Slot struct {
	ID    string `json:"id"`
	Hour  int    `json:"hour"`
	Label string `json:"label"`
	Tier  Tier   `json:"tier"`
	Price int64  `json:"price"`
}

var day = buildDay()

func buildDay() []Slot {
	out := make([]Slot, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		tier, price := tierFor(h)
		out = append(out, Slot{
			ID:    SlotID(h),
			Hour:  h,
			Label: fmt.Sprintf("%02d:00 - %02d:00", h, (h+1)%24),
			Tier:  tier,
			Price: price,
		})
	}
	return out
}

func tierFor(hour int) (Tier, int64) {
	if hour < EveningFrom {
		return TierMorning, MorningRate
	}
	return TierEvening, EveningRate
}

// SlotsForDay returns the ordered slots of any calendar day.
func SlotsForDay() []Slot {
	out := make([]Slot, len(day))
	copy(out, day)
	return out
}

func SlotID(hour int) string {
	return fmt.Sprintf("slot-%d", hour)
}

func IsValidHour(hour int) bool {
	return hour >= FirstHour && hour <= LastHour
}

func PriceForHour(hour int) (int64, error) {
	if !IsValidHour(hour) {
		return 0, domain.ValidationError{Field: "hours", Msg: fmt.Sprintf("hour %d is outside %d..%d", hour, FirstHour, LastHour)}
	}
	_, price := tierFor(hour)
	return price, nil
}

// NormalizeHours returns a sorted copy of hours. Empty, duplicate or out-of-grid
// input is rejected.
func NormalizeHours(hours []int) ([]int, error) {
	if len(hours) == 0 {
		return nil, domain.ValidationError{Field: "hours", Msg: "at least one slot is required"}
	}
	seen := make(map[int]struct{}, len(hours))
	out := make([]int, 0, len(hours))
	for _, h := range hours {
		if !IsValidHour(h) {
			return nil, domain.ValidationError{Field: "hours", Msg: fmt.Sprintf("hour %d is outside %d..%d", h, FirstHour, LastHour)}
		}
		if _, dup := seen[h]; dup {
			return nil, domain.ValidationError{Field: "hours", Msg: fmt.Sprintf("hour %d selected twice", h)}
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Ints(out)
	return out, nil
}

// Subtotal sums the tiered price of hours.
func Subtotal(hours []int) (int64, error) {
	norm, err := NormalizeHours(hours)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, h := range norm {
		p, _ := PriceForHour(h)
		total += p
	}
	return total, nil
}

// ApplyDiscount returns floor(subtotal*percent/100) and the remaining amount.
func ApplyDiscount(subtotal int64, percent int) (discount, final int64) {
	if subtotal <= 0 {
		return 0, 0
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	discount = subtotal * int64(percent) / 100
	return discount, subtotal - discount
}
