package models

import (
	"time"

	"courtreserve/internal/domain"
)

const (
	SourceOnline = "online"
	SourceManual = "manual"
)

// Booking is the durable reservation record. It is never hard-deleted.
type Booking struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	CourtID         int64         `json:"courtId"`
	CourtName       string        `json:"courtName"`
	Date            string        `json:"date"`
	Hours           []int         `json:"hours"`
	Subtotal        int64         `json:"subtotal"`
	DiscountCode    string        `json:"discountCode,omitempty"`
	DiscountAmount  int64         `json:"discountAmount"`
	TotalAmount     int64         `json:"totalAmount"`
	PaidAmount      int64         `json:"paidAmount"`
	RemainingAmount int64         `json:"remainingAmount"`
	PaymentToken    string        `json:"paymentToken,omitempty"`
	Source          string        `json:"source"`
	Note            string        `json:"note,omitempty"`
	Status          domain.Status `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	CancelledAt     *time.Time    `json:"cancelledAt,omitempty"`
}

func (b Booking) Active() bool {
	return b.Status == domain.StatusBooked
}

// Overlaps reports whether any of hours is claimed by b.
func (b Booking) Overlaps(hours []int) bool {
	for _, h := range hours {
		for _, own := range b.Hours {
			if h == own {
				return true
			}
		}
	}
	return false
}

// BookingStats is the admin dashboard summary.
type BookingStats struct {
	TotalBookings     int   `json:"totalBookings"`
	ActiveBookings    int   `json:"activeBookings"`
	CancelledBookings int   `json:"cancelledBookings"`
	TotalRevenue      int64 `json:"totalRevenue"`
	TotalUsers        int   `json:"totalUsers"`
	BannedUsers       int   `json:"bannedUsers"`
	OpenReconciles    int   `json:"openReconciliations"`
}

// BookingFilter narrows booking listings. Zero fields are ignored.
type BookingFilter struct {
	UserID  string
	CourtID int64
	Date    string
	Status  domain.Status
}
