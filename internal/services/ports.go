package services

import (
	"context"
	"time"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/payments"
)

// Store contracts. Implementations return the domain sentinels (ErrNotFound,
// ErrSlotsNoLongerAvailable, ErrPaymentTokenUsed, ErrCodeNotFound, ErrCodeExhausted,
// ErrDuplicate) wrapped or bare; any other error means the store failed.

type CourtStore interface {
	List(ctx context.Context) ([]models.Court, error)
	Get(ctx context.Context, id int64) (*models.Court, error)
}

type BookingStore interface {
	ListActive(ctx context.Context, courtID int64, date string) ([]models.Booking, error)
	// InsertIfNoOverlap writes b only if no active booking on (court, date) claims any of its hours.
	InsertIfNoOverlap(ctx context.Context, b *models.Booking) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	// Cancel reports whether the booking moved from booked to cancelled.
	Cancel(ctx context.Context, id string, at time.Time) (bool, error)
	List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error)
	Totals(ctx context.Context) (models.BookingStats, error)
}

type DiscountStore interface {
	Get(ctx context.Context, code string) (*models.DiscountCode, error)
	// Redeem increments the redemption count iff the code is active and below its cap.
	Redeem(ctx context.Context, code string) (*models.DiscountCode, error)
	Create(ctx context.Context, d *models.DiscountCode) error
	Delete(ctx context.Context, code string) error
	List(ctx context.Context) ([]models.DiscountCode, error)
}

type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	SetBanned(ctx context.Context, id string, banned bool, at time.Time) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	List(ctx context.Context) ([]models.User, error)
}

type ReconciliationStore interface {
	Record(ctx context.Context, r *models.Reconciliation) error
	List(ctx context.Context, openOnly bool) ([]models.Reconciliation, error)
	Resolve(ctx context.Context, id, by, note string, at time.Time) error
}

// PaymentGateway is the external payment boundary, amounts in minor units.
type PaymentGateway interface {
	Initiate(ctx context.Context, c payments.Charge) (*payments.Intent, error)
	Confirm(ctx context.Context, token string) (*payments.Confirmation, error)
}

// ChangeNotifier must not block the caller.
type ChangeNotifier interface {
	Changed(collection string)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type AdminAlerter interface {
	ReconciliationRecorded(ctx context.Context, r models.Reconciliation)
}

const (
	CollectionBookings  = "bookings"
	CollectionUsers     = "users"
	CollectionDiscounts = "discounts"
)

const (
	EventBookingCreated         = "booking.created"
	EventBookingCancelled       = "booking.cancelled"
	EventDiscountRedeemed       = "discount.redeemed"
	EventReconciliationRequired = "reconciliation.required"
)
