package handlers

import (
	"context"

	"courtreserve/internal/notify"
	"courtreserve/internal/services"
)

// Handler serves the REST API on top of the services.
type Handler struct {
	Availability services.AvailabilityService
	Bookings     services.BookingService
	Discounts    services.DiscountService
	Admin        services.AdminService
	Auth         services.AuthService
	Receipts     services.ReceiptService
	Hub          *notify.Hub
	// StorePing backs /api/db-check; nil means the in-memory store.
	StorePing func(ctx context.Context) error
	Driver    string
}
