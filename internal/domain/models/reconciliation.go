package models

import "time"

const ReconcileOrphanedRedemption = "orphaned_redemption"

// Reconciliation records a discount redemption that was consumed without a booking
// being persisted. Administrators resolve it manually.
type Reconciliation struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	DiscountCode string     `json:"discountCode"`
	UserID       string     `json:"userId"`
	CourtID      int64      `json:"courtId"`
	Date         string     `json:"date"`
	Hours        []int      `json:"hours"`
	PaymentToken string     `json:"paymentToken,omitempty"`
	Amount       int64      `json:"amount"`
	Reason       string     `json:"reason"`
	Resolved     bool       `json:"resolved"`
	ResolvedBy   string     `json:"resolvedBy,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
