package models

import "time"

// DiscountCode is a percentage-off promotion with a capped number of redemptions.
type DiscountCode struct {
	Code           string    `json:"code"`
	Percent        int       `json:"percent"`
	MaxRedemptions int       `json:"maxRedemptions"`
	Redemptions    int       `json:"redemptions"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (d DiscountCode) Remaining() int {
	if d.Redemptions >= d.MaxRedemptions {
		return 0
	}
	return d.MaxRedemptions - d.Redemptions
}
