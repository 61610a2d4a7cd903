// Package payments is the payment gateway boundary. Amounts here are minor units.
package payments

import (
	"errors"
	"strings"
)

const (
	StatusSuccessful = "successful"
	StatusPending    = "pending"
	StatusFailed     = "failed"
)

var ErrChargeNotFound = errors.New("charge not found")

// Charge asks the gateway to authorize AmountMinor.
type Charge struct {
	AmountMinor int64
	Currency    string
	CardToken   string
	ReturnURI   string
	Description string
	Metadata    map[string]any
}

// Intent is the client flow handle: Token identifies the charge, AuthorizeURI is set
// when the client must complete an offsite step.
type Intent struct {
	Token        string `json:"token"`
	Status       string `json:"status"`
	AuthorizeURI string `json:"authorizeUri,omitempty"`
	AmountMinor  int64  `json:"amountMinor"`
	Currency     string `json:"currency"`
}

// Confirmation is what the gateway reports for a charge token.
type Confirmation struct {
	Token         string
	AmountMinor   int64
	Currency      string
	Status        string
	Captured      bool
	FailureReason string
}

// ToMinor converts whole currency units to the gateway's smallest unit.
func ToMinor(amount int64) int64 {
	return amount * 100
}

func normalizeCurrency(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
