package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/omise/omise-go"
	"github.com/omise/omise-go/operations"
)

// Omise talks to the Omise charges API.
type Omise struct {
	client *omise.Client
}

func NewOmise(publicKey, secretKey string) (*Omise, error) {
	c, err := omise.NewClient(publicKey, secretKey)
	if err != nil {
		return nil, fmt.Errorf("omise client: %w", err)
	}
	return &Omise{client: c}, nil
}

func (o *Omise) Initiate(ctx context.Context, in Charge) (*Intent, error) {
	if in.AmountMinor <= 0 || in.CardToken == "" || in.Currency == "" {
		return nil, errors.New("amount, card token and currency are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := &omise.Charge{}
	req := &operations.CreateCharge{
		Amount:      in.AmountMinor,
		Currency:    normalizeCurrency(in.Currency),
		Card:        in.CardToken,
		ReturnURI:   in.ReturnURI,
		Description: in.Description,
		Metadata:    in.Metadata,
	}
	if err := o.client.Do(ch, req); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	return &Intent{
		Token:        ch.ID,
		Status:       string(ch.Status),
		AuthorizeURI: ch.AuthorizeURI,
		AmountMinor:  ch.Amount,
		Currency:     ch.Currency,
	}, nil
}

func (o *Omise) Confirm(ctx context.Context, token string) (*Confirmation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrChargeNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ch := &omise.Charge{}
	if err := o.client.Do(ch, &operations.RetrieveCharge{ChargeID: token}); err != nil {
		return nil, fmt.Errorf("retrieve charge %s: %w", token, err)
	}
	out := &Confirmation{
		Token:       ch.ID,
		AmountMinor: ch.Amount,
		Currency:    ch.Currency,
		Status:      string(ch.Status),
		Captured:    string(ch.Status) == StatusSuccessful,
	}
	if ch.FailureMessage != nil {
		out.FailureReason = *ch.FailureMessage
	}
	return out, nil
}
