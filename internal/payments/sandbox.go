package payments

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Card tokens understood by the sandbox.
const (
	SandboxDeclineToken = "tok_decline"
	SandboxPendingToken = "tok_3ds"
)

// Sandbox is an in-process gateway for local runs and tests. Every charge succeeds
// unless the card token asks for a decline or an offsite step.
type Sandbox struct {
	mu      sync.Mutex
	charges map[string]*Confirmation
}

func NewSandbox() *Sandbox {
	return &Sandbox{charges: map[string]*Confirmation{}}
}

func (s *Sandbox) Initiate(ctx context.Context, in Charge) (*Intent, error) {
	if in.AmountMinor <= 0 || in.CardToken == "" {
		return nil, errors.New("amount and card token are required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conf := &Confirmation{
		Token:       "chrg_sandbox_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AmountMinor: in.AmountMinor,
		Currency:    normalizeCurrency(in.Currency),
		Status:      StatusSuccessful,
		Captured:    true,
	}
	intent := &Intent{Token: conf.Token, AmountMinor: conf.AmountMinor, Currency: conf.Currency}
	switch in.CardToken {
	case SandboxDeclineToken:
		conf.Status, conf.Captured, conf.FailureReason = StatusFailed, false, "insufficient_fund"
	case SandboxPendingToken:
		conf.Status, conf.Captured = StatusPending, false
		intent.AuthorizeURI = "https://sandbox.invalid/authorize/" + conf.Token
	}
	intent.Status = conf.Status

	s.mu.Lock()
	s.charges[conf.Token] = conf
	s.mu.Unlock()
	return intent, nil
}

func (s *Sandbox) Confirm(ctx context.Context, token string) (*Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[strings.TrimSpace(token)]
	if !ok {
		return nil, ErrChargeNotFound
	}
	cp := *c
	return &cp, nil
}

// Authorize completes a pending offsite charge.
func (s *Sandbox) Authorize(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.charges[token]
	if !ok {
		return ErrChargeNotFound
	}
	if c.Status == StatusPending {
		c.Status, c.Captured = StatusSuccessful, true
	}
	return nil
}
