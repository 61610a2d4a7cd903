package services

import (
	"context"
	"errors"
	"fmt"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"
)

// DiscountQuote is the read-only answer of Validate.
type DiscountQuote struct {
	Code          string `json:"code"`
	Percent       int    `json:"percent"`
	RemainingUses int    `json:"remainingUses"`
}

type CreateDiscountInput struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
	MaxUses int    `json:"maxUses"`
}

type DiscountService struct {
	Discounts DiscountStore
	Notifier  ChangeNotifier
	Events    EventPublisher
	Now       Clock
}

// Validate checks a code without consuming it.
func (s DiscountService) Validate(ctx context.Context, code string) (*DiscountQuote, error) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return nil, domain.ValidationError{Field: "code", Msg: "required"}
	}
	d, err := s.Discounts.Get(ctx, code)
	if err != nil {
		return nil, discountError(err)
	}
	if !d.Active {
		return nil, discountError(domain.ErrCodeNotFound)
	}
	if d.Remaining() == 0 {
		return nil, discountError(domain.ErrCodeExhausted)
	}
	return &DiscountQuote{Code: d.Code, Percent: d.Percent, RemainingUses: d.Remaining()}, nil
}

// Redeem consumes one use of code. Concurrent callers never push redemptions past the cap.
func (s DiscountService) Redeem(ctx context.Context, code string) (*models.DiscountCode, error) {
	code = utils.NormalizeCode(code)
	if code == "" {
		return nil, domain.ValidationError{Field: "code", Msg: "required"}
	}
	d, err := s.Discounts.Redeem(ctx, code)
	if err != nil {
		return nil, discountError(err)
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "discounts", "redeem",
		fmt.Sprintf("code=%s used=%d/%d", d.Code, d.Redemptions, d.MaxRedemptions))
	notifyChanged(s.Notifier, CollectionDiscounts)
	publishAsync(ctx, s.Events, EventDiscountRedeemed, d)
	return d, nil
}

func (s DiscountService) Create(ctx context.Context, in CreateDiscountInput) (*models.DiscountCode, error) {
	code := utils.NormalizeCode(in.Code)
	switch {
	case code == "":
		return nil, domain.ValidationError{Field: "code", Msg: "required"}
	case len(code) > 64:
		return nil, domain.ValidationError{Field: "code", Msg: "at most 64 characters"}
	case in.Percent < 1 || in.Percent > 100:
		return nil, domain.ValidationError{Field: "percent", Msg: "must be between 1 and 100"}
	case in.MaxUses < 1:
		return nil, domain.ValidationError{Field: "maxUses", Msg: "must be at least 1"}
	}
	d := &models.DiscountCode{
		Code:           code,
		Percent:        in.Percent,
		MaxRedemptions: in.MaxUses,
		Active:         true,
		CreatedAt:      s.Now.now(),
	}
	if err := s.Discounts.Create(ctx, d); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.ConflictError{Resource: "discount code", Msg: "code already exists", Err: err}
		}
		return nil, domain.StoreError(err)
	}
	notifyChanged(s.Notifier, CollectionDiscounts)
	return d, nil
}

func (s DiscountService) Delete(ctx context.Context, code string) error {
	code = utils.NormalizeCode(code)
	if code == "" {
		return domain.ValidationError{Field: "code", Msg: "required"}
	}
	if err := s.Discounts.Delete(ctx, code); err != nil {
		return notFoundOr(err, "discount code")
	}
	notifyChanged(s.Notifier, CollectionDiscounts)
	return nil
}

func (s DiscountService) List(ctx context.Context) ([]models.DiscountCode, error) {
	out, err := s.Discounts.List(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}

func discountError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrCodeNotFound):
		return domain.NotFoundError{Resource: "discount code", Err: domain.ErrCodeNotFound}
	case errors.Is(err, domain.ErrCodeExhausted):
		return domain.ConflictError{Resource: "discount code", Msg: "code has no remaining uses", Err: domain.ErrCodeExhausted}
	default:
		return domain.StoreError(err)
	}
}
