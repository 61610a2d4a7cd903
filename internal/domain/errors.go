package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSlotsNoLongerAvailable = errors.New("slots no longer available")
	ErrCodeNotFound           = errors.New("discount code not found")
	ErrCodeExhausted          = errors.New("discount code exhausted")
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrUserBanned             = errors.New("user is banned")
	ErrForbidden              = errors.New("forbidden")
	ErrUnauthenticated        = errors.New("unauthenticated")
	ErrAmountMismatch         = errors.New("charged amount does not match booking amount")
	ErrPaymentNotCaptured     = errors.New("payment not captured")
	ErrPaymentTokenUsed       = errors.New("payment token already used")
	ErrDuplicate              = errors.New("duplicate record")
	ErrNotFound               = errors.New("record not found")
)

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// AuthorizationError is returned before any side effect when the actor may not perform an action.
type AuthorizationError struct {
	Action string
	Err    error
}

func (e AuthorizationError) Error() string {
	switch {
	case e.Action != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Action, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Action != "":
		return fmt.Sprintf("not allowed to %s", e.Action)
	default:
		return "not allowed"
	}
}

func (e AuthorizationError) Unwrap() error { return e.Err }

// ConflictError carries ReconciliationID when a discount redemption was consumed
// without a booking being written.
type ConflictError struct {
	Resource         string
	Msg              string
	Err              error
	ReconciliationID string
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// UpstreamError wraps failures of the payment gateway or the store.
type UpstreamError struct {
	Service          string
	Err              error
	ReconciliationID string
}

func (e UpstreamError) Error() string {
	if e.Service == "" {
		return fmt.Sprintf("upstream error: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e UpstreamError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsAuthorization(err error) bool {
	var target AuthorizationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target UpstreamError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// ReconciliationOf returns the reconciliation id attached to err, if any.
func ReconciliationOf(err error) string {
	var c ConflictError
	if errors.As(err, &c) && c.ReconciliationID != "" {
		return c.ReconciliationID
	}
	var u UpstreamError
	if errors.As(err, &u) {
		return u.ReconciliationID
	}
	return ""
}

// StoreError reports an unexpected repository failure as the store being unavailable.
func StoreError(err error) error {
	if err == nil {
		return nil
	}
	return UpstreamError{Service: "store", Err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
}

// WithReconciliation attaches a reconciliation id to a conflict or upstream error.
func WithReconciliation(err error, id string) error {
	var c ConflictError
	if errors.As(err, &c) {
		c.ReconciliationID = id
		return c
	}
	var u UpstreamError
	if errors.As(err, &u) {
		u.ReconciliationID = id
		return u
	}
	return err
}
