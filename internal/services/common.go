package services

import (
	"context"
	"errors"
	"time"

	"courtreserve/internal/domain"
	"courtreserve/internal/utils"

	"github.com/google/uuid"
)

const sideEffectTimeout = 5 * time.Second

// Clock and ID sources shared by the services. Zero values fall back to wall time and UUIDs.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c != nil {
		return c()
	}
	return utils.NowUTC()
}

type IDFunc func() string

func (f IDFunc) next() string {
	if f != nil {
		return f()
	}
	return uuid.NewString()
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func notifyChanged(n ChangeNotifier, collections ...string) {
	if n == nil {
		return
	}
	for _, c := range collections {
		n.Changed(c)
	}
}

// publishAsync emits an event without holding up the caller; delivery failures are logged only.
func publishAsync(ctx context.Context, p EventPublisher, key string, payload any) {
	if p == nil {
		return
	}
	reqID := utils.RequestIDFrom(ctx)
	bg := context.WithoutCancel(ctx)
	go func() {
		pctx, cancel := context.WithTimeout(bg, sideEffectTimeout)
		defer cancel()
		if err := p.Publish(pctx, key, payload); err != nil {
			utils.LogError(reqID, "events", key, err)
		}
	}()
}

func requireAdmin(actor domain.Actor, action string) error {
	if !actor.Role.IsAdmin() {
		return domain.AuthorizationError{Action: action, Err: domain.ErrForbidden}
	}
	return nil
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NotFoundError{Resource: resource, Err: err}
	}
	return domain.StoreError(err)
}
