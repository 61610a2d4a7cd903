package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"courtreserve/internal/catalog"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/payments"
	"courtreserve/internal/repositories/memstore"

	"github.com/stretchr/testify/require"
)

var ict = time.FixedZone("ICT", 7*3600)

type recordingNotifier struct {
	mu      sync.Mutex
	changed []string
}

func (n *recordingNotifier) Changed(collection string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changed = append(n.changed, collection)
}

func (n *recordingNotifier) has(collection string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, c := range n.changed {
		if c == collection {
			return true
		}
	}
	return false
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) count(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, k := range p.keys {
		if k == key {
			n++
		}
	}
	return n
}

type recordingAlerter struct {
	mu   sync.Mutex
	recs []models.Reconciliation
}

func (a *recordingAlerter) ReconciliationRecorded(ctx context.Context, r models.Reconciliation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recs = append(a.recs, r)
}

func (a *recordingAlerter) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.recs)
}

type fixture struct {
	now      time.Time
	today    string
	tomorrow string

	store    *memstore.Store
	gateway  *payments.Sandbox
	notifier *recordingNotifier
	events   *recordingPublisher
	alerter  *recordingAlerter

	avail     AvailabilityService
	discounts DiscountService
	bookings  BookingService
	admin     AdminService

	user  models.User
	staff models.User
	super models.User
}

// newFixture freezes the clock at 15:30 local time on 2025-06-10.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 6, 10, 15, 30, 0, 0, ict)
	clock := func() time.Time { return now }
	f := &fixture{
		now:      now,
		today:    "2025-06-10",
		tomorrow: "2025-06-11",
		store:    memstore.New(catalog.DefaultCourts()),
		gateway:  payments.NewSandbox(),
		notifier: &recordingNotifier{},
		events:   &recordingPublisher{},
		alerter:  &recordingAlerter{},
	}
	f.avail = AvailabilityService{
		Courts:   f.store.Courts(),
		Bookings: f.store.Bookings(),
		Now:      clock,
		Location: ict,
	}
	f.discounts = DiscountService{
		Discounts: f.store.Discounts(),
		Notifier:  f.notifier,
		Events:    f.events,
		Now:       clock,
	}
	f.bookings = BookingService{
		Courts:          f.store.Courts(),
		Bookings:        f.store.Bookings(),
		Users:           f.store.Users(),
		Reconciliations: f.store.Reconciliations(),
		Availability:    f.avail,
		Discounts:       f.discounts,
		Gateway:         f.gateway,
		Currency:        "thb",
		Notifier:        f.notifier,
		Events:          f.events,
		Alerter:         f.alerter,
		Now:             clock,
		Location:        ict,
	}
	f.admin = AdminService{
		Booking:         f.bookings,
		Discounts:       f.discounts,
		Users:           f.store.Users(),
		Bookings:        f.store.Bookings(),
		Reconciliations: f.store.Reconciliations(),
		Notifier:        f.notifier,
		Events:          f.events,
		Now:             clock,
	}
	f.user = f.addUser(t, "u-1", "player@example.com", domain.RoleUser)
	f.staff = f.addUser(t, "a-1", "staff@example.com", domain.RoleAdmin)
	f.super = f.addUser(t, "s-1", "owner@example.com", domain.RoleSuperAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, id, email string, role domain.Role) models.User {
	t.Helper()
	u := models.User{ID: id, Email: email, Name: id, Role: role, CreatedAt: f.now}
	require.NoError(t, f.store.Users().Create(context.Background(), &u))
	return u
}

func (f *fixture) addCode(t *testing.T, code string, percent, maxUses int) {
	t.Helper()
	_, err := f.discounts.Create(context.Background(), CreateDiscountInput{Code: code, Percent: percent, MaxUses: maxUses})
	require.NoError(t, err)
}

// pay opens a captured sandbox charge for amount whole units.
func (f *fixture) pay(t *testing.T, amount int64) string {
	t.Helper()
	intent, err := f.gateway.Initiate(context.Background(), payments.Charge{
		AmountMinor: payments.ToMinor(amount),
		Currency:    "thb",
		CardToken:   "tok_visa",
	})
	require.NoError(t, err)
	return intent.Token
}

func hoursOf(slots []catalog.Slot) []int {
	out := make([]int, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Hour)
	}
	return out
}
