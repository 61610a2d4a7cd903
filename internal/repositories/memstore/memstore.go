// Package memstore keeps every collection in process memory behind one mutex.
// It honours the same atomicity contracts as the MySQL repositories and backs
// STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
)

type Store struct {
	mu        sync.Mutex
	courts    map[int64]models.Court
	bookings  map[string]*models.Booking
	tokens    map[string]string
	discounts map[string]*models.DiscountCode
	users     map[string]*models.User
	emails    map[string]string
	recs      map[string]*models.Reconciliation
}

func New(courts []models.Court) *Store {
	s := &Store{
		courts:    map[int64]models.Court{},
		bookings:  map[string]*models.Booking{},
		tokens:    map[string]string{},
		discounts: map[string]*models.DiscountCode{},
		users:     map[string]*models.User{},
		emails:    map[string]string{},
		recs:      map[string]*models.Reconciliation{},
	}
	for _, c := range courts {
		s.courts[c.ID] = c
	}
	return s
}

func (s *Store) Courts() Courts                   { return Courts{s} }
func (s *Store) Bookings() Bookings               { return Bookings{s} }
func (s *Store) Discounts() Discounts             { return Discounts{s} }
func (s *Store) Users() Users                     { return Users{s} }
func (s *Store) Reconciliations() Reconciliations { return Reconciliations{s} }

func copyBooking(b *models.Booking) models.Booking {
	out := *b
	out.Hours = append([]int(nil), b.Hours...)
	if b.CancelledAt != nil {
		t := *b.CancelledAt
		out.CancelledAt = &t
	}
	return out
}

type Courts struct{ s *Store }

func (c Courts) List(ctx context.Context) ([]models.Court, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	out := make([]models.Court, 0, len(c.s.courts))
	for _, court := range c.s.courts {
		out = append(out, court)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c Courts) Get(ctx context.Context, id int64) (*models.Court, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	court, ok := c.s.courts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &court, nil
}

type Bookings struct{ s *Store }

func (b Bookings) withCourtName(bk models.Booking) models.Booking {
	if court, ok := b.s.courts[bk.CourtID]; ok {
		bk.CourtName = court.Name
	}
	return bk
}

func (b Bookings) ListActive(ctx context.Context, courtID int64, date string) ([]models.Booking, error) {
	return b.List(ctx, models.BookingFilter{CourtID: courtID, Date: date, Status: domain.StatusBooked})
}

// InsertIfNoOverlap checks and writes under the store lock.
func (b Bookings) InsertIfNoOverlap(ctx context.Context, bk *models.Booking) error {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	for _, existing := range b.s.bookings {
		if existing.Active() && existing.CourtID == bk.CourtID && existing.Date == bk.Date && existing.Overlaps(bk.Hours) {
			return domain.ErrSlotsNoLongerAvailable
		}
	}
	if bk.PaymentToken != "" {
		if _, used := b.s.tokens[bk.PaymentToken]; used {
			return domain.ErrPaymentTokenUsed
		}
		b.s.tokens[bk.PaymentToken] = bk.ID
	}
	cp := copyBooking(bk)
	b.s.bookings[bk.ID] = &cp
	return nil
}

func (b Bookings) Get(ctx context.Context, id string) (*models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := b.withCourtName(copyBooking(bk))
	return &out, nil
}

func (b Bookings) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	bk, ok := b.s.bookings[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if !bk.Active() {
		return false, nil
	}
	bk.Status = domain.StatusCancelled
	t := at
	bk.CancelledAt = &t
	return true, nil
}

func (b Bookings) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	out := []models.Booking{}
	for _, bk := range b.s.bookings {
		if f.UserID != "" && bk.UserID != f.UserID {
			continue
		}
		if f.CourtID > 0 && bk.CourtID != f.CourtID {
			continue
		}
		if f.Date != "" && bk.Date != f.Date {
			continue
		}
		if f.Status != "" && bk.Status != f.Status {
			continue
		}
		out = append(out, b.withCourtName(copyBooking(bk)))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b Bookings) Totals(ctx context.Context) (models.BookingStats, error) {
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	var st models.BookingStats
	for _, bk := range b.s.bookings {
		st.TotalBookings++
		if bk.Active() {
			st.ActiveBookings++
		} else {
			st.CancelledBookings++
		}
		st.TotalRevenue += bk.PaidAmount
	}
	return st, nil
}

type Discounts struct{ s *Store }

func (d Discounts) Get(ctx context.Context, code string) (*models.DiscountCode, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	dc, ok := d.s.discounts[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *dc
	return &out, nil
}

// Redeem is the in-memory compare-and-increment.
func (d Discounts) Redeem(ctx context.Context, code string) (*models.DiscountCode, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	dc, ok := d.s.discounts[strings.ToUpper(strings.TrimSpace(code))]
	if !ok || !dc.Active {
		return nil, domain.ErrCodeNotFound
	}
	if dc.Redemptions >= dc.MaxRedemptions {
		return nil, domain.ErrCodeExhausted
	}
	dc.Redemptions++
	out := *dc
	return &out, nil
}

func (d Discounts) Create(ctx context.Context, dc *models.DiscountCode) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, exists := d.s.discounts[dc.Code]; exists {
		return domain.ErrDuplicate
	}
	cp := *dc
	d.s.discounts[dc.Code] = &cp
	return nil
}

func (d Discounts) Delete(ctx context.Context, code string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := d.s.discounts[code]; !ok {
		return domain.ErrNotFound
	}
	delete(d.s.discounts, code)
	return nil
}

func (d Discounts) List(ctx context.Context) ([]models.DiscountCode, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	out := make([]models.DiscountCode, 0, len(d.s.discounts))
	for _, dc := range d.s.discounts {
		out = append(out, *dc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type Users struct{ s *Store }

func (u Users) Get(ctx context.Context, id string) (*models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *usr
	return &out, nil
}

func (u Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u.s.mu.Lock()
	id, ok := u.s.emails[strings.ToLower(strings.TrimSpace(email))]
	u.s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u.Get(ctx, id)
}

func (u Users) Create(ctx context.Context, usr *models.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(usr.Email))
	if _, exists := u.s.emails[email]; exists {
		return domain.ErrDuplicate
	}
	if _, exists := u.s.users[usr.ID]; exists {
		return domain.ErrDuplicate
	}
	cp := *usr
	cp.Email = email
	u.s.users[usr.ID] = &cp
	u.s.emails[email] = usr.ID
	return nil
}

func (u Users) SetBanned(ctx context.Context, id string, banned bool, at time.Time) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	usr.Banned = banned
	usr.BannedAt = nil
	if banned {
		t := at
		usr.BannedAt = &t
	}
	return nil
}

func (u Users) SetRole(ctx context.Context, id string, role domain.Role) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	usr, ok := u.s.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	usr.Role = role
	return nil
}

func (u Users) List(ctx context.Context) ([]models.User, error) {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	out := make([]models.User, 0, len(u.s.users))
	for _, usr := range u.s.users {
		out = append(out, *usr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type Reconciliations struct{ s *Store }

func (r Reconciliations) Record(ctx context.Context, rec *models.Reconciliation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *rec
	cp.Hours = append([]int(nil), rec.Hours...)
	r.s.recs[rec.ID] = &cp
	return nil
}

func (r Reconciliations) List(ctx context.Context, openOnly bool) ([]models.Reconciliation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Reconciliation{}
	for _, rec := range r.s.recs {
		if openOnly && rec.Resolved {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r Reconciliations) Resolve(ctx context.Context, id, by, note string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.recs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.Resolved {
		return nil
	}
	t := at
	rec.Resolved, rec.ResolvedBy, rec.ResolvedAt, rec.Note = true, by, &t, note
	return nil
}
