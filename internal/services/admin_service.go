package services

import (
	"context"
	"fmt"
	"strings"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"
)

type ManualBookingInput struct {
	UserID  string `json:"userId"`
	CourtID int64  `json:"courtId"`
	Date    string `json:"date"`
	Hours   []int  `json:"hours"`
	Paid    bool   `json:"paid"`
	Note    string `json:"note"`
}

// AdminService holds the operator paths. Every method checks the actor first.
type AdminService struct {
	Booking         BookingService
	Discounts       DiscountService
	Users           UserStore
	Bookings        BookingStore
	Reconciliations ReconciliationStore
	Notifier        ChangeNotifier
	Events          EventPublisher
	Now             Clock
}

// CreateManualBooking books on behalf of a user without a payment token.
func (s AdminService) CreateManualBooking(ctx context.Context, actor domain.Actor, in ManualBookingInput) (*models.Booking, error) {
	if err := requireAdmin(actor, "create manual booking"); err != nil {
		return nil, err
	}
	target := strings.TrimSpace(in.UserID)
	if target == "" {
		target = actor.UserID
	}
	d, err := s.Booking.prepare(ctx, in.CourtID, in.Date, in.Hours)
	if err != nil {
		return nil, err
	}
	if _, err := s.Booking.activeUser(ctx, target, "book for user"); err != nil {
		return nil, err
	}
	if err := s.Booking.Availability.ensureAvailable(ctx, d.court.ID, d.date, d.hours); err != nil {
		return nil, err
	}

	b := &models.Booking{
		ID:          s.Booking.NewID.next(),
		UserID:      target,
		CourtID:     d.court.ID,
		CourtName:   d.court.Name,
		Date:        d.date,
		Hours:       d.hours,
		Subtotal:    d.subtotal,
		TotalAmount: d.subtotal,
		Source:      models.SourceManual,
		Note:        strings.TrimSpace(in.Note),
		Status:      domain.StatusBooked,
		CreatedAt:   s.Now.now(),
	}
	if in.Paid {
		b.PaidAmount = d.subtotal
	} else {
		b.RemainingAmount = d.subtotal
	}
	if err := s.bookings().InsertIfNoOverlap(ctx, b); err != nil {
		return nil, insertError(err)
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", "manual_booking",
		fmt.Sprintf("id=%s by=%s for=%s court=%d date=%s hours=%s paid=%t", b.ID, actor.UserID, target, b.CourtID, b.Date, utils.JoinHours(b.Hours), in.Paid))
	notifyChanged(s.Notifier, CollectionBookings)
	publishAsync(ctx, s.Events, EventBookingCreated, b)
	return b, nil
}

func (s AdminService) bookings() BookingStore {
	if s.Bookings != nil {
		return s.Bookings
	}
	return s.Booking.Bookings
}

func (s AdminService) users() UserStore {
	if s.Users != nil {
		return s.Users
	}
	return s.Booking.Users
}

func (s AdminService) BanUser(ctx context.Context, actor domain.Actor, userID string) (*models.User, error) {
	return s.setBanned(ctx, actor, userID, true)
}

func (s AdminService) UnbanUser(ctx context.Context, actor domain.Actor, userID string) (*models.User, error) {
	return s.setBanned(ctx, actor, userID, false)
}

func (s AdminService) setBanned(ctx context.Context, actor domain.Actor, userID string, banned bool) (*models.User, error) {
	action := "unban user"
	if banned {
		action = "ban user"
	}
	if err := requireAdmin(actor, action); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ValidationError{Field: "id", Msg: "required"}
	}
	if banned && userID == actor.UserID {
		return nil, domain.ValidationError{Field: "id", Msg: "cannot ban yourself"}
	}
	target, err := s.users().Get(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if target.Role.IsAdmin() && actor.Role != domain.RoleSuperAdmin {
		return nil, domain.AuthorizationError{Action: action, Err: domain.ErrForbidden}
	}
	if target.Banned == banned {
		return target, nil
	}
	at := s.Now.now()
	if err := s.users().SetBanned(ctx, userID, banned, at); err != nil {
		return nil, notFoundOr(err, "user")
	}
	target.Banned = banned
	target.BannedAt = nil
	if banned {
		target.BannedAt = &at
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", strings.ReplaceAll(action, " ", "_"),
		fmt.Sprintf("user=%s by=%s", userID, actor.UserID))
	notifyChanged(s.Notifier, CollectionUsers)
	return target, nil
}

// SetUserRole is reserved to superadmins.
func (s AdminService) SetUserRole(ctx context.Context, actor domain.Actor, userID string, role domain.Role) (*models.User, error) {
	if actor.Role != domain.RoleSuperAdmin {
		return nil, domain.AuthorizationError{Action: "change role", Err: domain.ErrForbidden}
	}
	if !role.Valid() {
		return nil, domain.ValidationError{Field: "role", Msg: "must be user, admin or superadmin"}
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ValidationError{Field: "id", Msg: "required"}
	}
	if userID == actor.UserID && role != domain.RoleSuperAdmin {
		return nil, domain.ValidationError{Field: "role", Msg: "cannot demote yourself"}
	}
	target, err := s.users().Get(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if target.Role == role {
		return target, nil
	}
	if err := s.users().SetRole(ctx, userID, role); err != nil {
		return nil, notFoundOr(err, "user")
	}
	target.Role = role
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", "set_role",
		fmt.Sprintf("user=%s role=%s by=%s", userID, role, actor.UserID))
	notifyChanged(s.Notifier, CollectionUsers)
	return target, nil
}

func (s AdminService) ListUsers(ctx context.Context, actor domain.Actor) ([]models.User, error) {
	if err := requireAdmin(actor, "list users"); err != nil {
		return nil, err
	}
	out, err := s.users().List(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}

func (s AdminService) CreateDiscount(ctx context.Context, actor domain.Actor, in CreateDiscountInput) (*models.DiscountCode, error) {
	if err := requireAdmin(actor, "create discount"); err != nil {
		return nil, err
	}
	d, err := s.Discounts.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", "create_discount",
		fmt.Sprintf("code=%s percent=%d max=%d by=%s", d.Code, d.Percent, d.MaxRedemptions, actor.UserID))
	return d, nil
}

func (s AdminService) DeleteDiscount(ctx context.Context, actor domain.Actor, code string) error {
	if err := requireAdmin(actor, "delete discount"); err != nil {
		return err
	}
	if err := s.Discounts.Delete(ctx, code); err != nil {
		return err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", "delete_discount",
		fmt.Sprintf("code=%s by=%s", utils.NormalizeCode(code), actor.UserID))
	return nil
}

func (s AdminService) ListDiscounts(ctx context.Context, actor domain.Actor) ([]models.DiscountCode, error) {
	if err := requireAdmin(actor, "list discounts"); err != nil {
		return nil, err
	}
	return s.Discounts.List(ctx)
}

// Stats summarizes bookings, revenue (sum of paid amounts) and users.
func (s AdminService) Stats(ctx context.Context, actor domain.Actor) (*models.BookingStats, error) {
	if err := requireAdmin(actor, "view stats"); err != nil {
		return nil, err
	}
	stats, err := s.bookings().Totals(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	users, err := s.users().List(ctx)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	stats.TotalUsers = len(users)
	for _, u := range users {
		if u.Banned {
			stats.BannedUsers++
		}
	}
	if s.Reconciliations != nil {
		open, err := s.Reconciliations.List(ctx, true)
		if err != nil {
			return nil, domain.StoreError(err)
		}
		stats.OpenReconciles = len(open)
	}
	return &stats, nil
}

func (s AdminService) ListReconciliations(ctx context.Context, actor domain.Actor, openOnly bool) ([]models.Reconciliation, error) {
	if err := requireAdmin(actor, "list reconciliations"); err != nil {
		return nil, err
	}
	out, err := s.Reconciliations.List(ctx, openOnly)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}

// ResolveReconciliation marks an orphaned redemption as handled.
func (s AdminService) ResolveReconciliation(ctx context.Context, actor domain.Actor, id, note string) error {
	if err := requireAdmin(actor, "resolve reconciliation"); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ValidationError{Field: "id", Msg: "required"}
	}
	if err := s.Reconciliations.Resolve(ctx, id, actor.UserID, strings.TrimSpace(note), s.Now.now()); err != nil {
		return notFoundOr(err, "reconciliation")
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "admin", "resolve_reconciliation",
		fmt.Sprintf("id=%s by=%s", id, actor.UserID))
	return nil
}
