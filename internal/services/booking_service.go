package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"courtreserve/internal/catalog"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/payments"
	"courtreserve/internal/utils"
)

type QuoteInput struct {
	CourtID      int64  `json:"courtId"`
	Date         string `json:"date"`
	Hours        []int  `json:"hours"`
	DiscountCode string `json:"discountCode"`
}

type Quote struct {
	CourtID         int64          `json:"courtId"`
	CourtName       string         `json:"courtName"`
	Date            string         `json:"date"`
	Hours           []int          `json:"hours"`
	Slots           []catalog.Slot `json:"slots"`
	Subtotal        int64          `json:"subtotal"`
	DiscountCode    string         `json:"discountCode,omitempty"`
	DiscountPercent int            `json:"discountPercent"`
	DiscountAmount  int64          `json:"discountAmount"`
	Total           int64          `json:"total"`
	AmountMinor     int64          `json:"amountMinor"`
	Currency        string         `json:"currency"`
}

type PaymentInput struct {
	QuoteInput
	CardToken string `json:"cardToken"`
	ReturnURI string `json:"returnUri"`
}

type CreateBookingInput struct {
	UserID       string `json:"-"`
	CourtID      int64  `json:"courtId"`
	Date         string `json:"date"`
	Hours        []int  `json:"hours"`
	DiscountCode string `json:"discountCode"`
	PaymentToken string `json:"paymentToken"`
}

// BookingService coordinates availability, discounts, payment confirmation and the
// atomic booking insert.
type BookingService struct {
	Courts          CourtStore
	Bookings        BookingStore
	Users           UserStore
	Reconciliations ReconciliationStore
	Availability    AvailabilityService
	Discounts       DiscountService
	Gateway         PaymentGateway
	Currency        string
	Notifier        ChangeNotifier
	Events          EventPublisher
	Alerter         AdminAlerter
	Now             Clock
	NewID           IDFunc
	Location        *time.Location
}

// draft is a validated booking request that has not touched any store yet.
type draft struct {
	court    *models.Court
	date     string
	hours    []int
	subtotal int64
}

func (s BookingService) prepare(ctx context.Context, courtID int64, date string, hours []int) (*draft, error) {
	hours, err := catalog.NormalizeHours(hours)
	if err != nil {
		return nil, err
	}
	loc := locOrLocal(s.Location)
	day, err := utils.ParseDate(date, loc)
	if err != nil {
		return nil, err
	}
	if day.Before(startOfDay(s.Now.now(), loc)) {
		return nil, domain.ValidationError{Field: "date", Msg: "date is in the past"}
	}
	if courtID <= 0 {
		return nil, domain.ValidationError{Field: "courtId", Msg: "must be positive"}
	}
	court, err := s.Courts.Get(ctx, courtID)
	if err != nil {
		return nil, notFoundOr(err, "court")
	}
	subtotal, err := catalog.Subtotal(hours)
	if err != nil {
		return nil, err
	}
	return &draft{court: court, date: utils.FormatDate(day, loc), hours: hours, subtotal: subtotal}, nil
}

// activeUser loads the user and rejects banned accounts.
func (s BookingService) activeUser(ctx context.Context, userID, action string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.AuthorizationError{Action: action, Err: domain.ErrUnauthenticated}
	}
	u, err := s.Users.Get(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, "user")
	}
	if u.Banned {
		return nil, domain.AuthorizationError{Action: action, Err: domain.ErrUserBanned}
	}
	return u, nil
}

func (s BookingService) currency() string {
	if s.Currency == "" {
		return "thb"
	}
	return strings.ToLower(s.Currency)
}

func (s BookingService) Quote(ctx context.Context, in QuoteInput) (*Quote, error) {
	d, err := s.prepare(ctx, in.CourtID, in.Date, in.Hours)
	if err != nil {
		return nil, err
	}
	if err := s.Availability.ensureAvailable(ctx, d.court.ID, d.date, d.hours); err != nil {
		return nil, err
	}
	q := &Quote{
		CourtID:   d.court.ID,
		CourtName: d.court.Name,
		Date:      d.date,
		Hours:     d.hours,
		Subtotal:  d.subtotal,
		Currency:  s.currency(),
	}
	want := make(map[int]bool, len(d.hours))
	for _, h := range d.hours {
		want[h] = true
	}
	for _, slot := range catalog.SlotsForDay() {
		if want[slot.Hour] {
			q.Slots = append(q.Slots, slot)
		}
	}
	if strings.TrimSpace(in.DiscountCode) != "" {
		dq, err := s.Discounts.Validate(ctx, in.DiscountCode)
		if err != nil {
			return nil, err
		}
		q.DiscountCode, q.DiscountPercent = dq.Code, dq.Percent
	}
	q.DiscountAmount, q.Total = catalog.ApplyDiscount(q.Subtotal, q.DiscountPercent)
	q.AmountMinor = payments.ToMinor(q.Total)
	return q, nil
}

// InitiatePayment prices the request server-side and opens a charge with the gateway.
// Nothing is reserved while the charge is pending.
func (s BookingService) InitiatePayment(ctx context.Context, userID string, in PaymentInput) (*payments.Intent, error) {
	if _, err := s.activeUser(ctx, userID, "pay for booking"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.CardToken) == "" {
		return nil, domain.ValidationError{Field: "cardToken", Msg: "required"}
	}
	q, err := s.Quote(ctx, in.QuoteInput)
	if err != nil {
		return nil, err
	}
	if q.Total == 0 {
		return nil, domain.ValidationError{Field: "amount", Msg: "nothing to pay, book directly"}
	}
	intent, err := s.Gateway.Initiate(ctx, payments.Charge{
		AmountMinor: q.AmountMinor,
		Currency:    q.Currency,
		CardToken:   in.CardToken,
		ReturnURI:   in.ReturnURI,
		Description: fmt.Sprintf("%s %s hours %s", q.CourtName, q.Date, utils.JoinHours(q.Hours)),
		Metadata: map[string]any{
			"user_id":  userID,
			"court_id": q.CourtID,
			"date":     q.Date,
			"hours":    utils.JoinHours(q.Hours),
			"discount": q.DiscountCode,
		},
	})
	if err != nil {
		return nil, domain.UpstreamError{Service: "payment gateway", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "payments", "initiate",
		fmt.Sprintf("user=%s court=%d date=%s amount=%d status=%s", userID, q.CourtID, q.Date, q.Total, intent.Status))
	return intent, nil
}

// CreateBooking persists a paid online booking. A redemption consumed by a later
// failure is recorded for reconciliation instead of being rolled back.
func (s BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	d, err := s.prepare(ctx, in.CourtID, in.Date, in.Hours)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeUser(ctx, in.UserID, "create booking"); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(in.PaymentToken)
	code := utils.NormalizeCode(in.DiscountCode)

	// A token can only be skipped when the code covers the whole subtotal.
	if token == "" {
		percent := 0
		if code != "" {
			dq, err := s.Discounts.Validate(ctx, code)
			if err != nil {
				return nil, err
			}
			percent = dq.Percent
		}
		if _, final := catalog.ApplyDiscount(d.subtotal, percent); final > 0 {
			return nil, domain.ValidationError{Field: "paymentToken", Msg: "required"}
		}
	}

	if err := s.Availability.ensureAvailable(ctx, d.court.ID, d.date, d.hours); err != nil {
		return nil, err
	}

	percent := 0
	redeemed := ""
	if code != "" {
		dc, err := s.Discounts.Redeem(ctx, code)
		if err != nil {
			return nil, err
		}
		percent, redeemed = dc.Percent, dc.Code
	}
	discount, final := catalog.ApplyDiscount(d.subtotal, percent)

	if final > 0 {
		if err := s.verifyPayment(ctx, token, final); err != nil {
			return nil, s.orphaned(ctx, in.UserID, d, redeemed, token, final, err)
		}
	} else {
		token = ""
	}

	now := s.Now.now()
	b := &models.Booking{
		ID:             s.NewID.next(),
		UserID:         in.UserID,
		CourtID:        d.court.ID,
		CourtName:      d.court.Name,
		Date:           d.date,
		Hours:          d.hours,
		Subtotal:       d.subtotal,
		DiscountCode:   redeemed,
		DiscountAmount: discount,
		TotalAmount:    final,
		PaidAmount:     final,
		PaymentToken:   token,
		Source:         models.SourceOnline,
		Status:         domain.StatusBooked,
		CreatedAt:      now,
	}
	if err := s.Bookings.InsertIfNoOverlap(ctx, b); err != nil {
		return nil, s.orphaned(ctx, in.UserID, d, redeemed, token, final, insertError(err))
	}

	utils.LogEvent(utils.RequestIDFrom(ctx), "bookings", "create",
		fmt.Sprintf("id=%s user=%s court=%d date=%s hours=%s total=%d", b.ID, b.UserID, b.CourtID, b.Date, utils.JoinHours(b.Hours), b.TotalAmount))
	notifyChanged(s.Notifier, CollectionBookings)
	publishAsync(ctx, s.Events, EventBookingCreated, b)
	return b, nil
}

// verifyPayment checks that token refers to a captured charge of exactly final.
func (s BookingService) verifyPayment(ctx context.Context, token string, final int64) error {
	conf, err := s.Gateway.Confirm(ctx, token)
	if err != nil {
		return domain.UpstreamError{Service: "payment gateway", Err: err}
	}
	if !conf.Captured {
		reason := conf.FailureReason
		if reason == "" {
			reason = conf.Status
		}
		return domain.UpstreamError{Service: "payment gateway", Err: fmt.Errorf("%w: %s", domain.ErrPaymentNotCaptured, reason)}
	}
	want := payments.ToMinor(final)
	if conf.AmountMinor != want {
		return domain.UpstreamError{Service: "payment gateway",
			Err: fmt.Errorf("%w: charged %d, expected %d", domain.ErrAmountMismatch, conf.AmountMinor, want)}
	}
	if conf.Currency != "" && !strings.EqualFold(conf.Currency, s.currency()) {
		return domain.UpstreamError{Service: "payment gateway",
			Err: fmt.Errorf("%w: charged in %s, expected %s", domain.ErrAmountMismatch, conf.Currency, s.currency())}
	}
	return nil
}

func insertError(err error) error {
	switch {
	case errors.Is(err, domain.ErrSlotsNoLongerAvailable):
		return slotsConflict()
	case errors.Is(err, domain.ErrPaymentTokenUsed):
		return domain.ConflictError{Resource: "payment", Msg: "payment token already used for another booking", Err: domain.ErrPaymentTokenUsed}
	default:
		return domain.StoreError(err)
	}
}

// maxReasonLen matches reconciliations.reason.
const maxReasonLen = 255

// orphaned records a consumed redemption that has no booking and attaches the
// reconciliation id to cause. Without a redemption cause is returned as is.
func (s BookingService) orphaned(ctx context.Context, userID string, d *draft, code, token string, amount int64, cause error) error {
	if code == "" || s.Reconciliations == nil {
		return cause
	}
	reqID := utils.RequestIDFrom(ctx)
	rec := &models.Reconciliation{
		ID:           s.NewID.next(),
		Kind:         models.ReconcileOrphanedRedemption,
		DiscountCode: code,
		UserID:       userID,
		CourtID:      d.court.ID,
		Date:         d.date,
		Hours:        d.hours,
		PaymentToken: token,
		Amount:       amount,
		Reason:       utils.Truncate(cause.Error(), maxReasonLen),
		CreatedAt:    s.Now.now(),
	}
	if err := s.Reconciliations.Record(context.WithoutCancel(ctx), rec); err != nil {
		utils.LogError(reqID, "reconcile", "record", fmt.Errorf("code %s orphaned for user %s: %w", code, userID, err))
		return cause
	}
	utils.LogEvent(reqID, "reconcile", "record", fmt.Sprintf("id=%s code=%s reason=%s", rec.ID, code, rec.Reason))
	if s.Alerter != nil {
		go s.Alerter.ReconciliationRecorded(context.WithoutCancel(ctx), *rec)
	}
	publishAsync(ctx, s.Events, EventReconciliationRequired, rec)
	return domain.WithReconciliation(cause, rec.ID)
}

// CancelBooking frees the booking's hours. Cancelling a cancelled booking is a no-op.
func (s BookingService) CancelBooking(ctx context.Context, bookingID string, actor domain.Actor) (*models.Booking, error) {
	b, err := s.Get(ctx, bookingID, actor)
	if err != nil {
		return nil, err
	}
	if !b.Active() {
		return b, nil
	}
	at := s.Now.now()
	changed, err := s.Bookings.Cancel(ctx, b.ID, at)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}
	if !changed {
		return s.Get(ctx, bookingID, actor)
	}
	b.Status = domain.StatusCancelled
	b.CancelledAt = &at
	utils.LogEvent(utils.RequestIDFrom(ctx), "bookings", "cancel",
		fmt.Sprintf("id=%s by=%s role=%s", b.ID, actor.UserID, actor.Role))
	notifyChanged(s.Notifier, CollectionBookings)
	publishAsync(ctx, s.Events, EventBookingCancelled, b)
	return b, nil
}

// Get returns a booking visible to actor: its owner or an administrator.
func (s BookingService) Get(ctx context.Context, bookingID string, actor domain.Actor) (*models.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return nil, domain.ValidationError{Field: "id", Msg: "required"}
	}
	b, err := s.Bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, notFoundOr(err, "booking")
	}
	if b.UserID != actor.UserID && !actor.Role.IsAdmin() {
		return nil, domain.AuthorizationError{Action: "access booking", Err: domain.ErrForbidden}
	}
	return b, nil
}

func (s BookingService) ListForUser(ctx context.Context, userID string) ([]models.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.AuthorizationError{Action: "list bookings", Err: domain.ErrUnauthenticated}
	}
	return s.list(ctx, models.BookingFilter{UserID: userID})
}

// ListForDate returns the active bookings of one court and day.
func (s BookingService) ListForDate(ctx context.Context, courtID int64, date string) ([]models.Booking, error) {
	day, err := utils.ParseDate(date, locOrLocal(s.Location))
	if err != nil {
		return nil, err
	}
	return s.list(ctx, models.BookingFilter{
		CourtID: courtID,
		Date:    utils.FormatDate(day, locOrLocal(s.Location)),
		Status:  domain.StatusBooked,
	})
}

func (s BookingService) ListAll(ctx context.Context, actor domain.Actor, f models.BookingFilter) ([]models.Booking, error) {
	if err := requireAdmin(actor, "list all bookings"); err != nil {
		return nil, err
	}
	if f.Status != "" && f.Status != domain.StatusBooked && f.Status != domain.StatusCancelled {
		return nil, domain.ValidationError{Field: "status", Msg: "must be booked or cancelled"}
	}
	if f.Date != "" {
		day, err := utils.ParseDate(f.Date, locOrLocal(s.Location))
		if err != nil {
			return nil, err
		}
		f.Date = utils.FormatDate(day, locOrLocal(s.Location))
	}
	return s.list(ctx, f)
}

func (s BookingService) list(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	out, err := s.Bookings.List(ctx, f)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}
