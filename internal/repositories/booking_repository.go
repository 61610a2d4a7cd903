package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	intdb "courtreserve/internal/db"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"

	"github.com/jmoiron/sqlx"
)

// BookingRepository stores bookings in MySQL. Active bookings additionally own one
// booking_slots row per hour; the table's primary key rejects overlapping claims.
type BookingRepository struct {
	DB *sqlx.DB
}

type bookingRow struct {
	ID              string         `db:"id"`
	UserID          string         `db:"user_id"`
	CourtID         int64          `db:"court_id"`
	CourtName       sql.NullString `db:"court_name"`
	PlayDate        string         `db:"play_date"`
	Slots           string         `db:"slots"`
	Subtotal        int64          `db:"subtotal"`
	DiscountCode    sql.NullString `db:"discount_code"`
	DiscountAmount  int64          `db:"discount_amount"`
	TotalAmount     int64          `db:"total_amount"`
	PaidAmount      int64          `db:"paid_amount"`
	RemainingAmount int64          `db:"remaining_amount"`
	PaymentToken    sql.NullString `db:"payment_token"`
	Source          string         `db:"source"`
	Note            string         `db:"note"`
	Status          string         `db:"status"`
	CreatedAt       time.Time      `db:"created_at"`
	CancelledAt     sql.NullTime   `db:"cancelled_at"`
}

func (r bookingRow) model() (models.Booking, error) {
	hours, err := utils.SplitHours(r.Slots)
	if err != nil {
		return models.Booking{}, fmt.Errorf("booking %s: bad slots %q: %w", r.ID, r.Slots, err)
	}
	b := models.Booking{
		ID:              r.ID,
		UserID:          r.UserID,
		CourtID:         r.CourtID,
		CourtName:       r.CourtName.String,
		Date:            r.PlayDate,
		Hours:           hours,
		Subtotal:        r.Subtotal,
		DiscountCode:    r.DiscountCode.String,
		DiscountAmount:  r.DiscountAmount,
		TotalAmount:     r.TotalAmount,
		PaidAmount:      r.PaidAmount,
		RemainingAmount: r.RemainingAmount,
		PaymentToken:    r.PaymentToken.String,
		Source:          r.Source,
		Note:            r.Note,
		Status:          domain.Status(r.Status),
		CreatedAt:       r.CreatedAt,
	}
	if r.CancelledAt.Valid {
		t := r.CancelledAt.Time
		b.CancelledAt = &t
	}
	return b, nil
}

const bookingSelect = `
	SELECT b.id, b.user_id, b.court_id, c.name AS court_name, b.play_date, b.slots,
	       b.subtotal, b.discount_code, b.discount_amount, b.total_amount, b.paid_amount,
	       b.remaining_amount, b.payment_token, b.source, b.note, b.status, b.created_at, b.cancelled_at
	FROM bookings b
	LEFT JOIN courts c ON c.id = b.court_id`

func (r BookingRepository) query(ctx context.Context, where string, args ...any) ([]models.Booking, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	rows := []bookingRow{}
	q := bookingSelect
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY b.created_at DESC"
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	out := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.model()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (r BookingRepository) ListActive(ctx context.Context, courtID int64, date string) ([]models.Booking, error) {
	return r.query(ctx, "b.court_id = ? AND b.play_date = ? AND b.status = ?", courtID, date, string(domain.StatusBooked))
}

func (r BookingRepository) List(ctx context.Context, f models.BookingFilter) ([]models.Booking, error) {
	clauses := []string{}
	args := []any{}
	if f.UserID != "" {
		clauses = append(clauses, "b.user_id = ?")
		args = append(args, f.UserID)
	}
	if f.CourtID > 0 {
		clauses = append(clauses, "b.court_id = ?")
		args = append(args, f.CourtID)
	}
	if f.Date != "" {
		clauses = append(clauses, "b.play_date = ?")
		args = append(args, f.Date)
	}
	if f.Status != "" {
		clauses = append(clauses, "b.status = ?")
		args = append(args, string(f.Status))
	}
	return r.query(ctx, strings.Join(clauses, " AND "), args...)
}

func (r BookingRepository) Get(ctx context.Context, id string) (*models.Booking, error) {
	list, err := r.query(ctx, "b.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrNotFound
	}
	return &list[0], nil
}

// InsertIfNoOverlap writes the booking and its slot claims in one transaction.
func (r BookingRepository) InsertIfNoOverlap(ctx context.Context, b *models.Booking) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	if len(b.Hours) == 0 {
		return errors.New("booking without hours")
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (id, user_id, court_id, play_date, slots, subtotal, discount_code,
			discount_amount, total_amount, paid_amount, remaining_amount, payment_token, source, note,
			status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.CourtID, b.Date, utils.JoinHours(b.Hours), b.Subtotal,
		intdb.NullIfEmpty(b.DiscountCode), b.DiscountAmount, b.TotalAmount, b.PaidAmount,
		b.RemainingAmount, intdb.NullIfEmpty(b.PaymentToken), b.Source, b.Note,
		string(b.Status), b.CreatedAt)
	if err != nil {
		if intdb.IsDuplicateKey(err) && strings.Contains(intdb.DuplicateKeyName(err), "payment_token") {
			return domain.ErrPaymentTokenUsed
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	placeholders := make([]string, 0, len(b.Hours))
	args := make([]any, 0, len(b.Hours)*4)
	for _, h := range b.Hours {
		placeholders = append(placeholders, "(?, ?, ?, ?)")
		args = append(args, b.CourtID, b.Date, h, b.ID)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO booking_slots (court_id, play_date, slot_hour, booking_id) VALUES `+strings.Join(placeholders, ", "),
		args...)
	if err != nil {
		if intdb.IsDuplicateKey(err) {
			return domain.ErrSlotsNoLongerAvailable
		}
		return fmt.Errorf("claim slots: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// Cancel marks the booking cancelled and releases its slot claims.
func (r BookingRepository) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	db, err := pick(r.DB)
	if err != nil {
		return false, err
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, cancelled_at = ? WHERE id = ? AND status = ?`,
		string(domain.StatusCancelled), at, id, string(domain.StatusBooked))
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("cancel booking: %w", err)
	}
	if n == 0 {
		var exists int
		if err := tx.GetContext(ctx, &exists, `SELECT COUNT(*) FROM bookings WHERE id = ?`, id); err != nil {
			return false, fmt.Errorf("lookup booking: %w", err)
		}
		if exists == 0 {
			return false, domain.ErrNotFound
		}
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_slots WHERE booking_id = ?`, id); err != nil {
		return false, fmt.Errorf("release slots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit cancel: %w", err)
	}
	return true, nil
}

type bookingTotalsRow struct {
	Total     int   `db:"total"`
	Active    int   `db:"active"`
	Cancelled int   `db:"cancelled"`
	Revenue   int64 `db:"revenue"`
}

func (r BookingRepository) Totals(ctx context.Context) (models.BookingStats, error) {
	db, err := pick(r.DB)
	if err != nil {
		return models.BookingStats{}, err
	}
	var row bookingTotalsRow
	err = db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total,
		       COALESCE(SUM(status = 'booked'), 0) AS active,
		       COALESCE(SUM(status = 'cancelled'), 0) AS cancelled,
		       COALESCE(SUM(paid_amount), 0) AS revenue
		FROM bookings`)
	if err != nil {
		return models.BookingStats{}, fmt.Errorf("booking totals: %w", err)
	}
	return models.BookingStats{
		TotalBookings:     row.Total,
		ActiveBookings:    row.Active,
		CancelledBookings: row.Cancelled,
		TotalRevenue:      row.Revenue,
	}, nil
}
