package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	intdb "courtreserve/internal/db"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"

	"github.com/jmoiron/sqlx"
)

// ReconciliationRepository stores discount redemptions that never became bookings.
type ReconciliationRepository struct {
	DB *sqlx.DB
}

type reconciliationRow struct {
	ID           string         `db:"id"`
	Kind         string         `db:"kind"`
	DiscountCode string         `db:"discount_code"`
	UserID       string         `db:"user_id"`
	CourtID      int64          `db:"court_id"`
	PlayDate     string         `db:"play_date"`
	Slots        string         `db:"slots"`
	PaymentToken sql.NullString `db:"payment_token"`
	Amount       int64          `db:"amount"`
	Reason       string         `db:"reason"`
	Resolved     bool           `db:"resolved"`
	ResolvedBy   sql.NullString `db:"resolved_by"`
	ResolvedAt   sql.NullTime   `db:"resolved_at"`
	Note         string         `db:"note"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r reconciliationRow) model() models.Reconciliation {
	hours, _ := utils.SplitHours(r.Slots)
	out := models.Reconciliation{
		ID:           r.ID,
		Kind:         r.Kind,
		DiscountCode: r.DiscountCode,
		UserID:       r.UserID,
		CourtID:      r.CourtID,
		Date:         r.PlayDate,
		Hours:        hours,
		PaymentToken: r.PaymentToken.String,
		Amount:       r.Amount,
		Reason:       r.Reason,
		Resolved:     r.Resolved,
		ResolvedBy:   r.ResolvedBy.String,
		Note:         r.Note,
		CreatedAt:    r.CreatedAt,
	}
	if r.ResolvedAt.Valid {
		t := r.ResolvedAt.Time
		out.ResolvedAt = &t
	}
	return out
}

func (r ReconciliationRepository) Record(ctx context.Context, rec *models.Reconciliation) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO reconciliations (id, kind, discount_code, user_id, court_id, play_date, slots,
			payment_token, amount, reason, resolved, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, '', ?)`,
		rec.ID, rec.Kind, rec.DiscountCode, rec.UserID, rec.CourtID, rec.Date, utils.JoinHours(rec.Hours),
		intdb.NullIfEmpty(rec.PaymentToken), rec.Amount, rec.Reason, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("record reconciliation: %w", err)
	}
	return nil
}

func (r ReconciliationRepository) List(ctx context.Context, openOnly bool) ([]models.Reconciliation, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	q := `SELECT id, kind, discount_code, user_id, court_id, play_date, slots, payment_token, amount,
		reason, resolved, resolved_by, resolved_at, note, created_at FROM reconciliations`
	if openOnly {
		q += ` WHERE resolved = 0`
	}
	q += ` ORDER BY created_at DESC`
	rows := []reconciliationRow{}
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list reconciliations: %w", err)
	}
	out := make([]models.Reconciliation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r ReconciliationRepository) Resolve(ctx context.Context, id, by, note string, at time.Time) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE reconciliations SET resolved = 1, resolved_by = ?, resolved_at = ?, note = ? WHERE id = ? AND resolved = 0`,
		by, at, note, id)
	if err != nil {
		return fmt.Errorf("resolve reconciliation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM reconciliations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("lookup reconciliation: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}
