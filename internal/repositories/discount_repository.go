package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "courtreserve/internal/db"
	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"
	"courtreserve/internal/utils"

	"github.com/jmoiron/sqlx"
)

type DiscountRepository struct {
	DB *sqlx.DB
}

type discountRow struct {
	Code           string    `db:"code"`
	Percent        int       `db:"percent"`
	MaxRedemptions int       `db:"max_redemptions"`
	Redemptions    int       `db:"current_redemptions"`
	Active         bool      `db:"active"`
	CreatedAt      time.Time `db:"created_at"`
}

func (r discountRow) model() models.DiscountCode {
	return models.DiscountCode{
		Code:           r.Code,
		Percent:        r.Percent,
		MaxRedemptions: r.MaxRedemptions,
		Redemptions:    r.Redemptions,
		Active:         r.Active,
		CreatedAt:      r.CreatedAt,
	}
}

const discountSelect = `SELECT code, percent, max_redemptions, current_redemptions, active, created_at FROM discount_codes`

func (r DiscountRepository) Get(ctx context.Context, code string) (*models.DiscountCode, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	var row discountRow
	err = db.GetContext(ctx, &row, discountSelect+` WHERE code = ?`, utils.NormalizeCode(code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get discount: %w", err)
	}
	d := row.model()
	return &d, nil
}

// Redeem is a single conditional UPDATE; the WHERE clause carries the cap check so two
// racing redemptions of the last use cannot both succeed.
func (r DiscountRepository) Redeem(ctx context.Context, code string) (*models.DiscountCode, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	code = utils.NormalizeCode(code)
	res, err := db.ExecContext(ctx, `
		UPDATE discount_codes
		SET current_redemptions = current_redemptions + 1
		WHERE code = ? AND active = 1 AND current_redemptions < max_redemptions`, code)
	if err != nil {
		return nil, fmt.Errorf("redeem discount: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("redeem discount: %w", err)
	}

	d, getErr := r.Get(ctx, code)
	if n == 1 {
		if getErr != nil {
			// redeemed but unreadable; the percent is still needed by the caller
			return nil, fmt.Errorf("read redeemed discount: %w", getErr)
		}
		return d, nil
	}
	switch {
	case errors.Is(getErr, domain.ErrNotFound):
		return nil, domain.ErrCodeNotFound
	case getErr != nil:
		return nil, getErr
	case !d.Active:
		return nil, domain.ErrCodeNotFound
	default:
		return nil, domain.ErrCodeExhausted
	}
}

func (r DiscountRepository) Create(ctx context.Context, d *models.DiscountCode) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO discount_codes (code, percent, max_redemptions, current_redemptions, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		d.Code, d.Percent, d.MaxRedemptions, d.Redemptions, d.Active, d.CreatedAt)
	if intdb.IsDuplicateKey(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create discount: %w", err)
	}
	return nil
}

func (r DiscountRepository) Delete(ctx context.Context, code string) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM discount_codes WHERE code = ?`, utils.NormalizeCode(code))
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r DiscountRepository) List(ctx context.Context) ([]models.DiscountCode, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	rows := []discountRow{}
	if err := db.SelectContext(ctx, &rows, discountSelect+` ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list discounts: %w", err)
	}
	out := make([]models.DiscountCode, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
