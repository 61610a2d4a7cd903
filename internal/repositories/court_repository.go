package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"courtreserve/internal/domain"
	"courtreserve/internal/domain/models"

	"github.com/jmoiron/sqlx"
)

const featureSep = "|"

type CourtRepository struct {
	DB *sqlx.DB
}

type courtRow struct {
	ID       int64  `db:"id"`
	Name     string `db:"name"`
	Category string `db:"category"`
	Features string `db:"features"`
}

func (r courtRow) model() models.Court {
	features := []string{}
	for _, f := range strings.Split(r.Features, featureSep) {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	return models.Court{ID: r.ID, Name: r.Name, Category: r.Category, Features: features}
}

func (r CourtRepository) List(ctx context.Context) ([]models.Court, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	rows := []courtRow{}
	if err := db.SelectContext(ctx, &rows, `SELECT id, name, category, features FROM courts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	out := make([]models.Court, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}

func (r CourtRepository) Get(ctx context.Context, id int64) (*models.Court, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	var row courtRow
	err = db.GetContext(ctx, &row, `SELECT id, name, category, features FROM courts WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get court %d: %w", id, err)
	}
	c := row.model()
	return &c, nil
}

// Seed inserts missing courts and leaves existing rows untouched.
func (r CourtRepository) Seed(ctx context.Context, courts []models.Court) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	for _, c := range courts {
		_, err := db.ExecContext(ctx,
			`INSERT IGNORE INTO courts (id, name, category, features) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Category, strings.Join(c.Features, featureSep))
		if err != nil {
			return fmt.Errorf("seed court %d: %w", c.ID, err)
		}
	}
	return nil
}
