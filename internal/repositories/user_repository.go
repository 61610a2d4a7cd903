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

type UserRepository struct {
	DB *sqlx.DB
}

type userRow struct {
	ID           string       `db:"id"`
	Email        string       `db:"email"`
	Name         string       `db:"name"`
	PasswordHash string       `db:"password_hash"`
	Role         string       `db:"role"`
	Banned       bool         `db:"banned"`
	BannedAt     sql.NullTime `db:"banned_at"`
	CreatedAt    time.Time    `db:"created_at"`
}

func (r userRow) model() models.User {
	u := models.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		Banned:       r.Banned,
		CreatedAt:    r.CreatedAt,
	}
	if r.BannedAt.Valid {
		t := r.BannedAt.Time
		u.BannedAt = &t
	}
	return u
}

const userSelect = `SELECT id, email, name, password_hash, role, banned, banned_at, created_at FROM users`

func (r UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	var row userRow
	err = db.GetContext(ctx, &row, userSelect+` WHERE `+where, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u := row.model()
	return &u, nil
}

func (r UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, "email = ?", utils.NormalizeEmail(email))
}

func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, role, banned, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, utils.NormalizeEmail(u.Email), u.Name, u.PasswordHash, string(u.Role), u.Banned, u.CreatedAt)
	if intdb.IsDuplicateKey(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r UserRepository) SetBanned(ctx context.Context, id string, banned bool, at time.Time) error {
	var bannedAt sql.NullTime
	if banned {
		bannedAt = sql.NullTime{Time: at, Valid: true}
	}
	return r.update(ctx, `UPDATE users SET banned = ?, banned_at = ? WHERE id = ?`, banned, bannedAt, id)
}

func (r UserRepository) SetRole(ctx context.Context, id string, role domain.Role) error {
	return r.update(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
}

func (r UserRepository) update(ctx context.Context, q string, args ...any) error {
	db, err := pick(r.DB)
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	// MySQL reports 0 affected rows when values are unchanged, so confirm existence separately.
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		if err := db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM users WHERE id = ?`, args[len(args)-1]); err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		if exists == 0 {
			return domain.ErrNotFound
		}
	}
	return nil
}

func (r UserRepository) List(ctx context.Context) ([]models.User, error) {
	db, err := pick(r.DB)
	if err != nil {
		return nil, err
	}
	rows := []userRow{}
	if err := db.SelectContext(ctx, &rows, userSelect+` ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]models.User, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.model())
	}
	return out, nil
}
