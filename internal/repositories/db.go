package repositories

import (
	"errors"

	intconfig "courtreserve/internal/config"

	"github.com/jmoiron/sqlx"
)

var errNoDB = errors.New("database not connected")

func pick(db *sqlx.DB) (*sqlx.DB, error) {
	if db != nil {
		return db, nil
	}
	if intconfig.DB != nil {
		return intconfig.DB, nil
	}
	return nil, errNoDB
}
