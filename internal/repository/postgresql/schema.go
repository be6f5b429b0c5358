package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Plain types only, so the same DDL runs on Postgres and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		full_name  TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id         TEXT PRIMARY KEY,
		owner_id   TEXT NOT NULL,
		name       TEXT NOT NULL,
		price      NUMERIC(14,2) NOT NULL CHECK (price >= 0),
		status     TEXT NOT NULL DEFAULT 'active',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id              TEXT PRIMARY KEY,
		from_user_id    TEXT NOT NULL,
		to_user_id      TEXT NOT NULL,
		status_offer    TEXT NOT NULL CHECK (status_offer IN ('pending', 'accepted', 'completed', 'rejected')),
		cash_adjustment NUMERIC(14,2) NOT NULL DEFAULT 0,
		version         BIGINT NOT NULL DEFAULT 1,
		date_created    TIMESTAMP NOT NULL,
		date_updated    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS offer_items (
		id           TEXT PRIMARY KEY,
		offer_id     TEXT NOT NULL REFERENCES offers(id) ON DELETE CASCADE,
		item_id      TEXT NOT NULL,
		offered_by   TEXT NOT NULL,
		quantity     INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
		date_created TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_offer_items_offer_id ON offer_items (offer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_from_user_id ON offers (from_user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_offers_to_user_id ON offers (to_user_id)`,
}

// Migrate creates the tables this service owns if they do not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate schema")
		}
	}
	return nil
}

func isPostgres(driver string) bool {
	return sqlx.BindType(driver) == sqlx.DOLLAR
}
