package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema define las tres tablas del bot. Idempotente: se aplica en cada
// arranque (no hay migraciones versionadas para un esquema de este tamaño).
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	price        BIGINT NOT NULL DEFAULT 0,
	sku          TEXT NOT NULL DEFAULT '',
	alias        TEXT NOT NULL DEFAULT '',
	available    BOOLEAN NOT NULL DEFAULT FALSE,
	image_url    TEXT NOT NULL DEFAULT '',
	last_checked TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS subscriptions (
	id                UUID PRIMARY KEY,
	user_id           TEXT NOT NULL REFERENCES users(id),
	product_id        TEXT NOT NULL REFERENCES products(id),
	subscribed_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_notified_at  TIMESTAMPTZ,
	notified          BOOLEAN NOT NULL DEFAULT FALSE,
	last_stock_status BOOLEAN NOT NULL DEFAULT FALSE,
	CONSTRAINT uq_subscriptions_user_product UNIQUE (user_id, product_id)
);

CREATE INDEX IF NOT EXISTS idx_subscriptions_product ON subscriptions(product_id);
`

// EnsureSchema crea las tablas si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("crear esquema: %w", err)
	}
	return nil
}
