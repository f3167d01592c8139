package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"erp/portal/internal/db"
)

type Postgres struct {
	store *db.Store
}

func NewPostgres(store *db.Store) *Postgres {
	return &Postgres{store: store}
}

// EnsureSchema creates the key/value table when it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	return p.store.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS portal_storage (
        key        TEXT PRIMARY KEY,
        value      TEXT NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `CREATE INDEX IF NOT EXISTS portal_storage_updated_at_idx ON portal_storage (updated_at)`)
		return err
	})
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.store.Pool.QueryRow(ctx, `SELECT value FROM portal_storage WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	_, err := p.store.Pool.Exec(ctx, `
    INSERT INTO portal_storage (key, value, updated_at)
    VALUES ($1, $2, now())
    ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
  `, key, value)
	return err
}

func (p *Postgres) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := p.store.Pool.Exec(ctx, `DELETE FROM portal_storage WHERE key = ANY($1)`, keys)
	return err
}
