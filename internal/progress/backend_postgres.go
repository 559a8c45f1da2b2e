package progress

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores progress rows in the progress_kv table, scoped by namespace.
// The table is created by database.Migrate.
type PostgresBackend struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgresBackend creates a PostgreSQL-backed progress backend.
func NewPostgresBackend(pool *pgxpool.Pool, namespace string) (*PostgresBackend, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresBackend{pool: pool, namespace: namespace}, nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.pool.QueryRow(ctx,
		`SELECT value FROM progress_kv WHERE namespace = $1 AND key = $2`,
		b.namespace,
		key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (b *PostgresBackend) Put(ctx context.Context, entries map[string]string) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		for k, v := range entries {
			if _, err := tx.Exec(ctx,
				`INSERT INTO progress_kv (namespace, key, value, updated_at)
				 VALUES ($1, $2, $3, NOW())
				 ON CONFLICT (namespace, key) DO UPDATE
				 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
				b.namespace,
				k,
				v,
			); err != nil {
				return fmt.Errorf("put %s: %w", k, err)
			}
		}
		return nil
	})
}

func (b *PostgresBackend) Delete(ctx context.Context, keys ...string) error {
	if _, err := b.pool.Exec(ctx,
		`DELETE FROM progress_kv WHERE namespace = $1 AND key = ANY($2)`,
		b.namespace,
		keys,
	); err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	return nil
}
