package history

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createHistoryTable = `
CREATE TABLE IF NOT EXISTS analysis_history (
    record_key TEXT        PRIMARY KEY,
    doc        JSONB       NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores history documents in a JSONB column.
type PostgresBackend struct {
	pool PgxPool
}

func NewPostgresBackend(pool PgxPool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) RunMigrations(ctx context.Context) error {
	_, err := b.pool.Exec(ctx, createHistoryTable)
	return err
}

func (b *PostgresBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := b.pool.QueryRow(ctx,
		`SELECT doc::text FROM analysis_history WHERE record_key = $1`, key,
	).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (b *PostgresBackend) Write(ctx context.Context, key string, doc []byte) error {
	_, err := b.pool.Exec(ctx,
		`INSERT INTO analysis_history (record_key, doc, updated_at) VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (record_key) DO UPDATE SET
		     doc = EXCLUDED.doc,
		     updated_at = EXCLUDED.updated_at`,
		key, string(doc),
	)
	return err
}
