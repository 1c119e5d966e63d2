package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS analysis_history (
    record_key TEXT PRIMARY KEY,
    doc        TEXT     NOT NULL,
    updated_at DATETIME NOT NULL
);
`

// SQLiteBackend keeps history documents in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history.NewSQLiteBackend: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history.NewSQLiteBackend: apply schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Close() error { return b.db.Close() }

func (b *SQLiteBackend) Read(ctx context.Context, key string) ([]byte, error) {
	var doc string
	err := b.db.QueryRowContext(ctx,
		`SELECT doc FROM analysis_history WHERE record_key = ?`, key,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc), nil
}

func (b *SQLiteBackend) Write(ctx context.Context, key string, doc []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO analysis_history (record_key, doc, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(record_key) DO UPDATE SET
		     doc = excluded.doc,
		     updated_at = excluded.updated_at`,
		key, string(doc), time.Now().UTC(),
	)
	return err
}
