package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS receipts (
	id               TEXT PRIMARY KEY,
	merchant_name    TEXT,
	receipt_date     TEXT,
	receipt_number   TEXT,
	invoice_type     TEXT NOT NULL,
	items            TEXT NOT NULL DEFAULT '[]',
	subtotal         REAL,
	tax              REAL,
	total            REAL NOT NULL DEFAULT 0,
	currency         TEXT NOT NULL,
	payment_method   TEXT,
	confidence_score REAL NOT NULL DEFAULT 0,
	error_message    TEXT,
	image_uri        TEXT NOT NULL,
	raw_text         TEXT,
	created_at       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipts_date ON receipts (receipt_date);
CREATE INDEX IF NOT EXISTS idx_receipts_type ON receipts (invoice_type);
`

// Open opens (or creates) the local SQLite store and applies the schema.
// The connection lifecycle is the repository's concern; callers above only
// see the ReceiptRepository interface.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("opening receipt store", "path", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent statements.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logger.Info("receipt store ready", "path", path)
	return db, nil
}

// Close closes the store gracefully.
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil && logger != nil {
		logger.Error("failed to close receipt store", "error", err)
	}
}

// HealthCheck pings the store to catch a stale handle early.
func HealthCheck(ctx context.Context, db *sql.DB) error {
	return db.PingContext(ctx)
}
