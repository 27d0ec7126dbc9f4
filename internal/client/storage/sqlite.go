package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/spendtrack/internal/common"
	"github.com/dmitrijs2005/spendtrack/internal/dbx"
)

// SQLiteTier is the durable primary tier backed by a single key/value table.
type SQLiteTier struct {
	db *sql.DB
}

func NewSQLiteTier(db *sql.DB) *SQLiteTier {
	return &SQLiteTier{db: db}
}

// Put upserts the value and verifies it by reading it back inside the same
// transaction. A mismatch rolls the write back and returns
// common.ErrWriteMismatch, so a failed verification never leaves the key
// populated in this tier.
func (t *SQLiteTier) Put(ctx context.Context, key, value string) error {
	return dbx.WithTx(ctx, t.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO storage (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, key, value)
		if err != nil {
			return fmt.Errorf("failed to put storage[%s]: %w", key, err)
		}

		var got string
		if err := tx.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, key).Scan(&got); err != nil {
			return fmt.Errorf("failed to verify storage[%s]: %w", key, err)
		}
		if got != value {
			return common.ErrWriteMismatch
		}
		return nil
	})
}

func (t *SQLiteTier) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := t.db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get storage[%s]: %w", key, err)
	}
	return value, true, nil
}

func (t *SQLiteTier) Remove(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete storage[%s]: %w", key, err)
	}
	return nil
}

func (t *SQLiteTier) Clear(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `DELETE FROM storage`)
	if err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}
