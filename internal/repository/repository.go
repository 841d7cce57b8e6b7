// Package repository implements the persistence layer over SQLite.
// Mutating methods accept an optional *sql.Tx so the engine can group the
// writes of one logical operation into a single transaction.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// executor abstracts *sql.DB and *sql.Tx
type executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func chooseExecutor(db *sql.DB, tx *sql.Tx) executor {
	if tx != nil {
		return tx
	}
	return db
}

func marshalData(data map[string]interface{}) (string, error) {
	if data == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data payload: %w", err)
	}
	return string(raw), nil
}

func unmarshalData(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return map[string]interface{}{}, nil
	}
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data payload: %w", err)
	}
	return data, nil
}
