package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itsjessedev/workflowbot/internal/models"
	"go.uber.org/zap"
)

// AuditRepository handles audit trail persistence. The table is append-only:
// this repository exposes no update or delete operations.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a new audit entry
func (r *AuditRepository) Append(ctx context.Context, tx *sql.Tx, entry *models.AuditEntry) error {
	contextJSON, err := marshalData(entry.Context)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_entries (
			request_id, action, actor_id, actor_name, actor_type,
			description, context, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := chooseExecutor(r.db, tx).ExecContext(ctx, query,
		entry.RequestID,
		entry.Action,
		entry.ActorID,
		entry.ActorName,
		entry.ActorType,
		entry.Description,
		contextJSON,
		entry.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry",
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// ListByRequestID retrieves a request's audit trail ordered ascending by
// timestamp, ties broken by insertion order
func (r *AuditRepository) ListByRequestID(ctx context.Context, requestID int64) ([]*models.AuditEntry, error) {
	query := `
		SELECT id, request_id, action, actor_id, actor_name, actor_type,
			description, context, timestamp
		FROM audit_entries
		WHERE request_id = ?
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list audit entries", zap.Int64("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		var requestIDCol sql.NullInt64
		var actorID, actorName, description sql.NullString
		var contextJSON string

		err := rows.Scan(
			&entry.ID,
			&requestIDCol,
			&entry.Action,
			&actorID,
			&actorName,
			&entry.ActorType,
			&description,
			&contextJSON,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		if requestIDCol.Valid {
			id := requestIDCol.Int64
			entry.RequestID = &id
		}
		entry.ActorID = actorID.String
		entry.ActorName = actorName.String
		entry.Description = description.String

		context, err := unmarshalData(contextJSON)
		if err != nil {
			return nil, err
		}
		entry.Context = context

		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
