package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itsjessedev/workflowbot/internal/models"
	"go.uber.org/zap"
)

// RequestRepository handles request persistence
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) *RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

const requestColumns = `
	id, reference, workflow_type, requester_id, requester_name, requester_email,
	title, description, priority, data, status,
	created_at, updated_at, submitted_at, completed_at
`

// Create inserts a new request and assigns its generated ID
func (r *RequestRepository) Create(ctx context.Context, tx *sql.Tx, request *models.Request) error {
	dataJSON, err := marshalData(request.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO requests (
			reference, workflow_type, requester_id, requester_name, requester_email,
			title, description, priority, data, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := chooseExecutor(r.db, tx).ExecContext(ctx, query,
		request.Reference,
		request.WorkflowType,
		request.RequesterID,
		request.RequesterName,
		request.RequesterEmail,
		request.Title,
		request.Description,
		request.Priority,
		dataJSON,
		request.Status,
		request.CreatedAt,
		request.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	request.ID = id
	return nil
}

// GetByID retrieves a request by ID, returning nil when no row exists
func (r *RequestRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = ?`
	row := chooseExecutor(r.db, tx).QueryRowContext(ctx, query, id)

	request, err := scanRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

// MarkSubmitted transitions a request to pending and stamps submitted_at.
// Clearing completed_at keeps it meaningful on resubmission after rejection.
func (r *RequestRepository) MarkSubmitted(ctx context.Context, tx *sql.Tx, id int64, submittedAt time.Time) error {
	query := `UPDATE requests SET status = ?, submitted_at = ?, completed_at = NULL, updated_at = ? WHERE id = ?`

	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, query, models.StatusPending, submittedAt, submittedAt, id)
	if err != nil {
		r.logger.Error("Failed to mark request submitted", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark request submitted: %w", err)
	}
	return nil
}

// MarkCompleted transitions a request to a terminal decision status and stamps completed_at
func (r *RequestRepository) MarkCompleted(ctx context.Context, tx *sql.Tx, id int64, status string, completedAt time.Time) error {
	query := `UPDATE requests SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`

	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, query, status, completedAt, completedAt, id)
	if err != nil {
		r.logger.Error("Failed to mark request completed",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to mark request completed: %w", err)
	}
	return nil
}

// UpdateStatus updates the status of a request without touching completion stamps
func (r *RequestRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, status string) error {
	query := `UPDATE requests SET status = ?, updated_at = ? WHERE id = ?`

	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update request status",
			zap.Int64("id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to update request status: %w", err)
	}
	return nil
}

// ListByRequester retrieves a user's requests, optionally filtered by status,
// newest first
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID, status string) ([]*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE requester_id = ?`
	args := []interface{}{requesterID}

	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.String("requester_id", requesterID), zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.Request
	for rows.Next() {
		request, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// Delete removes a request; approvals and audit entries cascade
func (r *RequestRepository) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete request", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

func scanRequest(scan func(dest ...interface{}) error) (*models.Request, error) {
	var request models.Request
	var description, email sql.NullString
	var dataJSON string
	var submittedAt, completedAt sql.NullTime

	err := scan(
		&request.ID,
		&request.Reference,
		&request.WorkflowType,
		&request.RequesterID,
		&request.RequesterName,
		&email,
		&request.Title,
		&description,
		&request.Priority,
		&dataJSON,
		&request.Status,
		&request.CreatedAt,
		&request.UpdatedAt,
		&submittedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	request.RequesterEmail = email.String
	request.Description = description.String
	if submittedAt.Valid {
		request.SubmittedAt = &submittedAt.Time
	}
	if completedAt.Valid {
		request.CompletedAt = &completedAt.Time
	}

	data, err := unmarshalData(dataJSON)
	if err != nil {
		return nil, err
	}
	request.Data = data

	return &request, nil
}
