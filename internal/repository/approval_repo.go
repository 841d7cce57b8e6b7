package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itsjessedev/workflowbot/internal/models"
	"go.uber.org/zap"
)

// ApprovalRepository handles approval persistence
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) *ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

const approvalColumns = `
	id, request_id, approver_id, approver_name, approver_email,
	status, step, level, required, comments, decided_at,
	reminder_count, last_reminder_at, created_at, updated_at
`

// CreateBatch inserts the approval slots for a submitted request
func (r *ApprovalRepository) CreateBatch(ctx context.Context, tx *sql.Tx, approvals []*models.Approval) error {
	query := `
		INSERT INTO approvals (
			request_id, approver_id, approver_name, approver_email,
			status, step, level, required, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := chooseExecutor(r.db, tx)
	for _, approval := range approvals {
		result, err := exec.ExecContext(ctx, query,
			approval.RequestID,
			approval.ApproverID,
			approval.ApproverName,
			approval.ApproverEmail,
			approval.Status,
			approval.Step,
			approval.Level,
			approval.Required,
			approval.CreatedAt,
			approval.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create approval",
				zap.Int64("request_id", approval.RequestID),
				zap.String("approver_id", approval.ApproverID),
				zap.Error(err))
			return fmt.Errorf("failed to create approval: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		approval.ID = id
	}
	return nil
}

// GetByID retrieves an approval by ID, returning nil when no row exists
func (r *ApprovalRepository) GetByID(ctx context.Context, tx *sql.Tx, id int64) (*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ?`
	row := chooseExecutor(r.db, tx).QueryRowContext(ctx, query, id)

	approval, err := scanApproval(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return approval, nil
}

// Decide records a decision with a compare-and-set on the pending status.
// It returns false when the approval was already decided, which makes a
// concurrent duplicate decision lose deterministically.
func (r *ApprovalRepository) Decide(ctx context.Context, tx *sql.Tx, id int64, status, comments string, decidedAt time.Time) (bool, error) {
	query := `
		UPDATE approvals
		SET status = ?, comments = ?, decided_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := chooseExecutor(r.db, tx).ExecContext(ctx, query,
		status, comments, decidedAt, decidedAt, id, models.ApprovalPending)
	if err != nil {
		r.logger.Error("Failed to record decision", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to record decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return affected > 0, nil
}

// SkipPending marks a request's undecided approvals skipped, stamping
// decided_at. Resubmission uses this so the prior round's slots stop counting
// toward completion and stop resolving as the approver's live approval.
func (r *ApprovalRepository) SkipPending(ctx context.Context, tx *sql.Tx, requestID int64, at time.Time) error {
	query := `
		UPDATE approvals
		SET status = ?, decided_at = ?, updated_at = ?
		WHERE request_id = ? AND status = ?
	`

	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, query,
		models.ApprovalSkipped, at, at, requestID, models.ApprovalPending)
	if err != nil {
		r.logger.Error("Failed to skip pending approvals",
			zap.Int64("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("failed to skip pending approvals: %w", err)
	}
	return nil
}

// CountByStatus counts a request's approvals in the given status
func (r *ApprovalRepository) CountByStatus(ctx context.Context, tx *sql.Tx, requestID int64, status string) (int, error) {
	query := `SELECT COUNT(*) FROM approvals WHERE request_id = ? AND status = ?`

	var count int
	err := chooseExecutor(r.db, tx).QueryRowContext(ctx, query, requestID, status).Scan(&count)
	if err != nil {
		r.logger.Error("Failed to count approvals",
			zap.Int64("request_id", requestID),
			zap.String("status", status),
			zap.Error(err))
		return 0, fmt.Errorf("failed to count approvals: %w", err)
	}
	return count, nil
}

// ListByRequestID retrieves all approvals for a request in level order
func (r *ApprovalRepository) ListByRequestID(ctx context.Context, requestID int64) ([]*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE request_id = ? ORDER BY level ASC`
	return r.list(ctx, query, requestID)
}

// ListPendingByApprover retrieves an approver's undecided approvals, oldest first
func (r *ApprovalRepository) ListPendingByApprover(ctx context.Context, approverID string) ([]*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals
		WHERE approver_id = ? AND status = ? ORDER BY created_at ASC`
	return r.list(ctx, query, approverID, models.ApprovalPending)
}

// PendingForRequestAndApprover returns the approver's undecided approval on a
// request, or nil when there is none
func (r *ApprovalRepository) PendingForRequestAndApprover(ctx context.Context, requestID int64, approverID string) (*models.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals
		WHERE request_id = ? AND approver_id = ? AND status = ?
		ORDER BY level ASC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, requestID, approverID, models.ApprovalPending)
	approval, err := scanApproval(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending approval: %w", err)
	}
	return approval, nil
}

// ListDueReminders retrieves pending approvals whose next reminder is due.
// An approval is due when its request is still pending, it has been reminded
// fewer than maxReminders times and at least interval has elapsed since the
// last reminder (or creation). Filtering on the request status keeps slots
// left undecided by a veto or cancellation out of the batch.
func (r *ApprovalRepository) ListDueReminders(ctx context.Context, maxReminders int, interval time.Duration, now time.Time, limit int) ([]*models.Approval, error) {
	cutoff := now.Add(-interval)
	query := `SELECT
			a.id, a.request_id, a.approver_id, a.approver_name, a.approver_email,
			a.status, a.step, a.level, a.required, a.comments, a.decided_at,
			a.reminder_count, a.last_reminder_at, a.created_at, a.updated_at
		FROM approvals a
		JOIN requests r ON r.id = a.request_id
		WHERE a.status = ?
		  AND r.status = ?
		  AND a.reminder_count < ?
		  AND COALESCE(a.last_reminder_at, a.created_at) <= ?
		ORDER BY COALESCE(a.last_reminder_at, a.created_at) ASC
		LIMIT ?`

	return r.list(ctx, query, models.ApprovalPending, models.StatusPending, maxReminders, cutoff, limit)
}

// MarkReminded increments the reminder counter and stamps last_reminder_at
func (r *ApprovalRepository) MarkReminded(ctx context.Context, tx *sql.Tx, id int64, at time.Time) error {
	query := `
		UPDATE approvals
		SET reminder_count = reminder_count + 1, last_reminder_at = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := chooseExecutor(r.db, tx).ExecContext(ctx, query, at, at, id)
	if err != nil {
		r.logger.Error("Failed to mark approval reminded", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark approval reminded: %w", err)
	}
	return nil
}

func (r *ApprovalRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.Approval, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*models.Approval
	for rows.Next() {
		approval, err := scanApproval(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

func scanApproval(scan func(dest ...interface{}) error) (*models.Approval, error) {
	var approval models.Approval
	var email, comments sql.NullString
	var decidedAt, lastReminderAt sql.NullTime

	err := scan(
		&approval.ID,
		&approval.RequestID,
		&approval.ApproverID,
		&approval.ApproverName,
		&email,
		&approval.Status,
		&approval.Step,
		&approval.Level,
		&approval.Required,
		&comments,
		&decidedAt,
		&approval.ReminderCount,
		&lastReminderAt,
		&approval.CreatedAt,
		&approval.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	approval.ApproverEmail = email.String
	approval.Comments = comments.String
	if decidedAt.Valid {
		approval.DecidedAt = &decidedAt.Time
	}
	if lastReminderAt.Valid {
		approval.LastReminderAt = &lastReminderAt.Time
	}
	return &approval, nil
}
