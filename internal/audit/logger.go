// Package audit writes the append-only audit trail. Entries created inside an
// engine transaction ride it; out-of-band events (notification failures,
// reminders) are written standalone.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/itsjessedev/workflowbot/internal/models"
	"github.com/itsjessedev/workflowbot/internal/repository"
	"go.uber.org/zap"
)

// Logger appends entries to the audit trail
type Logger struct {
	repo   *repository.AuditRepository
	logger *zap.Logger
}

// NewLogger creates a new audit logger
func NewLogger(repo *repository.AuditRepository, logger *zap.Logger) *Logger {
	return &Logger{
		repo:   repo,
		logger: logger,
	}
}

// Entry describes one audit event to append
type Entry struct {
	Action      string
	RequestID   *int64
	ActorID     string
	ActorName   string
	ActorType   string
	Description string
	Context     map[string]interface{}
}

// Append writes an audit entry. Pass a transaction to make the entry part of
// the operation's atomic commit, or nil for standalone events.
func (l *Logger) Append(ctx context.Context, tx *sql.Tx, e Entry) error {
	actorType := e.ActorType
	if actorType == "" {
		actorType = models.ActorSystem
	}

	entry := &models.AuditEntry{
		RequestID:   e.RequestID,
		Action:      e.Action,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		ActorType:   actorType,
		Description: e.Description,
		Context:     e.Context,
		Timestamp:   time.Now().UTC(),
	}

	return l.repo.Append(ctx, tx, entry)
}

// RequestCreated records the creation of a request by its requester
func (l *Logger) RequestCreated(ctx context.Context, tx *sql.Tx, request *models.Request) error {
	return l.Append(ctx, tx, Entry{
		Action:      models.ActionRequestCreated,
		RequestID:   &request.ID,
		ActorID:     request.RequesterID,
		ActorName:   request.RequesterName,
		ActorType:   models.ActorUser,
		Description: fmt.Sprintf("Created %s request", request.WorkflowType),
		Context:     map[string]interface{}{"workflow_type": request.WorkflowType},
	})
}

// RequestSubmitted records a request entering the approval flow
func (l *Logger) RequestSubmitted(ctx context.Context, tx *sql.Tx, request *models.Request) error {
	return l.Append(ctx, tx, Entry{
		Action:      models.ActionRequestSubmitted,
		RequestID:   &request.ID,
		ActorID:     request.RequesterID,
		ActorName:   request.RequesterName,
		ActorType:   models.ActorUser,
		Description: "Submitted request for approval",
	})
}

// ApprovalRequested records that an approver's decision was requested
func (l *Logger) ApprovalRequested(ctx context.Context, tx *sql.Tx, requestID int64, approverID, approverName string) error {
	return l.Append(ctx, tx, Entry{
		Action:      models.ActionApprovalRequested,
		RequestID:   &requestID,
		ActorID:     models.SystemActorID,
		ActorName:   models.SystemActorName,
		ActorType:   models.ActorBot,
		Description: fmt.Sprintf("Requested approval from %s", approverName),
		Context:     map[string]interface{}{"approver_id": approverID},
	})
}

// ApprovalDecision records an approve or reject decision
func (l *Logger) ApprovalDecision(ctx context.Context, tx *sql.Tx, requestID int64, approverID, approverName string, approved bool, comments string) error {
	action := models.ActionApprovalApproved
	description := "Approved request"
	if !approved {
		action = models.ActionApprovalRejected
		description = "Rejected request"
	}

	var context map[string]interface{}
	if comments != "" {
		context = map[string]interface{}{"comments": comments}
	}

	return l.Append(ctx, tx, Entry{
		Action:      action,
		RequestID:   &requestID,
		ActorID:     approverID,
		ActorName:   approverName,
		ActorType:   models.ActorUser,
		Description: description,
		Context:     context,
	})
}

// RequestCompleted records the request reaching its final decision status
func (l *Logger) RequestCompleted(ctx context.Context, tx *sql.Tx, requestID int64, status string) error {
	return l.Append(ctx, tx, Entry{
		Action:      models.ActionRequestCompleted,
		RequestID:   &requestID,
		ActorID:     models.SystemActorID,
		ActorName:   models.SystemActorName,
		ActorType:   models.ActorBot,
		Description: fmt.Sprintf("Request %s", status),
	})
}

// RequestCancelled records a manual cancellation
func (l *Logger) RequestCancelled(ctx context.Context, tx *sql.Tx, requestID int64, actorID string) error {
	return l.Append(ctx, tx, Entry{
		Action:      models.ActionRequestCancelled,
		RequestID:   &requestID,
		ActorID:     actorID,
		ActorType:   models.ActorUser,
		Description: "Cancelled request",
	})
}

// ReminderSent records a reminder notification to a pending approver
func (l *Logger) ReminderSent(ctx context.Context, requestID int64, approverID, approverName string, reminderCount int) error {
	return l.Append(ctx, nil, Entry{
		Action:      models.ActionApprovalReminderSent,
		RequestID:   &requestID,
		ActorID:     models.SystemActorID,
		ActorName:   models.SystemActorName,
		ActorType:   models.ActorBot,
		Description: fmt.Sprintf("Sent approval reminder to %s", approverName),
		Context: map[string]interface{}{
			"approver_id":    approverID,
			"reminder_count": reminderCount,
		},
	})
}

// NotificationFailed records a best-effort notification that could not be
// delivered. The underlying state transition is already committed and is
// never rolled back for this.
func (l *Logger) NotificationFailed(ctx context.Context, requestID int64, recipientID string, cause error) {
	err := l.Append(ctx, nil, Entry{
		Action:      models.ActionNotificationFailed,
		RequestID:   &requestID,
		ActorID:     models.SystemActorID,
		ActorName:   models.SystemActorName,
		ActorType:   models.ActorBot,
		Description: fmt.Sprintf("Failed to notify %s", recipientID),
		Context: map[string]interface{}{
			"recipient_id": recipientID,
			"error":        cause.Error(),
		},
	})
	if err != nil {
		// Nothing left to do but log; the audit sink itself is unavailable
		l.logger.Error("Failed to record notification failure",
			zap.Int64("request_id", requestID),
			zap.String("recipient_id", recipientID),
			zap.Error(err))
	}
}
