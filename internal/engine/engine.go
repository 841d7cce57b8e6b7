// Package engine owns the request/approval state machine. It orchestrates
// creation, submission, decision recording and completion detection, persists
// through the repositories, records every transition in the audit trail and
// signals the notifier after transitions that require external communication.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/itsjessedev/workflowbot/internal/audit"
	"github.com/itsjessedev/workflowbot/internal/lifecycle"
	"github.com/itsjessedev/workflowbot/internal/models"
	"github.com/itsjessedev/workflowbot/internal/notification"
	"github.com/itsjessedev/workflowbot/internal/repository"
	"github.com/itsjessedev/workflowbot/internal/routing"
	"github.com/itsjessedev/workflowbot/internal/workflow"
	"github.com/itsjessedev/workflowbot/pkg/database"
)

// Engine orchestrates the approval workflow
type Engine struct {
	db        *database.DB
	requests  *repository.RequestRepository
	approvals *repository.ApprovalRepository
	auditRepo *repository.AuditRepository
	audit     *audit.Logger
	registry  *workflow.Registry
	notifier  notification.Notifier
	logger    *zap.Logger
}

// NewEngine creates a new workflow engine
func NewEngine(
	db *database.DB,
	requests *repository.RequestRepository,
	approvals *repository.ApprovalRepository,
	auditRepo *repository.AuditRepository,
	registry *workflow.Registry,
	notifier notification.Notifier,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		db:        db,
		requests:  requests,
		approvals: approvals,
		auditRepo: auditRepo,
		audit:     audit.NewLogger(auditRepo, logger),
		registry:  registry,
		notifier:  notifier,
		logger:    logger,
	}
}

// Requester identifies who is creating a request
type Requester struct {
	ID    string
	Name  string
	Email string
}

// CreateParams are the inputs for CreateRequest. Data must already be
// validated and prepared by the workflow definition; the engine performs no
// validation of its own here.
type CreateParams struct {
	WorkflowType string
	Requester    Requester
	Title        string
	Description  string
	Data         map[string]interface{}
	Priority     string
}

// CreateRequest persists a new request in draft status and records its
// creation in the audit trail
func (e *Engine) CreateRequest(ctx context.Context, params CreateParams) (*models.Request, error) {
	now := time.Now().UTC()
	priority := params.Priority
	if priority == "" {
		priority = models.PriorityNormal
	}

	request := &models.Request{
		Reference:      newReference(),
		WorkflowType:   params.WorkflowType,
		RequesterID:    params.Requester.ID,
		RequesterName:  params.Requester.Name,
		RequesterEmail: params.Requester.Email,
		Title:          params.Title,
		Description:    params.Description,
		Priority:       priority,
		Data:           params.Data,
		Status:         models.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := e.requests.Create(ctx, tx, request); err != nil {
			return err
		}
		return e.audit.RequestCreated(ctx, tx, request)
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("Created request",
		zap.Int64("id", request.ID),
		zap.String("reference", request.Reference),
		zap.String("workflow_type", request.WorkflowType),
		zap.String("requester_id", request.RequesterID))

	return request, nil
}

// SubmitRequest transitions a request to pending and creates one pending
// approval per routed approver, in router output order. The position in the
// approvers slice defines the approval level; decisions are parallel, not
// gated level by level.
func (e *Engine) SubmitRequest(ctx context.Context, requestID int64, approvers []routing.Approver) (*models.Request, error) {
	request, err := e.requests.GetByID(ctx, nil, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	machine := lifecycle.NewRequestMachine(lifecycle.State(request.Status))
	if err := machine.Fire(lifecycle.TriggerSubmit); err != nil {
		return nil, fmt.Errorf("cannot submit request %d: %w", requestID, err)
	}

	now := time.Now().UTC()
	batch := make([]*models.Approval, 0, len(approvers))
	for i, approver := range approvers {
		batch = append(batch, &models.Approval{
			RequestID:     request.ID,
			ApproverID:    approver.ID,
			ApproverName:  approver.Name,
			ApproverEmail: approver.Email,
			Status:        models.ApprovalPending,
			Step:          fmt.Sprintf("approval_%d", i+1),
			Level:         i + 1,
			Required:      true,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	err = e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := e.requests.MarkSubmitted(ctx, tx, request.ID, now); err != nil {
			return err
		}
		// On resubmission the prior round's undecided slots are still
		// pending; skip them so only the new round is live
		if err := e.approvals.SkipPending(ctx, tx, request.ID, now); err != nil {
			return err
		}
		if err := e.approvals.CreateBatch(ctx, tx, batch); err != nil {
			return err
		}
		if err := e.audit.RequestSubmitted(ctx, tx, request); err != nil {
			return err
		}
		for _, approval := range batch {
			if err := e.audit.ApprovalRequested(ctx, tx, request.ID, approval.ApproverID, approval.ApproverName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.StatusPending
	request.SubmittedAt = &now
	request.UpdatedAt = now

	e.logger.Info("Submitted request",
		zap.Int64("id", request.ID),
		zap.String("reference", request.Reference),
		zap.Int("approvers", len(approvers)))

	// Delivery is out-of-band: the submission is already committed
	e.notifyApprovers(ctx, request, approvers, false)

	return request, nil
}

// Decide records one approver's decision on an approval. A rejection by any
// approver immediately terminates the whole request; an approval triggers the
// completion check against the persisted pending set. The mutation and the
// completion check share one transaction, and the status update itself is a
// compare-and-set, so of two concurrent decisions on the same approval exactly
// one wins and the loser observes ErrAlreadyDecided.
func (e *Engine) Decide(ctx context.Context, approvalID int64, approverID string, approved bool, comments string) (*models.Approval, error) {
	approval, err := e.approvals.GetByID(ctx, nil, approvalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, fmt.Errorf("%w: approval %d", ErrNotFound, approvalID)
	}
	if approval.ApproverID != approverID {
		return nil, fmt.Errorf("%w: approval %d belongs to %s", ErrApproverMismatch, approvalID, approval.ApproverID)
	}
	if approval.IsDecided() {
		return nil, fmt.Errorf("%w: approval %d is %s", ErrAlreadyDecided, approvalID, approval.Status)
	}

	decisionStatus := models.ApprovalApproved
	if !approved {
		decisionStatus = models.ApprovalRejected
	}
	now := time.Now().UTC()

	var request *models.Request
	finalStatus := ""

	err = e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		won, err := e.approvals.Decide(ctx, tx, approvalID, decisionStatus, comments, now)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent decision landed first
			return fmt.Errorf("%w: approval %d", ErrAlreadyDecided, approvalID)
		}

		if err := e.audit.ApprovalDecision(ctx, tx, approval.RequestID, approverID, approval.ApproverName, approved, comments); err != nil {
			return err
		}

		request, err = e.requests.GetByID(ctx, tx, approval.RequestID)
		if err != nil {
			return err
		}
		if request == nil {
			return fmt.Errorf("approval %d references missing request %d", approvalID, approval.RequestID)
		}

		if !approved {
			// Veto: any single rejection terminates the request regardless of
			// other pending approvals
			if request.IsPending() {
				if err := e.requests.MarkCompleted(ctx, tx, request.ID, models.StatusRejected, now); err != nil {
					return err
				}
				finalStatus = models.StatusRejected
			}
			return nil
		}

		status, err := e.checkCompletion(ctx, tx, request, now)
		if err != nil {
			return err
		}
		finalStatus = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	approval.Status = decisionStatus
	approval.Comments = comments
	approval.DecidedAt = &now
	approval.UpdatedAt = now

	e.logger.Info("Recorded decision",
		zap.Int64("approval_id", approvalID),
		zap.Int64("request_id", approval.RequestID),
		zap.String("approver_id", approverID),
		zap.Bool("approved", approved),
		zap.String("request_status", finalStatus))

	if finalStatus != "" {
		e.notifyRequester(ctx, request, finalStatus, comments)
	}

	return approval, nil
}

// checkCompletion recomputes the pending set from the current transaction and
// completes the request when every approval is decided. It runs after the
// decision's compare-and-set, so of two concurrent final approvals only the
// one whose transaction commits first still sees a pending request; the other
// observes the completed status and leaves it untouched.
func (e *Engine) checkCompletion(ctx context.Context, tx *sql.Tx, request *models.Request, now time.Time) (string, error) {
	if !request.IsPending() {
		return "", nil
	}

	pending, err := e.approvals.CountByStatus(ctx, tx, request.ID, models.ApprovalPending)
	if err != nil {
		return "", err
	}
	if pending > 0 {
		return "", nil
	}

	// All live approvals decided. A rejection terminates the request inside
	// the transaction that records it, so reaching zero pending on the
	// approve path means every live approval was approved. Decisions from
	// rounds before a resubmission do not count against the current round.
	status := models.StatusApproved

	if err := e.requests.MarkCompleted(ctx, tx, request.ID, status, now); err != nil {
		return "", err
	}
	if err := e.audit.RequestCompleted(ctx, tx, request.ID, status); err != nil {
		return "", err
	}
	return status, nil
}

// CancelRequest manually cancels a draft or pending request
func (e *Engine) CancelRequest(ctx context.Context, requestID int64, actorID string) (*models.Request, error) {
	request, err := e.requests.GetByID(ctx, nil, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}

	machine := lifecycle.NewRequestMachine(lifecycle.State(request.Status))
	if err := machine.Fire(lifecycle.TriggerCancel); err != nil {
		return nil, fmt.Errorf("cannot cancel request %d: %w", requestID, err)
	}

	err = e.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := e.requests.UpdateStatus(ctx, tx, request.ID, models.StatusCancelled); err != nil {
			return err
		}
		return e.audit.RequestCancelled(ctx, tx, request.ID, actorID)
	})
	if err != nil {
		return nil, err
	}

	request.Status = models.StatusCancelled
	e.logger.Info("Cancelled request",
		zap.Int64("id", request.ID),
		zap.String("actor_id", actorID))

	return request, nil
}

// GetRequest retrieves a request by ID
func (e *Engine) GetRequest(ctx context.Context, requestID int64) (*models.Request, error) {
	request, err := e.requests.GetByID(ctx, nil, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, fmt.Errorf("%w: request %d", ErrNotFound, requestID)
	}
	return request, nil
}

// GetUserRequests retrieves a user's requests, optionally filtered by status
func (e *Engine) GetUserRequests(ctx context.Context, userID, status string) ([]*models.Request, error) {
	return e.requests.ListByRequester(ctx, userID, status)
}

// GetRequestApprovals retrieves all approvals of a request in level order
func (e *Engine) GetRequestApprovals(ctx context.Context, requestID int64) ([]*models.Approval, error) {
	return e.approvals.ListByRequestID(ctx, requestID)
}

// GetPendingApprovals retrieves the undecided approvals assigned to an approver
func (e *Engine) GetPendingApprovals(ctx context.Context, approverID string) ([]*models.Approval, error) {
	return e.approvals.ListPendingByApprover(ctx, approverID)
}

// PendingApprovalFor returns the approver's undecided approval on a request,
// or nil when there is none
func (e *Engine) PendingApprovalFor(ctx context.Context, requestID int64, approverID string) (*models.Approval, error) {
	return e.approvals.PendingForRequestAndApprover(ctx, requestID, approverID)
}

// GetAuditTrail retrieves a request's audit trail, oldest first
func (e *Engine) GetAuditTrail(ctx context.Context, requestID int64) ([]*models.AuditEntry, error) {
	return e.auditRepo.ListByRequestID(ctx, requestID)
}

// ProcessReminders finds pending approvals whose reminder is due, re-notifies
// their approvers and advances the reminder counters. It returns the number of
// reminders sent. Approvals that already received maxReminders reminders are
// left alone.
func (e *Engine) ProcessReminders(ctx context.Context, maxReminders int, interval time.Duration, limit int) (int, error) {
	now := time.Now().UTC()
	due, err := e.approvals.ListDueReminders(ctx, maxReminders, interval, now, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, approval := range due {
		if !approval.NeedsReminder(maxReminders, interval, now) {
			continue
		}

		request, err := e.requests.GetByID(ctx, nil, approval.RequestID)
		if err != nil {
			return sent, err
		}
		if request == nil || !request.IsPending() {
			continue
		}

		approver := routing.Approver{
			ID:    approval.ApproverID,
			Name:  approval.ApproverName,
			Email: approval.ApproverEmail,
		}
		if err := e.notifier.NotifyApprover(ctx, approver, e.buildSummary(request, true)); err != nil {
			e.logger.Warn("Failed to send approval reminder",
				zap.Int64("approval_id", approval.ID),
				zap.String("approver_id", approval.ApproverID),
				zap.Error(err))
			e.audit.NotificationFailed(ctx, request.ID, approval.ApproverID, err)
			continue
		}

		if err := e.approvals.MarkReminded(ctx, nil, approval.ID, time.Now().UTC()); err != nil {
			return sent, err
		}
		if err := e.audit.ReminderSent(ctx, request.ID, approval.ApproverID, approval.ApproverName, approval.ReminderCount+1); err != nil {
			e.logger.Error("Failed to record reminder audit entry",
				zap.Int64("approval_id", approval.ID),
				zap.Error(err))
		}
		sent++
	}

	return sent, nil
}

// notifyApprovers sends best-effort decision requests after a committed
// submission. Failures are recorded in the audit trail, never returned.
func (e *Engine) notifyApprovers(ctx context.Context, request *models.Request, approvers []routing.Approver, reminder bool) {
	summary := e.buildSummary(request, reminder)

	for _, approver := range approvers {
		if err := e.notifier.NotifyApprover(ctx, approver, summary); err != nil {
			e.logger.Warn("Failed to notify approver",
				zap.Int64("request_id", request.ID),
				zap.String("approver_id", approver.ID),
				zap.Error(err))
			e.audit.NotificationFailed(ctx, request.ID, approver.ID, err)
		}
	}
}

// notifyRequester sends a best-effort outcome notification after completion
func (e *Engine) notifyRequester(ctx context.Context, request *models.Request, status, comments string) {
	outcome := notification.Outcome{
		RequestID:    request.ID,
		Reference:    request.Reference,
		WorkflowType: request.WorkflowType,
		Title:        request.Title,
		Status:       status,
		Comments:     comments,
	}

	recipient := notification.Recipient{
		ID:    request.RequesterID,
		Name:  request.RequesterName,
		Email: request.RequesterEmail,
	}

	if err := e.notifier.NotifyRequester(ctx, recipient, outcome); err != nil {
		e.logger.Warn("Failed to notify requester",
			zap.Int64("request_id", request.ID),
			zap.String("requester_id", request.RequesterID),
			zap.Error(err))
		e.audit.NotificationFailed(ctx, request.ID, request.RequesterID, err)
	}
}

func (e *Engine) buildSummary(request *models.Request, reminder bool) notification.RequestSummary {
	text := request.Title
	if definition, err := e.registry.Get(request.WorkflowType); err == nil {
		text = definition.Summary(request.Data)
	}

	return notification.RequestSummary{
		RequestID:    request.ID,
		Reference:    request.Reference,
		WorkflowType: request.WorkflowType,
		Title:        request.Title,
		Requester:    request.RequesterName,
		Priority:     request.Priority,
		Summary:      text,
		Reminder:     reminder,
	}
}

// newReference builds a short human-facing request reference
func newReference() string {
	return "REQ-" + strings.ToUpper(uuid.NewString()[:8])
}
