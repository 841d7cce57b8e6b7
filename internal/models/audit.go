package models

import "time"

// AuditEntry represents one append-only record in a request's audit trail.
// Entries are never mutated or deleted after creation; their timestamp order
// (ties broken by insertion order) defines the trail.
type AuditEntry struct {
	ID          int64                  `json:"id"`
	RequestID   *int64                 `json:"request_id,omitempty"`
	Action      string                 `json:"action"`
	ActorID     string                 `json:"actor_id"`
	ActorName   string                 `json:"actor_name"`
	ActorType   string                 `json:"actor_type"`
	Description string                 `json:"description"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Audit action taxonomy
const (
	// Request actions
	ActionRequestCreated   = "request_created"
	ActionRequestSubmitted = "request_submitted"
	ActionRequestUpdated   = "request_updated"
	ActionRequestCancelled = "request_cancelled"
	ActionRequestCompleted = "request_completed"

	// Approval actions
	ActionApprovalRequested    = "approval_requested"
	ActionApprovalApproved     = "approval_approved"
	ActionApprovalRejected     = "approval_rejected"
	ActionApprovalReminderSent = "approval_reminder_sent"

	// Workflow actions
	ActionWorkflowStarted       = "workflow_started"
	ActionWorkflowStepCompleted = "workflow_step_completed"
	ActionWorkflowCompleted     = "workflow_completed"
	ActionWorkflowFailed        = "workflow_failed"

	// Notification actions
	ActionNotificationSent   = "notification_sent"
	ActionNotificationFailed = "notification_failed"

	// System actions
	ActionSystemAction  = "system_action"
	ActionErrorOccurred = "error_occurred"
)

// Actor type constants
const (
	ActorUser   = "user"
	ActorSystem = "system"
	ActorBot    = "bot"
)

// System actor identity used for engine-originated audit entries
const (
	SystemActorID   = "system"
	SystemActorName = "WorkflowBot"
)
