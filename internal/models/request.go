package models

import "time"

// Request represents one workflow request moving through the approval lifecycle
type Request struct {
	ID             int64                  `json:"id"`
	Reference      string                 `json:"reference"`
	WorkflowType   string                 `json:"workflow_type"`
	RequesterID    string                 `json:"requester_id"`
	RequesterName  string                 `json:"requester_name"`
	RequesterEmail string                 `json:"requester_email"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description,omitempty"`
	Priority       string                 `json:"priority"`
	Data           map[string]interface{} `json:"data"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	SubmittedAt    *time.Time             `json:"submitted_at,omitempty"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
}

// Request status constants
const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// IsPending returns true if the request is awaiting approval decisions
func (r *Request) IsPending() bool {
	return r.Status == StatusPending
}

// IsTerminal returns true if no further lifecycle transitions are expected
func (r *Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected || r.Status == StatusCancelled
}
