// Package notification delivers chat messages to approvers and requesters.
// Delivery is best-effort from the engine's perspective: a failed send is
// recorded in the audit trail but never rolls back a committed transition.
package notification

import (
	"context"

	"github.com/itsjessedev/workflowbot/internal/routing"
)

// RequestSummary is the payload sent to an approver when their decision is
// requested (or re-requested by a reminder)
type RequestSummary struct {
	RequestID    int64
	Reference    string
	WorkflowType string
	Title        string
	Requester    string
	Priority     string
	Summary      string
	Reminder     bool
}

// Outcome is the payload sent to a requester when their request completes
type Outcome struct {
	RequestID    int64
	Reference    string
	WorkflowType string
	Title        string
	Status       string
	Comments     string
}

// Recipient addresses an outcome notification. Chat-backed notifiers deliver
// by email, not by the internal user id.
type Recipient struct {
	ID    string
	Name  string
	Email string
}

// Notifier sends workflow notifications
type Notifier interface {
	// NotifyApprover tells an approver a request awaits their decision
	NotifyApprover(ctx context.Context, approver routing.Approver, summary RequestSummary) error

	// NotifyRequester tells a requester their request reached an outcome
	NotifyRequester(ctx context.Context, requester Recipient, outcome Outcome) error
}
