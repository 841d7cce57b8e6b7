package models

import "time"

// Approval represents one approver's slot and decision record against a request
type Approval struct {
	ID             int64      `json:"id"`
	RequestID      int64      `json:"request_id"`
	ApproverID     string     `json:"approver_id"`
	ApproverName   string     `json:"approver_name"`
	ApproverEmail  string     `json:"approver_email,omitempty"`
	Status         string     `json:"status"`
	Step           string     `json:"step"`
	Level          int        `json:"level"`
	Required       bool       `json:"required"`
	Comments       string     `json:"comments,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	ReminderCount  int        `json:"reminder_count"`
	LastReminderAt *time.Time `json:"last_reminder_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Approval status constants
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
	ApprovalSkipped  = "skipped"
)

// IsPending returns true if no decision has been recorded yet
func (a *Approval) IsPending() bool {
	return a.Status == ApprovalPending
}

// IsDecided returns true once the approval has been approved, rejected or skipped
func (a *Approval) IsDecided() bool {
	return a.Status != ApprovalPending
}

// NeedsReminder reports whether a reminder is due for this approval.
// Undecided approvals are reminded at most maxReminders times, spaced by
// at least interval since the previous reminder (or since creation).
func (a *Approval) NeedsReminder(maxReminders int, interval time.Duration, now time.Time) bool {
	if !a.IsPending() {
		return false
	}
	if a.ReminderCount >= maxReminders {
		return false
	}
	last := a.CreatedAt
	if a.LastReminderAt != nil {
		last = *a.LastReminderAt
	}
	return now.Sub(last) >= interval
}
