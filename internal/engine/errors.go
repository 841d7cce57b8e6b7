package engine

import "errors"

var (
	// ErrNotFound is returned when a request or approval id is unknown
	ErrNotFound = errors.New("not found")

	// ErrApproverMismatch is returned when a decision is submitted by an
	// identity other than the approval's assigned approver
	ErrApproverMismatch = errors.New("approver mismatch")

	// ErrAlreadyDecided is returned on a duplicate decision attempt. This is
	// the idempotency boundary: exactly one decision is ever accepted per
	// approval.
	ErrAlreadyDecided = errors.New("approval already decided")
)
