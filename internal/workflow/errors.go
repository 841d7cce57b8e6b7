package workflow

import (
	"errors"
	"fmt"
)

// ErrUnknownWorkflowType is returned when no definition or routing rule is
// registered for a workflow type key
var ErrUnknownWorkflowType = errors.New("unknown workflow type")

// ValidationError describes a rejected submission. It is recoverable by the
// caller correcting the input and is never persisted.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalidField(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func missingField(field string) error {
	return &ValidationError{Field: field, Message: "missing required field"}
}
