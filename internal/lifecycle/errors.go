package lifecycle

import "errors"

// ErrInvalidTransition is returned when a lifecycle transition is not allowed
var ErrInvalidTransition = errors.New("invalid lifecycle transition")
