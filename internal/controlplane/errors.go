package controlplane

import "errors"

// Sentinel errors for control plane operations.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidPhase    = errors.New("invalid phase")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrCardTitle       = errors.New("card title required")
)
