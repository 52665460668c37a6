package services

import "errors"

// Common service errors
var (
	ErrNotFound         = errors.New("record not found")
	ErrSessionNotFound  = errors.New("workflow session not found or expired")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrOperatorInactive = errors.New("operator is inactive")
	ErrDuplicate        = errors.New("duplicate record")
)
