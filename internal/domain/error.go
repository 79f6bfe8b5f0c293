package domain

import "errors"

var (
	// Ledger errors returned to callers
	ErrNotFound      = errors.New("entity not found")
	ErrValidation    = errors.New("validation failed")
	ErrInvalidState  = errors.New("invalid payment state")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrConflict      = errors.New("concurrent modification")
	ErrAlreadyExists = errors.New("entity already exists")

	// Storage errors
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid exec context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)
