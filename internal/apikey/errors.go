package apikey

import (
	"errors"
)

// Custom error types for the apikey package
var (
	// ErrInvalidInput indicates the provided input is invalid
	ErrInvalidInput = errors.New("Invalid input provided")

	// ErrDatabaseError indicates a storage failure
	ErrDatabaseError = errors.New("Database operation failed")
)
