// Package common defines shared sentinel errors used across the server layers.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Object-store errors. ErrStorageUnavailable means the backing store could
	// not be reached; reads degrade to empty results, writes fail hard.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Partial-write conditions. The caller must not assume partial state was
	// rolled back.
	ErrUploadFailed = errors.New("upload failed")
	ErrMoveFailed   = errors.New("move failed")

	// Validation / request errors.
	ErrValidation = errors.New("validation failed")

	// Auth errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidToken  = errors.New("invalid token")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic flow control).
	ErrInternal = errors.New("internal error")
)
