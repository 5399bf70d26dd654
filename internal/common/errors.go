// Package common defines shared constants and sentinel errors used across
// the GophNotes server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrAlreadyExists reports a unique constraint hit (e.g. taken username).
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrValidation is returned for user-correctable input problems such as
	// an empty title or content.
	ErrValidation = errors.New("validation error")

	// ErrNotFoundOrNotOwned is returned when a row is absent or belongs to
	// another user. The two cases are deliberately indistinguishable.
	ErrNotFoundOrNotOwned = errors.New("not found or not owned")

	// ErrTransactionFailure is returned when a trash/restore move failed
	// after the transaction began. The move has been rolled back.
	ErrTransactionFailure = errors.New("transaction failure")

	// ErrExportDisabled is returned when object storage is not configured.
	ErrExportDisabled = errors.New("export disabled")

	// Auth errors.
	ErrUnauthenticated = errors.New("no token provided")
	ErrInvalidToken    = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
