package model

import "errors"

// Common errors used across the application
var (
	// Binding errors
	ErrAlreadyBound    = errors.New("token is already bound")
	ErrNotOwner        = errors.New("player does not own this token")
	ErrNotBound        = errors.New("token is not bound")
	ErrBindingNotFound = errors.New("binding not found")

	// Counter errors
	ErrReservedUses = errors.New("uses value is reserved")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")

	// Migration errors
	ErrMigrationFailure = errors.New("migration failed")
	ErrInvalidRecord    = errors.New("invalid legacy record")
)
