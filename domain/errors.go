package domain

import "errors"

// Error kinds shared across services. Wrap them with context, for example
// fmt.Errorf("order %w", ErrNotFound), and match with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
)
