package usecase

import (
	"fmt"

	crerr "github.com/cockroachdb/errors"
)

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrUnauthorized          = crerr.New("unauthorized")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrConcurrencyConflict   = crerr.New("concurrent update conflict")
	ErrInsufficientPoints    = crerr.New("insufficient points")
)

// InsufficientPointsError carries the purchase shortfall for client display.
type InsufficientPointsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%s: required %d, available %d", ErrInsufficientPoints, e.Required, e.Available)
}

func (e *InsufficientPointsError) Unwrap() error {
	return ErrInsufficientPoints
}
