package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnauthenticated     = errors.New("authentication required")
	ErrFileReferenceAbsent = errors.New("user has no file in this slot")
)

// PartialWriteError reports an operation that had written files before a
// later step failed. The listed files were removed again before returning.
type PartialWriteError struct {
	RolledBack []string
	Err        error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial write rolled back (%s): %v", strings.Join(e.RolledBack, ", "), e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }
