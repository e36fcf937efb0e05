package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error kinds; every error a service returns wraps exactly one of these
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrUnexpected       = errors.New("unexpected error")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrNotAuthenticated)
	ErrUserInactive       = fmt.Errorf("%w: user account is inactive", ErrNotAuthenticated)
	ErrSessionTimeout     = fmt.Errorf("%w: session expired due to inactivity", ErrNotAuthenticated)
	ErrSessionReplaced    = fmt.Errorf("%w: session expired (logged in on another device)", ErrNotAuthenticated)
	ErrWrongPassword      = fmt.Errorf("%w: current password is incorrect", ErrValidation)
	ErrUserNotFound       = fmt.Errorf("%w: user not found", ErrNotFound)
	ErrEmailExists        = fmt.Errorf("%w: email already exists", ErrConflict)
	ErrStorageDisabled    = fmt.Errorf("%w: image storage is not configured", ErrUnexpected)
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// storageErr maps a repository error onto the taxonomy. Errors that already
// carry a kind pass through untouched.
func storageErr(err error, what string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFoundf("%s", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	case isKind(err):
		return err
	}
	return fmt.Errorf("%w: %s: %v", ErrUnexpected, what, err)
}

func isKind(err error) bool {
	for _, kind := range []error{ErrNotAuthenticated, ErrForbidden, ErrNotFound, ErrValidation, ErrConflict, ErrUnexpected} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}
