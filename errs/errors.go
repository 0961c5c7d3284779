// Package errs defines the error kinds the lending core surfaces to callers.
// Kinds are sentinel errors so callers classify with errors.Is across wrap
// boundaries instead of matching on concrete types or messages.
package errs

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound means a referenced entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAuthorization means the actor lacks permission for the requested action.
	ErrAuthorization = errors.New("not authorized")
	// ErrInvalidState means the requested transition is illegal from the
	// entity's current state.
	ErrInvalidState = errors.New("invalid state")
	// ErrDuplicate means a uniqueness invariant would be violated.
	ErrDuplicate = errors.New("already exists")
	// ErrInfrastructure means the store or the AI backend is unreachable.
	ErrInfrastructure = errors.New("infrastructure failure")
)

func NotFound(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNotFound, format, args...)
}

func Authorization(format string, args ...interface{}) error {
	return errors.Wrapf(ErrAuthorization, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidState, format, args...)
}

func Duplicate(format string, args ...interface{}) error {
	return errors.Wrapf(ErrDuplicate, format, args...)
}

func Infrastructure(err error, format string, args ...interface{}) error {
	if err == nil {
		return errors.Wrapf(ErrInfrastructure, format, args...)
	}
	return errors.Wrapf(ErrInfrastructure, format+": %v", append(args, err)...)
}
