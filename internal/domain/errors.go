package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrNotFound             = errors.New("not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrInsufficientVouchers = errors.New("insufficient vouchers")
	ErrCooldownActive       = errors.New("cooldown active")
	ErrPendingRequestExists = errors.New("pending redemption request exists")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrConflict             = errors.New("conflict")
	ErrUnavailable          = errors.New("service unavailable")
)

// AlreadyOwnedError reports the specific cell that blocked an acquisition.
// A bulk claim aborts entirely on the first conflicting cell, so the caller
// always learns exactly which plot to retry around.
type AlreadyOwnedError struct {
	GX, GY int
}

func (e *AlreadyOwnedError) Error() string {
	return fmt.Sprintf("land (%d,%d) already owned", e.GX, e.GY)
}

// ErrAlreadyOwned matches any AlreadyOwnedError via errors.Is.
var ErrAlreadyOwned = errors.New("land already owned")

func (e *AlreadyOwnedError) Is(target error) bool {
	return target == ErrAlreadyOwned
}
