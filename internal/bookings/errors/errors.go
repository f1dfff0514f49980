package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	ErrRoomNotFound = errors.New("room not found in hotel")

	ErrRoomUnavailable = errors.New("room is not available for the selected dates")

	ErrTooManyGuests = errors.New("guest count exceeds room capacity")

	ErrNotCancellable = errors.New("booking cannot be cancelled")

	ErrInvalidTransition = errors.New("booking status transition not allowed")
)
