package errors

import "errors"

var (
	ErrNotFound = errors.New("hotel not found")

	ErrInvalidID = errors.New("invalid hotel ID format")

	ErrInvalidDates = errors.New("check-out must be after check-in")
)
