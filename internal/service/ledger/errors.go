package ledger

import "errors"

var (
	ErrClassNotFound    = errors.New("class not found")
	ErrClassInPast      = errors.New("cannot book classes in the past")
	ErrNoCapacity       = errors.New("no slots available")
	ErrDuplicateBooking = errors.New("class already booked by this client")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidBooking   = errors.New("invalid booking")
)
