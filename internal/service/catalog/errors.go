package catalog

import "errors"

var (
	ErrClassNotFound   = errors.New("class not found")
	ErrInvalidClass    = errors.New("invalid class")
	ErrUnknownTimezone = errors.New("unknown timezone")
)
