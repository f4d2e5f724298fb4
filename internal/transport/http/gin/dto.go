package httpgin

import (
	"time"
)

type CreateClassRequest struct {
	Name            string `json:"name" binding:"required"`
	Instructor      string `json:"instructor" binding:"required"`
	DateTime        string `json:"date_time" binding:"required"`
	TotalSlots      int    `json:"total_slots" binding:"required,gt=0"`
	DurationMinutes int    `json:"duration_minutes"`
	Timezone        string `json:"timezone"`
}

type UpdateClassRequest struct {
	Name           *string `json:"name"`
	Instructor     *string `json:"instructor"`
	AvailableSlots *int    `json:"available_slots"`
}

type RezoneRequest struct {
	Timezone string `json:"timezone" binding:"required"`
}

type CreateBookingRequest struct {
	ClassID     string `json:"class_id" binding:"required"`
	ClientName  string `json:"client_name"`
	ClientEmail string `json:"client_email" binding:"required,email"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

const naiveLayout = "2006-01-02T15:04:05"

// parseClassTime accepts an RFC 3339 timestamp, or a naive one which is
// interpreted in the class's own zone so the stored instant is never
// ambiguous.
func parseClassTime(s, tz string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, err
	}

	return time.ParseInLocation(naiveLayout, s, loc)
}
