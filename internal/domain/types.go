package domain

import (
	"time"
)

// DefaultDurationMinutes is assumed for classes created without an
// explicit duration.
const DefaultDurationMinutes = 60

// Class is a scheduled fitness session. DateTime always carries an
// explicit zone offset; Timezone is the IANA name of the class's home
// zone, kept for re-display even though the offset is already embedded
// in DateTime.
type Class struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Instructor      string    `json:"instructor"`
	DateTime        time.Time `json:"date_time"`
	TotalSlots      int       `json:"total_slots"`
	AvailableSlots  int       `json:"available_slots"`
	DurationMinutes int       `json:"duration_minutes"`
	Timezone        string    `json:"timezone"`
}

// Booking is a client's reservation of one slot in one class. ClassID is
// a non-owning reference: deleting a class leaves its bookings in place.
type Booking struct {
	ID          string    `json:"id"`
	ClassID     string    `json:"class_id"`
	ClientName  string    `json:"client_name"`
	ClientEmail string    `json:"client_email"`
	BookingDate time.Time `json:"booking_date"`
}

// BookingDetail is a booking enriched with data from its class for
// display. The class fields are zero-valued placeholders when the class
// has since been deleted.
type BookingDetail struct {
	Booking
	ClassName     string     `json:"class_name"`
	Instructor    string     `json:"instructor"`
	ClassDateTime *time.Time `json:"class_date_time"`
}

// Snapshot is the full persisted state at a point in time.
type Snapshot struct {
	Classes  []Class   `json:"classes"`
	Bookings []Booking `json:"bookings"`
}
