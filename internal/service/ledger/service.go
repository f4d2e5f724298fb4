package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/domain"
	"github.com/fitslotdev/fitslot/internal/service/catalog"
)

type Config struct {
	// StrictClientName rejects empty or whitespace-only names. When
	// false, names are only trimmed.
	StrictClientName bool
}

// Service owns the booking ledger and enforces the slot-consumption
// invariants against the catalog: for every class,
// available slots + active bookings == total slots after every
// successful operation.
type Service struct {
	mu       sync.RWMutex
	bookings []domain.Booking

	catalog  *catalog.Service
	clk      clock.Clock
	validate *validator.Validate
	flush    func()
	cfg      Config
}

func New(initial []domain.Booking, cat *catalog.Service, clk clock.Clock, cfg Config) *Service {
	if clk == nil {
		clk = clock.System{}
	}

	return &Service{
		bookings: append([]domain.Booking(nil), initial...),
		catalog:  cat,
		clk:      clk,
		validate: validator.New(),
		flush:    func() {},
		cfg:      cfg,
	}
}

// SetFlush installs the best-effort persistence hook invoked after every
// mutation.
func (s *Service) SetFlush(fn func()) {
	if fn != nil {
		s.flush = fn
	}
}

// Book turns a booking request into a committed booking.
//
// The checks and the commit run inside the class's critical section, so
// two concurrent requests cannot both pass the capacity check for the
// last remaining slot.
//
// Returns:
//   - ledger.ErrInvalidBooking for a malformed email or, under strict
//     name checking, an empty client name.
//   - ledger.ErrClassNotFound when the class does not exist.
//   - ledger.ErrClassInPast when the class instant is strictly before
//     now, compared zone-aware in the class's own zone.
//   - ledger.ErrDuplicateBooking when the client, matched by
//     case-folded email, already holds a booking for this class.
//   - ledger.ErrNoCapacity when no slots remain.
func (s *Service) Book(ctx context.Context, classID, clientName, clientEmail string) (domain.Booking, error) {
	const op = "service.ledger.Book"

	clientName = strings.TrimSpace(clientName)
	if s.cfg.StrictClientName && clientName == "" {
		return domain.Booking{}, fmt.Errorf("%s:%w: client name cannot be empty", op, ErrInvalidBooking)
	}

	if err := s.validate.Var(clientEmail, "required,email"); err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w: invalid client email", op, ErrInvalidBooking)
	}

	if _, err := s.catalog.Get(classID); err != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, ErrClassNotFound)
	}

	var (
		booking domain.Booking
		bookErr error
	)

	s.catalog.WithClassLock(classID, func() {
		// Re-read under the lock: the class may have changed or gone
		// away since the unlocked existence check.
		c, err := s.catalog.Get(classID)
		if err != nil {
			bookErr = ErrClassNotFound
			return
		}

		now := s.clk.Now()
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			now = now.In(loc)
		}

		if c.DateTime.Before(now) {
			bookErr = ErrClassInPast
			return
		}

		// The duplicate check outranks capacity: a client re-booking a
		// full class is told about their existing booking, not the
		// missing slot.
		if _, ok := s.FindDuplicate(clientEmail, classID); ok {
			bookErr = ErrDuplicateBooking
			return
		}

		if c.AvailableSlots <= 0 {
			bookErr = ErrNoCapacity
			return
		}

		booking = domain.Booking{
			ID:          uuid.New().String(),
			ClassID:     classID,
			ClientName:  clientName,
			ClientEmail: clientEmail,
			BookingDate: now,
		}

		s.mu.Lock()
		s.bookings = append(s.bookings, booking)
		s.mu.Unlock()

		s.catalog.AdjustSlots(classID, -1)
	})

	if bookErr != nil {
		return domain.Booking{}, fmt.Errorf("%s:%w", op, bookErr)
	}

	s.flush()

	return booking, nil
}

// Cancel removes a booking and restores one slot to its class. A class
// that no longer exists gets nothing back; that is not an error.
//
// Returns ledger.ErrBookingNotFound when no booking has the given id.
func (s *Service) Cancel(ctx context.Context, bookingID string) error {
	const op = "service.ledger.Cancel"

	s.mu.Lock()

	idx := -1
	for i := range s.bookings {
		if s.bookings[i].ID == bookingID {
			idx = i
			break
		}
	}

	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s:%w", op, ErrBookingNotFound)
	}

	classID := s.bookings[idx].ClassID
	s.bookings = append(s.bookings[:idx], s.bookings[idx+1:]...)
	s.mu.Unlock()

	s.catalog.WithClassLock(classID, func() {
		s.catalog.AdjustSlots(classID, 1)
	})

	s.flush()

	return nil
}

// ListByClient returns the client's active bookings in insertion order,
// matched by case-folded email and enriched with class details where the
// class still exists.
func (s *Service) ListByClient(email string) []domain.BookingDetail {
	s.mu.RLock()
	var matched []domain.Booking
	for _, b := range s.bookings {
		if strings.EqualFold(b.ClientEmail, email) {
			matched = append(matched, b)
		}
	}
	s.mu.RUnlock()

	out := make([]domain.BookingDetail, 0, len(matched))
	for _, b := range matched {
		d := domain.BookingDetail{
			Booking:    b,
			ClassName:  "Unknown Class",
			Instructor: "Unknown Instructor",
		}

		if c, err := s.catalog.Get(b.ClassID); err == nil {
			d.ClassName = c.Name
			d.Instructor = c.Instructor
			dt := c.DateTime
			d.ClassDateTime = &dt
		}

		out = append(out, d)
	}

	return out
}

// FindDuplicate reports whether the client already holds a booking for
// the class. Exposed for caller-side idempotency checks; Book uses it
// internally.
func (s *Service) FindDuplicate(email, classID string) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.ClassID == classID && strings.EqualFold(b.ClientEmail, email) {
			return b, true
		}
	}

	return domain.Booking{}, false
}

// Bookings returns the ledger in insertion order, for snapshots.
func (s *Service) Bookings() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Booking(nil), s.bookings...)
}
