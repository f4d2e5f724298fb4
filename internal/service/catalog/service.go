package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/domain"
)

type Config struct {
	// DefaultTimezone is the studio's home zone, used for naive input
	// timestamps and for the "upcoming classes" window.
	DefaultTimezone string
}

// Service owns the class list. AvailableSlots is a denormalized counter:
// the ledger keeps it equal to TotalSlots minus active bookings through
// AdjustSlots, and WithClassLock provides the per-class critical section
// that makes check-then-commit sequences safe under concurrent requests.
type Service struct {
	mu      sync.RWMutex
	classes []domain.Class

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	clk        clock.Clock
	defaultLoc *time.Location
	flush      func()
	cfg        Config
}

func New(initial []domain.Class, clk clock.Clock, cfg Config) (*Service, error) {
	const op = "service.catalog.New"

	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "Asia/Kolkata"
	}

	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("%s:%w: %s", op, ErrUnknownTimezone, cfg.DefaultTimezone)
	}

	if clk == nil {
		clk = clock.System{}
	}

	return &Service{
		classes:    append([]domain.Class(nil), initial...),
		locks:      make(map[string]*sync.Mutex),
		clk:        clk,
		defaultLoc: loc,
		flush:      func() {},
		cfg:        cfg,
	}, nil
}

// SetFlush installs the best-effort persistence hook invoked after every
// mutation.
func (s *Service) SetFlush(fn func()) {
	if fn != nil {
		s.flush = fn
	}
}

// DefaultTimezone returns the studio's home zone name, the fallback for
// requests that omit an explicit zone.
func (s *Service) DefaultTimezone() string {
	return s.cfg.DefaultTimezone
}

// WithClassLock runs fn while holding the critical section for the given
// class id. The ledger wraps its capacity-check-and-decrement sequence in
// it so two concurrent bookings cannot both take the last slot.
func (s *Service) WithClassLock(id string, fn func()) {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	defer l.Unlock()

	fn()
}

// List returns all classes ordered by ascending date/time.
func (s *Service) List() []domain.Class {
	s.mu.RLock()
	out := append([]domain.Class(nil), s.classes...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DateTime.Before(out[j].DateTime)
	})

	return out
}

// Classes returns the classes in insertion order, for snapshots.
func (s *Service) Classes() []domain.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.Class(nil), s.classes...)
}

// Get returns the class with the given id.
//
// Returns catalog.ErrClassNotFound when no such class exists.
func (s *Service) Get(id string) (domain.Class, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.classes {
		if c.ID == id {
			return c, nil
		}
	}

	return domain.Class{}, ErrClassNotFound
}

type CreateInput struct {
	Name            string
	Instructor      string
	DateTime        time.Time
	TotalSlots      int
	DurationMinutes int
	Timezone        string
}

// Create validates the input and adds a new class with a fresh id and a
// full set of available slots.
//
// Returns:
//   - catalog.ErrInvalidClass for a non-positive capacity or a date/time
//     already in the past (compared zone-aware, in the class's own zone).
//   - catalog.ErrUnknownTimezone when the IANA zone does not resolve.
func (s *Service) Create(in CreateInput) (domain.Class, error) {
	const op = "service.catalog.Create"

	if in.TotalSlots <= 0 {
		return domain.Class{}, fmt.Errorf("%s:%w: total slots must be greater than 0", op, ErrInvalidClass)
	}

	if in.Timezone == "" {
		in.Timezone = s.cfg.DefaultTimezone
	}

	loc, err := time.LoadLocation(in.Timezone)
	if err != nil {
		return domain.Class{}, fmt.Errorf("%s:%w: %s", op, ErrUnknownTimezone, in.Timezone)
	}

	now := s.clk.Now().In(loc)
	if in.DateTime.In(loc).Before(now) {
		return domain.Class{}, fmt.Errorf("%s:%w: class date/time cannot be in the past", op, ErrInvalidClass)
	}

	if in.DurationMinutes <= 0 {
		in.DurationMinutes = domain.DefaultDurationMinutes
	}

	c := domain.Class{
		ID:              uuid.New().String(),
		Name:            in.Name,
		Instructor:      in.Instructor,
		DateTime:        in.DateTime,
		TotalSlots:      in.TotalSlots,
		AvailableSlots:  in.TotalSlots,
		DurationMinutes: in.DurationMinutes,
		Timezone:        in.Timezone,
	}

	s.mu.Lock()
	s.classes = append(s.classes, c)
	s.mu.Unlock()

	s.flush()

	return c, nil
}

type UpdatePatch struct {
	Name           *string
	Instructor     *string
	AvailableSlots *int
}

// Update merges the supplied fields into an existing class. An
// AvailableSlots edit is clamped into [0, TotalSlots] rather than
// rejected, absorbing administrative bookkeeping drift.
func (s *Service) Update(id string, patch UpdatePatch) (domain.Class, error) {
	const op = "service.catalog.Update"

	s.mu.Lock()

	idx := -1
	for i := range s.classes {
		if s.classes[i].ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		s.mu.Unlock()
		return domain.Class{}, fmt.Errorf("%s:%w", op, ErrClassNotFound)
	}

	c := &s.classes[idx]

	if patch.Name != nil {
		c.Name = *patch.Name
	}

	if patch.Instructor != nil {
		c.Instructor = *patch.Instructor
	}

	if patch.AvailableSlots != nil {
		c.AvailableSlots = clamp(*patch.AvailableSlots, 0, c.TotalSlots)
	}

	out := *c
	s.mu.Unlock()

	s.flush()

	return out, nil
}

// AdjustSlots applies delta to a class's available slots and clamps the
// result into [0, TotalSlots]. Unknown ids are a no-op, which is what
// cancellation of a booking whose class was deleted relies on.
func (s *Service) AdjustSlots(id string, delta int) {
	s.mu.Lock()

	changed := false
	for i := range s.classes {
		if s.classes[i].ID == id {
			c := &s.classes[i]
			c.AvailableSlots = clamp(c.AvailableSlots+delta, 0, c.TotalSlots)
			changed = true
			break
		}
	}

	s.mu.Unlock()

	if changed {
		s.flush()
	}
}

// Rezone reinterprets every class's instant in the new zone, rewriting
// both DateTime and Timezone. The zone is resolved before any mutation,
// so a bad name aborts with catalog.ErrUnknownTimezone and leaves the
// catalog untouched.
func (s *Service) Rezone(newZone string) error {
	const op = "service.catalog.Rezone"

	loc, err := time.LoadLocation(newZone)
	if err != nil {
		return fmt.Errorf("%s:%w: %s", op, ErrUnknownTimezone, newZone)
	}

	s.mu.Lock()
	for i := range s.classes {
		s.classes[i].DateTime = s.classes[i].DateTime.In(loc)
		s.classes[i].Timezone = newZone
	}
	s.mu.Unlock()

	s.flush()

	return nil
}

// Delete removes the class. Bookings referencing it are left in place;
// cancelling them later restores nothing.
func (s *Service) Delete(id string) error {
	const op = "service.catalog.Delete"

	s.mu.Lock()

	idx := -1
	for i := range s.classes {
		if s.classes[i].ID == id {
			idx = i
			break
		}
	}

	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s:%w", op, ErrClassNotFound)
	}

	s.classes = append(s.classes[:idx], s.classes[idx+1:]...)
	s.mu.Unlock()

	s.flush()

	return nil
}

// ByInstructor returns the classes taught by the given instructor,
// matched case-insensitively.
func (s *Service) ByInstructor(instructor string) []domain.Class {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Class
	for _, c := range s.classes {
		if strings.EqualFold(c.Instructor, instructor) {
			out = append(out, c)
		}
	}

	return out
}

// Upcoming returns the classes scheduled within the next N days, judged
// against the studio's home zone.
func (s *Service) Upcoming(days int) []domain.Class {
	now := s.clk.Now().In(s.defaultLoc)
	end := now.AddDate(0, 0, days)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Class
	for _, c := range s.classes {
		if !c.DateTime.Before(now) && !c.DateTime.After(end) {
			out = append(out, c)
		}
	}

	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
