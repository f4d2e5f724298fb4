package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/domain"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newTestCatalog(t *testing.T, initial []domain.Class) *Service {
	t.Helper()

	s, err := New(initial, clock.Fixed{T: fixedNow()}, Config{DefaultTimezone: "UTC"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func futureClass(id string, offset time.Duration, total int) domain.Class {
	return domain.Class{
		ID:             id,
		Name:           "Yoga Basics",
		Instructor:     "Sarah Johnson",
		DateTime:       fixedNow().Add(offset),
		TotalSlots:     total,
		AvailableSlots: total,
		Timezone:       "UTC",
	}
}

func TestCreateAssignsFullCapacity(t *testing.T) {
	s := newTestCatalog(t, nil)

	c, err := s.Create(CreateInput{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   fixedNow().Add(48 * time.Hour),
		TotalSlots: 10,
		Timezone:   "UTC",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if c.ID == "" {
		t.Fatal("expected a generated id")
	}
	if c.AvailableSlots != 10 {
		t.Fatalf("expected available_slots=10, got %d", c.AvailableSlots)
	}
	if c.DurationMinutes != domain.DefaultDurationMinutes {
		t.Fatalf("expected default duration, got %d", c.DurationMinutes)
	}
}

func TestCreateRejectsNonPositiveCapacity(t *testing.T) {
	s := newTestCatalog(t, nil)

	_, err := s.Create(CreateInput{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   fixedNow().Add(time.Hour),
		TotalSlots: 0,
		Timezone:   "UTC",
	})
	if !errors.Is(err, ErrInvalidClass) {
		t.Fatalf("expected ErrInvalidClass, got %v", err)
	}
}

func TestCreateRejectsPastDateTimeZoneAware(t *testing.T) {
	s := newTestCatalog(t, nil)

	// One hour before "now", expressed in a zone five and a half hours
	// ahead of it. Naive comparison of the wall-clock fields would let
	// this through; instant comparison must not.
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	past := fixedNow().Add(-time.Hour).In(ist)

	_, err = s.Create(CreateInput{
		Name:       "HIIT Training",
		Instructor: "Mike Chen",
		DateTime:   past,
		TotalSlots: 5,
		Timezone:   "Asia/Kolkata",
	})
	if !errors.Is(err, ErrInvalidClass) {
		t.Fatalf("expected ErrInvalidClass for past class, got %v", err)
	}
}

func TestCreateRejectsUnknownTimezone(t *testing.T) {
	s := newTestCatalog(t, nil)

	_, err := s.Create(CreateInput{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   fixedNow().Add(time.Hour),
		TotalSlots: 5,
		Timezone:   "Mars/Olympus_Mons",
	})
	if !errors.Is(err, ErrUnknownTimezone) {
		t.Fatalf("expected ErrUnknownTimezone, got %v", err)
	}
}

func TestListSortsByDateTime(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{
		futureClass("c-late", 72*time.Hour, 5),
		futureClass("c-early", 24*time.Hour, 5),
		futureClass("c-mid", 48*time.Hour, 5),
	})

	got := s.List()
	if len(got) != 3 {
		t.Fatalf("expected 3 classes, got %d", len(got))
	}
	if got[0].ID != "c-early" || got[1].ID != "c-mid" || got[2].ID != "c-late" {
		t.Fatalf("wrong order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestAdjustSlotsClamps(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", time.Hour, 3)})

	s.AdjustSlots("c1", -5)
	c, err := s.Get("c1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.AvailableSlots != 0 {
		t.Fatalf("expected clamp to 0, got %d", c.AvailableSlots)
	}

	s.AdjustSlots("c1", 100)
	c, _ = s.Get("c1")
	if c.AvailableSlots != 3 {
		t.Fatalf("expected clamp to total 3, got %d", c.AvailableSlots)
	}
}

func TestAdjustSlotsUnknownIDIsNoop(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", time.Hour, 3)})

	s.AdjustSlots("missing", 1)

	c, _ := s.Get("c1")
	if c.AvailableSlots != 3 {
		t.Fatalf("unexpected slot change: %d", c.AvailableSlots)
	}
}

func TestUpdateMergesOnlySuppliedFields(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", time.Hour, 10)})

	name := "Power Yoga"
	slots := 25

	got, err := s.Update("c1", UpdatePatch{Name: &name, AvailableSlots: &slots})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got.Name != "Power Yoga" {
		t.Fatalf("name not updated: %q", got.Name)
	}
	if got.Instructor != "Sarah Johnson" {
		t.Fatalf("instructor should be untouched: %q", got.Instructor)
	}
	if got.AvailableSlots != 10 {
		t.Fatalf("available_slots edit should clamp to total, got %d", got.AvailableSlots)
	}
}

func TestUpdateUnknownClass(t *testing.T) {
	s := newTestCatalog(t, nil)

	if _, err := s.Update("missing", UpdatePatch{}); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("expected ErrClassNotFound, got %v", err)
	}
}

func TestRezoneRewritesAllClasses(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{
		futureClass("c1", 24*time.Hour, 5),
		futureClass("c2", 48*time.Hour, 5),
	})

	before := s.Classes()

	if err := s.Rezone("America/New_York"); err != nil {
		t.Fatalf("Rezone: %v", err)
	}

	after := s.Classes()
	for i, c := range after {
		if c.Timezone != "America/New_York" {
			t.Fatalf("class %s timezone not rewritten: %q", c.ID, c.Timezone)
		}
		if !c.DateTime.Equal(before[i].DateTime) {
			t.Fatalf("class %s instant changed by rezone", c.ID)
		}
		if c.DateTime.Location().String() != "America/New_York" {
			t.Fatalf("class %s offset not rewritten: %v", c.ID, c.DateTime.Location())
		}
	}
}

func TestRezoneUnknownZoneAbortsBeforeMutation(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", 24*time.Hour, 5)})

	err := s.Rezone("Not/A_Zone")
	if !errors.Is(err, ErrUnknownTimezone) {
		t.Fatalf("expected ErrUnknownTimezone, got %v", err)
	}

	c, _ := s.Get("c1")
	if c.Timezone != "UTC" {
		t.Fatalf("catalog mutated despite bad zone: %q", c.Timezone)
	}
}

func TestDeleteRemovesClass(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", time.Hour, 5)})

	if err := s.Delete("c1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := s.Get("c1"); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("expected class gone, got %v", err)
	}

	if err := s.Delete("c1"); !errors.Is(err, ErrClassNotFound) {
		t.Fatalf("expected ErrClassNotFound on second delete, got %v", err)
	}
}

func TestByInstructorMatchesCaseInsensitively(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{
		futureClass("c1", time.Hour, 5),
		{ID: "c2", Name: "Zumba", Instructor: "Maria Rodriguez", DateTime: fixedNow().Add(time.Hour), TotalSlots: 5, AvailableSlots: 5, Timezone: "UTC"},
	})

	got := s.ByInstructor("sarah johnson")
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestUpcomingWindow(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{
		futureClass("in-window", 3*24*time.Hour, 5),
		futureClass("beyond", 10*24*time.Hour, 5),
	})

	got := s.Upcoming(7)
	if len(got) != 1 || got[0].ID != "in-window" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestSeedSampleDataOnlyWhenEmpty(t *testing.T) {
	s := newTestCatalog(t, nil)

	n := s.SeedSampleData()
	if n == 0 {
		t.Fatal("expected samples on empty catalog")
	}

	for _, c := range s.Classes() {
		if c.AvailableSlots != c.TotalSlots {
			t.Fatalf("seeded class %s not at full capacity", c.ID)
		}
	}

	if again := s.SeedSampleData(); again != 0 {
		t.Fatalf("reseed on non-empty catalog: %d", again)
	}
}

func TestFlushHookRunsOnMutation(t *testing.T) {
	s := newTestCatalog(t, []domain.Class{futureClass("c1", time.Hour, 5)})

	flushed := 0
	s.SetFlush(func() { flushed++ })

	s.AdjustSlots("c1", -1)
	if flushed != 1 {
		t.Fatalf("expected one flush, got %d", flushed)
	}
}
