package file

import (
	"context"
	"testing"
	"time"

	"github.com/fitslotdev/fitslot/internal/domain"
)

func TestLoadMissingStoreIsEmpty(t *testing.T) {
	s := New(t.TempDir())

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(snap.Classes) != 0 || len(snap.Bookings) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	classTime := time.Date(2026, 3, 10, 9, 30, 0, 0, ist)

	in := domain.Snapshot{
		Classes: []domain.Class{{
			ID:              "c1",
			Name:            "Yoga Basics",
			Instructor:      "Sarah Johnson",
			DateTime:        classTime,
			TotalSlots:      15,
			AvailableSlots:  14,
			DurationMinutes: 60,
			Timezone:        "Asia/Kolkata",
		}},
		Bookings: []domain.Booking{{
			ID:          "b1",
			ClassID:     "c1",
			ClientName:  "Alice",
			ClientEmail: "alice@x.com",
			BookingDate: time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		}},
	}

	if err := s.Save(context.Background(), in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(out.Classes) != 1 || len(out.Bookings) != 1 {
		t.Fatalf("unexpected snapshot shape: %+v", out)
	}

	c := out.Classes[0]
	if c.ID != "c1" || c.Name != "Yoga Basics" || c.TotalSlots != 15 || c.AvailableSlots != 14 || c.Timezone != "Asia/Kolkata" {
		t.Fatalf("class fields lost: %+v", c)
	}

	// Same instant and same offset as written.
	if !c.DateTime.Equal(classTime) {
		t.Fatalf("instant changed: %v != %v", c.DateTime, classTime)
	}
	_, wantOff := classTime.Zone()
	_, gotOff := c.DateTime.Zone()
	if wantOff != gotOff {
		t.Fatalf("offset changed: %d != %d", gotOff, wantOff)
	}

	b := out.Bookings[0]
	if b.ID != "b1" || !b.BookingDate.Equal(in.Bookings[0].BookingDate) {
		t.Fatalf("booking fields lost: %+v", b)
	}
}

func TestSaveOverwritesPreviousSnapshot(t *testing.T) {
	s := New(t.TempDir())
	ctx := context.Background()

	first := domain.Snapshot{Classes: []domain.Class{{ID: "c1", DateTime: time.Now().UTC(), TotalSlots: 1, AvailableSlots: 1}}}
	if err := s.Save(ctx, first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := s.Save(ctx, domain.Snapshot{}); err != nil {
		t.Fatalf("Save empty: %v", err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.Classes) != 0 {
		t.Fatalf("stale classes survived: %+v", out.Classes)
	}
}
