package httpgin

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fitslotdev/fitslot/internal/clock"
	"github.com/fitslotdev/fitslot/internal/domain"
	"github.com/fitslotdev/fitslot/internal/service"
	"github.com/fitslotdev/fitslot/internal/service/catalog"
	"github.com/fitslotdev/fitslot/internal/service/ledger"
)

func fixedNow() time.Time {
	return time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T, classes []domain.Class) (*gin.Engine, *service.Services) {
	t.Helper()

	return newTestServerInZone(t, classes, "UTC")
}

func newTestServerInZone(t *testing.T, classes []domain.Class, defaultZone string) (*gin.Engine, *service.Services) {
	t.Helper()

	gin.SetMode(gin.TestMode)

	svcs, err := service.NewServices(
		domain.Snapshot{Classes: classes},
		clock.Fixed{T: fixedNow()},
		service.Config{
			Catalog: catalog.Config{DefaultTimezone: defaultZone},
			Ledger:  ledger.Config{StrictClientName: true},
		},
	)
	if err != nil {
		t.Fatalf("NewServices: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewRouter(svcs, nil, nil, nil, logger), svcs
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func futureClass(id string, total int) domain.Class {
	return domain.Class{
		ID:             id,
		Name:           "Yoga Basics",
		Instructor:     "Sarah Johnson",
		DateTime:       fixedNow().Add(24 * time.Hour),
		TotalSlots:     total,
		AvailableSlots: total,
		Timezone:       "UTC",
	}
}

func TestHealthz(t *testing.T) {
	r, _ := newTestServer(t, nil)

	w := doJSON(t, r, http.MethodGet, "/healthz", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestListClassesChronological(t *testing.T) {
	late := futureClass("late", 5)
	late.DateTime = fixedNow().Add(72 * time.Hour)

	r, _ := newTestServer(t, []domain.Class{late, futureClass("early", 5)})

	w := doJSON(t, r, http.MethodGet, "/classes", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got []domain.Class
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("wrong order: %+v", got)
	}
}

func TestCreateClassAcceptsNaiveTimeInClassZone(t *testing.T) {
	r, svcs := newTestServer(t, nil)

	w := doJSON(t, r, http.MethodPost, "/classes", CreateClassRequest{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   "2026-06-01T09:00:00",
		TotalSlots: 10,
		Timezone:   "Asia/Kolkata",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created domain.Class
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	stored, err := svcs.Catalog.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	_, off := stored.DateTime.Zone()
	if off != 5*3600+1800 {
		t.Fatalf("naive time not anchored to IST, offset=%d", off)
	}
}

func TestCreateClassOmittedZoneAnchorsInStudioDefault(t *testing.T) {
	r, svcs := newTestServerInZone(t, nil, "Asia/Kolkata")

	w := doJSON(t, r, http.MethodPost, "/classes", CreateClassRequest{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   "2026-06-01T09:00:00",
		TotalSlots: 10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created domain.Class
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	stored, err := svcs.Catalog.Get(created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	// The zone field and the embedded offset must agree: both come from
	// the studio default when the request carries no zone.
	if stored.Timezone != "Asia/Kolkata" {
		t.Fatalf("expected default zone on record, got %q", stored.Timezone)
	}
	_, off := stored.DateTime.Zone()
	if off != 5*3600+1800 {
		t.Fatalf("naive time not anchored in default zone, offset=%d", off)
	}
}

func TestCreateClassRejectsPast(t *testing.T) {
	r, _ := newTestServer(t, nil)

	w := doJSON(t, r, http.MethodPost, "/classes", CreateClassRequest{
		Name:       "Pilates",
		Instructor: "Emma Wilson",
		DateTime:   fixedNow().Add(-time.Hour).Format(time.RFC3339),
		TotalSlots: 10,
		Timezone:   "UTC",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUpdateClassPartialMerge(t *testing.T) {
	r, _ := newTestServer(t, []domain.Class{futureClass("c1", 10)})

	name := "Power Yoga"
	w := doJSON(t, r, http.MethodPut, "/classes/c1", UpdateClassRequest{Name: &name})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got domain.Class
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Power Yoga" || got.Instructor != "Sarah Johnson" {
		t.Fatalf("bad merge: %+v", got)
	}
}

func TestDeleteClassStatuses(t *testing.T) {
	r, _ := newTestServer(t, []domain.Class{futureClass("c1", 10)})

	if w := doJSON(t, r, http.MethodDelete, "/classes/c1", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodDelete, "/classes/c1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRezoneUnknownZone(t *testing.T) {
	r, _ := newTestServer(t, []domain.Class{futureClass("c1", 10)})

	w := doJSON(t, r, http.MethodPost, "/classes/timezone", RezoneRequest{Timezone: "Not/A_Zone"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestBookStatuses(t *testing.T) {
	r, _ := newTestServer(t, []domain.Class{futureClass("c1", 1)})

	w := doJSON(t, r, http.MethodPost, "/book", CreateBookingRequest{
		ClassID:     "missing",
		ClientName:  "Alice",
		ClientEmail: "alice@x.com",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown class: expected 404, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/book", CreateBookingRequest{
		ClassID:     "c1",
		ClientName:  "Alice",
		ClientEmail: "alice@x.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/book", CreateBookingRequest{
		ClassID:     "c1",
		ClientName:  "Alice",
		ClientEmail: "alice@x.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: expected 400, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/book", CreateBookingRequest{
		ClassID:     "c1",
		ClientName:  "Bob",
		ClientEmail: "bob@x.com",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("full class: expected 400, got %d", w.Code)
	}
}

func TestListBookingsRequiresEmail(t *testing.T) {
	r, _ := newTestServer(t, nil)

	if w := doJSON(t, r, http.MethodGet, "/bookings", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	if w := doJSON(t, r, http.MethodGet, "/bookings?email=+", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("blank email: expected 400, got %d", w.Code)
	}
}

func TestCancelBookingFlow(t *testing.T) {
	r, svcs := newTestServer(t, []domain.Class{futureClass("c1", 1)})

	w := doJSON(t, r, http.MethodPost, "/book", CreateBookingRequest{
		ClassID:     "c1",
		ClientName:  "Alice",
		ClientEmail: "alice@x.com",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	var b domain.Booking
	if err := json.Unmarshal(w.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if w := doJSON(t, r, http.MethodDelete, "/bookings/"+b.ID, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	if c, _ := svcs.Catalog.Get("c1"); c.AvailableSlots != 1 {
		t.Fatalf("slot not restored: %d", c.AvailableSlots)
	}

	if w := doJSON(t, r, http.MethodDelete, "/bookings/"+b.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeat cancel, got %d", w.Code)
	}
}
