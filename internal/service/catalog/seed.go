package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/fitslotdev/fitslot/internal/domain"
)

type seedClass struct {
	name       string
	instructor string
	days       int
	hour       int
	totalSlots int
}

var sampleClasses = []seedClass{
	{"Yoga Basics", "Sarah Johnson", 1, 9, 15},
	{"Zumba Dance", "Maria Rodriguez", 1, 18, 20},
	{"HIIT Training", "Mike Chen", 2, 7, 12},
	{"Pilates", "Emma Wilson", 2, 17, 10},
	{"Strength Training", "David Brown", 3, 8, 8},
	{"Cardio Kickboxing", "Lisa Park", 3, 19, 16},
	{"Yoga Advanced", "Sarah Johnson", 4, 10, 12},
	{"Dance Fitness", "Maria Rodriguez", 5, 16, 18},
}

// SeedSampleData populates an empty catalog with a week of sample
// classes in the studio's home zone. A non-empty catalog is left alone,
// so restarts do not duplicate the samples.
func (s *Service) SeedSampleData() int {
	s.mu.Lock()

	if len(s.classes) > 0 {
		s.mu.Unlock()
		return 0
	}

	now := s.clk.Now().In(s.defaultLoc)

	for _, sc := range sampleClasses {
		day := now.AddDate(0, 0, sc.days)

		s.classes = append(s.classes, domain.Class{
			ID:              uuid.New().String(),
			Name:            sc.name,
			Instructor:      sc.instructor,
			DateTime:        time.Date(day.Year(), day.Month(), day.Day(), sc.hour, 0, 0, 0, s.defaultLoc),
			TotalSlots:      sc.totalSlots,
			AvailableSlots:  sc.totalSlots,
			DurationMinutes: domain.DefaultDurationMinutes,
			Timezone:        s.cfg.DefaultTimezone,
		})
	}

	n := len(s.classes)
	s.mu.Unlock()

	s.flush()

	return n
}
