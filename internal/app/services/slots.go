package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/yigit/peerlearn/internal/app/models"
	"github.com/yigit/peerlearn/internal/pkg/apperrors"
	"github.com/yigit/peerlearn/internal/pkg/helpers"
)

// slotStep is the granularity of offered start times.
const slotStep = 30 * time.Minute

type clockWindow struct {
	day        int
	start, end int // minutes since midnight
}

func parseWindow(s models.AvailabilitySlot) (clockWindow, error) {
	start, err := helpers.ParseClock(s.StartTime)
	if err != nil {
		return clockWindow{}, err
	}
	end, err := helpers.ParseClock(s.EndTime)
	if err != nil {
		return clockWindow{}, err
	}
	return clockWindow{day: s.DayOfWeek, start: start, end: end}, nil
}

// validateWeeklySlots rejects malformed windows and windows that overlap on the same day.
func validateWeeklySlots(slots []models.AvailabilitySlot) error {
	windows := make([]clockWindow, 0, len(slots))
	for _, s := range slots {
		if s.DayOfWeek < 0 || s.DayOfWeek > 6 {
			return apperrors.NewBadRequestError(fmt.Sprintf("Invalid day of week %d", s.DayOfWeek))
		}
		w, err := parseWindow(s)
		if err != nil {
			return apperrors.NewBadRequestError(err.Error())
		}
		if w.start >= w.end {
			return apperrors.NewBadRequestError(fmt.Sprintf("Window %s-%s must start before it ends", s.StartTime, s.EndTime))
		}
		windows = append(windows, w)
	}

	sort.Slice(windows, func(i, j int) bool {
		if windows[i].day != windows[j].day {
			return windows[i].day < windows[j].day
		}
		return windows[i].start < windows[j].start
	})
	for i := 1; i < len(windows); i++ {
		prev, cur := windows[i-1], windows[i]
		if prev.day == cur.day && cur.start < prev.end {
			return apperrors.NewBadRequestError(fmt.Sprintf("Availability windows overlap on day %d", cur.day))
		}
	}
	return nil
}

// concreteWindows places the weekly windows matching date's weekday onto that date (UTC).
func concreteWindows(date time.Time, slots []models.AvailabilitySlot) []models.TimeRange {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var out []models.TimeRange
	for _, s := range slots {
		if s.DayOfWeek != int(day.Weekday()) {
			continue
		}
		w, err := parseWindow(s)
		if err != nil {
			continue
		}
		out = append(out, models.TimeRange{
			Start: day.Add(time.Duration(w.start) * time.Minute),
			End:   day.Add(time.Duration(w.end) * time.Minute),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// withinAvailability reports whether r fits entirely inside one window of its day.
func withinAvailability(slots []models.AvailabilitySlot, r models.TimeRange) bool {
	for _, w := range concreteWindows(r.Start.UTC(), slots) {
		if !r.Start.Before(w.Start) && !r.End.After(w.End) {
			return true
		}
	}
	return false
}

// overlapsAny reports whether r intersects any booked range.
func overlapsAny(r models.TimeRange, booked []models.TimeRange) bool {
	for _, b := range booked {
		if r.Overlaps(b) {
			return true
		}
	}
	return false
}

// freeSlots lists start times on date, every slotStep, where a session of the
// given duration fits inside availability, avoids booked ranges and starts after now.
func freeSlots(date time.Time, slots []models.AvailabilitySlot, booked []models.TimeRange, duration time.Duration, now time.Time) []models.TimeRange {
	free := []models.TimeRange{}
	for _, w := range concreteWindows(date, slots) {
		for start := w.Start; !start.Add(duration).After(w.End); start = start.Add(slotStep) {
			candidate := models.TimeRange{Start: start, End: start.Add(duration)}
			if start.Before(now) || overlapsAny(candidate, booked) {
				continue
			}
			free = append(free, candidate)
		}
	}
	return free
}

func sessionRanges(sessions []*models.Session) []models.TimeRange {
	out := make([]models.TimeRange, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, models.TimeRange{Start: s.StartTime, End: s.EndTime()})
	}
	return out
}
