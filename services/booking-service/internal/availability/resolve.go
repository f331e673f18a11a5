package availability

import (
	"errors"
	"time"
)

var ErrInvalidService = errors.New("service duration must be positive")

// Day is the classification of one business day's slot grid. Available keeps
// grid order; together the two slices partition the grid.
type Day struct {
	Available   []time.Time
	Unavailable []time.Time
}

// Resolve classifies every grid slot of day as available or unavailable for a
// booking of the requested service with the given stylist.
//
// Candidate slots are measured with the *requested* service's duration while
// blocking appointments are measured with their *own* stored duration — the
// question each slot answers is "would booking this service here collide with
// anything", not "does an appointment start here". A slot is unavailable iff
// its hypothetical interval overlaps any non-cancelled appointment of the
// stylist whose start falls on that calendar day.
func Resolve(stylistID string, day time.Time, requestedDurationMinutes int, existing []Appointment, grid Grid) (Day, error) {
	if requestedDurationMinutes <= 0 {
		return Day{}, ErrInvalidService
	}

	slots, err := grid.Slots(day)
	if err != nil {
		// A malformed grid produces an empty day rather than a failure: an
		// empty grid is a valid, if unhelpful, answer to a browse request.
		return Day{}, nil
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	nextMidnight := midnight.AddDate(0, 0, 1)

	var busy []Interval
	for _, appt := range existing {
		if appt.StylistID != stylistID || !appt.Status.Blocks() {
			continue
		}
		if appt.Start.Before(midnight) || !appt.Start.Before(nextMidnight) {
			continue
		}
		busy = append(busy, appt.Interval())
	}

	var out Day
	for _, start := range slots {
		candidate := Interval{Start: start, DurationMinutes: requestedDurationMinutes}
		if overlapsAny(candidate, busy) {
			out.Unavailable = append(out.Unavailable, start)
		} else {
			out.Available = append(out.Available, start)
		}
	}
	return out, nil
}

func overlapsAny(candidate Interval, busy []Interval) bool {
	for _, b := range busy {
		if Overlaps(candidate, b) {
			return true
		}
	}
	return false
}
