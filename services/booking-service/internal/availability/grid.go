package availability

import (
	"errors"
	"time"
)

var ErrInvalidGridConfig = errors.New("invalid slot grid config")

const (
	DefaultOpen        = "09:00"
	DefaultClose       = "18:00"
	DefaultStepMinutes = 30
)

// Grid describes the fixed candidate-slot grid of a business day.
type Grid struct {
	Open        string // "15:04" clock, first slot, inclusive
	Close       string // "15:04" clock, exclusive
	StepMinutes int
}

func DefaultGrid() Grid {
	return Grid{Open: DefaultOpen, Close: DefaultClose, StepMinutes: DefaultStepMinutes}
}

// Slots enumerates every candidate start time for day in ascending order,
// from Open (inclusive) to Close (exclusive), spaced StepMinutes apart.
// The grid depends on nothing but its config and the day, so identical inputs
// always yield identical output. Slot times are built in day's location.
func (g Grid) Slots(day time.Time) ([]time.Time, error) {
	openMins, err := clockMinutes(g.Open)
	if err != nil {
		return nil, err
	}
	closeMins, err := clockMinutes(g.Close)
	if err != nil {
		return nil, err
	}
	if g.StepMinutes <= 0 || closeMins <= openMins {
		return nil, ErrInvalidGridConfig
	}

	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	var slots []time.Time
	for m := openMins; m < closeMins; m += g.StepMinutes {
		slots = append(slots, midnight.Add(time.Duration(m)*time.Minute))
	}
	return slots, nil
}

func clockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, ErrInvalidGridConfig
	}
	return t.Hour()*60 + t.Minute(), nil
}
