// Package availability holds the slot and conflict math for salon bookings.
// Everything in it is pure: appointment snapshots come in, decisions come out,
// and all I/O stays with the caller.
package availability

import "time"

// Interval is a half-open time span [Start, End) anchored at Start and sized
// by the owning service's duration.
type Interval struct {
	Start           time.Time
	DurationMinutes int
}

func (iv Interval) End() time.Time {
	return iv.Start.Add(time.Duration(iv.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// merely touch at an endpoint (one ends at 10:00, the other starts at 10:00)
// do not overlap. This rule is the single source of truth for every conflict
// decision in this package.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End()) && b.Start.Before(a.End())
}

// Status of an appointment as the engine sees it. The engine never transitions
// statuses; it only reads them to decide whether an appointment occupies time.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// Blocks reports whether an appointment with this status occupies its time
// slot. Only cancelled appointments free their slot.
func (s Status) Blocks() bool {
	return s != StatusCancelled
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Appointment is the read-only snapshot the engine works on. DurationMinutes
// is the duration of the appointment's own service at the time of the read.
type Appointment struct {
	ID              string
	StylistID       string
	Start           time.Time
	DurationMinutes int
	Status          Status
}

func (a Appointment) Interval() Interval {
	return Interval{Start: a.Start, DurationMinutes: a.DurationMinutes}
}
