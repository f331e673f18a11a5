package availability

import "time"

// Conflict identifies the existing appointment a candidate booking collides
// with, with enough detail for user-facing messaging. It is an expected
// outcome under concurrent load, not an error.
type Conflict struct {
	AppointmentID   string
	Start           time.Time
	DurationMinutes int
}

// CheckBooking re-validates a candidate appointment against the stylist's
// appointments at write time, closing the race between a client reading
// availability and submitting a booking. It returns nil when the booking may
// proceed.
//
// The caller must evaluate this against store state read inside the same
// serialized unit of work as the write (per stylist); running it on a stale
// earlier read reintroduces the race it exists to prevent.
//
// The candidate is measured with its own service duration; each existing
// appointment with that appointment's stored duration. Cancelled appointments
// never block, and neither does the candidate's own row (reschedules re-check
// against everything else). Candidates without a stylist are not
// conflict-checked: unassigned bookings are accepted as-is and validated once
// a stylist is assigned.
func CheckBooking(candidate Appointment, existing []Appointment) *Conflict {
	if candidate.StylistID == "" {
		return nil
	}

	for _, appt := range existing {
		if appt.ID != "" && appt.ID == candidate.ID {
			continue
		}
		if appt.StylistID != candidate.StylistID || !appt.Status.Blocks() {
			continue
		}
		if Overlaps(candidate.Interval(), appt.Interval()) {
			return &Conflict{
				AppointmentID:   appt.ID,
				Start:           appt.Start,
				DurationMinutes: appt.DurationMinutes,
			}
		}
	}
	return nil
}
