package model

import "time"

// Appointment is the persisted booking record. The effective interval of an
// appointment is [StartTime, StartTime + service duration); the duration lives
// on the service, not here.
type Appointment struct {
	ID        string
	UserID    string
	StylistID string // empty when the booking has no assigned stylist
	ServiceID string
	StartTime time.Time
	Status    string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined from the catalog on reads.
	ServiceName            string
	ServiceDurationMinutes int
	ServicePriceCents      int64
	StylistName            string
}
