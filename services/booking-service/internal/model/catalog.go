package model

import "time"

// Service is a bookable salon service. DurationMinutes drives every
// availability and conflict computation; it is always positive for a valid
// catalog entry.
type Service struct {
	ID              string
	Name            string
	Description     string
	DurationMinutes int
	PriceCents      int64
	CreatedAt       time.Time
}

// Stylist is the public projection of a user with the STYLIST role.
type Stylist struct {
	ID          string
	Name        string
	Email       string
	Image       string
	PhoneNumber string
}
