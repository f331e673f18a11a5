package storage

import (
	"context"

	"github.com/rmedina-dev/salonbook/libs/db"
)

const (
	KindBookingReceived  = "booking_received"
	KindBookingConfirmed = "booking_confirmed"
	KindBookingCancelled = "booking_cancelled"
	KindReminder         = "reminder"

	StatusSent   = "sent"
	StatusFailed = "failed"
)

type Notification struct {
	AppointmentID string
	UserID        string
	Kind          string
	Recipient     string
	Subject       string
	Status        string
}

type Contact struct {
	Name  string
	Email string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (appointment_id, user_id, kind, recipient, subject, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.AppointmentID, n.UserID, n.Kind, n.Recipient, n.Subject, n.Status)
	return err
}

// GetContact resolves who to email for a user id.
func (r *Repository) GetContact(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := r.pool.QueryRow(ctx, `
		SELECT name, email
		FROM users
		WHERE id = $1
	`, userID).Scan(&c.Name, &c.Email)
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

// GetServiceName looks up the display name used in notification copy.
func (r *Repository) GetServiceName(ctx context.Context, serviceID string) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `
		SELECT name
		FROM services
		WHERE id = $1
	`, serviceID).Scan(&name)
	if err != nil {
		return "", err
	}
	return name, nil
}
