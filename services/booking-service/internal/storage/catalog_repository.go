package storage

import (
	"context"

	"github.com/rmedina-dev/salonbook/libs/db"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/model"
)

// CatalogRepository is the read-only lookup side: services and stylists.
type CatalogRepository struct {
	pool *db.Pool
}

func NewCatalogRepository(pool *db.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) GetService(ctx context.Context, id string) (model.Service, error) {
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), duration_minutes, price_cents, created_at
		FROM services
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceCents, &s.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func (r *CatalogRepository) ListServices(ctx context.Context) ([]model.Service, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(description, ''), duration_minutes, price_cents, created_at
		FROM services
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var services []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceCents, &s.CreatedAt); err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return services, nil
}

func (r *CatalogRepository) ListStylists(ctx context.Context) ([]model.Stylist, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, email, COALESCE(image, ''), COALESCE(phone_number, '')
		FROM users
		WHERE role = 'STYLIST'
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stylists []model.Stylist
	for rows.Next() {
		var s model.Stylist
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Image, &s.PhoneNumber); err != nil {
			return nil, err
		}
		stylists = append(stylists, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return stylists, nil
}
