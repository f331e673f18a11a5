package storage

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rmedina-dev/salonbook/libs/db"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Image        string
	PhoneNumber  string
}

type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, image, phone_number)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Image, user.PhoneNumber)
	return err
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, COALESCE(image, ''), COALESCE(phone_number, '')
		FROM users
		WHERE email = $1
	`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Image, &user.PhoneNumber)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, COALESCE(image, ''), COALESCE(phone_number, '')
		FROM users
		WHERE id = $1
	`, id).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.Image, &user.PhoneNumber)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateProfile changes the mutable profile fields only. Email, role and the
// password hash have their own flows.
func (r *UserRepository) UpdateProfile(ctx context.Context, id, name, image, phoneNumber string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, image = NULLIF($3, ''), phone_number = NULLIF($4, ''), updated_at = now()
		WHERE id = $1
	`, id, name, image, phoneNumber)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func IsNotFound(err error) bool {
	return err == pgx.ErrNoRows
}
