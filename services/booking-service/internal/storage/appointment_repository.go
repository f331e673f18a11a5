package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rmedina-dev/salonbook/libs/db"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/model"
)

const appointmentColumns = `
	a.id, a.user_id, COALESCE(a.stylist_id::text, ''), a.service_id,
	a.start_time, a.status, COALESCE(a.notes, ''), a.created_at, a.updated_at,
	s.name, s.duration_minutes, s.price_cents, COALESCE(st.name, '')`

const appointmentJoins = `
	FROM appointments a
	JOIN services s ON s.id = a.service_id
	LEFT JOIN users st ON st.id = a.stylist_id`

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

func (r *AppointmentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// LockStylist serializes booking writes per stylist for the lifetime of the
// transaction. The guard's read-check-write must happen under this lock or two
// concurrent requests can both pass the check and both insert.
func (r *AppointmentRepository) LockStylist(ctx context.Context, tx pgx.Tx, stylistID string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, stylistID)
	return err
}

// ListForStylist returns the stylist's appointments whose start falls in
// [from, to), excluding the given statuses, in ascending start order. Service
// duration is joined in so callers can derive effective intervals.
func (r *AppointmentRepository) ListForStylist(ctx context.Context, stylistID string, from, to time.Time, excludeStatuses []string) ([]model.Appointment, error) {
	if excludeStatuses == nil {
		excludeStatuses = []string{}
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+appointmentJoins+`
		WHERE a.stylist_id = $1
			AND a.start_time >= $2
			AND a.start_time < $3
			AND NOT (a.status = ANY($4))
		ORDER BY a.start_time ASC
	`, stylistID, from, to, excludeStatuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

// ListActiveForStylistTx reads the stylist's non-cancelled appointments in
// [from, to) inside the caller's transaction, locking the rows so the conflict
// guard decides against write-time state.
func (r *AppointmentRepository) ListActiveForStylistTx(ctx context.Context, tx pgx.Tx, stylistID string, from, to time.Time) ([]model.Appointment, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+appointmentColumns+appointmentJoins+`
		WHERE a.stylist_id = $1
			AND a.status <> 'CANCELLED'
			AND a.start_time >= $2
			AND a.start_time < $3
		ORDER BY a.start_time ASC
		FOR UPDATE OF a
	`, stylistID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var stylistID any
	if appt.StylistID != "" {
		stylistID = appt.StylistID
	}
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments (user_id, stylist_id, service_id, start_time, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, appt.UserID, stylistID, appt.ServiceID, appt.StartTime, appt.Status, appt.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+appointmentJoins+`
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

// GetByIDForUpdate locks the appointment row for the caller's transaction,
// used by updates and deletes to avoid lost writes.
func (r *AppointmentRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+appointmentJoins+`
		WHERE a.id = $1
		FOR UPDATE OF a
	`, id)
	return scanAppointment(row)
}

func (r *AppointmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+appointmentJoins+`
		WHERE a.user_id = $1
		ORDER BY a.start_time ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *AppointmentRepository) Update(ctx context.Context, tx pgx.Tx, appt *model.Appointment) error {
	var stylistID any
	if appt.StylistID != "" {
		stylistID = appt.StylistID
	}
	_, err := tx.Exec(ctx, `
		UPDATE appointments
		SET service_id = $2,
			stylist_id = $3,
			start_time = $4,
			status = $5,
			notes = $6,
			updated_at = now()
		WHERE id = $1
	`, appt.ID, appt.ServiceID, stylistID, appt.StartTime, appt.Status, appt.Notes)
	return err
}

func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var a model.Appointment
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.StylistID,
		&a.ServiceID,
		&a.StartTime,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.ServiceName,
		&a.ServiceDurationMinutes,
		&a.ServicePriceCents,
		&a.StylistName,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func scanAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	var appts []model.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
