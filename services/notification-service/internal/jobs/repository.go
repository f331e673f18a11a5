package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rmedina-dev/salonbook/libs/db"
	otelx "github.com/rmedina-dev/salonbook/libs/otel"
)

// Job is a scheduled appointment reminder. An appointment can carry several
// jobs (one per lead offset); a reschedule replaces them, a cancellation
// removes them.
type Job struct {
	ID            int64
	AppointmentID string
	UserID        string
	Recipient     string
	RecipientName string
	ServiceName   string
	StartTime     time.Time
	RemindAt      time.Time
	Traceparent   string
	Tracestate    string
	Attempts      int
	MaxAttempts   int
	NextRunAt     time.Time
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert schedules one reminder. Duplicate (appointment, remind_at) pairs are
// ignored so replays of the same event do not double-schedule.
func (r *Repository) Insert(ctx context.Context, job Job) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reminder_jobs (appointment_id, user_id, recipient, recipient_name, service_name, start_time, remind_at, next_run_at, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $9)
		ON CONFLICT (appointment_id, remind_at) DO NOTHING
	`, job.AppointmentID, job.UserID, job.Recipient, job.RecipientName, job.ServiceName, job.StartTime, job.RemindAt, traceparent, tracestate)
	return err
}

// Cancel drops all pending reminders for an appointment, if any. Also called
// before rescheduling so stale remind times do not linger.
func (r *Repository) Cancel(ctx context.Context, appointmentID string) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM reminder_jobs
		WHERE appointment_id = $1 AND status = 'pending'
	`, appointmentID)
	return err
}

func (r *Repository) FetchDue(ctx context.Context, tx pgx.Tx, limit int) ([]Job, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, appointment_id, user_id, recipient, recipient_name, service_name, start_time, remind_at, traceparent, tracestate, attempts, max_attempts, next_run_at
		FROM reminder_jobs
		WHERE status = 'pending' AND next_run_at <= now()
		ORDER BY next_run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.AppointmentID, &j.UserID, &j.Recipient, &j.RecipientName, &j.ServiceName, &j.StartTime, &j.RemindAt, &j.Traceparent, &j.Tracestate, &j.Attempts, &j.MaxAttempts, &j.NextRunAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return jobs, nil
}

func (r *Repository) MarkProcessed(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET status = 'processed', updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, tx pgx.Tx, id int64, attempts int, maxAttempts int, nextRunAt time.Time, lastError string) error {
	status := "pending"
	if attempts >= maxAttempts {
		status = "failed"
	}
	_, err := tx.Exec(ctx, `
		UPDATE reminder_jobs
		SET attempts = $2,
		    status = $3,
		    next_run_at = $4,
		    last_error = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, attempts, status, nextRunAt, lastError)
	return err
}
