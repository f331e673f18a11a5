package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rmedina-dev/salonbook/libs/db"
	otelx "github.com/rmedina-dev/salonbook/libs/otel"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/email"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/storage"
)

// Worker drains due reminder jobs and sends the reminder email. FOR UPDATE
// SKIP LOCKED in the fetch lets multiple instances share the queue without
// double-sending.
type Worker struct {
	pool          *db.Pool
	repo          *Repository
	notifications *storage.Repository
	sender        email.Sender
	logger        *slog.Logger
	loc           *time.Location
	interval      time.Duration
	batchSize     int
	backoff       time.Duration
}

type WorkerConfig struct {
	Interval  time.Duration
	BatchSize int
	Backoff   time.Duration
}

func NewWorker(
	pool *db.Pool,
	repo *Repository,
	notifications *storage.Repository,
	sender email.Sender,
	logger *slog.Logger,
	loc *time.Location,
	cfg WorkerConfig,
) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 5 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Worker{
		pool:          pool,
		repo:          repo,
		notifications: notifications,
		sender:        sender,
		logger:        logger,
		loc:           loc,
		interval:      cfg.Interval,
		batchSize:     cfg.BatchSize,
		backoff:       cfg.Backoff,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.processBatch(ctx); err != nil {
				w.logger.Error("reminder batch failed", "err", err)
			}
		}
	}
}

func (w *Worker) processBatch(ctx context.Context) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	jobs, err := w.repo.FetchDue(ctx, tx, w.batchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit(ctx)
	}

	var sent []int64
	var failed []Job
	var reasons []string
	for _, job := range jobs {
		jobCtx := otelx.ContextWithTraceContext(ctx, job.Traceparent, job.Tracestate)
		if err := w.sendReminder(jobCtx, job); err != nil {
			w.logger.Error("reminder send failed", "err", err, "appointment_id", job.AppointmentID)
			failed = append(failed, job)
			reasons = append(reasons, err.Error())
			continue
		}
		sent = append(sent, job.ID)
	}

	if err := w.repo.MarkProcessed(ctx, tx, sent); err != nil {
		return err
	}
	for i, job := range failed {
		nextRunAt := time.Now().UTC().Add(w.backoff)
		if err := w.repo.MarkFailed(ctx, tx, job.ID, job.Attempts+1, job.MaxAttempts, nextRunAt, reasons[i]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (w *Worker) sendReminder(ctx context.Context, job Job) error {
	when := job.StartTime.In(w.loc)
	subject := "Upcoming appointment reminder"
	body := fmt.Sprintf("Hi %s,\n\nThis is a reminder of your %s appointment on %s at %s.\n\nSee you soon!",
		job.RecipientName, job.ServiceName,
		when.Format("Monday, January 2"), when.Format("3:04 PM"))

	if err := w.sender.Send(job.Recipient, subject, body); err != nil {
		return err
	}

	return w.notifications.Insert(ctx, storage.Notification{
		AppointmentID: job.AppointmentID,
		UserID:        job.UserID,
		Kind:          storage.KindReminder,
		Recipient:     job.Recipient,
		Subject:       subject,
		Status:        storage.StatusSent,
	})
}
