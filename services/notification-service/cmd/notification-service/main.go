package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rmedina-dev/salonbook/libs/config"
	"github.com/rmedina-dev/salonbook/libs/db"
	"github.com/rmedina-dev/salonbook/libs/httpx"
	"github.com/rmedina-dev/salonbook/libs/kafkax"
	otelx "github.com/rmedina-dev/salonbook/libs/otel"
	"github.com/rmedina-dev/salonbook/libs/runtime"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/consumer"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/email"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/inbox"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/jobs"
	"github.com/rmedina-dev/salonbook/services/notification-service/internal/storage"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	topicAppointmentCreated   = "booking.appointment.created.v1"
	topicAppointmentConfirmed = "booking.appointment.confirmed.v1"
	topicAppointmentCancelled = "booking.appointment.cancelled.v1"
)

type appointmentEvent struct {
	AppointmentID   string `json:"appointment_id"`
	UserID          string `json:"user_id"`
	StylistID       string `json:"stylist_id"`
	ServiceID       string `json:"service_id"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Status          string `json:"status"`
}

type notifier struct {
	repo          *storage.Repository
	reminders     *jobs.Repository
	sender        email.Sender
	logger        *slog.Logger
	loc           *time.Location
	reminderLeads []time.Duration
}

func (n *notifier) handle(ctx context.Context, msg kafka.Message) error {
	var evt appointmentEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		n.logger.Error("invalid appointment event payload", "err", err, "topic", msg.Topic)
		return nil
	}
	if evt.AppointmentID == "" || evt.UserID == "" || evt.StartTime == "" {
		n.logger.Error("missing appointment event fields", "topic", msg.Topic)
		return nil
	}
	start, err := time.Parse(time.RFC3339, evt.StartTime)
	if err != nil {
		n.logger.Error("invalid start_time", "err", err, "appointment_id", evt.AppointmentID)
		return nil
	}

	contact, err := n.repo.GetContact(ctx, evt.UserID)
	if err != nil {
		return fmt.Errorf("lookup contact for %s: %w", evt.UserID, err)
	}
	serviceName, err := n.repo.GetServiceName(ctx, evt.ServiceID)
	if err != nil {
		serviceName = "your"
	}

	when := start.In(n.loc)
	whenText := when.Format("Monday, January 2") + " at " + when.Format("3:04 PM")

	var kind, subject, body string
	switch msg.Topic {
	case topicAppointmentCreated:
		kind = storage.KindBookingReceived
		subject = "We received your booking"
		body = fmt.Sprintf("Hi %s,\n\nWe received your %s booking for %s. We'll let you know once it is confirmed.",
			contact.Name, serviceName, whenText)
	case topicAppointmentConfirmed:
		kind = storage.KindBookingConfirmed
		subject = "Your appointment is confirmed"
		body = fmt.Sprintf("Hi %s,\n\nYour %s appointment on %s is confirmed.",
			contact.Name, serviceName, whenText)
	case topicAppointmentCancelled:
		kind = storage.KindBookingCancelled
		subject = "Your appointment was cancelled"
		body = fmt.Sprintf("Hi %s,\n\nYour %s appointment on %s has been cancelled.",
			contact.Name, serviceName, whenText)
	default:
		n.logger.Warn("unhandled topic", "topic", msg.Topic)
		return nil
	}

	status := storage.StatusSent
	if err := n.sender.Send(contact.Email, subject, body); err != nil {
		status = storage.StatusFailed
		n.logger.Error("email send failed", "err", err, "recipient", contact.Email)
	}
	if err := n.repo.Insert(ctx, storage.Notification{
		AppointmentID: evt.AppointmentID,
		UserID:        evt.UserID,
		Kind:          kind,
		Recipient:     contact.Email,
		Subject:       subject,
		Status:        status,
	}); err != nil {
		return fmt.Errorf("persist notification: %w", err)
	}

	switch msg.Topic {
	case topicAppointmentCreated, topicAppointmentConfirmed:
		// Drop pending jobs first so a rescheduled start does not leave
		// reminders for the old time behind.
		if err := n.reminders.Cancel(ctx, evt.AppointmentID); err != nil {
			return fmt.Errorf("clear reminders: %w", err)
		}
		for _, lead := range n.reminderLeads {
			remindAt := start.Add(-lead)
			if !remindAt.After(time.Now()) {
				continue
			}
			if err := n.reminders.Insert(ctx, jobs.Job{
				AppointmentID: evt.AppointmentID,
				UserID:        evt.UserID,
				Recipient:     contact.Email,
				RecipientName: contact.Name,
				ServiceName:   serviceName,
				StartTime:     start,
				RemindAt:      remindAt,
			}); err != nil {
				return fmt.Errorf("schedule reminder: %w", err)
			}
		}
	case topicAppointmentCancelled:
		if err := n.reminders.Cancel(ctx, evt.AppointmentID); err != nil {
			return fmt.Errorf("cancel reminders: %w", err)
		}
	}

	n.logger.Info("appointment event processed",
		"appointment_id", evt.AppointmentID, "topic", msg.Topic, "status", status)
	return nil
}

func reminderLeads(raw string) []time.Duration {
	var leads []time.Duration
	for _, part := range strings.Split(raw, ",") {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil || d <= 0 {
			continue
		}
		leads = append(leads, d)
	}
	if len(leads) == 0 {
		leads = []time.Duration{24 * time.Hour}
	}
	return leads
}

func main() {
	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 1)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	loc, err := config.Location("SALON_TIMEZONE", "America/New_York")
	if err != nil {
		logger.Error("invalid salon timezone", "err", err)
		panic(err)
	}

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@salonbook.local")
	sender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	notificationsRepo := storage.NewRepository(pool)
	inboxRepo := inbox.NewRepository(pool)
	remindersRepo := jobs.NewRepository(pool)

	n := &notifier{
		repo:          notificationsRepo,
		reminders:     remindersRepo,
		sender:        sender,
		logger:        logger,
		loc:           loc,
		reminderLeads: reminderLeads(config.String("REMINDER_LEADS", "24h,1h")),
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
		Brokers: kafkaBrokers,
		GroupID: config.String("KAFKA_GROUP_ID", "notification-service"),
		Topics: []string{
			topicAppointmentCreated,
			topicAppointmentConfirmed,
			topicAppointmentCancelled,
		},
	}, n.handle)
	go eventConsumer.Run(ctx)

	reminderWorker := jobs.NewWorker(pool, remindersRepo, notificationsRepo, sender, logger, loc, jobs.WorkerConfig{
		Interval:  config.Duration("REMINDER_POLL_INTERVAL", 30*time.Second),
		BatchSize: config.Int("REMINDER_BATCH_SIZE", 50),
		Backoff:   config.Duration("REMINDER_RETRY_BACKOFF", 5*time.Minute),
	})
	go reminderWorker.Run(ctx)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
