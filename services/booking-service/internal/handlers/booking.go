package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rmedina-dev/salonbook/libs/auth"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/availability"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/model"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/outbox"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/storage"
)

type BookingHandler struct {
	appts   *storage.AppointmentRepository
	catalog *storage.CatalogRepository
	outbox  *outbox.Repository
	logger  *slog.Logger
	grid    availability.Grid
	loc     *time.Location
}

func NewBookingHandler(
	appts *storage.AppointmentRepository,
	catalog *storage.CatalogRepository,
	outboxRepo *outbox.Repository,
	logger *slog.Logger,
	grid availability.Grid,
	loc *time.Location,
) *BookingHandler {
	return &BookingHandler{
		appts:   appts,
		catalog: catalog,
		outbox:  outboxRepo,
		logger:  logger,
		grid:    grid,
		loc:     loc,
	}
}

type createAppointmentRequest struct {
	ServiceID string `json:"serviceId"`
	StylistID string `json:"stylistId"`
	Date      string `json:"date"` // RFC 3339 instant
	Notes     string `json:"notes"`
}

type updateAppointmentRequest struct {
	ServiceID *string `json:"serviceId"`
	StylistID *string `json:"stylistId"`
	Date      *string `json:"date"`
	Notes     *string `json:"notes"`
	Status    *string `json:"status"`
}

type serviceItem struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration"`
	PriceCents      int64  `json:"priceCents"`
}

type appointmentItem struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	StylistID   string      `json:"stylistId,omitempty"`
	StylistName string      `json:"stylistName,omitempty"`
	ServiceID   string      `json:"serviceId"`
	Date        string      `json:"date"`
	Status      string      `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	Service     serviceItem `json:"service"`
	CreatedAt   string      `json:"createdAt"`
	UpdatedAt   string      `json:"updatedAt"`
}

type conflictResponse struct {
	Error                      string `json:"error"`
	ConflictingStart           string `json:"conflictingStart"`
	ConflictingDurationMinutes int    `json:"conflictingDurationMinutes"`
}

// Collection handles GET (list own appointments) and POST (book) on
// /api/v1/appointments.
func (h *BookingHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Item handles GET/PATCH/DELETE on /api/v1/appointments/{id}.
func (h *BookingHandler) Item(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/appointments/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPatch:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.StylistID = strings.TrimSpace(req.StylistID)
	req.Notes = strings.TrimSpace(req.Notes)
	if req.ServiceID == "" || req.Date == "" {
		http.Error(w, "serviceId and date are required", http.StatusBadRequest)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		http.Error(w, "invalid date", http.StatusBadRequest)
		return
	}
	start = start.In(h.loc)

	ctx := r.Context()
	svc, err := h.catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	if svc.DurationMinutes <= 0 {
		http.Error(w, "service has no valid duration", http.StatusUnprocessableEntity)
		return
	}

	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Conflict-check only assigned bookings. The check runs against rows read
	// inside this transaction, after the per-stylist lock, so two concurrent
	// requests for the same stylist serialize and the loser sees the winner's
	// row. Unassigned bookings skip the guard entirely.
	if req.StylistID != "" {
		candidate := availability.Appointment{
			StylistID:       req.StylistID,
			Start:           start,
			DurationMinutes: svc.DurationMinutes,
			Status:          availability.StatusPending,
		}
		conflict, err := h.guardTx(ctx, tx, candidate)
		if err != nil {
			http.Error(w, "failed to check availability", http.StatusInternalServerError)
			return
		}
		if conflict != nil {
			h.writeConflict(w, conflict)
			return
		}
	}

	appt := &model.Appointment{
		UserID:    claims.Sub,
		StylistID: req.StylistID,
		ServiceID: req.ServiceID,
		StartTime: start,
		Status:    string(availability.StatusPending),
		Notes:     req.Notes,
	}
	id, err := h.appts.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "unknown stylist or service", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}
	appt.ID = id

	if err := h.emitAppointmentEvent(ctx, tx, outbox.EventAppointmentCreated, appt, svc.DurationMinutes); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	created, err := h.appts.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("created appointment read-back failed", "err", err, "appointment_id", id)
		w.WriteHeader(http.StatusCreated)
		return
	}
	writeJSON(w, http.StatusCreated, h.appointmentItem(created))
}

func (h *BookingHandler) list(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	appts, err := h.appts.ListByUser(r.Context(), claims.Sub)
	if err != nil {
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, a := range appts {
		items = append(items, h.appointmentItem(a))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	appt, err := h.appts.GetByID(r.Context(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	if appt.UserID != claims.Sub && !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, h.appointmentItem(appt))
}

func (h *BookingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req updateAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.appts.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.appts.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	if appt.UserID != claims.Sub && !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	previousStatus := availability.Status(appt.Status)
	rescheduled := false

	if req.ServiceID != nil && strings.TrimSpace(*req.ServiceID) != appt.ServiceID {
		appt.ServiceID = strings.TrimSpace(*req.ServiceID)
		rescheduled = true
	}
	if req.StylistID != nil && strings.TrimSpace(*req.StylistID) != appt.StylistID {
		appt.StylistID = strings.TrimSpace(*req.StylistID)
		rescheduled = true
	}
	if req.Date != nil {
		start, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		start = start.In(h.loc)
		if !start.Equal(appt.StartTime) {
			appt.StartTime = start
			rescheduled = true
		}
	}
	if req.Notes != nil {
		appt.Notes = strings.TrimSpace(*req.Notes)
	}
	if req.Status != nil {
		next := availability.Status(strings.TrimSpace(*req.Status))
		if !availability.ValidStatus(next) {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		if !transitionAllowed(previousStatus, next) {
			http.Error(w, "status transition not allowed", http.StatusConflict)
			return
		}
		appt.Status = string(next)
	}

	svc, err := h.catalog.GetService(ctx, appt.ServiceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	if svc.DurationMinutes <= 0 {
		http.Error(w, "service has no valid duration", http.StatusUnprocessableEntity)
		return
	}

	// A reschedule is a fresh booking as far as conflicts are concerned, minus
	// this appointment's own row.
	status := availability.Status(appt.Status)
	if rescheduled && appt.StylistID != "" && status.Blocks() {
		candidate := availability.Appointment{
			ID:              appt.ID,
			StylistID:       appt.StylistID,
			Start:           appt.StartTime,
			DurationMinutes: svc.DurationMinutes,
			Status:          status,
		}
		conflict, err := h.guardTx(ctx, tx, candidate)
		if err != nil {
			http.Error(w, "failed to check availability", http.StatusInternalServerError)
			return
		}
		if conflict != nil {
			h.writeConflict(w, conflict)
			return
		}
	}

	if err := h.appts.Update(ctx, tx, &appt); err != nil {
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "unknown stylist or service", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	newStatus := availability.Status(appt.Status)
	if newStatus != previousStatus {
		eventType := ""
		switch newStatus {
		case availability.StatusConfirmed:
			eventType = outbox.EventAppointmentConfirmed
		case availability.StatusCancelled:
			eventType = outbox.EventAppointmentCancelled
		}
		if eventType != "" {
			if err := h.emitAppointmentEvent(ctx, tx, eventType, &appt, svc.DurationMinutes); err != nil {
				http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	updated, err := h.appts.GetByID(ctx, id)
	if err != nil {
		h.logger.Error("updated appointment read-back failed", "err", err, "appointment_id", id)
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, h.appointmentItem(updated))
}

func (h *BookingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ctx := r.Context()
	appt, err := h.appts.GetByID(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	if appt.UserID != claims.Sub && !claims.IsAdmin() {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.appts.Delete(ctx, id); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "appointment deleted"})
}

// guardTx takes the per-stylist lock, reads the stylist's live non-cancelled
// appointments around the candidate, and runs the conflict check against that
// write-time state.
func (h *BookingHandler) guardTx(ctx context.Context, tx pgx.Tx, candidate availability.Appointment) (*availability.Conflict, error) {
	if err := h.appts.LockStylist(ctx, tx, candidate.StylistID); err != nil {
		return nil, err
	}
	from := candidate.Start.AddDate(0, 0, -1)
	to := candidate.Start.AddDate(0, 0, 1)
	existing, err := h.appts.ListActiveForStylistTx(ctx, tx, candidate.StylistID, from, to)
	if err != nil {
		return nil, err
	}
	return availability.CheckBooking(candidate, h.snapshot(existing)), nil
}

func (h *BookingHandler) emitAppointmentEvent(ctx context.Context, tx pgx.Tx, eventType string, appt *model.Appointment, durationMinutes int) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":   appt.ID,
		"user_id":          appt.UserID,
		"stylist_id":       appt.StylistID,
		"service_id":       appt.ServiceID,
		"start_time":       appt.StartTime.UTC().Format(time.RFC3339),
		"duration_minutes": durationMinutes,
		"status":           appt.Status,
	})
	if err != nil {
		return err
	}
	return h.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appt.ID,
		EventType:     eventType,
		Payload:       payload,
	})
}

func (h *BookingHandler) snapshot(appts []model.Appointment) []availability.Appointment {
	out := make([]availability.Appointment, 0, len(appts))
	for _, a := range appts {
		out = append(out, availability.Appointment{
			ID:              a.ID,
			StylistID:       a.StylistID,
			Start:           a.StartTime.In(h.loc),
			DurationMinutes: a.ServiceDurationMinutes,
			Status:          availability.Status(a.Status),
		})
	}
	return out
}

func (h *BookingHandler) appointmentItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		ID:          a.ID,
		UserID:      a.UserID,
		StylistID:   a.StylistID,
		StylistName: a.StylistName,
		ServiceID:   a.ServiceID,
		Date:        a.StartTime.UTC().Format(time.RFC3339),
		Status:      a.Status,
		Notes:       a.Notes,
		Service: serviceItem{
			ID:              a.ServiceID,
			Name:            a.ServiceName,
			DurationMinutes: a.ServiceDurationMinutes,
			PriceCents:      a.ServicePriceCents,
		},
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BookingHandler) writeConflict(w http.ResponseWriter, conflict *availability.Conflict) {
	writeJSON(w, http.StatusConflict, conflictResponse{
		Error:                      "this time slot is no longer available",
		ConflictingStart:           conflict.Start.UTC().Format(time.RFC3339),
		ConflictingDurationMinutes: conflict.DurationMinutes,
	})
}

// transitionAllowed encodes the appointment lifecycle: bookings start PENDING,
// can be confirmed or cancelled, and any active appointment can complete.
// Cancelled and completed are terminal.
func transitionAllowed(from, to availability.Status) bool {
	if from == to {
		return true
	}
	switch from {
	case availability.StatusPending:
		return to == availability.StatusConfirmed || to == availability.StatusCancelled || to == availability.StatusCompleted
	case availability.StatusConfirmed:
		return to == availability.StatusCancelled || to == availability.StatusCompleted
	default:
		return false
	}
}
