package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rmedina-dev/salonbook/services/booking-service/internal/availability"
	"github.com/rmedina-dev/salonbook/services/booking-service/internal/storage"
)

type availabilityResponse struct {
	AvailableTimeSlots   []string `json:"availableTimeSlots"`
	UnavailableTimeSlots []string `json:"unavailableTimeSlots"`
}

// Availability handles GET /api/v1/appointments/availability.
// It answers "which slots can I book for this stylist, on this day, for this
// service" from the same read-time view clients render the booking grid from.
func (h *BookingHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	stylistID := q.Get("stylistId")
	dateStr := q.Get("date")
	serviceID := q.Get("serviceId")
	if stylistID == "" || dateStr == "" || serviceID == "" {
		http.Error(w, "stylistId, date and serviceId are required", http.StatusBadRequest)
		return
	}

	day, err := time.ParseInLocation("2006-01-02", dateStr, h.loc)
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	svc, err := h.catalog.GetService(ctx, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}

	dayEnd := day.AddDate(0, 0, 1)
	appts, err := h.appts.ListForStylist(ctx, stylistID, day, dayEnd,
		[]string{string(availability.StatusCancelled)})
	if err != nil {
		http.Error(w, "failed to load appointments", http.StatusInternalServerError)
		return
	}

	result, err := availability.Resolve(stylistID, day, svc.DurationMinutes, h.snapshot(appts), h.grid)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidService) {
			http.Error(w, "service has no valid duration", http.StatusUnprocessableEntity)
			return
		}
		http.Error(w, "failed to resolve availability", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		AvailableTimeSlots:   h.formatSlots(result.Available),
		UnavailableTimeSlots: h.formatSlots(result.Unavailable),
	})
}

func (h *BookingHandler) formatSlots(slots []time.Time) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.In(h.loc).Format("15:04"))
	}
	return out
}
