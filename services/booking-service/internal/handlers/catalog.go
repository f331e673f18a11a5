package handlers

import (
	"log/slog"
	"net/http"

	"github.com/rmedina-dev/salonbook/services/booking-service/internal/storage"
)

type CatalogHandler struct {
	catalog *storage.CatalogRepository
	logger  *slog.Logger
}

func NewCatalogHandler(catalog *storage.CatalogRepository, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

type stylistItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Image       string `json:"image,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Services handles GET /api/v1/services. The catalog is public so clients can
// browse before signing in.
func (h *CatalogHandler) Services(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	services, err := h.catalog.ListServices(r.Context())
	if err != nil {
		h.logger.Error("list services failed", "err", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}

	items := make([]serviceItem, 0, len(services))
	for _, s := range services {
		items = append(items, serviceItem{
			ID:              s.ID,
			Name:            s.Name,
			Description:     s.Description,
			DurationMinutes: s.DurationMinutes,
			PriceCents:      s.PriceCents,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// Stylists handles GET /api/v1/stylists.
func (h *CatalogHandler) Stylists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stylists, err := h.catalog.ListStylists(r.Context())
	if err != nil {
		h.logger.Error("list stylists failed", "err", err)
		http.Error(w, "failed to list stylists", http.StatusInternalServerError)
		return
	}

	items := make([]stylistItem, 0, len(stylists))
	for _, s := range stylists {
		items = append(items, stylistItem{
			ID:          s.ID,
			Name:        s.Name,
			Email:       s.Email,
			Image:       s.Image,
			PhoneNumber: s.PhoneNumber,
		})
	}
	writeJSON(w, http.StatusOK, items)
}
