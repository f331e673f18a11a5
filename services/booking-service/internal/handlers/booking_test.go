package handlers

import (
	"testing"
	"time"

	"github.com/rmedina-dev/salonbook/services/booking-service/internal/availability"
)

func TestTransitionAllowed(t *testing.T) {
	cases := []struct {
		from, to availability.Status
		want     bool
	}{
		{availability.StatusPending, availability.StatusConfirmed, true},
		{availability.StatusPending, availability.StatusCancelled, true},
		{availability.StatusPending, availability.StatusCompleted, true},
		{availability.StatusConfirmed, availability.StatusCancelled, true},
		{availability.StatusConfirmed, availability.StatusCompleted, true},
		{availability.StatusConfirmed, availability.StatusPending, false},
		{availability.StatusCancelled, availability.StatusPending, false},
		{availability.StatusCancelled, availability.StatusConfirmed, false},
		{availability.StatusCompleted, availability.StatusCancelled, false},
		{availability.StatusPending, availability.StatusPending, true},
	}
	for _, tc := range cases {
		if got := transitionAllowed(tc.from, tc.to); got != tc.want {
			t.Errorf("transitionAllowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestFormatSlotsUsesSalonClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	h := &BookingHandler{loc: loc}

	// 14:00 UTC in summer is 10:00 in New York.
	utc := time.Date(2026, 7, 10, 14, 0, 0, 0, time.UTC)
	got := h.formatSlots([]time.Time{utc})
	if len(got) != 1 || got[0] != "10:00" {
		t.Fatalf("formatSlots = %v, want [10:00]", got)
	}

	if got := h.formatSlots(nil); got == nil || len(got) != 0 {
		t.Fatalf("formatSlots(nil) = %v, want empty non-nil slice", got)
	}
}
