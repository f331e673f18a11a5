package availability

import (
	"errors"
	"testing"
	"time"
)

func day(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
}

func contains(slots []time.Time, want time.Time) bool {
	for _, s := range slots {
		if s.Equal(want) {
			return true
		}
	}
	return false
}

func TestResolveBlocksOverlappingSlots(t *testing.T) {
	d := day(t)
	// Stylist S has a confirmed 60-minute appointment at 10:00 (occupies 10:00-11:00).
	existing := []Appointment{
		{ID: "a1", StylistID: "stylist-s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}

	res, err := Resolve("stylist-s", d, 30, existing, DefaultGrid())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	for _, want := range []time.Time{d.Add(10 * time.Hour), d.Add(10*time.Hour + 30*time.Minute)} {
		if !contains(res.Unavailable, want) {
			t.Fatalf("expected %s unavailable", want.Format("15:04"))
		}
	}
	for _, want := range []time.Time{d.Add(9*time.Hour + 30*time.Minute), d.Add(11 * time.Hour)} {
		if !contains(res.Available, want) {
			t.Fatalf("expected %s available", want.Format("15:04"))
		}
	}
}

func TestResolveUsesRequestedDurationForCandidates(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 30, Status: StatusPending},
	}

	// A 90-minute request starting 09:00 runs into the 10:00 appointment even
	// though 09:00 itself is free.
	res, err := Resolve("s", d, 90, existing, DefaultGrid())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !contains(res.Unavailable, d.Add(9*time.Hour)) {
		t.Fatal("expected 09:00 unavailable for a 90-minute request")
	}

	// The same slot is fine for a 30-minute request.
	res, err = Resolve("s", d, 30, existing, DefaultGrid())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !contains(res.Available, d.Add(9*time.Hour)) {
		t.Fatal("expected 09:00 available for a 30-minute request")
	}
}

func TestResolveIgnoresCancelledOtherStylistsAndOtherDays(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "cancelled", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusCancelled},
		{ID: "other-stylist", StylistID: "t", Start: d.Add(11 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
		{ID: "yesterday", StylistID: "s", Start: d.AddDate(0, 0, -1).Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
		{ID: "tomorrow", StylistID: "s", Start: d.AddDate(0, 0, 1).Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}

	res, err := Resolve("s", d, 30, existing, DefaultGrid())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(res.Unavailable) != 0 {
		t.Fatalf("expected every slot available, got %d unavailable", len(res.Unavailable))
	}
}

func TestResolvePartitionsGrid(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(9*time.Hour + 30*time.Minute), DurationMinutes: 90, Status: StatusConfirmed},
		{ID: "a2", StylistID: "s", Start: d.Add(14 * time.Hour), DurationMinutes: 30, Status: StatusPending},
	}
	grid := DefaultGrid()

	res, err := Resolve("s", d, 60, existing, grid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	slots, err := grid.Slots(d)
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}

	if len(res.Available)+len(res.Unavailable) != len(slots) {
		t.Fatalf("partition broken: %d + %d != %d", len(res.Available), len(res.Unavailable), len(slots))
	}
	seen := map[time.Time]bool{}
	for _, s := range append(append([]time.Time{}, res.Available...), res.Unavailable...) {
		if seen[s] {
			t.Fatalf("slot %s classified twice", s.Format("15:04"))
		}
		seen[s] = true
		if !contains(slots, s) {
			t.Fatalf("slot %s not in the generated grid", s.Format("15:04"))
		}
	}
	// Available keeps grid order.
	for i := 1; i < len(res.Available); i++ {
		if !res.Available[i].After(res.Available[i-1]) {
			t.Fatalf("available slots out of grid order at index %d", i)
		}
	}
}

func TestResolveInvalidService(t *testing.T) {
	if _, err := Resolve("s", day(t), 0, nil, DefaultGrid()); !errors.Is(err, ErrInvalidService) {
		t.Fatalf("expected ErrInvalidService, got %v", err)
	}
	if _, err := Resolve("s", day(t), -30, nil, DefaultGrid()); !errors.Is(err, ErrInvalidService) {
		t.Fatalf("expected ErrInvalidService, got %v", err)
	}
}

func TestResolveMalformedGridYieldsEmptyDay(t *testing.T) {
	res, err := Resolve("s", day(t), 30, nil, Grid{Open: "18:00", Close: "09:00", StepMinutes: 30})
	if err != nil {
		t.Fatalf("expected no error for malformed grid, got %v", err)
	}
	if len(res.Available) != 0 || len(res.Unavailable) != 0 {
		t.Fatalf("expected empty day, got %d/%d", len(res.Available), len(res.Unavailable))
	}
}
