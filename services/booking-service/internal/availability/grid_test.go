package availability

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultGridSlots(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	slots, err := DefaultGrid().Slots(day)
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}
	// 09:00 through 17:30, every 30 minutes: 18 slots, close-exclusive.
	if len(slots) != 18 {
		t.Fatalf("expected 18 slots, got %d", len(slots))
	}
	if !slots[0].Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0])
	}
	if !slots[len(slots)-1].Equal(day.Add(17*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected last slot 17:30, got %s", slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].After(slots[i-1]) {
			t.Fatalf("slots out of order at index %d", i)
		}
	}
}

func TestGridDeterminism(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	grid := Grid{Open: "10:00", Close: "16:00", StepMinutes: 45}

	first, err := grid.Slots(day)
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}
	second, err := grid.Slots(day)
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("slot %d differs: %s vs %s", i, first[i], second[i])
		}
	}
}

func TestGridInvalidConfig(t *testing.T) {
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	bad := []Grid{
		{Open: "18:00", Close: "09:00", StepMinutes: 30}, // close before open
		{Open: "09:00", Close: "09:00", StepMinutes: 30}, // close == open
		{Open: "09:00", Close: "18:00", StepMinutes: 0},
		{Open: "09:00", Close: "18:00", StepMinutes: -15},
		{Open: "nine", Close: "18:00", StepMinutes: 30},
		{Open: "09:00", Close: "25:00", StepMinutes: 30},
	}
	for _, g := range bad {
		if _, err := g.Slots(day); !errors.Is(err, ErrInvalidGridConfig) {
			t.Fatalf("grid %+v: expected ErrInvalidGridConfig, got %v", g, err)
		}
	}
}

func TestGridRespectsLocation(t *testing.T) {
	loc := time.FixedZone("salon", -6*60*60)
	day := time.Date(2026, 3, 12, 0, 0, 0, 0, loc)
	slots, err := DefaultGrid().Slots(day)
	if err != nil {
		t.Fatalf("Slots failed: %v", err)
	}
	want := time.Date(2026, 3, 12, 9, 0, 0, 0, loc)
	if !slots[0].Equal(want) {
		t.Fatalf("expected first slot %s, got %s", want, slots[0])
	}
}
