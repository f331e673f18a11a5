package availability

import (
	"testing"
	"time"
)

func TestCheckBookingConflict(t *testing.T) {
	d := day(t)
	// Existing confirmed appointment occupies 10:00-11:00.
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}

	// 09:45 + 30 min ends 10:15; 10:00 < 10:15 and 09:45 < 11:00, so it collides.
	candidate := Appointment{StylistID: "s", Start: d.Add(9*time.Hour + 45*time.Minute), DurationMinutes: 30, Status: StatusPending}
	conflict := CheckBooking(candidate, existing)
	if conflict == nil {
		t.Fatal("expected conflict for 09:45 booking against 10:00-11:00")
	}
	if conflict.AppointmentID != "a1" {
		t.Fatalf("expected conflict with a1, got %s", conflict.AppointmentID)
	}
	if !conflict.Start.Equal(d.Add(10*time.Hour)) || conflict.DurationMinutes != 60 {
		t.Fatalf("conflict details wrong: start=%s duration=%d", conflict.Start, conflict.DurationMinutes)
	}
}

func TestCheckBookingTouchingSlotsAllowed(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}

	// Ends exactly when the existing one starts.
	before := Appointment{StylistID: "s", Start: d.Add(9*time.Hour + 30*time.Minute), DurationMinutes: 30}
	if c := CheckBooking(before, existing); c != nil {
		t.Fatalf("expected no conflict for booking ending at 10:00, got %+v", c)
	}
	// Starts exactly when the existing one ends.
	after := Appointment{StylistID: "s", Start: d.Add(11 * time.Hour), DurationMinutes: 30}
	if c := CheckBooking(after, existing); c != nil {
		t.Fatalf("expected no conflict for booking starting at 11:00, got %+v", c)
	}
}

func TestCheckBookingUsesEachAppointmentsOwnDuration(t *testing.T) {
	d := day(t)
	// A short existing service: 10:00-10:15.
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 15, Status: StatusPending},
	}

	// A long candidate starting 09:30 runs until 10:30 and collides.
	long := Appointment{StylistID: "s", Start: d.Add(9*time.Hour + 30*time.Minute), DurationMinutes: 60}
	if CheckBooking(long, existing) == nil {
		t.Fatal("expected conflict: candidate interval reaches into 10:00-10:15")
	}
	// A candidate at 10:15 clears the short appointment.
	at1015 := Appointment{StylistID: "s", Start: d.Add(10*time.Hour + 15*time.Minute), DurationMinutes: 60}
	if c := CheckBooking(at1015, existing); c != nil {
		t.Fatalf("expected no conflict at 10:15, got %+v", c)
	}
}

func TestCheckBookingIgnoresCancelledAndOtherStylists(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "cancelled", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusCancelled},
		{ID: "other", StylistID: "t", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}
	candidate := Appointment{StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60}
	if c := CheckBooking(candidate, existing); c != nil {
		t.Fatalf("expected no conflict, got %+v", c)
	}
}

func TestCheckBookingUnassignedStylistIsNoOp(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}
	candidate := Appointment{StylistID: "", Start: d.Add(10 * time.Hour), DurationMinutes: 60}
	if c := CheckBooking(candidate, existing); c != nil {
		t.Fatalf("unassigned bookings are not conflict-checked, got %+v", c)
	}
}

func TestCheckBookingSkipsItselfOnReschedule(t *testing.T) {
	d := day(t)
	existing := []Appointment{
		{ID: "a1", StylistID: "s", Start: d.Add(10 * time.Hour), DurationMinutes: 60, Status: StatusConfirmed},
	}
	// Rescheduling a1 half an hour later still overlaps its old slot; that must
	// not count as a conflict with itself.
	moved := Appointment{ID: "a1", StylistID: "s", Start: d.Add(10*time.Hour + 30*time.Minute), DurationMinutes: 60}
	if c := CheckBooking(moved, existing); c != nil {
		t.Fatalf("expected reschedule to skip its own row, got %+v", c)
	}
}
