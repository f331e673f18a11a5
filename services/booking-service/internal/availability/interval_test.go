package availability

import (
	"testing"
	"time"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 12, hour, min, 0, 0, time.UTC)
}

func TestOverlapsSymmetry(t *testing.T) {
	pairs := []struct {
		a, b Interval
	}{
		{Interval{at(t, 10, 0), 60}, Interval{at(t, 10, 30), 30}},
		{Interval{at(t, 9, 0), 30}, Interval{at(t, 9, 15), 30}},
		{Interval{at(t, 9, 0), 30}, Interval{at(t, 9, 30), 30}},
		{Interval{at(t, 9, 0), 30}, Interval{at(t, 14, 0), 30}},
		{Interval{at(t, 9, 0), 120}, Interval{at(t, 9, 30), 15}},
	}
	for _, p := range pairs {
		if Overlaps(p.a, p.b) != Overlaps(p.b, p.a) {
			t.Fatalf("Overlaps not symmetric for %v / %v", p.a, p.b)
		}
	}
}

func TestOverlapsHalfOpen(t *testing.T) {
	ending := Interval{Start: at(t, 9, 0), DurationMinutes: 60} // [09:00, 10:00)
	starting := Interval{Start: at(t, 10, 0), DurationMinutes: 30}
	if Overlaps(ending, starting) {
		t.Fatal("intervals touching at 10:00 must not overlap")
	}
	if Overlaps(starting, ending) {
		t.Fatal("intervals touching at 10:00 must not overlap (reversed)")
	}

	oneMinIn := Interval{Start: at(t, 9, 59), DurationMinutes: 30}
	if !Overlaps(ending, oneMinIn) {
		t.Fatal("expected overlap for 09:59 start against [09:00,10:00)")
	}
}

func TestOverlapsContainment(t *testing.T) {
	outer := Interval{Start: at(t, 10, 0), DurationMinutes: 120}
	inner := Interval{Start: at(t, 10, 30), DurationMinutes: 15}
	if !Overlaps(outer, inner) || !Overlaps(inner, outer) {
		t.Fatal("contained interval must overlap its container")
	}
}

func TestIntervalEnd(t *testing.T) {
	iv := Interval{Start: at(t, 10, 0), DurationMinutes: 45}
	if !iv.End().Equal(at(t, 10, 45)) {
		t.Fatalf("expected end 10:45, got %s", iv.End())
	}
}

func TestStatusBlocks(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusCompleted} {
		if !s.Blocks() {
			t.Fatalf("status %s must block", s)
		}
	}
	if StatusCancelled.Blocks() {
		t.Fatal("cancelled appointments must not block")
	}
}
