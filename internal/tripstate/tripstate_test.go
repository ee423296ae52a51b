package tripstate

import (
	"testing"
	"time"
)

func TestSetAndGetTripState(t *testing.T) {
	dir := t.TempDir()
	r := NewRouteTripsState(dir, "Red")

	state := TripState{StopSequence: 3, StopID: "70061", UpdatedAt: time.Now(), EventType: "DEP"}
	if err := r.SetTripState("trip_123", state); err != nil {
		t.Fatalf("SetTripState() error = %v", err)
	}

	got, ok := r.GetTripState("trip_123")
	if !ok {
		t.Fatal("expected trip_123 to be tracked")
	}
	if got.StopID != "70061" || got.EventType != "DEP" {
		t.Errorf("GetTripState() = %+v, want stop_id=70061 event_type=DEP", got)
	}
}

func TestGetTripStateDoesNotEvict(t *testing.T) {
	dir := t.TempDir()
	r := NewRouteTripsState(dir, "Red")

	stale := TripState{StopSequence: 1, StopID: "70061", UpdatedAt: time.Now().Add(-6 * time.Hour)}
	r.Trips["stale-trip"] = stale

	// GetTripState must never trigger cleanup — eviction happens only
	// from the setter path.
	if _, ok := r.GetTripState("stale-trip"); !ok {
		t.Fatal("GetTripState should not have evicted the stale trip")
	}

	if err := r.SetTripState("other-trip", TripState{StopID: "70062", UpdatedAt: time.Now()}); err != nil {
		t.Fatalf("SetTripState() error = %v", err)
	}

	if _, ok := r.GetTripState("stale-trip"); ok {
		t.Error("stale trip should have been evicted by the following SetTripState call")
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := NewRouteTripsState(dir, "Red")

	state := TripState{StopSequence: 3, StopID: "70061", UpdatedAt: time.Now().Truncate(time.Second), EventType: "ARR"}
	if err := r.SetTripState("trip_123", state); err != nil {
		t.Fatalf("SetTripState() error = %v", err)
	}

	reloaded := NewRouteTripsState(dir, "Red")
	got, ok := reloaded.GetTripState("trip_123")
	if !ok {
		t.Fatal("expected trip_123 to survive a reload from disk")
	}
	if !got.UpdatedAt.Equal(state.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, state.UpdatedAt)
	}
}

func TestFirstStopFieldsAreStable(t *testing.T) {
	dir := t.TempDir()
	r := NewRouteTripsState(dir, "Red")

	first := TripState{
		StopID: "70061", UpdatedAt: time.Now(),
		FirstRouteID: "Red", FirstStopID: "70061", FirstArrival: 10 * time.Hour,
	}
	if err := r.SetTripState("trip_123", first); err != nil {
		t.Fatalf("SetTripState() error = %v", err)
	}

	second := TripState{StopID: "70063", UpdatedAt: time.Now(), FirstStopID: "wrong-should-be-ignored"}
	if err := r.SetTripState("trip_123", second); err != nil {
		t.Fatalf("SetTripState() error = %v", err)
	}

	got, _ := r.GetTripState("trip_123")
	if got.FirstStopID != "70061" {
		t.Errorf("FirstStopID = %q, want it to remain %q across updates", got.FirstStopID, "70061")
	}
}
