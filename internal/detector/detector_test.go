package detector

import (
	"testing"
	"time"

	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/tripstate"
)

func at(hm string) time.Time {
	t, _ := time.Parse("15:04:05", hm)
	return t
}

func TestDepartureDetected(t *testing.T) {
	prev := tripstate.TripState{StopID: "70001", StopSequence: 1, EventType: EventTypeArrival, UpdatedAt: at("10:29:00")}
	upd := feed.VehicleUpdate{
		TripID: "trip_123", RouteID: "Red", StopID: "70002", CurrentStopSequence: 2,
		CurrentStatus: "IN_TRANSIT_TO", UpdatedAt: at("10:30:00"),
	}

	ev, next := Detect(prev, true, upd, time.Time{})
	if ev == nil {
		t.Fatal("expected a departure event")
	}
	if ev.EventType != EventTypeDeparture {
		t.Errorf("EventType = %q, want DEP", ev.EventType)
	}
	if ev.StopID != "70001" {
		t.Errorf("departure StopID = %q, want prior stop 70001", ev.StopID)
	}
	if next.StopID != "70002" {
		t.Errorf("next.StopID = %q, want 70002", next.StopID)
	}
}

func TestArrivalAfterDeparture(t *testing.T) {
	prev := tripstate.TripState{StopID: "70002", StopSequence: 2, EventType: EventTypeDeparture, UpdatedAt: at("10:29:30")}
	upd := feed.VehicleUpdate{
		TripID: "trip_123", RouteID: "Red", StopID: "70002", CurrentStopSequence: 2,
		CurrentStatus: "STOPPED_AT", UpdatedAt: at("10:30:00"),
	}

	ev, _ := Detect(prev, true, upd, time.Time{})
	if ev == nil {
		t.Fatal("expected an arrival event")
	}
	if ev.EventType != EventTypeArrival {
		t.Errorf("EventType = %q, want ARR", ev.EventType)
	}
	if ev.StopID != "70002" {
		t.Errorf("StopID = %q, want 70002", ev.StopID)
	}
}

func TestNoEventSameStopAndSequence(t *testing.T) {
	prev := tripstate.TripState{StopID: "70002", StopSequence: 2, EventType: EventTypeArrival, UpdatedAt: at("10:29:00")}
	upd := feed.VehicleUpdate{
		TripID: "trip_123", StopID: "70002", CurrentStopSequence: 2,
		CurrentStatus: "STOPPED_AT", UpdatedAt: at("10:29:45"),
	}

	ev, _ := Detect(prev, true, upd, time.Time{})
	if ev != nil {
		t.Errorf("expected no event, got %+v", ev)
	}
}

func TestMissingStopIDProducesNoEvent(t *testing.T) {
	prev := tripstate.TripState{StopID: "70002", StopSequence: 2, UpdatedAt: at("10:29:00")}
	upd := feed.VehicleUpdate{TripID: "trip_123", StopID: "", CurrentStopSequence: 3, UpdatedAt: at("10:30:00")}

	ev, next := Detect(prev, true, upd, time.Time{})
	if ev != nil {
		t.Errorf("expected no event for a missing stop_id, got %+v", ev)
	}
	if next.StopID != "" {
		t.Errorf("next.StopID = %q, want empty", next.StopID)
	}
}

func TestIdenticalTimestampSuppressed(t *testing.T) {
	ts := at("10:30:00")
	prev := tripstate.TripState{StopID: "70001", StopSequence: 1, EventType: EventTypeArrival, UpdatedAt: ts}
	upd := feed.VehicleUpdate{
		TripID: "trip_123", StopID: "70002", CurrentStopSequence: 2,
		CurrentStatus: "IN_TRANSIT_TO", UpdatedAt: ts,
	}

	ev, _ := Detect(prev, true, upd, time.Time{})
	if ev != nil {
		t.Errorf("expected no event for an identical-timestamp update, got %+v", ev)
	}
}

func TestFirstObservationProducesNoEvent(t *testing.T) {
	upd := feed.VehicleUpdate{
		TripID: "trip_new", RouteID: "Red", StopID: "70001", CurrentStopSequence: 1,
		CurrentStatus: "STOPPED_AT", UpdatedAt: at("10:30:00"),
	}

	ev, next := Detect(tripstate.TripState{}, false, upd, time.Time{})
	if ev != nil {
		t.Errorf("expected no event on first observation, got %+v", ev)
	}
	if next.FirstStopID != "70001" {
		t.Errorf("FirstStopID = %q, want 70001", next.FirstStopID)
	}
}
