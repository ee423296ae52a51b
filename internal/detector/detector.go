// Package detector turns a vehicle update plus the trip's previous state
// into an arrival/departure event, or nothing at all.
package detector

import (
	"time"

	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/tripstate"
)

const (
	EventTypeArrival   = "ARR"
	EventTypeDeparture = "DEP"
)

// Event is the egress record produced for one arrival or departure,
// before schedule enrichment.
type Event struct {
	ServiceDate         time.Time
	RouteID             string
	TripID              string
	DirectionID         string
	StopID              string
	StopSequence        int
	VehicleID           string
	VehicleLabel        string
	EventType           string
	EventTime           time.Time
	Carriages           []feed.Carriage
	OccupancyStatus     string
	OccupancyPercentage *int

	// Enrichment output, left zero-value until internal/enrich sets them.
	ScheduledHeadway *int
	ScheduledTT      *int
}

// Detect compares a new update against the trip's previously-known state
// and returns the event it produces (nil if none), plus the next state to
// persist for the trip. next is always returned — state advances whether
// or not an event fires.
func Detect(prev tripstate.TripState, hadPrev bool, upd feed.VehicleUpdate, serviceDate time.Time) (*Event, tripstate.TripState) {
	next := tripstate.TripState{
		StopSequence: upd.CurrentStopSequence,
		StopID:       upd.StopID,
		UpdatedAt:    upd.UpdatedAt,
		EventType:    eventHint(upd.CurrentStatus),
		Consist:      upd.Carriages,
	}
	if hadPrev {
		next.FirstRouteID = prev.FirstRouteID
		next.FirstDirectionID = prev.FirstDirectionID
		next.FirstStopID = prev.FirstStopID
		next.FirstArrival = prev.FirstArrival
	} else {
		next.FirstRouteID = upd.RouteID
		next.FirstDirectionID = upd.DirectionID
		next.FirstStopID = upd.StopID
		next.FirstArrival = upd.UpdatedAt.Sub(serviceDate)
	}

	if upd.StopID == "" {
		return nil, next
	}

	// An update with exactly the same timestamp as the last one carries
	// no new information; suppress it before running the ARR/DEP logic.
	if hadPrev && upd.UpdatedAt.Equal(prev.UpdatedAt) {
		return nil, next
	}

	if !hadPrev {
		prev = tripstate.TripState{StopID: upd.StopID, StopSequence: upd.CurrentStopSequence, EventType: next.EventType}
	}

	isDeparture := prev.StopID != upd.StopID && prev.StopSequence < upd.CurrentStopSequence
	isArrival := upd.CurrentStatus == "STOPPED_AT" && prev.EventType == EventTypeDeparture

	if !isDeparture && !isArrival {
		return nil, next
	}

	ev := &Event{
		ServiceDate:         serviceDate,
		RouteID:             upd.RouteID,
		TripID:              upd.TripID,
		DirectionID:         upd.DirectionID,
		StopID:              upd.StopID,
		StopSequence:        upd.CurrentStopSequence,
		VehicleID:           upd.VehicleID,
		VehicleLabel:        upd.VehicleLabel,
		EventTime:           upd.UpdatedAt,
		Carriages:           upd.Carriages,
		OccupancyStatus:     upd.OccupancyStatus,
		OccupancyPercentage: upd.OccupancyPercentage,
	}

	// A composite row (both departure and arrival conditions true at
	// once) reports as a departure: stop_id attribution follows the
	// prior stop, and event_type is DEP.
	if isDeparture {
		ev.StopID = prev.StopID
		ev.EventType = EventTypeDeparture
	} else {
		ev.EventType = EventTypeArrival
	}
	next.EventType = ev.EventType

	return ev, next
}

func eventHint(currentStatus string) string {
	switch currentStatus {
	case "IN_TRANSIT_TO":
		return EventTypeDeparture
	case "STOPPED_AT", "INCOMING_AT":
		return EventTypeArrival
	default:
		return EventTypeArrival
	}
}
