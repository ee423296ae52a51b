// Package enrich attaches scheduled headway and scheduled travel-time to a
// detected event by joining it against the static schedule archive.
package enrich

import (
	"github.com/transit-ingest/gobble/internal/detector"
	"github.com/transit-ingest/gobble/internal/schedule"
	"github.com/transit-ingest/gobble/internal/tripstate"
)

// Enrich augments ev in place with ScheduledHeadway and ScheduledTT, using
// archive as the source of scheduled stop times. firstStop is the trip's
// first-observed (route, direction, stop, arrival offset), carried on the
// trip's persisted state, used to resolve which scheduled trip this actual
// trip corresponds to. If no match exists on either join, the
// corresponding field is left nil.
func Enrich(ev *detector.Event, archive *schedule.Archive, firstStop tripstate.TripState) {
	if archive == nil {
		return
	}

	arrivalOffset := ev.EventTime.Sub(ev.ServiceDate)

	if headway, ok := archive.ScheduledHeadway(ev.RouteID, ev.DirectionID, ev.StopID, arrivalOffset); ok {
		ev.ScheduledHeadway = &headway
	}

	scheduledTripID, ok := archive.ResolveScheduledTrip(
		firstStop.FirstRouteID, firstStop.FirstDirectionID, firstStop.FirstStopID,
		ev.TripID, firstStop.FirstArrival,
	)
	if !ok {
		return
	}

	if tt, ok := archive.ScheduledTT(ev.RouteID, ev.DirectionID, ev.StopID, scheduledTripID); ok {
		ev.ScheduledTT = &tt
	}
}
