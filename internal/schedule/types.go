// Package schedule maintains the GTFS static schedule archive used to
// enrich live vehicle events with scheduled headway and travel-time data.
package schedule

import "time"

// Trip is one row of trips.txt, trimmed to the columns enrichment needs.
type Trip struct {
	RouteID     string
	ServiceID   string
	TripID      string
	DirectionID string
}

// StopTime is one row of stop_times.txt, trimmed similarly.
type StopTime struct {
	TripID        string
	StopID        string
	StopSequence  int
	ArrivalTime   time.Duration // offset from service-date midnight
	DepartureTime time.Duration
}

// Stop is one row of stops.txt.
type Stop struct {
	StopID   string
	StopName string
}

// scheduleRow is one precomputed, sorted row used by the enrichment engine's
// as-of joins: a stop_time annotated with its owning trip's route/direction.
type scheduleRow struct {
	RouteID       string
	DirectionID   string
	StopID        string
	TripID        string
	ArrivalTime   time.Duration
	ScheduledTT   time.Duration
	TripStartTime time.Duration
}
