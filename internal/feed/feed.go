// Package feed defines the common shape every vehicle position source
// (GTFS-RT polling, SSE streaming) normalizes its updates into, and the
// Source interface the orchestrator drives them through.
package feed

import (
	"context"
	"time"
)

// Carriage mirrors one entry of a vehicle's multi_carriage_details, kept as
// a struct internally; pipe-joining happens only at the writer boundary.
type Carriage struct {
	ID                  string
	Label               string
	OccupancyStatus     string
	OccupancyPercentage *int
}

// VehicleUpdate is the ingress-normalized shape every feed source produces,
// regardless of whether it came from GTFS-RT polling or an SSE stream.
type VehicleUpdate struct {
	TripID              string
	RouteID             string
	DirectionID         string
	StopID              string // empty if not reported
	CurrentStatus       string // INCOMING_AT | STOPPED_AT | IN_TRANSIT_TO
	CurrentStopSequence int
	VehicleID           string
	VehicleLabel        string
	UpdatedAt           time.Time
	OccupancyStatus     string
	OccupancyPercentage *int
	Carriages           []Carriage
}

// Source is a vehicle position feed the orchestrator can poll or stream
// from. Implementations (GTFS-RT polling, SSE) reconnect internally;
// Updates only closes its channel when ctx is canceled.
type Source interface {
	Updates(ctx context.Context) <-chan VehicleUpdate
	Close() error
}
