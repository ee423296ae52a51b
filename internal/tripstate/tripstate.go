// Package tripstate tracks the most recent known state of every trip on a
// route, used by the event detector to tell whether a new update represents
// an arrival, a departure, or neither.
package tripstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/scheduledate"
)

// MaxTripAge is how long a trip can go unseen before it's considered
// stale and evicted.
const MaxTripAge = 5 * time.Hour

// TripState holds the current state of a single trip.
type TripState struct {
	StopSequence int             `json:"stop_sequence"`
	StopID       string          `json:"stop_id"`
	UpdatedAt    time.Time       `json:"updated_at"`
	EventType    string          `json:"event_type"`
	Consist      []feed.Carriage `json:"vehicle_consist"`

	// First-seen fields, set once when the trip is first observed and
	// held stable afterward; used by the enrichment engine to resolve
	// which scheduled trip this actual trip corresponds to.
	FirstRouteID     string        `json:"first_route_id"`
	FirstDirectionID string        `json:"first_direction_id"`
	FirstStopID      string        `json:"first_stop_id"`
	FirstArrival     time.Duration `json:"first_arrival_offset_ns"`
}

type tripStateFile struct {
	ServiceDate string               `json:"service_date"`
	TripStates  map[string]TripState `json:"trip_states"`
}

// RouteTripsState manages trip state for all trips on a single route,
// persisted to one JSON file per route.
type RouteTripsState struct {
	RouteID     string
	ServiceDate time.Time
	Trips       map[string]TripState

	dataRoot string
}

func tripStateFilePath(dataRoot, routeID string) string {
	return filepath.Join(dataRoot, "trip_states", routeID+".json")
}

// NewRouteTripsState loads persisted state for a route from dataRoot, or
// starts fresh at the current service date if nothing is on disk or the
// file is corrupt.
func NewRouteTripsState(dataRoot, routeID string) *RouteTripsState {
	r := &RouteTripsState{RouteID: routeID, dataRoot: dataRoot}

	if loaded, ok := readTripsStateFile(dataRoot, routeID); ok {
		r.Trips = loaded.TripStates
		if d, err := time.ParseInLocation("2006-01-02", loaded.ServiceDate, scheduledate.DefaultLocation); err == nil {
			r.ServiceDate = d
		} else {
			r.ServiceDate = scheduledate.CurrentServiceDate()
		}
		r.cleanupTripStates()
		return r
	}

	r.Trips = make(map[string]TripState)
	r.ServiceDate = scheduledate.CurrentServiceDate()
	return r
}

func readTripsStateFile(dataRoot, routeID string) (tripStateFile, bool) {
	data, err := os.ReadFile(tripStateFilePath(dataRoot, routeID))
	if err != nil {
		return tripStateFile{}, false
	}
	var file tripStateFile
	if err := json.Unmarshal(data, &file); err != nil {
		return tripStateFile{}, false
	}
	return file, true
}

func writeTripsStateFile(dataRoot, routeID string, r *RouteTripsState) error {
	dir := filepath.Join(dataRoot, "trip_states")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tripstate: creating trip_states dir: %w", err)
	}

	file := tripStateFile{
		ServiceDate: r.ServiceDate.Format("2006-01-02"),
		TripStates:  r.Trips,
	}
	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("tripstate: marshaling trip state: %w", err)
	}

	path := tripStateFilePath(dataRoot, routeID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("tripstate: writing trip state: %w", err)
	}
	return os.Rename(tmp, path)
}

// SetTripState cleans up stale and overnight-expired trips, then inserts
// the new state and persists the route's trip state file. Cleanup always
// runs before the insert so the newly-set trip is never evicted by its own
// update.
func (r *RouteTripsState) SetTripState(tripID string, state TripState) error {
	r.cleanupTripStates()

	if existing, ok := r.Trips[tripID]; ok {
		state.FirstRouteID = existing.FirstRouteID
		state.FirstDirectionID = existing.FirstDirectionID
		state.FirstStopID = existing.FirstStopID
		state.FirstArrival = existing.FirstArrival
	}

	r.Trips[tripID] = state
	return writeTripsStateFile(r.dataRoot, r.RouteID, r)
}

// GetTripState returns the current state of a trip, or false if it isn't
// tracked. It never triggers cleanup — eviction only ever happens from the
// setter path.
func (r *RouteTripsState) GetTripState(tripID string) (TripState, bool) {
	state, ok := r.Trips[tripID]
	return state, ok
}

func (r *RouteTripsState) cleanupTripStates() {
	r.cleanupStaleTripStates()
	r.purgeIfOvernight()
}

func (r *RouteTripsState) cleanupStaleTripStates() {
	cutoff := time.Now().Add(-MaxTripAge)
	for tripID, state := range r.Trips {
		if state.UpdatedAt.Before(cutoff) {
			delete(r.Trips, tripID)
		}
	}
}

func (r *RouteTripsState) purgeIfOvernight() {
	current := scheduledate.CurrentServiceDate()
	if r.ServiceDate.Before(current) {
		r.ServiceDate = current
		r.Trips = make(map[string]TripState)
	}
}

// Manager owns one RouteTripsState per route, created lazily. A Manager is
// meant to be owned by a single worker goroutine — it isn't safe for
// concurrent use from multiple goroutines, matching the thread-affine
// design of trip state in this system.
type Manager struct {
	dataRoot string
	routes   map[string]*RouteTripsState
	mu       sync.Mutex
}

// NewManager creates a Manager rooted at dataRoot.
func NewManager(dataRoot string) *Manager {
	return &Manager{dataRoot: dataRoot, routes: make(map[string]*RouteTripsState)}
}

func (m *Manager) routeState(routeID string) *RouteTripsState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.routes[routeID]; ok {
		return r
	}
	r := NewRouteTripsState(m.dataRoot, routeID)
	m.routes[routeID] = r
	return r
}

// SetTripState stores the state of a trip on a route.
func (m *Manager) SetTripState(routeID, tripID string, state TripState) error {
	return m.routeState(routeID).SetTripState(tripID, state)
}

// GetTripState returns the state of a trip on a route, or false if unknown.
func (m *Manager) GetTripState(routeID, tripID string) (TripState, bool) {
	return m.routeState(routeID).GetTripState(tripID)
}
