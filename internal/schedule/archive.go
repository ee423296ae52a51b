package schedule

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Archive is an immutable snapshot of the GTFS static schedule, filtered to
// the services active on one service date. It lazily builds and caches the
// per-route sorted row arrays the enrichment engine joins against, since
// most processes only ever touch a handful of routes.
type Archive struct {
	ServiceDate time.Time

	trips     []Trip
	stopTimes []StopTime
	stops     []Stop

	tripsByRoute     map[string][]Trip
	stopTimesByTrip  map[string][]StopTime
	tripByID         map[string]Trip

	mu               sync.Mutex
	rowsByKey        map[string][]scheduleRow  // "route|dir|stop" -> sorted rows
	scheduledTripIDs map[string]string         // actual trip_id -> scheduled trip_id, memoized
}

// NewArchive indexes trips and stop_times for fast per-route lookup.
// Both slices should already be filtered to the services active on
// serviceDate (see ActiveServices).
func NewArchive(trips []Trip, stopTimes []StopTime, stops []Stop, serviceDate time.Time) *Archive {
	a := &Archive{
		ServiceDate:      serviceDate,
		trips:            trips,
		stopTimes:        stopTimes,
		stops:            stops,
		tripsByRoute:     make(map[string][]Trip),
		stopTimesByTrip:  make(map[string][]StopTime),
		tripByID:         make(map[string]Trip, len(trips)),
		rowsByKey:        make(map[string][]scheduleRow),
		scheduledTripIDs: make(map[string]string),
	}

	for _, trip := range trips {
		a.tripsByRoute[trip.RouteID] = append(a.tripsByRoute[trip.RouteID], trip)
		a.tripByID[trip.TripID] = trip
	}
	for _, st := range stopTimes {
		a.stopTimesByTrip[st.TripID] = append(a.stopTimesByTrip[st.TripID], st)
	}

	return a
}

func rowKey(routeID, directionID, stopID string) string {
	return routeID + "|" + directionID + "|" + stopID
}

// rowsForRoute lazily builds and caches the sorted scheduleRow arrays for
// every (direction, stop) pair on a route, mirroring the "gtfs_stops"
// join-and-sort step of the original batch algorithm, but scoped to a
// single route. rows calls it whenever a (route, direction, stop) key is
// requested for the first time, so a route is rebuilt once per key that
// was not already cached.
func (a *Archive) rowsForRoute(routeID string) {
	byKey := make(map[string][]scheduleRow)

	for _, trip := range a.tripsByRoute[routeID] {
		stopTimes := a.stopTimesByTrip[trip.TripID]
		if len(stopTimes) == 0 {
			continue
		}

		tripStart := stopTimes[0].ArrivalTime
		for _, st := range stopTimes {
			if st.ArrivalTime < tripStart {
				tripStart = st.ArrivalTime
			}
		}

		for _, st := range stopTimes {
			key := rowKey(routeID, trip.DirectionID, st.StopID)
			byKey[key] = append(byKey[key], scheduleRow{
				RouteID:       routeID,
				DirectionID:   trip.DirectionID,
				StopID:        st.StopID,
				TripID:        trip.TripID,
				ArrivalTime:   st.ArrivalTime,
				ScheduledTT:   st.ArrivalTime - tripStart,
				TripStartTime: tripStart,
			})
		}
	}

	for key, rows := range byKey {
		sort.Slice(rows, func(i, j int) bool { return rows[i].ArrivalTime < rows[j].ArrivalTime })
		a.rowsByKey[key] = rows
	}
}

func (a *Archive) rows(routeID, directionID, stopID string) []scheduleRow {
	key := rowKey(routeID, directionID, stopID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.rowsByKey[key]; !ok {
		a.rowsForRoute(routeID)
		if a.rowsByKey[key] == nil {
			a.rowsByKey[key] = []scheduleRow{}
		}
	}
	return a.rowsByKey[key]
}

// ScheduledHeadway performs the backward as-of join: it finds the schedule
// row with the greatest arrival time at or before arrivalOffset, and returns
// the seconds since the row immediately before that one in the same
// (route, direction, stop) group. ok is false for the first scheduled stop
// of the day, or when there is no match at all.
func (a *Archive) ScheduledHeadway(routeID, directionID, stopID string, arrivalOffset time.Duration) (seconds int, ok bool) {
	rows := a.rows(routeID, directionID, stopID)
	if len(rows) == 0 {
		return 0, false
	}

	idx := sort.Search(len(rows), func(i int) bool { return rows[i].ArrivalTime > arrivalOffset })
	if idx == 0 {
		return 0, false
	}
	match := idx - 1
	if match == 0 {
		return 0, false
	}
	headway := rows[match].ArrivalTime - rows[match-1].ArrivalTime
	return int(headway.Seconds()), true
}

// ResolveScheduledTrip performs the nearest as-of join that maps an actual
// trip to the scheduled trip_id whose first scheduled stop on
// (route, direction, stop) is closest in time to firstArrivalOffset, the
// time the trip was first observed at that same stop. The result is
// memoized per actual trip_id for the lifetime of the archive.
func (a *Archive) ResolveScheduledTrip(routeID, directionID, stopID, tripID string, firstArrivalOffset time.Duration) (string, bool) {
	a.mu.Lock()
	if sched, ok := a.scheduledTripIDs[tripID]; ok {
		a.mu.Unlock()
		return sched, sched != ""
	}
	a.mu.Unlock()

	rows := a.rows(routeID, directionID, stopID)
	if len(rows) == 0 {
		a.memoizeScheduledTrip(tripID, "")
		return "", false
	}

	idx := sort.Search(len(rows), func(i int) bool { return rows[i].ArrivalTime >= firstArrivalOffset })

	var best scheduleRow
	switch {
	case idx == 0:
		best = rows[0]
	case idx == len(rows):
		best = rows[len(rows)-1]
	default:
		before := rows[idx-1]
		after := rows[idx]
		if after.ArrivalTime-firstArrivalOffset < firstArrivalOffset-before.ArrivalTime {
			best = after
		} else {
			best = before
		}
	}

	a.memoizeScheduledTrip(tripID, best.TripID)
	return best.TripID, true
}

func (a *Archive) memoizeScheduledTrip(tripID, scheduledTripID string) {
	a.mu.Lock()
	a.scheduledTripIDs[tripID] = scheduledTripID
	a.mu.Unlock()
}

// ScheduledTT looks up the scheduled travel time (seconds from trip start)
// for an exact (route, direction, stop, scheduled trip_id) match. ok is
// false if the scheduled trip never serves that stop.
func (a *Archive) ScheduledTT(routeID, directionID, stopID, scheduledTripID string) (seconds int, ok bool) {
	rows := a.rows(routeID, directionID, stopID)
	for _, row := range rows {
		if row.TripID == scheduledTripID {
			return int(row.ScheduledTT.Seconds()), true
		}
	}
	return 0, false
}

// TripsByRoute returns every trip scheduled on a route for this archive's
// service date.
func (a *Archive) TripsByRoute(routeID string) []Trip {
	return a.tripsByRoute[routeID]
}

// Stops returns the full stops.txt table.
func (a *Archive) Stops() []Stop {
	return a.stops
}

func (a *Archive) String() string {
	return fmt.Sprintf("Archive(service_date=%s, trips=%d, stop_times=%d)",
		a.ServiceDate.Format("2006-01-02"), len(a.trips), len(a.stopTimes))
}
