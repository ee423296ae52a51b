// Package catalog holds per-agency route and stop tables used to classify
// an incoming vehicle update as commuter rail, rapid transit, or bus, and
// (for bus) to filter which stops are worth tracking at all.
package catalog

import "fmt"

// Mode is one of the three service tiers gobble partitions output by.
type Mode string

const (
	ModeCR    Mode = "cr"
	ModeRapid Mode = "rapid"
	ModeBus   Mode = "bus"
)

// Catalog is the classifier for one agency: which routes exist, which mode
// each belongs to, and (for bus routes) which stops are in scope.
type Catalog struct {
	routesCR    map[string]struct{}
	routesRapid map[string]struct{}
	routesBus   map[string]struct{}
	busStops    map[string]map[string]struct{}
	allRoutes   map[string]struct{}
}

func stopSet(stops ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(stops))
	for _, stop := range stops {
		s[stop] = struct{}{}
	}
	return s
}

func toSet(items ...string) map[string]struct{} {
	return stopSet(items...)
}

// New builds a Catalog from its three route tiers and a bus stop allow-list.
// It returns an error if a route_id appears in more than one tier, since the
// data model requires ROUTES_CR, ROUTES_RAPID, and ROUTES_BUS to be disjoint.
func New(routesCR, routesRapid []string, busStops map[string]map[string]struct{}) (*Catalog, error) {
	c := &Catalog{
		routesCR:    toSet(routesCR...),
		routesRapid: toSet(routesRapid...),
		routesBus:   make(map[string]struct{}, len(busStops)),
		busStops:    make(map[string]map[string]struct{}, len(busStops)),
		allRoutes:   make(map[string]struct{}),
	}

	for route, stops := range busStops {
		c.routesBus[route] = struct{}{}
		c.busStops[route] = stops
	}

	for route := range c.routesCR {
		if _, dup := c.allRoutes[route]; dup {
			return nil, fmt.Errorf("catalog: route %q listed in more than one tier", route)
		}
		c.allRoutes[route] = struct{}{}
	}
	for route := range c.routesRapid {
		if _, dup := c.allRoutes[route]; dup {
			return nil, fmt.Errorf("catalog: route %q listed in more than one tier", route)
		}
		c.allRoutes[route] = struct{}{}
	}
	for route := range c.routesBus {
		if _, dup := c.allRoutes[route]; dup {
			return nil, fmt.Errorf("catalog: route %q listed in more than one tier", route)
		}
		c.allRoutes[route] = struct{}{}
	}

	return c, nil
}

// Classify reports which mode a route belongs to. ok is false for an
// unrecognized route_id, which callers must reject at config time rather
// than silently drop at runtime.
func (c *Catalog) Classify(routeID string) (mode Mode, ok bool) {
	if _, found := c.routesCR[routeID]; found {
		return ModeCR, true
	}
	if _, found := c.routesRapid[routeID]; found {
		return ModeRapid, true
	}
	if _, found := c.routesBus[routeID]; found {
		return ModeBus, true
	}
	return "", false
}

// InScope reports whether a stop on a route should be tracked at all.
// Commuter rail and rapid transit routes track every stop; bus routes only
// track stops in their allow-list.
func (c *Catalog) InScope(routeID, stopID string) bool {
	mode, ok := c.Classify(routeID)
	if !ok {
		return false
	}
	if mode != ModeBus {
		return true
	}
	stops, ok := c.busStops[routeID]
	if !ok {
		return false
	}
	_, in := stops[stopID]
	return in
}

// RoutesForMode returns the route_ids belonging to a single mode in map
// iteration order; the result is not sorted and its order can differ
// between calls.
func (c *Catalog) RoutesForMode(mode Mode) []string {
	var set map[string]struct{}
	switch mode {
	case ModeCR:
		set = c.routesCR
	case ModeRapid:
		set = c.routesRapid
	case ModeBus:
		set = c.routesBus
	}
	routes := make([]string, 0, len(set))
	for r := range set {
		routes = append(routes, r)
	}
	return routes
}

// AllRoutes returns every route_id known to the catalog, across all modes.
func (c *Catalog) AllRoutes() []string {
	routes := make([]string, 0, len(c.allRoutes))
	for r := range c.allRoutes {
		routes = append(routes, r)
	}
	return routes
}

// ForAgency returns the catalog registered for the given agency name, or
// ok=false for an unrecognized one. Config loading must reject an unknown
// agency at startup rather than treat it as a runtime condition.
func ForAgency(name string) (cat *Catalog, ok bool) {
	switch name {
	case "mbta":
		return MBTA(), true
	case "ctdot":
		return CTDOT(), true
	case "lirr":
		return LIRR(), true
	case "metra":
		return Metra(), true
	case "nycsubway":
		return NYCSubway(), true
	case "septa_regional_rail":
		return SEPTARegionalRail(), true
	case "wmata_rail":
		return WMATARail(), true
	default:
		return nil, false
	}
}

// MBTA returns the production MBTA catalog: the commuter rail lines, rapid
// transit lines, and bus routes (with their stop allow-lists) this system
// was originally built to track.
func MBTA() *Catalog {
	c, err := New(mbtaRoutesCR, mbtaRoutesRapid, busStops)
	if err != nil {
		// The baked-in MBTA tables are a build-time invariant, not a
		// runtime config error.
		panic(err)
	}
	return c
}

var mbtaRoutesCR = []string{
	"CR-Fairmount",
	"CR-Fitchburg",
	"CR-Foxboro",
	"CR-Franklin",
	"CR-Greenbush",
	"CR-Haverhill",
	"CR-Kingston",
	"CR-Lowell",
	"CR-Middleborough",
	"CR-Needham",
	"CR-Newburyport",
	"CR-Providence",
	"CR-Worcester",
}

var mbtaRoutesRapid = []string{
	"Red",
	"Blue",
	"Orange",
	"Green-B",
	"Green-C",
	"Green-D",
	"Green-E",
}

// Catalogs below are ported verbatim (route IDs and bus stop allow-lists)
// from this system's per-agency `src/agencies/*_routes.py` tables; most of
// these agencies have no bus allow-list at all, in which case busStops is
// nil and ROUTES_BUS is empty.

// CTDOT returns the Connecticut DOT (Hartford Line) rail catalog.
func CTDOT() *Catalog {
	c, err := New([]string{"HART"}, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// LIRR returns the Long Island Rail Road branch catalog. LIRR's route_ids
// are the numeric branch codes GTFS assigns them, not branch names.
func LIRR() *Catalog {
	c, err := New([]string{
		"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13",
	}, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// Metra returns the Chicago Metra line catalog.
func Metra() *Catalog {
	c, err := New([]string{
		"BNSF", "HC", "MD-N", "MD-W", "ME", "NCS", "RI", "SWS", "UP-N", "UP-NW", "UP-W",
	}, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// NYCSubway returns the New York City Subway line catalog. "SI" (the
// Staten Island Railway) is classified as commuter rail, matching the
// source agency table; the numbered/lettered subway lines and their
// express/shuttle variants are rapid transit.
func NYCSubway() *Catalog {
	c, err := New([]string{"SI"}, []string{
		"1", "2", "3", "4", "5", "6", "6X", "7", "7X",
		"A", "B", "C", "D", "E", "F", "FS", "FX", "G", "GS", "H",
		"J", "L", "M", "N", "Q", "R", "W", "Z",
	}, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// SEPTARegionalRail returns the SEPTA Regional Rail line catalog.
func SEPTARegionalRail() *Catalog {
	c, err := New([]string{
		"AIR", "CHE", "CHW", "CYN", "FOX", "LAN", "MED", "NOR", "PAO", "Trenton", "WAR", "WIL", "WTR",
	}, nil, nil)
	if err != nil {
		panic(err)
	}
	return c
}

// WMATARail returns the Washington Metro rail catalog, including the
// agency's one bus allow-list entry: the "SHUTTLE" route connecting rail
// stations, tracked at its three monitored platforms.
func WMATARail() *Catalog {
	c, err := New(nil, []string{
		"BLUE", "GREEN", "ORANGE", "RED", "SILVER", "YELLOW",
	}, map[string]map[string]struct{}{
		"SHUTTLE": stopSet("PF_E08_1", "PF_E09_C", "PF_E10_C"),
	})
	if err != nil {
		panic(err)
	}
	return c
}
