// Package scheduledate implements the transit operating-day calendar and
// the output path layout that derives from it. Transit agencies run a
// "service day" that doesn't reset at midnight: a Red Line train still
// running at 1 AM belongs to the previous calendar day's schedule.
package scheduledate

import (
	"fmt"
	"sync"
	"time"

	"github.com/transit-ingest/gobble/internal/catalog"
)

// DefaultLocation is the timezone MBTA's service day rolls over in.
var DefaultLocation = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("scheduledate: %v", err))
	}
	return loc
}

// rolloverHour is the local hour before which a timestamp still belongs to
// the previous service date.
const rolloverHour = 3

// ServiceDate returns the operating day t belongs to, in loc. A timestamp
// between local midnight and 03:00 belongs to the previous calendar date.
func ServiceDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	if local.Hour() < rolloverHour {
		local = local.AddDate(0, 0, -1)
	}
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ToDateint renders a service date as an MBTA-style integer, e.g. 20220615.
func ToDateint(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// currentServiceDateCache caches CurrentServiceDate's result per wall-clock
// hour, avoiding a timezone conversion on every call from a hot polling loop.
type currentServiceDateCache struct {
	mu   sync.Mutex
	hour int
	date time.Time
	loc  *time.Location
}

var defaultCache = &currentServiceDateCache{loc: DefaultLocation}

// CurrentServiceDate returns the service date that now() falls in, using
// DefaultLocation, caching the result until the wall-clock hour changes.
func CurrentServiceDate() time.Time {
	return defaultCache.get()
}

func (c *currentServiceDateCache) get() time.Time {
	now := time.Now().In(c.loc)
	c.mu.Lock()
	defer c.mu.Unlock()
	if now.Hour() != c.hour || c.date.IsZero() {
		c.hour = now.Hour()
		c.date = ServiceDate(now, c.loc)
	}
	return c.date
}

// OutputDirPath returns the directory an event for the given route,
// direction, stop, and service date belongs in. The layout differs by
// mode: commuter rail groups by route+direction+stop joined with "_", rapid
// transit groups by stop alone, and bus groups by route+direction+stop
// joined with "-".
func OutputDirPath(routeID, directionID, stopID string, serviceDate time.Time, mode catalog.Mode) string {
	var modeDir, stopPath string
	switch mode {
	case catalog.ModeCR:
		modeDir = "daily-cr-data"
		stopPath = fmt.Sprintf("%s_%s_%s", routeID, directionID, stopID)
	case catalog.ModeRapid:
		modeDir = "daily-rapid-data"
		stopPath = stopID
	default:
		modeDir = "daily-bus-data"
		stopPath = fmt.Sprintf("%s-%s-%s", routeID, directionID, stopID)
	}

	return fmt.Sprintf("%s/%s/Year=%d/Month=%d/Day=%d",
		modeDir, stopPath, serviceDate.Year(), int(serviceDate.Month()), serviceDate.Day())
}
