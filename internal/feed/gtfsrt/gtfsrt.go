// Package gtfsrt polls a GTFS-RT VehiclePositions feed over HTTP, decodes
// it with the MobilityData protobuf bindings, and de-duplicates updates so
// only meaningful position changes reach the detector.
package gtfsrt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"reflect"
	"time"

	gtfs "github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/proto"

	"github.com/transit-ingest/gobble/internal/feed"
	"github.com/transit-ingest/gobble/internal/metrics"
)

// APIKeyMethod selects how the feed's API key is attached to requests.
type APIKeyMethod string

const (
	APIKeyMethodHeader APIKeyMethod = "header"
	APIKeyMethodBearer APIKeyMethod = "bearer"
	APIKeyMethodQuery  APIKeyMethod = "query"
	APIKeyMethodNone   APIKeyMethod = "none"
)

const (
	defaultPollingInterval = 10 * time.Second
	defaultTimeout         = 30 * time.Second
	backoffTimeout         = 300 * time.Second
	defaultAPIKeyParamName = "X-API-KEY"
)

// vehicleStopStatus maps the GTFS-RT VehicleStopStatus enum to its string
// form; convertVehicle defaults CurrentStatus to "IN_TRANSIT_TO" when the
// field is absent.
var vehicleStopStatus = map[int32]string{
	0: "INCOMING_AT",
	1: "STOPPED_AT",
	2: "IN_TRANSIT_TO",
}

// occupancyStatus maps the GTFS-RT OccupancyStatus enum to its string form.
var occupancyStatus = map[int32]string{
	0: "EMPTY",
	1: "MANY_SEATS_AVAILABLE",
	2: "FEW_SEATS_AVAILABLE",
	3: "STANDING_ROOM_ONLY",
	4: "CRUSHED_STANDING_ROOM_ONLY",
	5: "FULL",
	6: "NOT_ACCEPTING_PASSENGERS",
	7: "NO_DATA_AVAILABLE",
	8: "NOT_BOARDABLE",
}

// Config configures a polling Client.
type Config struct {
	FeedURL         string
	APIKey          string
	APIKeyMethod    APIKeyMethod // default APIKeyMethodHeader
	APIKeyParamName string       // default "X-API-KEY"
	PollingInterval time.Duration
	// Routes restricts emitted updates to this set; empty means no filter.
	// The feed itself always carries every vehicle in the agency, so each
	// worker's Client filters down to the routes it owns.
	Routes []string
}

// Client polls a GTFS-RT feed on an interval and emits de-duplicated
// VehicleUpdates. It implements feed.Source.
type Client struct {
	feedURL         string
	pollingInterval time.Duration
	headers         http.Header
	httpClient      *http.Client
	limiter         *rate.Limiter
	routes          map[string]struct{} // nil means unfiltered

	// previous holds, per trip id, the fields compared for de-duplication.
	// Owned by the single goroutine running Updates; no mutex needed.
	previous map[string]cachedUpdate
}

type cachedUpdate struct {
	stopID              string
	currentStatus       string
	currentStopSequence int
	occupancyStatus     string
	carriages           []feed.Carriage
}

// New builds a Client from cfg, resolving defaults and pre-computing the
// authenticated feed URL and headers once.
func New(cfg Config) (*Client, error) {
	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("gtfsrt: FeedURL must be set")
	}
	paramName := cfg.APIKeyParamName
	if paramName == "" {
		paramName = defaultAPIKeyParamName
	}
	interval := cfg.PollingInterval
	if interval <= 0 {
		interval = defaultPollingInterval
	}
	method := cfg.APIKeyMethod
	if method == "" {
		method = APIKeyMethodHeader
	}

	feedURL, err := buildAuthenticatedURL(cfg.FeedURL, method, paramName, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("gtfsrt: building feed URL: %w", err)
	}

	headers := http.Header{}
	if cfg.APIKey != "" {
		switch method {
		case APIKeyMethodHeader:
			headers.Set(paramName, cfg.APIKey)
		case APIKeyMethodBearer:
			headers.Set("Authorization", "Bearer "+cfg.APIKey)
		}
	}

	var routes map[string]struct{}
	if len(cfg.Routes) > 0 {
		routes = make(map[string]struct{}, len(cfg.Routes))
		for _, r := range cfg.Routes {
			routes[r] = struct{}{}
		}
	}

	return &Client{
		feedURL:         feedURL,
		pollingInterval: interval,
		headers:         headers,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		limiter:         rate.NewLimiter(rate.Every(interval), 1),
		routes:          routes,
		previous:        make(map[string]cachedUpdate),
	}, nil
}

// buildAuthenticatedURL adds the API key as a query parameter when method is
// APIKeyMethodQuery, preserving any query parameters the feed URL already
// carries. Header and bearer authentication are applied via request headers
// instead, so the URL is returned unchanged for those methods.
func buildAuthenticatedURL(feedURL string, method APIKeyMethod, paramName, apiKey string) (string, error) {
	if method != APIKeyMethodQuery || apiKey == "" {
		return feedURL, nil
	}
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return "", err
	}
	q := parsed.Query()
	q.Set(paramName, apiKey)
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// Updates starts the polling loop and returns the channel it emits
// de-duplicated VehicleUpdates on. The channel closes when ctx is canceled.
func (c *Client) Updates(ctx context.Context) <-chan feed.VehicleUpdate {
	out := make(chan feed.VehicleUpdate)

	go func() {
		defer close(out)

		c.pollOnce(ctx, out)

		ticker := time.NewTicker(c.pollingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.pollOnce(ctx, out)
			}
		}
	}()

	return out
}

// Close is a no-op: the underlying http.Client owns no resources that
// outlive a request.
func (c *Client) Close() error { return nil }

func (c *Client) pollOnce(ctx context.Context, out chan<- feed.VehicleUpdate) {
	msg, err := c.fetch(ctx)
	if err != nil {
		// On a request timeout, widen the client's timeout for the next
		// cycle rather than retrying immediately.
		if ctx.Err() == nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				c.httpClient.Timeout = backoffTimeout
			}
			metrics.Reconnects.WithLabelValues("gtfsrt").Inc()
		}
		return
	}
	c.httpClient.Timeout = defaultTimeout

	seen := make(map[string]struct{}, len(msg.Entity))
	for _, entity := range msg.Entity {
		upd, ok := convertVehicle(entity)
		if !ok {
			continue
		}
		if c.routes != nil {
			if _, inScope := c.routes[upd.RouteID]; !inScope {
				continue
			}
		}
		seen[upd.TripID] = struct{}{}

		next := cachedUpdate{
			stopID:              upd.StopID,
			currentStatus:       upd.CurrentStatus,
			currentStopSequence: upd.CurrentStopSequence,
			occupancyStatus:     upd.OccupancyStatus,
			carriages:           upd.Carriages,
		}
		if prev, ok := c.previous[upd.TripID]; !ok || positionChanged(prev, next) {
			select {
			case out <- upd:
			case <-ctx.Done():
				return
			}
		}
		c.previous[upd.TripID] = next
	}

	for tripID := range c.previous {
		if _, ok := seen[tripID]; !ok {
			delete(c.previous, tripID)
		}
	}
}

// positionChanged reports whether a meaningful field differs between polls,
// in the same field order as the Python reference this is ported from:
// stop id, current status, stop sequence, occupancy status, carriages.
func positionChanged(prev, next cachedUpdate) bool {
	if prev.stopID != next.stopID {
		return true
	}
	if prev.currentStatus != next.currentStatus {
		return true
	}
	if prev.currentStopSequence != next.currentStopSequence {
		return true
	}
	if prev.occupancyStatus != next.occupancyStatus {
		return true
	}
	return !reflect.DeepEqual(prev.carriages, next.carriages)
}

func (c *Client) fetch(ctx context.Context) (*gtfs.FeedMessage, error) {
	// Gates how often the feed is actually hit, so fetches never run
	// faster than PollingInterval.
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtfsrt: feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	msg := &gtfs.FeedMessage{}
	if err := proto.Unmarshal(body, msg); err != nil {
		metrics.UpdatesDropped.WithLabelValues(metrics.ReasonParseError).Inc()
		return nil, fmt.Errorf("gtfsrt: parsing protobuf: %w", err)
	}
	return msg, nil
}

// convertVehicle turns one feed entity into a VehicleUpdate. It reports
// false for entities with no vehicle, or missing trip_id/route_id.
func convertVehicle(entity *gtfs.FeedEntity) (feed.VehicleUpdate, bool) {
	if entity.Vehicle == nil {
		return feed.VehicleUpdate{}, false
	}
	v := entity.Vehicle

	var tripID, routeID, directionID string
	if v.Trip != nil {
		if v.Trip.TripId != nil {
			tripID = *v.Trip.TripId
		}
		if v.Trip.RouteId != nil {
			routeID = *v.Trip.RouteId
		}
		if v.Trip.DirectionId != nil {
			directionID = fmt.Sprintf("%d", *v.Trip.DirectionId)
		}
	}
	if tripID == "" || routeID == "" {
		return feed.VehicleUpdate{}, false
	}

	upd := feed.VehicleUpdate{
		TripID:        tripID,
		RouteID:       routeID,
		DirectionID:   directionID,
		CurrentStatus: "IN_TRANSIT_TO",
		UpdatedAt:     time.Now().UTC(),
	}

	if v.StopId != nil {
		upd.StopID = *v.StopId
	}
	if v.CurrentStatus != nil {
		if s, ok := vehicleStopStatus[int32(*v.CurrentStatus)]; ok {
			upd.CurrentStatus = s
		}
	}
	if v.CurrentStopSequence != nil {
		upd.CurrentStopSequence = int(*v.CurrentStopSequence)
	}
	if v.Timestamp != nil {
		upd.UpdatedAt = time.Unix(int64(*v.Timestamp), 0).UTC()
	}
	if v.Vehicle != nil {
		if v.Vehicle.Id != nil {
			upd.VehicleID = *v.Vehicle.Id
		}
		if v.Vehicle.Label != nil {
			upd.VehicleLabel = *v.Vehicle.Label
		} else {
			upd.VehicleLabel = upd.VehicleID
		}
	}
	if v.OccupancyStatus != nil {
		if s, ok := occupancyStatus[int32(*v.OccupancyStatus)]; ok {
			upd.OccupancyStatus = s
		} else {
			upd.OccupancyStatus = "NO_DATA_AVAILABLE"
		}
	}
	if v.OccupancyPercentage != nil {
		pct := int(*v.OccupancyPercentage)
		upd.OccupancyPercentage = &pct
	}

	for _, carriage := range v.MultiCarriageDetails {
		c := feed.Carriage{}
		if carriage.Id != nil {
			c.ID = *carriage.Id
		}
		if carriage.Label != nil {
			c.Label = *carriage.Label
		}
		if carriage.OccupancyStatus != nil {
			if s, ok := occupancyStatus[int32(*carriage.OccupancyStatus)]; ok {
				c.OccupancyStatus = s
			} else {
				c.OccupancyStatus = "NO_DATA_AVAILABLE"
			}
		}
		if carriage.OccupancyPercentage != nil && *carriage.OccupancyPercentage >= 0 {
			pct := int(*carriage.OccupancyPercentage)
			c.OccupancyPercentage = &pct
		}
		upd.Carriages = append(upd.Carriages, c)
	}

	return upd, true
}
